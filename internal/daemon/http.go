package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError answers with the kind's status. Only the public
// message of a ServiceError reaches the caller.
func writeServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	svcErr, ok := asServiceError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	message := svcErr.Message
	if message == "" {
		message = svcErr.Error()
	}
	writeError(w, svcErr.Kind.HTTPStatus(), message)
}

// readBody decodes an optional JSON body. An empty body yields nil.
func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	if r.Body == nil {
		return nil, nil
	}
	var raw json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}
