package daemon

import (
	"encoding/json"
	"net/http"
	"strings"

	"casenotify/internal/logging"
)

// Messages accepts {"channel": ..., "payload": ...}.
func (a *API) Messages(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	var req MessageRequest
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}
	a.routeMessage(w, r, req.Channel, req.Payload)
}

// MessageByChannel takes the channel from the path and the payload as the
// whole body.
func (a *API) MessageByChannel(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	channel := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/messages/"), "/")
	if channel == "" || strings.Contains(channel, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	payload, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	a.routeMessage(w, r, channel, payload)
}

func (a *API) routeMessage(w http.ResponseWriter, r *http.Request, channel string, payload json.RawMessage) {
	if a.Controller == nil {
		writeError(w, http.StatusServiceUnavailable, "controller not available")
		return
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		writeError(w, http.StatusBadRequest, "channel is required")
		return
	}
	result, err := a.Controller.HandleMessage(r.Context(), channel, payload)
	if err != nil {
		a.logger().Debug("message_failed", logging.F("channel", channel), logging.F("error", err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Channel: channel, Result: result})
}
