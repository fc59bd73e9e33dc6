package daemon

import (
	"net/http"
	"os"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"ok":      true,
		"version": a.Version,
		"pid":     os.Getpid(),
	}
	if a.Shell != nil {
		body["shell_connected"] = a.Shell.Connected()
	}
	if a.Hub != nil {
		body["subscribers"] = a.Hub.Subscribers()
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) Metrics(w http.ResponseWriter, r *http.Request) {
	if a.Controller == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not available")
		return
	}
	a.Controller.Metrics().Handler().ServeHTTP(w, r)
}
