package daemon

import (
	"net/http"
	"strings"
)

func (a *API) TrayMenu(w http.ResponseWriter, r *http.Request) {
	serveQuery(a, w, r, (*Controller).TrayMenu)
}

// TrayAction runs a menu item by id, as if it had been clicked.
func (a *API) TrayAction(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if a.Controller == nil {
		writeError(w, http.StatusServiceUnavailable, "controller not available")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/tray/actions/"), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := a.Controller.DispatchTrayAction(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TrayActionResponse{OK: true, Action: id})
}
