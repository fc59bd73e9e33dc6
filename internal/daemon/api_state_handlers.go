package daemon

import (
	"context"
	"net/http"
)

func (a *API) State(w http.ResponseWriter, r *http.Request) {
	serveQuery(a, w, r, (*Controller).State)
}

func (a *API) Pill(w http.ResponseWriter, r *http.Request) {
	serveQuery(a, w, r, (*Controller).PillSummary)
}

func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	serveQuery(a, w, r, (*Controller).UpdateState)
}

func serveQuery[T any](a *API, w http.ResponseWriter, r *http.Request, fn func(*Controller, context.Context) (T, error)) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if a.Controller == nil {
		writeError(w, http.StatusServiceUnavailable, "controller not available")
		return
	}
	out, err := fn(a.Controller, r.Context())
	if err != nil {
		writeServiceError(w, unavailableError("controller not running", err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}
