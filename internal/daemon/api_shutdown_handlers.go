package daemon

import (
	"context"
	"net/http"
	"time"

	"casenotify/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func (a *API) ShutdownDaemon(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if a.Shutdown == nil {
		writeError(w, http.StatusServiceUnavailable, "shutdown not available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			a.logger().Warn("shutdown_failed", logging.F("error", err))
		}
	}()
}
