package daemon

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

const eventWriteTimeout = 5 * time.Second

// Events streams controller events over a websocket. A subscriber first
// receives the current state, pill summary, tray menu and update state, then
// every change as it is published. Frames a slow subscriber cannot take are
// dropped.
func (a *API) Events(w http.ResponseWriter, r *http.Request) {
	if a.Controller == nil || a.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, "events not available")
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		a.logger().Warn("events_accept_failed", logging.F("error", err))
		return
	}
	events, unsubscribe := a.Hub.Subscribe(0)
	defer unsubscribe()

	ctx := conn.CloseRead(r.Context())
	initial, err := a.Controller.Snapshot(ctx)
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "controller not running")
		return
	}
	for _, ev := range initial {
		if err := writeEvent(ctx, conn, ev); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "daemon stopping")
				return
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				a.logger().Debug("events_write_failed", logging.F("error", err))
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev types.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, ev)
}

// ShellSocket is where the webview shell connects.
func (a *API) ShellSocket(w http.ResponseWriter, r *http.Request) {
	if a.Shell == nil {
		writeError(w, http.StatusServiceUnavailable, "shell host not available")
		return
	}
	a.Shell.Serve(w, r)
}
