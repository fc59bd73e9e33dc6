package daemon

import (
	"context"
	"encoding/json"

	"casenotify/internal/logging"
	"casenotify/internal/shell"
)

// API serves the controller over the loopback HTTP listener: message and
// tray endpoints for local tools, the event stream and the shell socket.
type API struct {
	Version    string
	Controller *Controller
	Hub        *EventHub
	Shell      *shell.Host
	Shutdown   func(context.Context) error
	Logger     logging.Logger
}

type MessageResponse struct {
	Channel string `json:"channel"`
	Result  any    `json:"result"`
}

type TrayActionResponse struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
}

// MessageRequest is the body accepted by POST /v1/messages when the channel
// is not part of the path.
type MessageRequest struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (a *API) logger() logging.Logger {
	if a.Logger == nil {
		return logging.Nop()
	}
	return a.Logger
}
