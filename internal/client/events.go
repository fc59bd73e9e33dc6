package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const eventReadLimit = 1 << 20

// Event is one frame from the daemon's event stream. Payload is decoded by
// the caller according to Type.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (e Event) Decode(out any) error {
	if len(e.Payload) == 0 {
		return errors.New("event has no payload")
	}
	return json.Unmarshal(e.Payload, out)
}

// Subscribe opens the event stream. The first frames carry the current
// state; later frames follow every change. The returned channel closes when
// ctx ends or the connection drops, and the error channel then carries the
// reason unless ctx was cancelled.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, <-chan error, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, nil, err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.Dial(ctx, c.baseURL+"/v1/events", &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, nil, err
	}
	conn.SetReadLimit(eventReadLimit)

	events := make(chan Event, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(events)
		defer close(errs)
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			var ev Event
			if err := wsjson.Read(ctx, conn, &ev); err != nil {
				if ctx.Err() == nil {
					errs <- err
				}
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, errs, nil
}
