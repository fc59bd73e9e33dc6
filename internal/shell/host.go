// Package shell implements the surface host protocol spoken by the webview
// shell process over a websocket. While no shell is connected, surface calls
// go to a fallback host.
package shell

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

const (
	outboundBuffer = 128
	inboundBuffer  = 256
	writeTimeout   = 5 * time.Second
	readLimit      = 1 << 20
	messageTimeout = 10 * time.Second
)

var (
	ErrBacklog        = errors.New("shell command backlog full")
	errInboundBacklog = errors.New("shell message backlog full")
)

// Surfaces is the surface host contract shared with the fallback.
type Surfaces interface {
	Create(id string, role types.SurfaceRole, url string, opts types.SurfaceOptions) error
	Show(id string) error
	Focus(id string) error
	Hide(id string) error
	Destroy(id string) error
	SetBounds(id string, bounds types.Rect) error
	Navigate(id, url string) error
	Reload(id string) error
	Send(id, channel string, payload any) error
	ShowDialog(dialog types.Dialog) error
}

// EventSink receives what the shell reports.
type EventSink interface {
	HandleSurfaceEvent(ev types.SurfaceEvent)
	SetDisplays(displays []types.Display)
	HostReset()
	HandleMessage(ctx context.Context, channel string, payload json.RawMessage) (any, error)
}

type session struct {
	id       int
	conn     *websocket.Conn
	outbound chan types.ShellCommand
	inbound  chan types.ShellFrame
	done     chan struct{}
	once     sync.Once
}

func (s *session) close() {
	s.once.Do(func() { close(s.done) })
}

type Host struct {
	mu       sync.Mutex
	current  *session
	nextID   int
	fallback Surfaces
	sink     EventSink
	logger   logging.Logger
}

func NewHost(fallback Surfaces, logger logging.Logger) *Host {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Host{fallback: fallback, logger: logger}
}

// SetSink wires the receiver of shell events. It must be called before
// Serve accepts a connection.
func (h *Host) SetSink(sink EventSink) {
	h.mu.Lock()
	h.sink = sink
	h.mu.Unlock()
}

func (h *Host) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}

// Serve upgrades the request and runs the shell session until either side
// closes it. A new shell replaces the previous one.
func (h *Host) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("shell_accept_failed", logging.F("error", err))
		return
	}
	conn.SetReadLimit(readLimit)
	s := &session{
		conn:     conn,
		outbound: make(chan types.ShellCommand, outboundBuffer),
		inbound:  make(chan types.ShellFrame, inboundBuffer),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	h.nextID++
	s.id = h.nextID
	previous := h.current
	h.current = s
	sink := h.sink
	h.mu.Unlock()

	if previous != nil {
		previous.close()
		_ = previous.conn.Close(websocket.StatusGoingAway, "replaced by a new shell")
	}
	h.logger.Info("shell_connected", logging.F("session", s.id), logging.F("remote", r.RemoteAddr))
	if sink != nil {
		sink.HostReset()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writeLoop(ctx, s)
	go h.messageLoop(ctx, s)
	err = h.readLoop(ctx, s)

	h.mu.Lock()
	active := h.current == s
	if active {
		h.current = nil
	}
	h.mu.Unlock()
	s.close()
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		h.logger.Info("shell_disconnected", logging.F("session", s.id))
	} else {
		h.logger.Warn("shell_disconnected", logging.F("session", s.id), logging.F("error", err))
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
	if active && sink != nil {
		sink.HostReset()
	}
}

func (h *Host) readLoop(ctx context.Context, s *session) error {
	for {
		var frame types.ShellFrame
		if err := wsjson.Read(ctx, s.conn, &frame); err != nil {
			return err
		}
		h.handleFrame(ctx, s, frame)
	}
}

func (h *Host) handleFrame(ctx context.Context, s *session, frame types.ShellFrame) {
	h.mu.Lock()
	sink := h.sink
	h.mu.Unlock()
	if sink == nil {
		return
	}
	switch frame.Type {
	case types.ShellHello:
		h.logger.Info("shell_hello", logging.F("session", s.id), logging.F("version", frame.Version))
	case types.ShellSurfaceEvent:
		if frame.Event != nil {
			sink.HandleSurfaceEvent(*frame.Event)
		}
	case types.ShellDisplays:
		sink.SetDisplays(frame.Displays)
	case types.ShellMessage:
		h.queueMessage(s, frame)
	default:
		h.logger.Debug("shell_frame_unknown", logging.F("type", frame.Type))
	}
}

// queueMessage hands frame to the session's message worker without
// blocking the read loop. Messages are answered in arrival order.
func (h *Host) queueMessage(s *session, frame types.ShellFrame) {
	select {
	case s.inbound <- frame:
		return
	default:
	}
	h.logger.Warn("shell_message_dropped", logging.F("session", s.id), logging.F("channel", frame.Channel))
	if frame.RequestID != "" {
		_ = h.enqueue(s, types.ShellCommand{
			Type:      types.ShellReply,
			RequestID: frame.RequestID,
			SurfaceID: frame.SurfaceID,
			Error:     errInboundBacklog.Error(),
		})
	}
}

// messageLoop is the single consumer of a session's messages.
func (h *Host) messageLoop(ctx context.Context, s *session) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case frame := <-s.inbound:
			h.mu.Lock()
			sink := h.sink
			h.mu.Unlock()
			if sink != nil {
				h.answer(ctx, s, sink, frame)
			}
		}
	}
}

// answer routes a message from surface content and replies when the shell
// asked for one.
func (h *Host) answer(ctx context.Context, s *session, sink EventSink, frame types.ShellFrame) {
	msgCtx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()
	result, err := sink.HandleMessage(msgCtx, frame.Channel, frame.Payload)
	if frame.RequestID == "" {
		if err != nil {
			h.logger.Debug("shell_message_failed", logging.F("channel", frame.Channel), logging.F("error", err))
		}
		return
	}
	reply := types.ShellCommand{Type: types.ShellReply, RequestID: frame.RequestID, SurfaceID: frame.SurfaceID}
	if err != nil {
		reply.Error = err.Error()
	} else {
		data, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			reply.Error = marshalErr.Error()
		} else {
			reply.Result = data
		}
	}
	h.enqueue(s, reply)
}

func (h *Host) writeLoop(ctx context.Context, s *session) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case cmd := <-s.outbound:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, s.conn, cmd)
			cancel()
			if err != nil {
				h.logger.Warn("shell_write_failed", logging.F("type", cmd.Type), logging.F("error", err))
				_ = s.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (h *Host) enqueue(s *session, cmd types.ShellCommand) error {
	select {
	case <-s.done:
		return errors.New("shell session closed")
	default:
	}
	select {
	case s.outbound <- cmd:
		return nil
	default:
		return ErrBacklog
	}
}

// dispatch sends cmd to the connected shell, or runs fallback when there is
// none.
func (h *Host) dispatch(cmd types.ShellCommand, fallback func(Surfaces) error) error {
	h.mu.Lock()
	s := h.current
	h.mu.Unlock()
	if s != nil {
		return h.enqueue(s, cmd)
	}
	if h.fallback == nil {
		return nil
	}
	return fallback(h.fallback)
}

func (h *Host) Create(id string, role types.SurfaceRole, url string, opts types.SurfaceOptions) error {
	cmd := types.ShellCommand{Type: types.ShellSurfaceCreate, SurfaceID: id, Role: role, URL: url, Options: &opts}
	return h.dispatch(cmd, func(f Surfaces) error { return f.Create(id, role, url, opts) })
}

func (h *Host) Show(id string) error {
	cmd := types.ShellCommand{Type: types.ShellSurfaceShow, SurfaceID: id}
	return h.dispatch(cmd, func(f Surfaces) error { return f.Show(id) })
}

func (h *Host) Focus(id string) error {
	cmd := types.ShellCommand{Type: types.ShellSurfaceFocus, SurfaceID: id}
	return h.dispatch(cmd, func(f Surfaces) error { return f.Focus(id) })
}

func (h *Host) Hide(id string) error {
	cmd := types.ShellCommand{Type: types.ShellSurfaceHide, SurfaceID: id}
	return h.dispatch(cmd, func(f Surfaces) error { return f.Hide(id) })
}

func (h *Host) Destroy(id string) error {
	cmd := types.ShellCommand{Type: types.ShellSurfaceDestroy, SurfaceID: id}
	return h.dispatch(cmd, func(f Surfaces) error { return f.Destroy(id) })
}

func (h *Host) SetBounds(id string, bounds types.Rect) error {
	cmd := types.ShellCommand{Type: types.ShellSurfaceBounds, SurfaceID: id, Bounds: &bounds}
	return h.dispatch(cmd, func(f Surfaces) error { return f.SetBounds(id, bounds) })
}

func (h *Host) Navigate(id, url string) error {
	cmd := types.ShellCommand{Type: types.ShellSurfaceNavigate, SurfaceID: id, URL: url}
	return h.dispatch(cmd, func(f Surfaces) error { return f.Navigate(id, url) })
}

func (h *Host) Reload(id string) error {
	cmd := types.ShellCommand{Type: types.ShellSurfaceReload, SurfaceID: id}
	return h.dispatch(cmd, func(f Surfaces) error { return f.Reload(id) })
}

func (h *Host) Send(id, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	cmd := types.ShellCommand{Type: types.ShellSurfaceSend, SurfaceID: id, Channel: channel, Payload: data}
	return h.dispatch(cmd, func(f Surfaces) error { return f.Send(id, channel, payload) })
}

func (h *Host) ShowDialog(dialog types.Dialog) error {
	cmd := types.ShellCommand{Type: types.ShellDialog, Dialog: &dialog}
	return h.dispatch(cmd, func(f Surfaces) error { return f.ShowDialog(dialog) })
}
