package types

import "encoding/json"

type SurfaceRole string

const (
	SurfaceMain   SurfaceRole = "main"
	SurfacePill   SurfaceRole = "pill"
	SurfaceStatus SurfaceRole = "status"
	SurfaceChat   SurfaceRole = "chat"
)

type SurfaceEventKind string

const (
	SurfaceLoaded         SurfaceEventKind = "loaded"
	SurfaceLoadFailed     SurfaceEventKind = "load-failed"
	SurfaceCrashed        SurfaceEventKind = "crashed"
	SurfaceUnresponsive   SurfaceEventKind = "unresponsive"
	SurfaceCloseRequested SurfaceEventKind = "close-requested"
	SurfaceClosed         SurfaceEventKind = "closed"
	SurfaceMoved          SurfaceEventKind = "moved"
)

type SurfaceEvent struct {
	SurfaceID string           `json:"surfaceId"`
	Role      SurfaceRole      `json:"role"`
	Kind      SurfaceEventKind `json:"kind"`
	URL       string           `json:"url,omitempty"`
	X         *int             `json:"x,omitempty"`
	Y         *int             `json:"y,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type SurfaceOptions struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	X             *int   `json:"x,omitempty"`
	Y             *int   `json:"y,omitempty"`
	Title         string `json:"title,omitempty"`
	AlwaysOnTop   bool   `json:"alwaysOnTop,omitempty"`
	SkipTaskbar   bool   `json:"skipTaskbar,omitempty"`
	AllWorkspaces bool   `json:"allWorkspaces,omitempty"`
	Movable       bool   `json:"movable"`
	Resizable     bool   `json:"resizable"`
	Frameless     bool   `json:"frameless,omitempty"`
	Transparent   bool   `json:"transparent,omitempty"`
	Show          bool   `json:"show"`
}

type Display struct {
	ID       string `json:"id"`
	Primary  bool   `json:"primary"`
	WorkArea Rect   `json:"workArea"`
}

type DialogKind string

const (
	DialogInfo    DialogKind = "info"
	DialogWarning DialogKind = "warning"
	DialogError   DialogKind = "error"
)

type Dialog struct {
	Kind    DialogKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Detail  string     `json:"detail,omitempty"`
}

// Shell protocol frame types.
const (
	ShellSurfaceCreate   = "surface.create"
	ShellSurfaceShow     = "surface.show"
	ShellSurfaceFocus    = "surface.focus"
	ShellSurfaceHide     = "surface.hide"
	ShellSurfaceDestroy  = "surface.destroy"
	ShellSurfaceBounds   = "surface.bounds"
	ShellSurfaceNavigate = "surface.navigate"
	ShellSurfaceReload   = "surface.reload"
	ShellSurfaceSend     = "surface.send"
	ShellDialog          = "dialog"

	ShellSurfaceEvent = "surface.event"
	ShellDisplays     = "displays"
	ShellMessage      = "message"
	ShellReply        = "reply"
	ShellHello        = "hello"
)

// ShellCommand is sent from the controller to the shell.
type ShellCommand struct {
	Type      string          `json:"type"`
	SurfaceID string          `json:"surfaceId,omitempty"`
	Role      SurfaceRole     `json:"role,omitempty"`
	URL       string          `json:"url,omitempty"`
	Options   *SurfaceOptions `json:"options,omitempty"`
	Bounds    *Rect           `json:"bounds,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Dialog    *Dialog         `json:"dialog,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ShellFrame is sent from the shell to the controller.
type ShellFrame struct {
	Type      string          `json:"type"`
	Event     *SurfaceEvent   `json:"event,omitempty"`
	Displays  []Display       `json:"displays,omitempty"`
	SurfaceID string          `json:"surfaceId,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Version   string          `json:"version,omitempty"`
}
