package daemon

import "casenotify/internal/types"

// SurfaceHost realizes surfaces as OS windows. Calls are made from the event
// loop and must not block on the window system; results arrive later as
// SurfaceEvents.
type SurfaceHost interface {
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

// TrayPresenter renders a menu description into a platform tray.
type TrayPresenter interface {
	SetMenu(menu types.TrayMenu)
}

// EventPublisher fans events out to subscribers.
type EventPublisher interface {
	Publish(event types.Event)
}

type nopSurfaceHost struct{}

func (nopSurfaceHost) Create(string, types.SurfaceRole, string, types.SurfaceOptions) error {
	return nil
}
func (nopSurfaceHost) Show(string) error { return nil }
func (nopSurfaceHost) Focus(string) error { return nil }
func (nopSurfaceHost) Hide(string) error { return nil }
func (nopSurfaceHost) Destroy(string) error { return nil }
func (nopSurfaceHost) SetBounds(string, types.Rect) error { return nil }
func (nopSurfaceHost) Navigate(string, string) error { return nil }
func (nopSurfaceHost) Reload(string) error { return nil }
func (nopSurfaceHost) Send(string, string, any) error { return nil }
func (nopSurfaceHost) ShowDialog(types.Dialog) error { return nil }

type nopTrayPresenter struct{}

func (nopTrayPresenter) SetMenu(types.TrayMenu) {}

type nopEventPublisher struct{}

func (nopEventPublisher) Publish(types.Event) {}
