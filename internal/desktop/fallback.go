// Package desktop stands in for the shell when none is connected: content
// surfaces open in the default browser and pill traffic and dialogs become
// desktop notifications.
package desktop

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

const (
	appName       = "Case Portal"
	notifyTimeout = 5 * time.Second
	pillTag       = "casenotify-pill"
)

// EventSink receives the lifecycle events the fallback synthesizes.
type EventSink interface {
	HandleSurfaceEvent(ev types.SurfaceEvent)
}

type NotifySender interface {
	Notify(ctx context.Context, n Notification) error
}

type fallbackSurface struct {
	role types.SurfaceRole
	url  string
}

type Fallback struct {
	mu          sync.Mutex
	surfaces    map[string]*fallbackSurface
	open        URLOpener
	notifier    NotifySender
	sink        EventSink
	logger      logging.Logger
	lastSummary string
}

func NewFallback(open URLOpener, notifier NotifySender, logger logging.Logger) *Fallback {
	if open == nil {
		open = OpenURL
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Fallback{
		surfaces: map[string]*fallbackSurface{},
		open:     open,
		notifier: notifier,
		logger:   logger,
	}
}

func (f *Fallback) SetSink(sink EventSink) {
	f.mu.Lock()
	f.sink = sink
	f.mu.Unlock()
}

// Create records the surface and reports it loaded. Browser-backed roles
// open at once when asked to show.
func (f *Fallback) Create(id string, role types.SurfaceRole, url string, opts types.SurfaceOptions) error {
	f.mu.Lock()
	f.surfaces[id] = &fallbackSurface{role: role, url: url}
	f.mu.Unlock()
	f.emit(types.SurfaceEvent{SurfaceID: id, Role: role, Kind: types.SurfaceLoaded, URL: url})
	if opts.Show {
		return f.Show(id)
	}
	return nil
}

func (f *Fallback) Show(id string) error {
	s, ok := f.lookup(id)
	if !ok || !browserRole(s.role) || s.url == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := f.open(ctx, s.url); err != nil {
		return fmt.Errorf("open %s: %w", s.role, err)
	}
	f.logger.Info("fallback_browser_opened", logging.F("role", s.role), logging.F("url", s.url))
	return nil
}

// Focus is covered by Show, which already raised the browser.
func (f *Fallback) Focus(string) error { return nil }

func (f *Fallback) Hide(string) error { return nil }

func (f *Fallback) Destroy(id string) error {
	f.mu.Lock()
	s, ok := f.surfaces[id]
	delete(f.surfaces, id)
	if ok && s.role == types.SurfacePill {
		f.lastSummary = ""
	}
	f.mu.Unlock()
	return nil
}

func (f *Fallback) SetBounds(string, types.Rect) error { return nil }

func (f *Fallback) Navigate(id, url string) error {
	f.mu.Lock()
	s, ok := f.surfaces[id]
	if ok {
		s.url = url
	}
	f.mu.Unlock()
	if ok {
		f.emit(types.SurfaceEvent{SurfaceID: id, Role: s.role, Kind: types.SurfaceLoaded, URL: url})
	}
	return nil
}

func (f *Fallback) Reload(id string) error {
	s, ok := f.lookup(id)
	if ok {
		f.emit(types.SurfaceEvent{SurfaceID: id, Role: s.role, Kind: types.SurfaceLoaded, URL: s.url})
	}
	return nil
}

// Send turns pill traffic into notifications. Everything else has no
// fallback rendering and is dropped.
func (f *Fallback) Send(id, channel string, payload any) error {
	s, ok := f.lookup(id)
	if !ok || s.role != types.SurfacePill {
		return nil
	}
	switch p := payload.(type) {
	case types.PillSummary:
		if channel != types.ChannelPillSummary || p.Count == 0 {
			return nil
		}
		key := fmt.Sprintf("%d|%s|%s", p.Count, p.Title, p.Message)
		f.mu.Lock()
		repeat := key == f.lastSummary
		f.lastSummary = key
		f.mu.Unlock()
		if repeat {
			return nil
		}
		return f.notify(Notification{
			Title: pendingTitle(p.Count),
			Body:  strings.TrimSpace(p.Title + "\n" + p.Message),
			Tag:   pillTag,
		})
	case types.NotificationCard:
		return f.notify(Notification{Title: firstNonEmpty(p.Title, appName), Body: p.Body})
	}
	return nil
}

func (f *Fallback) ShowDialog(dialog types.Dialog) error {
	urgency := UrgencyNormal
	if dialog.Kind == types.DialogError {
		urgency = UrgencyCritical
	}
	return f.notify(Notification{
		Title:   firstNonEmpty(dialog.Title, appName),
		Body:    strings.TrimSpace(dialog.Message + "\n" + dialog.Detail),
		Urgency: urgency,
	})
}

// notify runs the notifier in the background; failures are only logged.
func (f *Fallback) notify(n Notification) error {
	if f.notifier == nil {
		return nil
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := f.notifier.Notify(ctx, n); err != nil {
			f.logger.Warn("fallback_notify_failed", logging.F("title", n.Title), logging.F("error", err))
		}
	}()
	return nil
}

func (f *Fallback) lookup(id string) (fallbackSurface, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.surfaces[id]
	if !ok {
		return fallbackSurface{}, false
	}
	return *s, true
}

// emit delivers ev from its own goroutine; the caller may be the event loop.
func (f *Fallback) emit(ev types.SurfaceEvent) {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	if sink == nil {
		return
	}
	go sink.HandleSurfaceEvent(ev)
}

func browserRole(role types.SurfaceRole) bool {
	switch role {
	case types.SurfaceMain, types.SurfaceStatus, types.SurfaceChat:
		return true
	default:
		return false
	}
}

func pendingTitle(count int) string {
	if count == 1 {
		return "1 pending notification"
	}
	return fmt.Sprintf("%d pending notifications", count)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
