// Package tray renders the controller's menu description into the system
// tray.
package tray

import (
	"sync"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

// Dispatcher runs the action bound to a menu item id.
type Dispatcher func(id string)

type itemHandle any

// backend is the slice of the tray toolkit the presenter needs.
type backend interface {
	Reset()
	SetTitle(title string)
	SetTooltip(tooltip string)
	AddItem(parent itemHandle, label string, checked, enabled bool, onClick func()) itemHandle
	AddSeparator(parent itemHandle)
}

// Presenter rebuilds the whole tray menu on every change. SetMenu never
// blocks; only the latest menu is rendered.
type Presenter struct {
	backend  backend
	dispatch Dispatcher
	logger   logging.Logger

	mu      sync.Mutex
	latest  *types.TrayMenu
	wake    chan struct{}
	stop    chan struct{}
	stopped bool
	renders int
}

func newPresenter(b backend, dispatch Dispatcher, logger logging.Logger) *Presenter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Presenter{
		backend:  b,
		dispatch: dispatch,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

func (p *Presenter) SetMenu(menu types.TrayMenu) {
	p.mu.Lock()
	p.latest = &menu
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// run renders menus until close is called.
func (p *Presenter) run() {
	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
			p.mu.Lock()
			menu := p.latest
			p.latest = nil
			p.mu.Unlock()
			if menu != nil {
				p.render(*menu)
			}
		}
	}
}

func (p *Presenter) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stop)
}

func (p *Presenter) render(menu types.TrayMenu) {
	p.backend.Reset()
	p.backend.SetTitle(menu.Title)
	p.backend.SetTooltip(menu.Tooltip)
	p.addItems(nil, menu.Items)
	p.mu.Lock()
	p.renders++
	p.mu.Unlock()
	p.logger.Debug("tray_menu_rendered", logging.F("title", menu.Title))
}

func (p *Presenter) addItems(parent itemHandle, items []types.TrayMenuItem) {
	for _, item := range items {
		switch item.Kind {
		case types.MenuItemSeparator:
			p.backend.AddSeparator(parent)
		case types.MenuItemLabel:
			p.backend.AddItem(parent, item.Label, false, false, nil)
		case types.MenuItemSubmenu:
			handle := p.backend.AddItem(parent, item.Label, false, item.Enabled, nil)
			p.addItems(handle, item.Children)
		default:
			p.backend.AddItem(parent, item.Label, item.Checked, item.Enabled, p.clickHandler(item.ID))
		}
	}
}

func (p *Presenter) clickHandler(id string) func() {
	if id == "" || p.dispatch == nil {
		return nil
	}
	return func() {
		p.logger.Debug("tray_click", logging.F("action", id))
		go p.dispatch(id)
	}
}
