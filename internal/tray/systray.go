package tray

import (
	_ "embed"

	"github.com/energye/systray"

	"casenotify/internal/logging"
)

//go:embed icon.png
var iconPNG []byte

type systrayBackend struct{}

func (systrayBackend) Reset() {
	systray.ResetMenu()
}

func (systrayBackend) SetTitle(title string) {
	systray.SetTitle(title)
}

func (systrayBackend) SetTooltip(tooltip string) {
	systray.SetTooltip(tooltip)
}

func (systrayBackend) AddItem(parent itemHandle, label string, checked, enabled bool, onClick func()) itemHandle {
	var item *systray.MenuItem
	if parentItem, ok := parent.(*systray.MenuItem); ok && parentItem != nil {
		item = parentItem.AddSubMenuItem(label, "")
	} else {
		item = systray.AddMenuItem(label, "")
	}
	if checked {
		item.Check()
	}
	if !enabled {
		item.Disable()
	}
	if onClick != nil {
		item.Click(onClick)
	}
	return item
}

// AddSeparator only separates top-level items; submenus have no separator.
func (systrayBackend) AddSeparator(parent itemHandle) {
	if parent != nil {
		return
	}
	systray.AddSeparator()
}

// Run shows the tray icon and blocks until Quit. It must be called from the
// main goroutine. onReady runs once the tray exists.
func Run(p *Presenter, onReady func(), onExit func()) {
	systray.Run(func() {
		systray.SetIcon(iconPNG)
		systray.SetOnClick(func(menu systray.IMenu) {
			if menu != nil {
				if err := menu.ShowMenu(); err != nil {
					p.logger.Warn("tray_menu_show_failed", logging.F("error", err))
				}
			}
		})
		systray.SetOnRClick(func(menu systray.IMenu) {
			if menu != nil {
				if err := menu.ShowMenu(); err != nil {
					p.logger.Warn("tray_menu_show_failed", logging.F("error", err))
				}
			}
		})
		go p.run()
		if onReady != nil {
			onReady()
		}
	}, func() {
		p.close()
		if onExit != nil {
			onExit()
		}
	})
}

// Quit stops the tray loop started by Run.
func Quit() {
	systray.Quit()
}

// NewPresenter returns a presenter backed by the system tray.
func NewPresenter(dispatch Dispatcher, logger logging.Logger) *Presenter {
	return newPresenter(systrayBackend{}, dispatch, logger)
}
