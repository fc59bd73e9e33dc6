package daemon

import (
	"context"
	"strings"
	"time"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

type trayAction func(c *Controller) error

func plainAction(fn func(c *Controller)) trayAction {
	return func(c *Controller) error {
		fn(c)
		return nil
	}
}

func snoozeAction(d time.Duration) trayAction {
	return plainAction(func(c *Controller) { c.snoozeFor(d) })
}

var trayActions = map[string]trayAction{
	types.ActionOpenPortal:       plainAction((*Controller).openPortal),
	types.ActionShowPending:      plainAction((*Controller).showPending),
	types.ActionTogglePause:      plainAction((*Controller).togglePause),
	types.ActionSnooze15m:        snoozeAction(15 * time.Minute),
	types.ActionSnooze1h:         snoozeAction(time.Hour),
	types.ActionSnooze4h:         snoozeAction(4 * time.Hour),
	types.ActionCancelSnooze:     plainAction((*Controller).clearSnooze),
	types.ActionToggleAfterHours: plainAction((*Controller).toggleAfterHours),
	types.ActionToggleNotes:      plainAction((*Controller).toggleNotes),
	types.ActionToggleReview:     plainAction((*Controller).toggleReview),
	types.ActionClearNoteSnoozes: plainAction((*Controller).clearAllNoteSnoozes),
	types.ActionClearSenderMutes: plainAction((*Controller).clearAllSenderMutes),
	types.ActionCheckUpdates:     plainAction((*Controller).manualUpdateCheck),
	types.ActionInstallUpdate:    (*Controller).installUpdate,
	types.ActionOpenStatus:       plainAction((*Controller).openStatus),
	types.ActionOpenChat:         plainAction((*Controller).openChat),
	types.ActionQuit:             plainAction((*Controller).quitApp),
}

func (c *Controller) openPortal() {
	c.openMain(true)
}

func (c *Controller) togglePause() {
	c.setPaused(!c.state.PausedByUser)
}

func (c *Controller) toggleAfterHours() {
	c.setAfterHours(!c.state.AllowAfterHours)
}

func (c *Controller) toggleNotes() {
	show := !c.state.ShowNotes
	c.setFilters(types.FilterPatch{ShowNotes: &show})
}

func (c *Controller) toggleReview() {
	show := !c.state.ShowReview
	c.setFilters(types.FilterPatch{ShowReview: &show})
}

func (c *Controller) manualUpdateCheck() {
	c.checkForUpdates(updateTriggerManual)
}

func (c *Controller) openStatus() {
	c.openAux(types.SurfaceStatus, c.cfg.StatusURL(), "System status")
}

func (c *Controller) openChat() {
	c.openAux(types.SurfaceChat, c.cfg.ChatURL(), "Support chat")
}

// DispatchTrayAction runs the controller method bound to a menu item id.
func (c *Controller) DispatchTrayAction(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	action, ok := trayActions[id]
	if !ok {
		return notFoundError("unknown tray action "+id, nil)
	}
	c.metrics.trayActions.WithLabelValues(id).Inc()
	var actionErr error
	if err := c.loop.Call(ctx, func() {
		c.logger.Debug("tray_action", logging.F("action", id))
		actionErr = action(c)
	}); err != nil {
		return unavailableError("controller not running", err)
	}
	return actionErr
}
