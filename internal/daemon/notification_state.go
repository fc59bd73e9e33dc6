package daemon

import (
	"time"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

// Notification state mutations. Each one writes through to the preference
// store first, then recomputes effectivePaused, broadcasts, and rebuilds the
// tray menu last.

func (c *Controller) setPaused(paused bool) {
	c.state.PausedByUser = paused
	c.prefs.Save(types.PrefPausedByUser, paused)
	c.stateChanged(false)
}

func (c *Controller) setAfterHours(allow bool) {
	c.state.AllowAfterHours = allow
	c.prefs.Save(types.PrefAllowAfterHours, allow)
	c.stateChanged(false)
}

func (c *Controller) setSnoozeUntil(untilMs int64) {
	if untilMs < 0 {
		untilMs = 0
	}
	c.state.SnoozedUntilMs = untilMs
	c.prefs.Save(types.PrefSnoozedUntilMs, untilMs)
	c.armSnoozeTimer()
	c.stateChanged(false)
}

func (c *Controller) clearSnooze() {
	c.setSnoozeUntil(0)
}

func (c *Controller) snoozeFor(d time.Duration) {
	c.setSnoozeUntil(c.clock.Now().Add(d).UnixMilli())
}

func (c *Controller) setFilters(patch types.FilterPatch) {
	if patch.ShowNotes != nil {
		c.state.ShowNotes = *patch.ShowNotes
		c.prefs.Save(types.PrefShowNotes, c.state.ShowNotes)
	}
	if patch.ShowReview != nil {
		c.state.ShowReview = *patch.ShowReview
		c.prefs.Save(types.PrefShowReview, c.state.ShowReview)
	}
	c.pill.SetFilters(c.state.ShowNotes, c.state.ShowReview)
	c.stateChanged(true)
}

// setWithinBusinessHours is supplied externally and never persisted.
func (c *Controller) setWithinBusinessHours(within bool) {
	c.state.IsWithinBusinessHours = within
	c.stateChanged(false)
}

func (c *Controller) snoozeNote(noteID string, untilMs int64) {
	if !c.suppression.SnoozeNote(noteID, untilMs) {
		return
	}
	c.suppressionChanged()
}

func (c *Controller) clearNoteSnooze(noteID string) {
	if !c.suppression.ClearNoteSnooze(noteID) {
		return
	}
	c.suppressionChanged()
}

func (c *Controller) muteSender(senderID string, untilMs int64) {
	if !c.suppression.MuteSender(senderID, untilMs) {
		return
	}
	c.suppressionChanged()
}

func (c *Controller) clearSenderMute(senderID string) {
	if !c.suppression.ClearSenderMute(senderID) {
		return
	}
	c.suppressionChanged()
}

func (c *Controller) clearAllNoteSnoozes() {
	c.suppression.ClearAllNoteSnoozes()
	c.suppressionChanged()
}

func (c *Controller) clearAllSenderMutes() {
	c.suppression.ClearAllSenderMutes()
	c.suppressionChanged()
}

func (c *Controller) suppressionChanged() {
	c.pill.Recompute()
	c.stateChanged(true)
}

// stateChanged runs the steps that follow a persisted mutation. A change of
// effectivePaused withdraws or restores the pill.
func (c *Controller) stateChanged(repill bool) {
	paused := c.effectivePaused()
	c.metrics.effectivePaused.Set(boolGauge(paused))
	c.broadcastState()
	switch {
	case paused && !c.lastPaused:
		c.withdrawPill()
	case !paused && c.lastPaused:
		c.renderPill(false, true)
	case repill:
		c.renderPill(false, false)
	}
	if paused != c.lastPaused {
		c.logger.Info("effective_paused_changed", logging.F("effective_paused", paused))
	}
	c.lastPaused = paused
	c.rebuildMenu()
}

func (c *Controller) broadcastState() {
	snapshot := c.snapshot()
	c.surfaces.Send(types.SurfaceMain, types.ChannelNotificationState, snapshot)
	c.events.Publish(types.Event{Type: types.EventState, Payload: snapshot})
}

func (c *Controller) rebuildMenu() {
	c.menu = BuildTrayMenu(TrayMenuInput{
		State:        c.snapshot(),
		PendingCount: c.pill.Count(),
		Update:       c.update,
		Now:          c.clock.Now(),
	})
	c.tray.SetMenu(c.menu)
	c.events.Publish(types.Event{Type: types.EventTrayMenu, Payload: c.menu})
}

// armSnoozeTimer refreshes state when the current snooze runs out.
func (c *Controller) armSnoozeTimer() {
	remaining := c.state.SnoozedUntilMs - nowMillis(c.clock)
	if remaining <= 0 {
		c.snoozeTimer.Cancel()
		return
	}
	c.snoozeTimer.Schedule(time.Duration(remaining)*time.Millisecond, func() {
		c.logger.Info("snooze_expired")
		c.stateChanged(false)
	})
}

// scheduleBusinessHoursTick applies the schedule only when its own answer
// changes, so a value set through set-business-hours sticks until the next
// schedule boundary.
func (c *Controller) scheduleBusinessHoursTick() {
	c.scheduleTimer.Schedule(scheduleTickInterval, func() {
		within := c.schedule.Within(c.clock.Now())
		if within != c.lastScheduleValue {
			c.lastScheduleValue = within
			c.logger.Info("business_hours_changed", logging.F("within", within))
			c.setWithinBusinessHours(within)
		}
		c.scheduleBusinessHoursTick()
	})
}
