package daemon

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

func (c *Controller) pillSize(mode types.PillMode) types.Size {
	if mode == types.PillModePanel {
		w, h := c.cfg.PanelPillSize()
		return types.Size{Width: w, Height: h}
	}
	w, h := c.cfg.CompactPillSize()
	return types.Size{Width: w, Height: h}
}

func (c *Controller) workArea() types.Rect {
	x, y, w, h := c.cfg.FallbackWorkArea()
	return primaryWorkArea(c.displays, types.Rect{X: x, Y: y, Width: w, Height: h})
}

func (c *Controller) pillBounds(mode types.PillMode) types.Rect {
	size := c.pillSize(mode)
	pos := ResolvePillPosition(c.pillPosition, size, c.workArea())
	return types.Rect{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height}
}

// openPill creates the pill surface when none is live.
func (c *Controller) openPill() {
	if c.surfaces.Live(types.SurfacePill) != nil {
		return
	}
	bounds := c.pillBounds(c.pillMode)
	x, y := bounds.X, bounds.Y
	c.beginPositioning()
	_, created := c.surfaces.Open(types.SurfacePill, c.cfg.PillURL(), types.SurfaceOptions{
		Width:         bounds.Width,
		Height:        bounds.Height,
		X:             &x,
		Y:             &y,
		AlwaysOnTop:   true,
		SkipTaskbar:   true,
		AllWorkspaces: true,
		Frameless:     true,
		Transparent:   true,
		Show:          true,
	})
	if created {
		c.logger.Info("pill_surface_created",
			logging.F("mode", c.pillMode),
			logging.F("x", x),
			logging.F("y", y),
		)
	}
}

// renderPill publishes the current summary and keeps the pill surface in
// line with it. A zero count destroys the pill unless it still holds a
// notification card, which stays until the pill is hidden. create allows a
// missing pill to be opened, which is also refused while notifications are
// effectively paused or after the user hid it.
func (c *Controller) renderPill(openPanel, create bool) {
	count := c.pill.Count()
	c.metrics.pendingCount.Set(float64(count))
	if count == 0 {
		if c.pillCard && c.surfaces.Live(types.SurfacePill) != nil {
			c.publishPillSummary()
			return
		}
		c.destroyPill()
		c.publishPillSummary()
		return
	}
	if c.surfaces.Live(types.SurfacePill) == nil {
		if !create || c.pillHidden || c.effectivePaused() {
			c.publishPillSummary()
			return
		}
		c.pillMode = types.PillModeCompact
		c.openPill()
	}
	if openPanel {
		c.setPillMode(types.PillModePanel)
		return
	}
	c.publishPillSummary()
}

func (c *Controller) publishPillSummary() {
	summary := c.pill.Summary(c.pillMode)
	c.surfaces.Send(types.SurfacePill, types.ChannelPillSummary, summary)
	c.events.Publish(types.Event{Type: types.EventPillSummary, Payload: summary})
}

func (c *Controller) destroyPill() {
	c.collapseTimer.Cancel()
	c.positioningTimer.Cancel()
	c.positioning = false
	c.pillCard = false
	c.pillMode = types.PillModeCompact
	c.surfaces.Destroy(types.SurfacePill)
}

// withdrawPill removes the pill while notifications are paused. It comes
// back compact once they resume.
func (c *Controller) withdrawPill() {
	if c.surfaces.Live(types.SurfacePill) == nil {
		return
	}
	c.destroyPill()
	c.logger.Info("pill_withdrawn_while_paused")
}

func (c *Controller) setPillMode(mode types.PillMode) {
	if c.surfaces.Live(types.SurfacePill) == nil {
		c.pillMode = types.PillModeCompact
		return
	}
	changed := c.pillMode != mode
	c.pillMode = mode
	if mode == types.PillModePanel {
		c.armAutoCollapse()
	} else {
		c.collapseTimer.Cancel()
	}
	if changed {
		c.positionPill()
	}
	c.publishPillSummary()
}

func (c *Controller) armAutoCollapse() {
	c.collapseTimer.Schedule(c.cfg.AutoCollapseDelay(), func() {
		if c.pillMode != types.PillModePanel {
			return
		}
		c.logger.Debug("pill_auto_collapse")
		c.setPillMode(types.PillModeCompact)
	})
}

// positionPill moves the pill to its resolved bounds for the current mode.
// The move event this causes is not a user drag.
func (c *Controller) positionPill() {
	if c.surfaces.Live(types.SurfacePill) == nil {
		return
	}
	c.beginPositioning()
	c.surfaces.SetBounds(types.SurfacePill, c.pillBounds(c.pillMode))
}

func (c *Controller) beginPositioning() {
	c.positioning = true
	c.positioningTimer.Schedule(positioningGrace, func() {
		c.positioning = false
	})
}

// movePill handles an explicit user reposition: the clamped position is
// persisted and any pending auto-collapse is cancelled.
func (c *Controller) movePill(pos types.PillPosition) {
	size := c.pillSize(c.pillMode)
	clamped := ClampPillPosition(pos, size, c.workArea())
	c.pillPosition = &clamped
	c.prefs.Save(types.PrefPillPosition, clamped)
	c.collapseTimer.Cancel()
	if clamped != pos {
		c.positionPill()
	}
	c.logger.Debug("pill_moved", logging.F("x", clamped.X), logging.F("y", clamped.Y))
}

func (c *Controller) setPillSummary(payload types.PillSummaryPayload) {
	c.pill.SetStaff(payload.Notes, payload.Count, payload.Title, payload.Message)
	c.pillHidden = false
	c.renderPill(payload.OpenPanel, true)
	c.rebuildMenu()
}

func (c *Controller) setReviewPillSummary(payload types.PillSummaryPayload) {
	c.pill.SetReview(payload.Notes, payload.Count)
	c.pillHidden = false
	c.renderPill(payload.OpenPanel, true)
	c.rebuildMenu()
}

// setPendingCount updates the staff count only. It never creates a pill.
func (c *Controller) setPendingCount(count int) {
	c.pill.SetStaffCount(count)
	c.renderPill(false, false)
	c.rebuildMenu()
}

func (c *Controller) navigatePill(delta int) {
	if !c.pill.Navigate(delta) {
		return
	}
	c.publishPillSummary()
	if c.pillMode == types.PillModePanel {
		c.armAutoCollapse()
	}
}

func (c *Controller) dismissPill() {
	c.setPillMode(types.PillModeCompact)
}

func (c *Controller) hidePill() {
	c.pillHidden = true
	c.destroyPill()
}

// expandPill also brings back a hidden pill while items are pending.
func (c *Controller) expandPill() {
	if c.pill.Count() > 0 {
		c.pillHidden = false
		c.openPill()
	}
	c.setPillMode(types.PillModePanel)
}

func (c *Controller) pillActivity() {
	if c.pillMode == types.PillModePanel && c.surfaces.Live(types.SurfacePill) != nil {
		c.armAutoCollapse()
	}
}

// showPending is the explicit tray request to look at pending items, so it
// opens the panel even while notifications are paused.
func (c *Controller) showPending() {
	if c.pill.Count() == 0 {
		return
	}
	c.pillHidden = false
	c.openPill()
	c.setPillMode(types.PillModePanel)
}

func (c *Controller) notify(payload types.NotifyPayload) types.NotifyResult {
	if c.effectivePaused() {
		c.metrics.notifications.WithLabelValues("paused").Inc()
		c.logger.Debug("notify_suppressed", logging.F("reason", "paused"))
		return types.NotifyResult{Shown: false, Reason: "paused"}
	}
	card := types.NotificationCard{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(payload.Title),
		Body:      strings.TrimSpace(payload.Body),
		ActionURL: strings.TrimSpace(payload.ActionURL),
		CreatedAt: nowMillis(c.clock),
	}
	c.pillHidden = false
	c.openPill()
	c.pillCard = true
	c.setPillMode(types.PillModeCompact)
	c.surfaces.Send(types.SurfacePill, types.ChannelNotificationCard, card)
	c.events.Publish(types.Event{Type: types.EventNotificationCard, Payload: card})
	if payload.OpenOnNotify {
		c.openMain(true)
	}
	c.metrics.notifications.WithLabelValues("shown").Inc()
	c.logger.Info("notification_shown", logging.F("card_id", card.ID))
	return types.NotifyResult{Shown: true, CardID: card.ID}
}

// openNotifications focuses the main surface at route and retires the pill.
func (c *Controller) openNotifications(route string) {
	c.openMain(true)
	if target := resolvePortalURL(c.cfg.MainURL(), route); target != "" {
		c.surfaces.Send(types.SurfaceMain, types.ChannelNavigate, map[string]string{"url": target})
	}
	c.destroyPill()
}

// quickReply forwards the payload to the main surface untouched.
func (c *Controller) quickReply(payload json.RawMessage) {
	c.surfaces.Send(types.SurfaceMain, types.ChannelQuickReply, payload)
}

// resolvePortalURL resolves a relative route against the portal base.
func resolvePortalURL(base, route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return ""
	}
	ref, err := url.Parse(route)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
