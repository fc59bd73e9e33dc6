package daemon

import (
	"time"

	"golang.org/x/time/rate"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

const (
	rendererErrorCapacity = 25
	rendererAlertInterval = 30 * time.Second
)

// rendererErrorLog keeps the most recent renderer errors and limits how often
// they turn into a dialog.
type rendererErrorLog struct {
	entries []types.RendererError
	next    int
	full    bool
	limiter *rate.Limiter
}

func newRendererErrorLog(capacity int, alertEvery time.Duration) *rendererErrorLog {
	if capacity <= 0 {
		capacity = rendererErrorCapacity
	}
	return &rendererErrorLog{
		entries: make([]types.RendererError, capacity),
		limiter: rate.NewLimiter(rate.Every(alertEvery), 1),
	}
}

// Add records entry and reports whether an alert is due at now.
func (l *rendererErrorLog) Add(entry types.RendererError, now time.Time) bool {
	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
	return l.limiter.AllowN(now, 1)
}

// Entries returns the log oldest first.
func (l *rendererErrorLog) Entries() []types.RendererError {
	if !l.full {
		out := make([]types.RendererError, l.next)
		copy(out, l.entries[:l.next])
		return out
	}
	out := make([]types.RendererError, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	return append(out, l.entries[:l.next]...)
}

func (c *Controller) recordRendererError(entry types.RendererError) {
	now := c.clock.Now()
	entry = types.NormalizeRendererError(entry, now.UnixMilli())
	c.metrics.rendererErrors.Inc()
	c.logger.Warn("renderer_error",
		logging.F("type", entry.Type),
		logging.F("message", entry.Message),
		logging.F("href", entry.Href),
	)
	if !c.renderer.Add(entry, now) {
		return
	}
	c.metrics.rendererAlerts.Inc()
	c.surfaces.ShowDialog(types.Dialog{
		Kind:    types.DialogError,
		Title:   trayAppName + " hit a problem",
		Message: firstNonEmptyString(entry.Message, "The page reported an error."),
		Detail:  entry.Stack,
	})
}
