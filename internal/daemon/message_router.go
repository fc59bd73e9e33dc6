package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

// messageHandler decodes a payload off the loop and returns the closure that
// applies it on the loop.
type messageHandler func(c *Controller, payload json.RawMessage) (func() (any, error), error)

func query(fn func(c *Controller) any) messageHandler {
	return func(c *Controller, _ json.RawMessage) (func() (any, error), error) {
		return func() (any, error) { return fn(c), nil }, nil
	}
}

func noPayload(fn func(c *Controller)) messageHandler {
	return func(c *Controller, _ json.RawMessage) (func() (any, error), error) {
		return func() (any, error) {
			fn(c)
			return nil, nil
		}, nil
	}
}

func command[T any](fn func(c *Controller, v T)) messageHandler {
	return func(c *Controller, payload json.RawMessage) (func() (any, error), error) {
		var v T
		if err := decodePayload(payload, &v, true); err != nil {
			return nil, err
		}
		return func() (any, error) {
			fn(c, v)
			return nil, nil
		}, nil
	}
}

// optionalCommand accepts a missing or null payload as the zero value.
func optionalCommand[T any](fn func(c *Controller, v T)) messageHandler {
	return func(c *Controller, payload json.RawMessage) (func() (any, error), error) {
		var v T
		if err := decodePayload(payload, &v, false); err != nil {
			return nil, err
		}
		return func() (any, error) {
			fn(c, v)
			return nil, nil
		}, nil
	}
}

func decodePayload(payload json.RawMessage, dst any, required bool) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if required {
			return invalidError("payload is required", nil)
		}
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return invalidError("invalid payload", err)
	}
	return nil
}

// get-pill-position answers null: the pill drag position is not exposed to
// content.
var messageHandlers = map[string]messageHandler{
	types.ChannelGetState:          query(func(c *Controller) any { return c.snapshot() }),
	types.ChannelGetPillPosition:   query(func(*Controller) any { return nil }),
	types.ChannelGetUpdateState:    query(func(c *Controller) any { return c.update }),
	types.ChannelGetPillSummary:    query(func(c *Controller) any { return c.pill.Summary(c.pillMode) }),
	types.ChannelGetRendererErrors: query(func(c *Controller) any { return c.renderer.Entries() }),

	types.ChannelSetPaused:        command((*Controller).setPaused),
	types.ChannelSetAfterHours:    command((*Controller).setAfterHours),
	types.ChannelSetSnooze:        command(func(c *Controller, p types.SnoozePayload) { c.setSnoozeUntil(p.UntilMs) }),
	types.ChannelClearSnooze:      noPayload((*Controller).clearSnooze),
	types.ChannelSetFilters:       command((*Controller).setFilters),
	types.ChannelSetBusinessHours: command(func(c *Controller, p types.BusinessHoursPayload) { c.setWithinBusinessHours(p.Within) }),

	types.ChannelSnoozeNote:      command(func(c *Controller, p types.NoteSnoozePayload) { c.snoozeNote(p.NoteID, p.UntilMs) }),
	types.ChannelClearSnoozeNote: command(func(c *Controller, p types.NoteSnoozePayload) { c.clearNoteSnooze(p.NoteID) }),
	types.ChannelMuteSender:      command(func(c *Controller, p types.SenderMutePayload) { c.muteSender(p.SenderID, p.UntilMs) }),
	types.ChannelClearMuteSender: command(func(c *Controller, p types.SenderMutePayload) { c.clearSenderMute(p.SenderID) }),

	types.ChannelNotify:               notifyHandler,
	types.ChannelSetPillSummary:       command((*Controller).setPillSummary),
	types.ChannelSetReviewPillSummary: command((*Controller).setReviewPillSummary),
	types.ChannelSetPendingCount:      command((*Controller).setPendingCount),
	types.ChannelNavigatePill:         command(func(c *Controller, p types.NavigatePayload) { c.navigatePill(p.Delta) }),
	types.ChannelDismissPill:          noPayload((*Controller).dismissPill),
	types.ChannelHidePill:             noPayload((*Controller).hidePill),
	types.ChannelExpandPill:           noPayload((*Controller).expandPill),
	types.ChannelMovePill:             command((*Controller).movePill),
	types.ChannelPillActivity:         noPayload((*Controller).pillActivity),

	types.ChannelOpenNotifications: optionalCommand(func(c *Controller, p types.OpenNotificationsPayload) { c.openNotifications(p.URL) }),
	types.ChannelOpenStatus:        noPayload((*Controller).openStatus),
	types.ChannelOpenChat:          noPayload((*Controller).openChat),
	types.ChannelQuickReply:        quickReplyHandler,
	types.ChannelRendererError:     command((*Controller).recordRendererError),
	types.ChannelCheckForUpdates:   noPayload((*Controller).manualUpdateCheck),
	types.ChannelInstallUpdate:     installUpdateHandler,
}

func notifyHandler(c *Controller, payload json.RawMessage) (func() (any, error), error) {
	var p types.NotifyPayload
	if err := decodePayload(payload, &p, true); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Body) == "" {
		return nil, invalidError("title or body is required", nil)
	}
	return func() (any, error) { return c.notify(p), nil }, nil
}

// quickReplyHandler checks the payload shape but forwards the original bytes.
func quickReplyHandler(c *Controller, payload json.RawMessage) (func() (any, error), error) {
	var p types.QuickReplyPayload
	if err := decodePayload(payload, &p, true); err != nil {
		return nil, err
	}
	raw := append(json.RawMessage(nil), bytes.TrimSpace(payload)...)
	return func() (any, error) {
		c.quickReply(raw)
		return nil, nil
	}, nil
}

func installUpdateHandler(c *Controller, _ json.RawMessage) (func() (any, error), error) {
	return func() (any, error) { return nil, c.installUpdate() }, nil
}

// HandleMessage routes a message from embedded content. Queries return their
// snapshot; commands return nil once applied. Unknown channels and payloads
// that do not decode are invalid.
func (c *Controller) HandleMessage(ctx context.Context, channel string, payload json.RawMessage) (any, error) {
	channel = strings.TrimSpace(channel)
	handler, ok := messageHandlers[channel]
	if !ok {
		c.metrics.messages.WithLabelValues("unknown", "invalid").Inc()
		return nil, invalidError("unknown channel "+channel, nil)
	}
	apply, err := handler(c, payload)
	if err != nil {
		c.metrics.messages.WithLabelValues(channel, "invalid").Inc()
		c.logger.Debug("message_rejected", logging.F("channel", channel), logging.F("error", err))
		return nil, err
	}
	var result any
	var applyErr error
	if err := c.loop.Call(ctx, func() { result, applyErr = apply() }); err != nil {
		c.metrics.messages.WithLabelValues(channel, "unavailable").Inc()
		return nil, unavailableError("controller not running", err)
	}
	if applyErr != nil {
		c.metrics.messages.WithLabelValues(channel, "error").Inc()
		return nil, applyErr
	}
	c.metrics.messages.WithLabelValues(channel, "ok").Inc()
	return result, nil
}
