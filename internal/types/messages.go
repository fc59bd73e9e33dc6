package types

// Message channels accepted by the router.
const (
	ChannelGetState             = "get-state"
	ChannelGetPillPosition      = "get-pill-position"
	ChannelGetUpdateState       = "get-update-state"
	ChannelGetPillSummary       = "get-pill-summary"
	ChannelGetRendererErrors    = "get-renderer-errors"
	ChannelSetPaused            = "set-paused"
	ChannelSetAfterHours        = "set-after-hours"
	ChannelSetSnooze            = "set-snooze"
	ChannelClearSnooze          = "clear-snooze"
	ChannelSetFilters           = "set-filters"
	ChannelSetBusinessHours     = "set-business-hours"
	ChannelSnoozeNote           = "snooze-note"
	ChannelClearSnoozeNote      = "clear-snooze-note"
	ChannelMuteSender           = "mute-sender"
	ChannelClearMuteSender      = "clear-mute-sender"
	ChannelNotify               = "notify"
	ChannelSetPillSummary       = "set-pill-summary"
	ChannelSetReviewPillSummary = "set-review-pill-summary"
	ChannelSetPendingCount      = "set-pending-count"
	ChannelNavigatePill         = "navigate-pill"
	ChannelDismissPill          = "dismiss-pill"
	ChannelHidePill             = "hide-pill"
	ChannelExpandPill           = "expand-pill"
	ChannelMovePill             = "move-pill"
	ChannelPillActivity         = "pill-activity"
	ChannelOpenNotifications    = "open-notifications"
	ChannelOpenStatus           = "open-status"
	ChannelOpenChat             = "open-chat"
	ChannelQuickReply           = "quick-reply"
	ChannelRendererError        = "renderer-error"
	ChannelCheckForUpdates      = "check-for-updates"
	ChannelInstallUpdate        = "install-update"

	// Outbound channels delivered to surfaces.
	ChannelNotificationState = "notification-state"
	ChannelPillSummary       = "pill-summary"
	ChannelNotificationCard  = "notification-card"
	ChannelUpdateState       = "update-state"
	ChannelNavigate          = "navigate"
)

type SnoozePayload struct {
	UntilMs int64 `json:"untilMs"`
}

type BusinessHoursPayload struct {
	Within bool `json:"within"`
}

type NoteSnoozePayload struct {
	NoteID  string `json:"noteId"`
	UntilMs int64  `json:"untilMs"`
}

type SenderMutePayload struct {
	SenderID string `json:"senderId"`
	UntilMs  int64  `json:"untilMs"`
}

type NotifyPayload struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	ActionURL    string `json:"actionUrl,omitempty"`
	OpenOnNotify bool   `json:"openOnNotify,omitempty"`
}

type PillSummaryPayload struct {
	Count     int        `json:"count"`
	Notes     []PillItem `json:"notes"`
	Title     string     `json:"title,omitempty"`
	Message   string     `json:"message,omitempty"`
	OpenPanel bool       `json:"openPanel,omitempty"`
}

type NavigatePayload struct {
	Delta int `json:"delta"`
}

type OpenNotificationsPayload struct {
	URL string `json:"url,omitempty"`
}

type QuickReplyPayload struct {
	NoteID   string `json:"noteId,omitempty"`
	SenderID string `json:"senderId,omitempty"`
	Message  string `json:"message"`
}

type NotifyResult struct {
	Shown  bool   `json:"shown"`
	CardID string `json:"cardId,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Event hub frame types.
const (
	EventState            = "state"
	EventPillSummary      = "pill-summary"
	EventTrayMenu         = "tray-menu"
	EventUpdateState      = "update-state"
	EventNotificationCard = "notification-card"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
