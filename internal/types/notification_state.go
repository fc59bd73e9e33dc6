package types

// Preference keys persisted by the controller.
const (
	PrefPausedByUser         = "pausedByUser"
	PrefAllowAfterHours      = "allowAfterHours"
	PrefSnoozedUntilMs       = "snoozedUntilMs"
	PrefShowNotes            = "showNotes"
	PrefShowReview           = "showReview"
	PrefPillPosition         = "pillPosition"
	PrefSnoozedNoteUntilByID = "snoozedNoteUntilById"
	PrefMutedSenderUntilByID = "mutedSenderUntilById"
)

type NotificationState struct {
	PausedByUser          bool  `json:"pausedByUser"`
	AllowAfterHours       bool  `json:"allowAfterHours"`
	IsWithinBusinessHours bool  `json:"isWithinBusinessHours"`
	SnoozedUntilMs        int64 `json:"snoozedUntilMs"`
	ShowNotes             bool  `json:"showNotes"`
	ShowReview            bool  `json:"showReview"`
}

func DefaultNotificationState() NotificationState {
	return NotificationState{
		IsWithinBusinessHours: true,
		ShowNotes:             true,
		ShowReview:            true,
	}
}

// EffectivePaused is the single gate combining manual pause, the after-hours
// policy and an active snooze.
func (s NotificationState) EffectivePaused(nowMs int64) bool {
	if s.PausedByUser {
		return true
	}
	if !s.AllowAfterHours && !s.IsWithinBusinessHours {
		return true
	}
	return s.SnoozedUntilMs > nowMs
}

func (s NotificationState) SnoozeActive(nowMs int64) bool {
	return s.SnoozedUntilMs > nowMs
}

// NotificationStateSnapshot is what queries and broadcasts carry. The derived
// fields are computed at snapshot time.
type NotificationStateSnapshot struct {
	NotificationState
	EffectivePaused  bool `json:"effectivePaused"`
	SnoozeActive     bool `json:"snoozeActive"`
	SnoozedNoteCount int  `json:"snoozedNoteCount"`
	MutedSenderCount int  `json:"mutedSenderCount"`
}

func (s NotificationState) Snapshot(nowMs int64, snoozedNotes, mutedSenders int) NotificationStateSnapshot {
	return NotificationStateSnapshot{
		NotificationState: s,
		EffectivePaused:   s.EffectivePaused(nowMs),
		SnoozeActive:      s.SnoozeActive(nowMs),
		SnoozedNoteCount:  snoozedNotes,
		MutedSenderCount:  mutedSenders,
	}
}

type FilterPatch struct {
	ShowNotes  *bool `json:"showNotes,omitempty"`
	ShowReview *bool `json:"showReview,omitempty"`
}
