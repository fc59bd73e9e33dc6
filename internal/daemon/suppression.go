package daemon

import (
	"encoding/json"
	"math"
	"strings"

	"casenotify/internal/store"
	"casenotify/internal/types"
)

// NormalizeExpiryMap drops entries with an empty id, a zero or non-positive
// expiry, or an expiry at or before nowMs. It never mutates in.
func NormalizeExpiryMap(in map[string]int64, nowMs int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for id, expiry := range in {
		id = strings.TrimSpace(id)
		if id == "" || expiry <= 0 || expiry <= nowMs {
			continue
		}
		out[id] = expiry
	}
	return out
}

// decodeExpiryMap reads a persisted suppression map, dropping values that are
// not numbers.
func decodeExpiryMap(raw map[string]any) map[string]int64 {
	out := make(map[string]int64, len(raw))
	for id, value := range raw {
		switch v := value.(type) {
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			out[id] = int64(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				out[id] = n
			} else if f, err := v.Float64(); err == nil {
				out[id] = int64(f)
			}
		}
	}
	return out
}

// SuppressionEngine owns the snoozed-note and muted-sender expiry maps.
// Expired entries are pruned lazily on each read and the shrunk map is
// written back immediately.
type SuppressionEngine struct {
	prefs   *store.Preferences
	clock   Clock
	notes   map[string]int64
	senders map[string]int64
}

func NewSuppressionEngine(prefs *store.Preferences, clock Clock) *SuppressionEngine {
	engine := &SuppressionEngine{
		prefs:   prefs,
		clock:   clock,
		notes:   map[string]int64{},
		senders: map[string]int64{},
	}
	var raw map[string]any
	if prefs != nil && prefs.Load(types.PrefSnoozedNoteUntilByID, &raw) {
		engine.notes = decodeExpiryMap(raw)
	}
	raw = nil
	if prefs != nil && prefs.Load(types.PrefMutedSenderUntilByID, &raw) {
		engine.senders = decodeExpiryMap(raw)
	}
	return engine
}

func (e *SuppressionEngine) prune() {
	now := nowMillis(e.clock)
	if notes := NormalizeExpiryMap(e.notes, now); len(notes) != len(e.notes) {
		e.notes = notes
		e.persistNotes()
	}
	if senders := NormalizeExpiryMap(e.senders, now); len(senders) != len(e.senders) {
		e.senders = senders
		e.persistSenders()
	}
}

// Filter removes chat-only items, then items whose note is snoozed or whose
// sender is muted.
func (e *SuppressionEngine) Filter(items []types.PillItem) []types.PillItem {
	e.prune()
	out := make([]types.PillItem, 0, len(items))
	for _, item := range items {
		if item.ChatOnly() {
			continue
		}
		if item.NoteID != "" {
			if _, ok := e.notes[item.NoteID]; ok {
				continue
			}
		}
		if item.SenderID != "" {
			if _, ok := e.senders[item.SenderID]; ok {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func (e *SuppressionEngine) Counts() (snoozedNotes, mutedSenders int) {
	e.prune()
	return len(e.notes), len(e.senders)
}

// SnoozeNote reports whether the snooze was recorded. Empty ids and
// non-future expiries are ignored.
func (e *SuppressionEngine) SnoozeNote(noteID string, untilMs int64) bool {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" || untilMs <= nowMillis(e.clock) {
		return false
	}
	e.prune()
	e.notes[noteID] = untilMs
	e.persistNotes()
	return true
}

func (e *SuppressionEngine) ClearNoteSnooze(noteID string) bool {
	noteID = strings.TrimSpace(noteID)
	if _, ok := e.notes[noteID]; !ok || noteID == "" {
		return false
	}
	delete(e.notes, noteID)
	e.persistNotes()
	return true
}

func (e *SuppressionEngine) MuteSender(senderID string, untilMs int64) bool {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" || untilMs <= nowMillis(e.clock) {
		return false
	}
	e.prune()
	e.senders[senderID] = untilMs
	e.persistSenders()
	return true
}

func (e *SuppressionEngine) ClearSenderMute(senderID string) bool {
	senderID = strings.TrimSpace(senderID)
	if _, ok := e.senders[senderID]; !ok || senderID == "" {
		return false
	}
	delete(e.senders, senderID)
	e.persistSenders()
	return true
}

func (e *SuppressionEngine) ClearAllNoteSnoozes() {
	e.notes = map[string]int64{}
	e.persistNotes()
}

func (e *SuppressionEngine) ClearAllSenderMutes() {
	e.senders = map[string]int64{}
	e.persistSenders()
}

func (e *SuppressionEngine) persistNotes() {
	if e.prefs != nil {
		e.prefs.Save(types.PrefSnoozedNoteUntilByID, copyExpiryMap(e.notes))
	}
}

func (e *SuppressionEngine) persistSenders() {
	if e.prefs != nil {
		e.prefs.Save(types.PrefMutedSenderUntilByID, copyExpiryMap(e.senders))
	}
}

func copyExpiryMap(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
