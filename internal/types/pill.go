package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

type PillKind string

const (
	PillKindNote PillKind = "note"
	PillKindDocs PillKind = "docs"
	PillKindCS   PillKind = "cs"
)

type PillMode string

const (
	PillModeCompact PillMode = "compact"
	PillModePanel   PillMode = "panel"
)

// Timestamp holds a note timestamp as pushed by web content. Numbers are
// accepted and kept in their decimal form.
type Timestamp string

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Anything else is kept unparsed and sorts as epoch 0.
		*t = ""
		return nil
	}
	*t = Timestamp(n.String())
	return nil
}

type PillItem struct {
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Type          string    `json:"type"`
	Kind          PillKind  `json:"kind"`
	IsChatOnly    bool      `json:"isChatOnly,omitempty"`
	NoteID        string    `json:"noteId,omitempty"`
	SenderID      string    `json:"senderId,omitempty"`
	Timestamp     Timestamp `json:"timestamp"`
	Author        string    `json:"author,omitempty"`
	RecipientName string    `json:"recipientName,omitempty"`
	MemberName    string    `json:"memberName,omitempty"`
	ReplyURL      string    `json:"replyUrl,omitempty"`
	ActionURL     string    `json:"actionUrl,omitempty"`
}

// NormalizePillItem applies ingestion defaults: strings are trimmed, an
// empty type becomes "note" and Kind is derived from Type.
func NormalizePillItem(in PillItem) PillItem {
	out := in
	out.Title = strings.TrimSpace(in.Title)
	out.Message = strings.TrimSpace(in.Message)
	out.Type = strings.TrimSpace(in.Type)
	if out.Type == "" {
		out.Type = string(PillKindNote)
	}
	out.Kind = NormalizePillKind(out.Type)
	out.NoteID = strings.TrimSpace(in.NoteID)
	out.SenderID = strings.TrimSpace(in.SenderID)
	out.Timestamp = Timestamp(strings.TrimSpace(string(in.Timestamp)))
	out.Author = strings.TrimSpace(in.Author)
	out.RecipientName = strings.TrimSpace(in.RecipientName)
	out.MemberName = strings.TrimSpace(in.MemberName)
	out.ReplyURL = strings.TrimSpace(in.ReplyURL)
	out.ActionURL = strings.TrimSpace(in.ActionURL)
	return out
}

func NormalizePillItems(in []PillItem) []PillItem {
	out := make([]PillItem, 0, len(in))
	for _, item := range in {
		out = append(out, NormalizePillItem(item))
	}
	return out
}

func NormalizePillKind(raw string) PillKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "docs", "doc", "document", "documents":
		return PillKindDocs
	case "cs", "client-services", "client_services", "customer-service":
		return PillKindCS
	default:
		return PillKindNote
	}
}

// ChatOnly reports whether the item belongs to chat and never to the pill.
func (p PillItem) ChatOnly() bool {
	if p.IsChatOnly {
		return true
	}
	return strings.Contains(strings.ToLower(p.Type), "chat")
}

// PillActive is the display metadata of the currently selected item.
type PillActive struct {
	Title         string   `json:"title"`
	Message       string   `json:"message"`
	Kind          PillKind `json:"kind"`
	NoteID        string   `json:"noteId,omitempty"`
	SenderID      string   `json:"senderId,omitempty"`
	Timestamp     string   `json:"timestamp,omitempty"`
	Author        string   `json:"author,omitempty"`
	RecipientName string   `json:"recipientName,omitempty"`
	MemberName    string   `json:"memberName,omitempty"`
	ReplyURL      string   `json:"replyUrl,omitempty"`
	ActionURL     string   `json:"actionUrl,omitempty"`
}

func (p PillItem) Active() *PillActive {
	return &PillActive{
		Title:         p.Title,
		Message:       p.Message,
		Kind:          p.Kind,
		NoteID:        p.NoteID,
		SenderID:      p.SenderID,
		Timestamp:     string(p.Timestamp),
		Author:        p.Author,
		RecipientName: p.RecipientName,
		MemberName:    p.MemberName,
		ReplyURL:      p.ReplyURL,
		ActionURL:     p.ActionURL,
	}
}

type PillSummary struct {
	Count       int         `json:"count"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Mode        PillMode    `json:"mode"`
	ActiveIndex int         `json:"activeIndex"`
	Total       int         `json:"total"`
	Active      *PillActive `json:"active,omitempty"`
	Items       []PillItem  `json:"items"`
}

type PillPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// NotificationCard is pushed to the pill surface by the notify channel.
type NotificationCard struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	ActionURL string `json:"actionUrl,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}
