package types

import "strings"

// RendererError is a client-side error reported by embedded web content.
type RendererError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Href    string `json:"href,omitempty"`
	TS      int64  `json:"ts"`
}

func NormalizeRendererError(in RendererError, nowMs int64) RendererError {
	out := in
	out.Type = strings.TrimSpace(in.Type)
	if out.Type == "" {
		out.Type = "error"
	}
	out.Message = strings.TrimSpace(in.Message)
	out.Href = strings.TrimSpace(in.Href)
	if out.TS <= 0 {
		out.TS = nowMs
	}
	return out
}
