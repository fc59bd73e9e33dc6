package daemon

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"casenotify/internal/types"
)

var pillTimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePillTimestamp returns epoch milliseconds, or 0 when raw cannot be
// parsed. Bare numbers are epoch milliseconds.
func parsePillTimestamp(raw types.Timestamp) int64 {
	value := strings.TrimSpace(string(raw))
	if value == "" {
		return 0
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		if n <= 0 {
			return 0
		}
		return int64(n)
	}
	for _, layout := range pillTimestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UnixMilli()
		}
	}
	return 0
}

type pillFilter func([]types.PillItem) []types.PillItem

// PillAggregator merges the staff and review streams into one list ordered
// newest first, plus a combined pending count taken from the supplied counts
// rather than the list length.
type PillAggregator struct {
	staffNotes    []types.PillItem
	reviewNotes   []types.PillItem
	staffCount    int
	reviewCount   int
	staffTitle    string
	staffMessage  string
	showNotes     bool
	showReview    bool
	combined      []types.PillItem
	activeIndex   int
	count         int
	filter        pillFilter
	recomputeRuns int
}

func NewPillAggregator(filter pillFilter) *PillAggregator {
	return &PillAggregator{showNotes: true, showReview: true, filter: filter}
}

func ingestPillItems(in []types.PillItem) []types.PillItem {
	out := make([]types.PillItem, 0, len(in))
	for _, item := range types.NormalizePillItems(in) {
		if item.ChatOnly() {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (a *PillAggregator) SetStaff(notes []types.PillItem, count int, title, message string) {
	a.staffNotes = ingestPillItems(notes)
	a.staffCount = clampCount(count)
	a.staffTitle = strings.TrimSpace(title)
	a.staffMessage = strings.TrimSpace(message)
	a.Recompute()
}

func (a *PillAggregator) SetReview(notes []types.PillItem, count int) {
	a.reviewNotes = ingestPillItems(notes)
	a.reviewCount = clampCount(count)
	a.Recompute()
}

// SetStaffCount updates the staff count without touching the lists.
func (a *PillAggregator) SetStaffCount(count int) {
	a.staffCount = clampCount(count)
	a.Recompute()
}

func (a *PillAggregator) SetFilters(showNotes, showReview bool) {
	a.showNotes = showNotes
	a.showReview = showReview
	a.Recompute()
}

func (a *PillAggregator) Recompute() {
	a.recomputeRuns++
	combined := make([]types.PillItem, 0, len(a.staffNotes)+len(a.reviewNotes))
	if a.showNotes {
		combined = append(combined, a.staffNotes...)
	}
	if a.showReview {
		combined = append(combined, a.reviewNotes...)
	}
	if a.filter != nil {
		combined = a.filter(combined)
	}
	stamps := make([]int64, len(combined))
	indexed := make([]int, len(combined))
	for i := range combined {
		indexed[i] = i
		stamps[i] = parsePillTimestamp(combined[i].Timestamp)
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		return stamps[indexed[i]] > stamps[indexed[j]]
	})
	sorted := make([]types.PillItem, len(combined))
	for i, idx := range indexed {
		sorted[i] = combined[idx]
	}
	a.combined = sorted
	a.activeIndex = 0
	count := 0
	if a.showNotes {
		count += a.staffCount
	}
	if a.showReview {
		count += a.reviewCount
	}
	a.count = count
}

// Navigate moves the active index by delta when the result stays in bounds.
func (a *PillAggregator) Navigate(delta int) bool {
	next := a.activeIndex + delta
	if delta == 0 || next < 0 || next >= len(a.combined) {
		return false
	}
	a.activeIndex = next
	return true
}

func (a *PillAggregator) Count() int {
	return a.count
}

func (a *PillAggregator) Items() []types.PillItem {
	out := make([]types.PillItem, len(a.combined))
	copy(out, a.combined)
	return out
}

func (a *PillAggregator) ActiveIndex() int {
	return a.activeIndex
}

func (a *PillAggregator) Summary(mode types.PillMode) types.PillSummary {
	summary := types.PillSummary{
		Count:       a.count,
		Mode:        mode,
		ActiveIndex: a.activeIndex,
		Total:       len(a.combined),
		Items:       a.Items(),
		Title:       a.staffTitle,
		Message:     a.staffMessage,
	}
	if a.activeIndex >= 0 && a.activeIndex < len(a.combined) {
		active := a.combined[a.activeIndex]
		summary.Active = active.Active()
		if active.Title != "" {
			summary.Title = active.Title
		}
		if active.Message != "" {
			summary.Message = active.Message
		}
	}
	return summary
}

func clampCount(count int) int {
	if count < 0 {
		return 0
	}
	return count
}
