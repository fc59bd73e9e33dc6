package daemon

import "casenotify/internal/types"

const (
	pillClampMargin  = 8
	pillAnchorMargin = 16
)

// ClampPillPosition keeps a surface of the given size inside the work area
// with an 8px margin on every side. Each axis is clamped independently.
func ClampPillPosition(pos types.PillPosition, size types.Size, workArea types.Rect) types.PillPosition {
	return types.PillPosition{
		X: clampAxis(pos.X, workArea.X, workArea.Width, size.Width),
		Y: clampAxis(pos.Y, workArea.Y, workArea.Height, size.Height),
	}
}

func clampAxis(value, origin, extent, size int) int {
	lo := origin + pillClampMargin
	hi := origin + extent - size - pillClampMargin
	if hi < lo {
		hi = lo
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// DefaultPillPosition anchors to the bottom-right corner of the work area.
func DefaultPillPosition(size types.Size, workArea types.Rect) types.PillPosition {
	return types.PillPosition{
		X: workArea.X + workArea.Width - size.Width - pillAnchorMargin,
		Y: workArea.Y + workArea.Height - size.Height - pillAnchorMargin,
	}
}

// ResolvePillPosition uses the saved position when present, clamped to the
// current work area, and the default corner otherwise.
func ResolvePillPosition(saved *types.PillPosition, size types.Size, workArea types.Rect) types.PillPosition {
	if saved != nil {
		return ClampPillPosition(*saved, size, workArea)
	}
	return DefaultPillPosition(size, workArea)
}

// primaryWorkArea picks the primary display's work area, the first display
// when none is flagged primary, and fallback when nothing usable is known.
func primaryWorkArea(displays []types.Display, fallback types.Rect) types.Rect {
	var first *types.Display
	for i := range displays {
		display := &displays[i]
		if display.WorkArea.Empty() {
			continue
		}
		if display.Primary {
			return display.WorkArea
		}
		if first == nil {
			first = display
		}
	}
	if first != nil {
		return first.WorkArea
	}
	return fallback
}
