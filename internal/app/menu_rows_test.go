package app

import (
	"strings"
	"testing"

	"casenotify/internal/types"
)

func sampleMenu() types.TrayMenu {
	return types.TrayMenu{
		Title:   "2",
		Tooltip: "Case Portal: Notifications on, 2 pending",
		Items: []types.TrayMenuItem{
			{ID: types.MenuIDStatus, Label: "Notifications on", Kind: types.MenuItemLabel},
			{ID: types.ActionOpenPortal, Label: "Open Case Portal", Kind: types.MenuItemAction, Enabled: true},
			{Kind: types.MenuItemSeparator},
			{ID: types.ActionTogglePause, Label: "Pause notifications", Kind: types.MenuItemAction, Enabled: true},
			{ID: types.MenuIDSnooze, Label: "Snooze", Kind: types.MenuItemSubmenu, Enabled: true, Children: []types.TrayMenuItem{
				{ID: types.ActionSnooze15m, Label: "15 minutes", Kind: types.MenuItemAction, Enabled: true},
				{ID: types.ActionCancelSnooze, Label: "Cancel snooze", Kind: types.MenuItemAction},
			}},
			{ID: types.ActionToggleNotes, Label: "Show staff notes", Kind: types.MenuItemCheckbox, Enabled: true, Checked: true},
		},
	}
}

func TestFlattenMenuIndentsChildren(t *testing.T) {
	rows := flattenMenu(sampleMenu().Items, 0)
	if len(rows) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(rows))
	}
	if rows[5].item.ID != types.ActionSnooze15m || rows[5].depth != 1 {
		t.Fatalf("expected snooze child at depth 1, got %+v", rows[5])
	}
	if rows[7].depth != 0 {
		t.Fatalf("expected depth to return to 0 after submenu")
	}
}

func TestNextSelectableSkipsInertRows(t *testing.T) {
	rows := flattenMenu(sampleMenu().Items, 0)
	first := nextSelectable(rows, -1, 1)
	if rows[first].item.ID != types.ActionOpenPortal {
		t.Fatalf("expected open portal first, got %q", rows[first].item.ID)
	}
	next := nextSelectable(rows, first, 1)
	if rows[next].item.ID != types.ActionTogglePause {
		t.Fatalf("expected separator skipped, got %q", rows[next].item.ID)
	}
	// submenu header and the disabled cancel are skipped
	next = nextSelectable(rows, next, 1)
	if rows[next].item.ID != types.ActionSnooze15m {
		t.Fatalf("expected snooze child, got %q", rows[next].item.ID)
	}
	next = nextSelectable(rows, next, 1)
	if rows[next].item.ID != types.ActionToggleNotes {
		t.Fatalf("expected disabled row skipped, got %q", rows[next].item.ID)
	}
	wrapped := nextSelectable(rows, next, 1)
	if wrapped != first {
		t.Fatalf("expected wrap to first row, got %d", wrapped)
	}
	if back := nextSelectable(rows, first, -1); back != next {
		t.Fatalf("expected reverse wrap to last row, got %d", back)
	}
}

func TestNextSelectableWithoutCandidates(t *testing.T) {
	rows := []menuRow{{item: types.TrayMenuItem{Kind: types.MenuItemLabel, Label: "x"}}}
	if got := nextSelectable(rows, 0, 1); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
	if got := nextSelectable(nil, 0, 1); got != -1 {
		t.Fatalf("expected -1 for empty rows, got %d", got)
	}
}

func TestSelectByIDFollowsItem(t *testing.T) {
	rows := flattenMenu(sampleMenu().Items, 0)
	if got := selectByID(rows, types.ActionToggleNotes, 1); rows[got].item.ID != types.ActionToggleNotes {
		t.Fatalf("expected selection to follow id, got %q", rows[got].item.ID)
	}
	if got := selectByID(rows, "gone", 3); got != 3 {
		t.Fatalf("expected fallback index, got %d", got)
	}
	if got := selectByID(rows, "gone", 0); rows[got].item.ID != types.ActionOpenPortal {
		t.Fatalf("expected first selectable when fallback is inert, got %d", got)
	}
}

func TestRenderMenuRowTruncatesLongLabels(t *testing.T) {
	row := menuRow{item: types.TrayMenuItem{ID: "x", Label: strings.Repeat("long ", 20), Kind: types.MenuItemAction, Enabled: true}}
	out := renderMenuRow(row, false, 20)
	if !strings.Contains(out, "…") {
		t.Fatalf("expected ellipsis in %q", out)
	}
}

func TestRenderMenuRowMarksCheckbox(t *testing.T) {
	checked := menuRow{item: types.TrayMenuItem{ID: "x", Label: "Show staff notes", Kind: types.MenuItemCheckbox, Enabled: true, Checked: true}}
	if out := renderMenuRow(checked, false, 40); !strings.Contains(out, "[x] Show staff notes") {
		t.Fatalf("expected checked marker, got %q", out)
	}
	checked.item.Checked = false
	if out := renderMenuRow(checked, false, 40); !strings.Contains(out, "[ ] Show staff notes") {
		t.Fatalf("expected unchecked marker, got %q", out)
	}
}
