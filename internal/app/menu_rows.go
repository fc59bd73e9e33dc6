package app

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"casenotify/internal/types"
)

type menuRow struct {
	item  types.TrayMenuItem
	depth int
}

func (r menuRow) selectable() bool {
	switch r.item.Kind {
	case types.MenuItemAction, types.MenuItemCheckbox:
		return r.item.Enabled && r.item.ID != ""
	default:
		return false
	}
}

// flattenMenu lays the menu out as rows, submenu children indented under
// their parent.
func flattenMenu(items []types.TrayMenuItem, depth int) []menuRow {
	rows := make([]menuRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, menuRow{item: item, depth: depth})
		if item.Kind == types.MenuItemSubmenu {
			rows = append(rows, flattenMenu(item.Children, depth+1)...)
		}
	}
	return rows
}

// nextSelectable returns the next selectable row from start in direction
// step, wrapping around. It returns -1 when no row is selectable.
func nextSelectable(rows []menuRow, start, step int) int {
	n := len(rows)
	if n == 0 {
		return -1
	}
	for i := 1; i <= n; i++ {
		idx := ((start+step*i)%n + n) % n
		if rows[idx].selectable() {
			return idx
		}
	}
	return -1
}

// selectByID keeps the cursor on the same item across menu rebuilds.
func selectByID(rows []menuRow, id string, fallback int) int {
	if id != "" {
		for i, row := range rows {
			if row.item.ID == id && row.selectable() {
				return i
			}
		}
	}
	if fallback >= 0 && fallback < len(rows) && rows[fallback].selectable() {
		return fallback
	}
	return nextSelectable(rows, -1, 1)
}

func renderMenuRow(row menuRow, selected bool, width int) string {
	if row.item.Kind == types.MenuItemSeparator {
		return dividerStyle.Render(strings.Repeat("─", max(1, width)))
	}
	prefix := strings.Repeat("  ", row.depth)
	switch row.item.Kind {
	case types.MenuItemCheckbox:
		if row.item.Checked {
			prefix += "[x] "
		} else {
			prefix += "[ ] "
		}
	case types.MenuItemSubmenu:
		prefix += "▸ "
	}
	text := runewidth.Truncate(prefix+row.item.Label, max(1, width-2), "…")
	text = runewidth.FillRight(text, max(1, width-2))
	switch {
	case selected:
		return selectedStyle.Render("> " + text)
	case row.item.Kind == types.MenuItemLabel:
		return "  " + labelStyle.Render(text)
	case !row.item.Enabled:
		return "  " + disabledStyle.Render(text)
	default:
		return "  " + text
	}
}
