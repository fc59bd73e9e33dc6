package types

type MenuItemKind string

const (
	MenuItemAction    MenuItemKind = "action"
	MenuItemCheckbox  MenuItemKind = "checkbox"
	MenuItemSeparator MenuItemKind = "separator"
	MenuItemLabel     MenuItemKind = "label"
	MenuItemSubmenu   MenuItemKind = "submenu"
)

// Tray action ids. Each maps to one controller method in the dispatch table.
const (
	ActionOpenPortal       = "open-portal"
	ActionShowPending      = "show-pending"
	ActionTogglePause      = "toggle-pause"
	ActionSnooze15m        = "snooze-15m"
	ActionSnooze1h         = "snooze-1h"
	ActionSnooze4h         = "snooze-4h"
	ActionCancelSnooze     = "cancel-snooze"
	ActionToggleAfterHours = "toggle-after-hours"
	ActionToggleNotes      = "toggle-notes"
	ActionToggleReview     = "toggle-review"
	ActionClearNoteSnoozes = "clear-note-snoozes"
	ActionClearSenderMutes = "clear-sender-mutes"
	ActionCheckUpdates     = "check-updates"
	ActionInstallUpdate    = "install-update"
	ActionOpenStatus       = "open-status"
	ActionOpenChat         = "open-chat"
	ActionQuit             = "quit"
)

// Ids of items that are not actions.
const (
	MenuIDStatus = "status"
	MenuIDSnooze = "snooze"
)

type TrayMenuItem struct {
	ID       string         `json:"id,omitempty"`
	Label    string         `json:"label,omitempty"`
	Kind     MenuItemKind   `json:"kind"`
	Enabled  bool           `json:"enabled"`
	Checked  bool           `json:"checked,omitempty"`
	Children []TrayMenuItem `json:"children,omitempty"`
}

type TrayMenu struct {
	Title   string         `json:"title"`
	Tooltip string         `json:"tooltip"`
	Items   []TrayMenuItem `json:"items"`
}

// Find returns the item with id, searching submenus.
func (m TrayMenu) Find(id string) (TrayMenuItem, bool) {
	return findMenuItem(m.Items, id)
}

func findMenuItem(items []TrayMenuItem, id string) (TrayMenuItem, bool) {
	for _, item := range items {
		if item.ID == id && id != "" {
			return item, true
		}
		if found, ok := findMenuItem(item.Children, id); ok {
			return found, true
		}
	}
	return TrayMenuItem{}, false
}

// Shape lists kind and id of every item depth-first, ignoring labels and
// enabled state.
func (m TrayMenu) Shape() []string {
	var out []string
	var walk func(items []TrayMenuItem, prefix string)
	walk = func(items []TrayMenuItem, prefix string) {
		for _, item := range items {
			out = append(out, prefix+string(item.Kind)+":"+item.ID)
			walk(item.Children, prefix+"  ")
		}
	}
	walk(m.Items, "")
	return out
}
