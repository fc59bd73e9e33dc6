package daemon

import (
	"fmt"
	"strconv"
	"time"

	"casenotify/internal/types"
)

const trayAppName = "Case Portal"

type TrayMenuInput struct {
	State        types.NotificationStateSnapshot
	PendingCount int
	Update       types.UpdateState
	Now          time.Time
}

// BuildTrayMenu describes the whole tray menu for the given state. The item
// list, ids and kinds never change between calls; only labels, enabled and
// checked flags do.
func BuildTrayMenu(in TrayMenuInput) types.TrayMenu {
	state := in.State
	pending := in.PendingCount
	if pending < 0 {
		pending = 0
	}
	title := ""
	if pending > 0 {
		title = strconv.Itoa(pending)
	}
	status := trayStatusLabel(in)
	return types.TrayMenu{
		Title:   title,
		Tooltip: fmt.Sprintf("%s: %s, %d pending", trayAppName, status, pending),
		Items: []types.TrayMenuItem{
			{ID: types.MenuIDStatus, Label: status, Kind: types.MenuItemLabel},
			separator(),
			action(types.ActionOpenPortal, "Open "+trayAppName, true),
			action(types.ActionShowPending, fmt.Sprintf("Show pending (%d)", pending), pending > 0),
			separator(),
			action(types.ActionTogglePause, pauseLabel(state.PausedByUser), true),
			{
				ID:      types.MenuIDSnooze,
				Label:   snoozeMenuLabel(state, in.Now),
				Kind:    types.MenuItemSubmenu,
				Enabled: true,
				Children: []types.TrayMenuItem{
					action(types.ActionSnooze15m, "15 minutes", true),
					action(types.ActionSnooze1h, "1 hour", true),
					action(types.ActionSnooze4h, "4 hours", true),
					separator(),
					action(types.ActionCancelSnooze, "Cancel snooze", state.SnoozeActive),
				},
			},
			checkbox(types.ActionToggleAfterHours, "Notify after hours", state.AllowAfterHours),
			checkbox(types.ActionToggleNotes, "Show staff notes", state.ShowNotes),
			checkbox(types.ActionToggleReview, "Show review notes", state.ShowReview),
			separator(),
			action(types.ActionClearNoteSnoozes, fmt.Sprintf("Clear snoozed notes (%d)", state.SnoozedNoteCount), state.SnoozedNoteCount > 0),
			action(types.ActionClearSenderMutes, fmt.Sprintf("Clear muted senders (%d)", state.MutedSenderCount), state.MutedSenderCount > 0),
			separator(),
			action(types.ActionCheckUpdates, updateStatusLabel(in.Update), !in.Update.Status.Busy()),
			action(types.ActionInstallUpdate, installLabel(in.Update), in.Update.ReadyToInstall),
			separator(),
			action(types.ActionOpenStatus, "System status", true),
			action(types.ActionOpenChat, "Support chat", true),
			separator(),
			action(types.ActionQuit, "Quit", true),
		},
	}
}

func action(id, label string, enabled bool) types.TrayMenuItem {
	return types.TrayMenuItem{ID: id, Label: label, Kind: types.MenuItemAction, Enabled: enabled}
}

func checkbox(id, label string, checked bool) types.TrayMenuItem {
	return types.TrayMenuItem{ID: id, Label: label, Kind: types.MenuItemCheckbox, Enabled: true, Checked: checked}
}

func separator() types.TrayMenuItem {
	return types.TrayMenuItem{Kind: types.MenuItemSeparator}
}

func pauseLabel(paused bool) string {
	if paused {
		return "Resume notifications"
	}
	return "Pause notifications"
}

func trayStatusLabel(in TrayMenuInput) string {
	state := in.State
	switch {
	case state.PausedByUser:
		return "Paused"
	case state.SnoozeActive:
		return "Snoozed until " + formatClock(state.SnoozedUntilMs, in.Now)
	case state.EffectivePaused:
		return "Paused outside business hours"
	default:
		return "Notifications on"
	}
}

func snoozeMenuLabel(state types.NotificationStateSnapshot, now time.Time) string {
	if state.SnoozeActive {
		return "Snooze (until " + formatClock(state.SnoozedUntilMs, now) + ")"
	}
	return "Snooze"
}

func formatClock(ms int64, now time.Time) string {
	loc := now.Location()
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format("15:04")
}

func updateStatusLabel(update types.UpdateState) string {
	switch update.Status {
	case types.UpdateStatusChecking:
		return "Checking for updates…"
	case types.UpdateStatusDownloading:
		if update.Version != "" {
			return "Downloading v" + update.Version + "…"
		}
		return "Downloading update…"
	case types.UpdateStatusDownloaded:
		return "Ready v" + update.ReadyVersion
	case types.UpdateStatusUpToDate:
		return "Up to date"
	case types.UpdateStatusError:
		return "Update check failed"
	default:
		return "Check for updates"
	}
}

func installLabel(update types.UpdateState) string {
	if update.ReadyToInstall && update.ReadyVersion != "" {
		return "Restart to apply v" + update.ReadyVersion
	}
	return "Restart to apply update"
}
