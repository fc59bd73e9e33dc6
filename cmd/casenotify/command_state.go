package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"casenotify/internal/types"
)

type stateOutput struct {
	State  *types.NotificationStateSnapshot `json:"state"`
	Pill   *types.PillSummary               `json:"pill"`
	Update *types.UpdateState               `json:"update"`
}

func newStateCommand(wiring commandWiring) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show notification, pill and update state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(wiring, func(ctx context.Context, c daemonClient) error {
				out, err := fetchState(ctx, c)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(wiring.stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(out)
				}
				printState(wiring.stdout, out, wiring.now())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func fetchState(ctx context.Context, c daemonClient) (stateOutput, error) {
	state, err := c.State(ctx)
	if err != nil {
		return stateOutput{}, err
	}
	pill, err := c.PillSummary(ctx)
	if err != nil {
		return stateOutput{}, err
	}
	update, err := c.UpdateState(ctx)
	if err != nil {
		return stateOutput{}, err
	}
	return stateOutput{State: state, Pill: pill, Update: update}, nil
}

func printState(w io.Writer, out stateOutput, now time.Time) {
	writer := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	defer writer.Flush()
	state := out.State
	fmt.Fprintf(writer, "notifications\t%s\n", notificationsLabel(state, now))
	fmt.Fprintf(writer, "paused by user\t%s\n", yesNo(state.PausedByUser))
	fmt.Fprintf(writer, "after hours\t%s\n", afterHoursLabel(state))
	fmt.Fprintf(writer, "filters\t%s\n", filtersLabel(state))
	if state.SnoozedNoteCount > 0 || state.MutedSenderCount > 0 {
		fmt.Fprintf(writer, "suppressed\t%d notes, %d senders\n", state.SnoozedNoteCount, state.MutedSenderCount)
	}
	fmt.Fprintf(writer, "pending\t%d\n", out.Pill.Count)
	if out.Pill.Count > 0 && out.Pill.Title != "" {
		fmt.Fprintf(writer, "latest\t%s\n", out.Pill.Title)
	}
	fmt.Fprintf(writer, "version\t%s\n", out.Update.CurrentVersion)
	fmt.Fprintf(writer, "update\t%s\n", updateLabel(out.Update))
}

func notificationsLabel(state *types.NotificationStateSnapshot, now time.Time) string {
	switch {
	case !state.EffectivePaused:
		return "on"
	case state.PausedByUser:
		return "paused"
	case state.SnoozeActive:
		return "snoozed until " + time.UnixMilli(state.SnoozedUntilMs).In(now.Location()).Format("15:04")
	default:
		return "paused outside business hours"
	}
}

func afterHoursLabel(state *types.NotificationStateSnapshot) string {
	within := "outside business hours"
	if state.IsWithinBusinessHours {
		within = "within business hours"
	}
	if state.AllowAfterHours {
		return "allowed (" + within + ")"
	}
	return "blocked (" + within + ")"
}

func filtersLabel(state *types.NotificationStateSnapshot) string {
	var parts []string
	if state.ShowNotes {
		parts = append(parts, "staff notes")
	}
	if state.ShowReview {
		parts = append(parts, "review")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func updateLabel(u *types.UpdateState) string {
	switch {
	case u.ReadyToInstall:
		return "v" + u.ReadyVersion + " ready to install"
	case u.Status == types.UpdateStatusError:
		return "error: " + u.Error
	case u.Status == "":
		return string(types.UpdateStatusIdle)
	default:
		return string(u.Status)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func newPauseCommand(wiring commandWiring, pause bool) *cobra.Command {
	use, short, done := "resume", "Resume notifications", "notifications resumed"
	if pause {
		use, short, done = "pause", "Pause notifications until resumed", "notifications paused"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(wiring, func(ctx context.Context, c daemonClient) error {
				if err := c.SetPaused(ctx, pause); err != nil {
					return err
				}
				fmt.Fprintln(wiring.stdout, done)
				return nil
			})
		},
	}
}

func newSnoozeCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:     "snooze <duration|off>",
		Short:   "Snooze notifications for a duration such as 15m or 2h",
		Example: `  casenotify snooze 1h
  casenotify snooze off`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := strings.TrimSpace(args[0])
			if strings.EqualFold(arg, "off") {
				return withClient(wiring, func(ctx context.Context, c daemonClient) error {
					if err := c.ClearSnooze(ctx); err != nil {
						return err
					}
					fmt.Fprintln(wiring.stdout, "snooze cleared")
					return nil
				})
			}
			d, err := time.ParseDuration(arg)
			if err != nil || d <= 0 {
				return usageError(cmd, fmt.Errorf("invalid duration %q", arg))
			}
			until := wiring.now().Add(d)
			return withClient(wiring, func(ctx context.Context, c daemonClient) error {
				if err := c.SetSnooze(ctx, until); err != nil {
					return err
				}
				fmt.Fprintf(wiring.stdout, "snoozed until %s\n", until.Format("15:04"))
				return nil
			})
		},
	}
}

func newCheckUpdatesCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "check-updates",
		Short: "Ask the daemon to check for a new release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(wiring, func(ctx context.Context, c daemonClient) error {
				if err := c.CheckForUpdates(ctx); err != nil {
					return err
				}
				fmt.Fprintln(wiring.stdout, "update check started")
				return nil
			})
		},
	}
}
