package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"casenotify/internal/client"
	"casenotify/internal/types"
)

// daemonClient is the slice of the API client the commands use.
type daemonClient interface {
	EnsureDaemon(ctx context.Context) error
	Health(ctx context.Context) (*client.HealthResponse, error)
	State(ctx context.Context) (*types.NotificationStateSnapshot, error)
	PillSummary(ctx context.Context) (*types.PillSummary, error)
	UpdateState(ctx context.Context) (*types.UpdateState, error)
	SetPaused(ctx context.Context, paused bool) error
	SetSnooze(ctx context.Context, until time.Time) error
	ClearSnooze(ctx context.Context) error
	CheckForUpdates(ctx context.Context) error
	ShutdownDaemon(ctx context.Context) error
}

type clientFactory func() (daemonClient, error)

type commandWiring struct {
	stdout     io.Writer
	stderr     io.Writer
	newClient  clientFactory
	runDaemon  func(opts daemonRunOptions) error
	killDaemon func() error
	runTray    func(version string, restartDaemon bool) error
	now        func() time.Time
	version    string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newDaemonClient,
		runDaemon: runDaemonProcess,
		killDaemon: func() error {
			return killDaemonWithFactory(newDaemonClient)
		},
		runTray: runTerminalTray,
		now:     time.Now,
		version: buildVersion(),
	}
}

func newDaemonClient() (daemonClient, error) {
	return client.New()
}

func newRootCommand(wiring commandWiring) *cobra.Command {
	root := &cobra.Command{
		Use:   "casenotify",
		Short: "Desktop notification controller for Case Portal",
		Long: `casenotify keeps the Case Portal notification pill, tray menu and update
checks running in the background. Run "casenotify daemon" to start it; the
other commands talk to the running daemon.`,
		Version:       wiring.version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(wiring.stdout)
	root.SetErr(wiring.stderr)
	root.AddCommand(
		newDaemonCommand(wiring),
		newStateCommand(wiring),
		newPauseCommand(wiring, true),
		newPauseCommand(wiring, false),
		newSnoozeCommand(wiring),
		newCheckUpdatesCommand(wiring),
		newTrayCommand(wiring),
		newConfigCommand(wiring),
	)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(cmd, err)
	})
	return root
}
