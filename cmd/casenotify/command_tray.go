package main

import (
	"context"

	"github.com/spf13/cobra"

	"casenotify/internal/app"
	"casenotify/internal/client"
)

func newTrayCommand(wiring commandWiring) *cobra.Command {
	var restartDaemon bool
	cmd := &cobra.Command{
		Use:     "tray",
		Aliases: []string{"tui"},
		Short:   "Show the tray menu and pending notifications in the terminal",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wiring.runTray(wiring.version, restartDaemon)
		},
	}
	cmd.Flags().BoolVar(&restartDaemon, "restart-daemon", false, "replace a running daemon built from another version")
	return cmd
}

func runTerminalTray(version string, restartDaemon bool) error {
	c, err := client.New()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := c.EnsureDaemonVersion(ctx, version, restartDaemon); err != nil {
		return err
	}
	return app.Run(c)
}
