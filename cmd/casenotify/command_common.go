package main

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"casenotify/internal/updatefeed"
)

const (
	version        = "dev"
	requestTimeout = 5 * time.Second
)

func usageError(cmd *cobra.Command, err error) error {
	return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
}

// withClient creates a client, makes sure the daemon is up and runs fn with
// a bounded context.
func withClient(wiring commandWiring, fn func(ctx context.Context, c daemonClient) error) error {
	c, err := wiring.newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := c.EnsureDaemon(ctx); err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}
	return fn(ctx, c)
}

// buildVersion returns the module version for tagged builds. Anything else
// is a development build, which keeps the update lifecycle in dev mode.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	v := strings.TrimPrefix(info.Main.Version, "v")
	if updatefeed.IsRelease(v) && !strings.Contains(v, "+dirty") {
		return v
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return version + "-" + setting.Value[:12]
		}
	}
	return version
}

func isDaemonUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}
