package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"syscall"
	"time"
)

const (
	startTimeout = 4 * time.Second
	stopTimeout  = 2 * time.Second
	pollInterval = 150 * time.Millisecond
)

var (
	killProcess = terminateProcess
	startDaemon = StartBackgroundDaemon
)

// EnsureDaemon starts the daemon in the background unless one already
// answers /health.
func (c *Client) EnsureDaemon(ctx context.Context) error {
	return c.EnsureDaemonVersion(ctx, "", false)
}

// EnsureDaemonVersion is EnsureDaemon that also checks the daemon's version.
// With restart, a daemon running another version is stopped and replaced.
func (c *Client) EnsureDaemonVersion(ctx context.Context, want string, restart bool) error {
	if health, err := c.Health(ctx); err == nil && health.OK {
		if versionMatches(health, want) {
			return nil
		}
		if !restart {
			return versionMismatch(health, want)
		}
		if err := c.stopStale(ctx, health.PID); err != nil {
			return err
		}
	}
	if err := startDaemon(); err != nil {
		return err
	}
	return c.awaitHealthy(ctx, want)
}

func (c *Client) stopStale(ctx context.Context, pid int) error {
	if err := c.ShutdownDaemon(ctx); err != nil {
		if pid <= 0 {
			return err
		}
		if killErr := killProcess(pid); killErr != nil {
			return fmt.Errorf("stop stale daemon (pid %d): %w", pid, killErr)
		}
	}
	return poll(ctx, stopTimeout, func() error {
		if _, err := c.Health(ctx); err == nil {
			return errors.New("daemon still running")
		}
		return nil
	})
}

func (c *Client) awaitHealthy(ctx context.Context, want string) error {
	err := poll(ctx, startTimeout, func() error {
		health, err := c.Health(ctx)
		switch {
		case err != nil:
			return err
		case !health.OK:
			return errors.New("daemon reported not ok")
		case !versionMatches(health, want):
			return versionMismatch(health, want)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.reloadToken()
	return nil
}

// poll runs check until it succeeds, ctx ends or the timeout passes, and
// returns the last failure.
func poll(ctx context.Context, timeout time.Duration, check func() error) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
	last := check()
	for last != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return last
		case <-tick.C:
			last = check()
		}
	}
	return nil
}

func versionMatches(health *HealthResponse, want string) bool {
	return want == "" || health.Version == want
}

func versionMismatch(health *HealthResponse, want string) error {
	return fmt.Errorf("daemon version mismatch: running %s, want %s", health.Version, want)
}

func terminateProcess(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		return proc.Kill()
	}
	return proc.Signal(syscall.SIGTERM)
}
