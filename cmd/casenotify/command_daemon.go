package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"casenotify/internal/client"
	"casenotify/internal/config"
	"casenotify/internal/daemon"
	"casenotify/internal/logging"
	"casenotify/internal/tray"
	"casenotify/internal/updatefeed"
)

type daemonRunOptions struct {
	background bool
	tray       bool
}

func newDaemonCommand(wiring commandWiring) *cobra.Command {
	var (
		opts   daemonRunOptions
		kill   bool
		force  bool
		noTray bool
	)
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the notification controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kill {
				return wiring.killDaemon()
			}
			if force {
				if err := wiring.killDaemon(); err != nil {
					return err
				}
			}
			opts.tray = !noTray
			return wiring.runDaemon(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.background, "background", false, "run in background (logs to file)")
	cmd.Flags().BoolVar(&kill, "kill", false, "stop any running daemon and exit")
	cmd.Flags().BoolVar(&force, "force", false, "stop any running daemon before starting")
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "do not show the system tray icon")
	return cmd
}

func runDaemonProcess(opts daemonRunOptions) error {
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	core, err := config.LoadCoreConfigFromPath(configPath)
	if err != nil {
		return err
	}
	logger, closeLog := newDaemonLogger(opts.background, core.LogLevel())
	defer closeLog()

	tokenPath, err := config.TokenPath()
	if err != nil {
		return err
	}
	token, err := daemon.LoadOrCreateToken(tokenPath)
	if err != nil {
		return err
	}

	v := buildVersion()
	if !updatefeed.IsRelease(v) {
		core.Updates.DevMode = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := daemon.Config{
		Core:       core,
		ConfigPath: configPath,
		Token:      token,
		Version:    v,
		Logger:     logger,
	}
	var d *daemon.Daemon
	var presenter *tray.Presenter
	if opts.tray && core.Tray.Enabled {
		presenter = tray.NewPresenter(func(id string) { d.DispatchTrayAction(id) }, logger.With(logging.F("component", "tray")))
		cfg.Tray = presenter
		cfg.OnStop = tray.Quit
	}
	d, err = daemon.New(cfg)
	if err != nil {
		return err
	}

	if presenter == nil {
		return finishDaemon(d.Run(ctx), logger)
	}
	// The tray owns the main goroutine until the daemon stops and quits it.
	errCh := make(chan error, 1)
	tray.Run(presenter, func() {
		go func() { errCh <- d.Run(ctx) }()
	}, nil)
	return finishDaemon(<-errCh, logger)
}

func finishDaemon(err error, logger logging.Logger) error {
	if !errors.Is(err, daemon.ErrRestartRequested) {
		return err
	}
	logger.Info("daemon_relaunching")
	return relaunch()
}

// relaunch starts the freshly installed binary with the same arguments.
func relaunch() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func newDaemonLogger(background bool, level string) (logging.Logger, func()) {
	var out io.Writer = os.Stderr
	closeFn := func() {}
	if background {
		if logPath, err := config.LogPath(); err == nil {
			if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err == nil {
				if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
					out = file
					closeFn = func() { _ = file.Close() }
				}
			}
		}
	}
	return logging.New(out, logging.ParseLevel(level)), closeFn
}

func killDaemonWithFactory(newClient clientFactory) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := newClient()
	if err != nil {
		return err
	}
	err = c.ShutdownDaemon(ctx)
	if err == nil || isDaemonUnavailable(err) {
		return nil
	}
	if !client.IsStatus(err, http.StatusNotFound) {
		return err
	}
	resp, err := c.Health(ctx)
	if err != nil {
		if isDaemonUnavailable(err) {
			return nil
		}
		return err
	}
	if resp == nil || resp.PID <= 0 {
		return nil
	}
	proc, err := os.FindProcess(resp.PID)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}
