package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"casenotify/internal/config"
	"casenotify/internal/desktop"
	"casenotify/internal/logging"
	"casenotify/internal/shell"
	"casenotify/internal/store"
	"casenotify/internal/updatefeed"
)

const (
	trayActionTimeout = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// ErrRestartRequested is returned by Run after an update was installed; the
// caller should start the new binary.
var ErrRestartRequested = errors.New("restart requested to finish update")

type Config struct {
	Core       config.CoreConfig
	ConfigPath string
	Token      string
	Version    string
	Logger     logging.Logger
	// Tray is optional. When set it receives every menu rebuild.
	Tray TrayPresenter
	// OnStop runs once after the daemon has shut down.
	OnStop func()
}

// Daemon wires the controller to its preference store, surface host, update
// feed and HTTP listener.
type Daemon struct {
	cfg        config.CoreConfig
	configPath string
	token      string
	version    string
	logger     logging.Logger
	onStop     func()

	prefs      *store.Preferences
	hub        *EventHub
	host       *shell.Host
	feed       *updatefeed.Feed
	controller *Controller

	stopOnce sync.Once
	stopCh   chan struct{}
	server   *http.Server
}

func New(cfg Config) (*Daemon, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	prefsPath, err := cfg.Core.PreferencesPath()
	if err != nil {
		return nil, err
	}
	backend, err := store.Open(cfg.Core.StorageBackend(), prefsPath)
	if err != nil {
		return nil, err
	}
	prefs := store.NewPreferences(backend, logger.With(logging.F("component", "preferences")))

	notifier, err := desktop.NewNotifier(cfg.Core.DesktopNotifier(), nil, logger)
	if err != nil {
		logger.Warn("desktop_notifier_invalid", logging.F("error", err))
		notifier, _ = desktop.NewNotifier("auto", nil, logger)
	}
	fallback := desktop.NewFallback(desktop.OpenURL, notifier, logger.With(logging.F("component", "fallback")))
	host := shell.NewHost(fallback, logger.With(logging.F("component", "shell")))
	hub := NewEventHub(logger)

	d := &Daemon{
		cfg:        cfg.Core,
		configPath: cfg.ConfigPath,
		token:      cfg.Token,
		version:    cfg.Version,
		logger:     logger,
		onStop:     cfg.OnStop,
		prefs:      prefs,
		hub:        hub,
		host:       host,
		stopCh:     make(chan struct{}),
	}

	var feed UpdateFeed
	if !cfg.Core.Updates.DevMode {
		d.feed, err = newUpdateFeed(cfg.Core, cfg.Version, logger)
		if err != nil {
			logger.Warn("update_feed_disabled", logging.F("error", err))
		} else {
			feed = d.feed
		}
	}

	d.controller = NewController(Options{
		Config:     cfg.Core,
		Version:    cfg.Version,
		Prefs:      prefs,
		Host:       host,
		Tray:       cfg.Tray,
		Events:     hub,
		UpdateFeed: feed,
		Logger:     logger.With(logging.F("component", "controller")),
		Quit:       d.requestStop,
	})
	fallback.SetSink(d.controller)
	host.SetSink(d.controller)
	return d, nil
}

func newUpdateFeed(cfg config.CoreConfig, version string, logger logging.Logger) (*updatefeed.Feed, error) {
	dir, err := config.UpdatesDir()
	if err != nil {
		return nil, err
	}
	return updatefeed.New(updatefeed.Options{
		BaseURL:        cfg.FeedURL(),
		Channel:        cfg.FeedChannel(),
		CurrentVersion: version,
		Dir:            dir,
		Logger:         logger.With(logging.F("component", "updates")),
	})
}

func (d *Daemon) Controller() *Controller {
	return d.controller
}

// DispatchTrayAction is the tray click handler. Errors are only logged.
func (d *Daemon) DispatchTrayAction(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), trayActionTimeout)
	defer cancel()
	if err := d.controller.DispatchTrayAction(ctx, id); err != nil {
		d.logger.Warn("tray_action_failed", logging.F("action", id), logging.F("error", err))
	}
}

// Stop asks Run to shut down. It does not wait.
func (d *Daemon) Stop() {
	d.requestStop()
}

func (d *Daemon) requestStop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// Run serves until ctx is cancelled, the controller quits or the shutdown
// endpoint is hit.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.finish()

	api := &API{
		Version:    d.version,
		Controller: d.controller,
		Hub:        d.hub,
		Shell:      d.host,
		Logger:     d.logger,
		Shutdown: func(context.Context) error {
			d.requestStop()
			return nil
		},
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	d.server = &http.Server{
		Addr:              d.cfg.DaemonAddress(),
		Handler:           LoggingMiddleware(d.logger, TokenAuthMiddleware(d.token, mux)),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", d.server.Addr)
	if err != nil {
		return err
	}
	if err := d.controller.Start(ctx); err != nil {
		_ = listener.Close()
		return err
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	d.watchConfig(watchCtx)

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("daemon_listening", logging.F("addr", "http://"+d.server.Addr), logging.F("version", d.version))
		errCh <- d.server.Serve(listener)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case <-d.stopCh:
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.controller.Stop(shutdownCtx); err != nil {
		d.logger.Warn("controller_stop_failed", logging.F("error", err))
	}
	if err := d.server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	if serveErr != nil {
		return serveErr
	}
	if d.feed != nil && d.feed.Applied() != "" {
		return ErrRestartRequested
	}
	return nil
}

func (d *Daemon) watchConfig(ctx context.Context) {
	if d.configPath == "" {
		return
	}
	watcher, err := config.NewWatcher(d.configPath, func(cfg config.CoreConfig) {
		d.logger.Info("config_reloaded", logging.F("path", d.configPath))
		d.controller.ApplyConfig(cfg)
	}, config.WithWatchErrors(func(err error) {
		d.logger.Warn("config_reload_failed", logging.F("error", err))
	}))
	if err != nil {
		d.logger.Warn("config_watch_disabled", logging.F("error", err))
		return
	}
	go func() {
		<-ctx.Done()
		_ = watcher.Close()
	}()
	go watcher.Run(ctx)
}

func (d *Daemon) finish() {
	if err := d.prefs.Close(); err != nil {
		d.logger.Warn("preferences_close_failed", logging.F("error", err))
	}
	if d.onStop != nil {
		d.onStop()
	}
	d.logger.Info("daemon_stopped")
}
