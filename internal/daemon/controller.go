package daemon

import (
	"context"
	"errors"
	"time"

	"casenotify/internal/config"
	"casenotify/internal/logging"
	"casenotify/internal/store"
	"casenotify/internal/types"
)

const (
	scheduleTickInterval = time.Minute
	positioningGrace     = 500 * time.Millisecond
	mainSurfaceWidth     = 1280
	mainSurfaceHeight    = 820
	auxSurfaceWidth      = 960
	auxSurfaceHeight     = 720
)

// UpdateFeed talks to the update distribution service. Check returns nil
// when no newer release is available.
type UpdateFeed interface {
	Check(ctx context.Context) (*types.UpdateInfo, error)
	Download(ctx context.Context, info types.UpdateInfo) (types.DownloadedUpdate, error)
	Apply(update types.DownloadedUpdate) error
}

type Options struct {
	Config     config.CoreConfig
	Version    string
	Prefs      *store.Preferences
	Host       SurfaceHost
	Tray       TrayPresenter
	Events     EventPublisher
	UpdateFeed UpdateFeed
	Metrics    *Metrics
	Clock      Clock
	Logger     logging.Logger
	// Quit is called on the event loop when the process should exit. It must
	// not block.
	Quit func()
}

// Controller owns all notification, pill, surface and update state. Every
// field is touched only from the event loop; exported methods hop onto it.
type Controller struct {
	loop    *EventLoop
	clock   Clock
	logger  logging.Logger
	metrics *Metrics
	prefs   *store.Preferences
	tray    TrayPresenter
	events  EventPublisher
	feed    UpdateFeed
	quit    func()
	version string

	cfg      config.CoreConfig
	schedule config.Schedule

	state       types.NotificationState
	lastPaused  bool
	suppression *SuppressionEngine
	pill        *PillAggregator
	surfaces    *SurfaceManager
	menu        types.TrayMenu

	displays     []types.Display
	pillMode     types.PillMode
	pillHidden   bool
	pillCard     bool
	pillPosition *types.PillPosition
	positioning  bool

	update       types.UpdateState
	downloaded   *types.DownloadedUpdate
	updateCancel context.CancelFunc

	renderer *rendererErrorLog

	lastScheduleValue bool

	collapseTimer    *singleSlotTimer
	positioningTimer *singleSlotTimer
	snoozeTimer      *singleSlotTimer
	scheduleTimer    *singleSlotTimer
	updateTimer      *singleSlotTimer
	updateResetTimer *singleSlotTimer

	started  bool
	quitting bool
}

func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	prefs := opts.Prefs
	if prefs == nil {
		prefs = store.NewPreferences(store.NewMemoryPreferenceStore(), logger)
	}
	var tray TrayPresenter = nopTrayPresenter{}
	if opts.Tray != nil {
		tray = opts.Tray
	}
	var events EventPublisher = nopEventPublisher{}
	if opts.Events != nil {
		events = opts.Events
	}
	quit := opts.Quit
	if quit == nil {
		quit = func() {}
	}
	loop := NewEventLoop(logger)
	c := &Controller{
		loop:     loop,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		prefs:    prefs,
		tray:     tray,
		events:   events,
		feed:     opts.UpdateFeed,
		quit:     quit,
		version:  opts.Version,
		cfg:      opts.Config,
		pillMode: types.PillModeCompact,
		update: types.UpdateState{
			Status:         types.UpdateStatusIdle,
			CurrentVersion: opts.Version,
		},
		renderer: newRendererErrorLog(rendererErrorCapacity, rendererAlertInterval),
	}
	c.schedule = c.loadSchedule(opts.Config)
	c.suppression = NewSuppressionEngine(prefs, clock)
	c.pill = NewPillAggregator(c.suppression.Filter)
	c.surfaces = NewSurfaceManager(opts.Host, opts.Config.FallbackURL(), metrics, logger)
	c.collapseTimer = newSingleSlotTimer(clock, loop)
	c.positioningTimer = newSingleSlotTimer(clock, loop)
	c.snoozeTimer = newSingleSlotTimer(clock, loop)
	c.scheduleTimer = newSingleSlotTimer(clock, loop)
	c.updateTimer = newSingleSlotTimer(clock, loop)
	c.updateResetTimer = newSingleSlotTimer(clock, loop)
	c.loadState()
	return c
}

func (c *Controller) loadSchedule(cfg config.CoreConfig) config.Schedule {
	schedule, err := cfg.Schedule()
	if err != nil {
		c.logger.Warn("business_hours_config_invalid", logging.F("error", err))
		return config.AlwaysOpen()
	}
	return schedule
}

func (c *Controller) loadState() {
	state := types.DefaultNotificationState()
	state.PausedByUser = store.GetOr(c.prefs, types.PrefPausedByUser, state.PausedByUser)
	state.AllowAfterHours = store.GetOr(c.prefs, types.PrefAllowAfterHours, state.AllowAfterHours)
	state.SnoozedUntilMs = store.GetOr(c.prefs, types.PrefSnoozedUntilMs, state.SnoozedUntilMs)
	state.ShowNotes = store.GetOr(c.prefs, types.PrefShowNotes, state.ShowNotes)
	state.ShowReview = store.GetOr(c.prefs, types.PrefShowReview, state.ShowReview)
	if state.SnoozedUntilMs < 0 {
		state.SnoozedUntilMs = 0
	}
	c.lastScheduleValue = c.schedule.Within(c.clock.Now())
	state.IsWithinBusinessHours = c.lastScheduleValue
	c.state = state
	c.pillPosition = store.GetOr[*types.PillPosition](c.prefs, types.PrefPillPosition, nil)
	c.pill.SetFilters(state.ShowNotes, state.ShowReview)
	c.lastPaused = c.effectivePaused()
}

// Start runs the event loop, creates the hidden main surface and arms the
// schedule, snooze and background update timers.
func (c *Controller) Start(ctx context.Context) error {
	c.loop.Start()
	return c.loop.Call(ctx, func() {
		if c.started {
			return
		}
		c.started = true
		c.openMain(false)
		c.armSnoozeTimer()
		c.scheduleBusinessHoursTick()
		c.scheduleBackgroundCheck(c.cfg.UpdateInitialDelay())
		c.metrics.effectivePaused.Set(boolGauge(c.lastPaused))
		c.rebuildMenu()
		c.logger.Info("controller_started",
			logging.F("version", c.version),
			logging.F("effective_paused", c.lastPaused),
			logging.F("preferences_backend", c.prefs.Backend()),
		)
	})
}

// Stop cancels timers and in-flight update work, then halts the loop.
func (c *Controller) Stop(ctx context.Context) error {
	err := c.loop.Call(ctx, func() {
		c.quitting = true
		c.surfaces.SetQuitting()
		for _, timer := range []*singleSlotTimer{
			c.collapseTimer, c.positioningTimer, c.snoozeTimer,
			c.scheduleTimer, c.updateTimer, c.updateResetTimer,
		} {
			timer.Cancel()
		}
		if c.updateCancel != nil {
			c.updateCancel()
			c.updateCancel = nil
		}
	})
	if err != nil && !errors.Is(err, ErrLoopStopped) {
		c.logger.Warn("controller_stop_failed", logging.F("error", err))
	}
	return c.loop.Stop(ctx)
}

func (c *Controller) Version() string {
	return c.version
}

func (c *Controller) Metrics() *Metrics {
	return c.metrics
}

// State returns a snapshot of the notification state.
func (c *Controller) State(ctx context.Context) (types.NotificationStateSnapshot, error) {
	var out types.NotificationStateSnapshot
	err := c.loop.Call(ctx, func() { out = c.snapshot() })
	return out, err
}

func (c *Controller) PillSummary(ctx context.Context) (types.PillSummary, error) {
	var out types.PillSummary
	err := c.loop.Call(ctx, func() { out = c.pill.Summary(c.pillMode) })
	return out, err
}

func (c *Controller) TrayMenu(ctx context.Context) (types.TrayMenu, error) {
	var out types.TrayMenu
	err := c.loop.Call(ctx, func() { out = c.menu })
	return out, err
}

func (c *Controller) UpdateState(ctx context.Context) (types.UpdateState, error) {
	var out types.UpdateState
	err := c.loop.Call(ctx, func() { out = c.update })
	return out, err
}

// Snapshot returns the initial frames sent to a new event subscriber.
func (c *Controller) Snapshot(ctx context.Context) ([]types.Event, error) {
	var out []types.Event
	err := c.loop.Call(ctx, func() {
		out = []types.Event{
			{Type: types.EventState, Payload: c.snapshot()},
			{Type: types.EventPillSummary, Payload: c.pill.Summary(c.pillMode)},
			{Type: types.EventTrayMenu, Payload: c.menu},
			{Type: types.EventUpdateState, Payload: c.update},
		}
	})
	return out, err
}

// HandleSurfaceEvent feeds a host event into the surface state machines.
func (c *Controller) HandleSurfaceEvent(ev types.SurfaceEvent) {
	c.loop.Post(func() { c.handleSurfaceEvent(ev) })
}

// SetDisplays records the displays reported by the host and repositions a
// live pill against the new primary work area.
func (c *Controller) SetDisplays(displays []types.Display) {
	copied := append([]types.Display(nil), displays...)
	c.loop.Post(func() {
		c.displays = copied
		if c.surfaces.Live(types.SurfacePill) != nil {
			c.positionPill()
		}
	})
}

// HostReset is called when the surface host was replaced. Surfaces it owned
// are gone, so the main surface and a due pill are recreated on the new one.
func (c *Controller) HostReset() {
	c.loop.Post(func() {
		c.surfaces.Reset()
		c.positioning = false
		c.positioningTimer.Cancel()
		c.collapseTimer.Cancel()
		c.pillMode = types.PillModeCompact
		if c.started && !c.quitting {
			c.openMain(false)
			c.renderPill(false, true)
		}
		c.logger.Info("surface_host_reset")
	})
}

// ApplyConfig swaps in a reloaded configuration. Business hours are
// re-evaluated at once and a live pill is resized.
func (c *Controller) ApplyConfig(cfg config.CoreConfig) {
	c.loop.Post(func() {
		c.cfg = cfg
		c.schedule = c.loadSchedule(cfg)
		c.surfaces.fallbackURL = cfg.FallbackURL()
		within := c.schedule.Within(c.clock.Now())
		if within != c.lastScheduleValue {
			c.lastScheduleValue = within
			c.setWithinBusinessHours(within)
		}
		if c.surfaces.Live(types.SurfacePill) != nil {
			c.positionPill()
		}
		c.logger.Info("config_applied", logging.F("business_hours", c.schedule.Enabled()))
	})
}

func (c *Controller) handleSurfaceEvent(ev types.SurfaceEvent) {
	if ev.Kind == types.SurfaceMoved && ev.Role == types.SurfacePill {
		live := c.surfaces.Live(types.SurfacePill)
		if live == nil || live.id != ev.SurfaceID {
			return
		}
		c.surfaces.HandleEvent(ev)
		if c.positioning {
			c.positioning = false
			c.positioningTimer.Cancel()
			return
		}
		if ev.X != nil && ev.Y != nil {
			c.movePill(types.PillPosition{X: *ev.X, Y: *ev.Y})
		}
		return
	}
	c.surfaces.HandleEvent(ev)
}

func (c *Controller) snapshot() types.NotificationStateSnapshot {
	notes, senders := c.suppression.Counts()
	return c.state.Snapshot(nowMillis(c.clock), notes, senders)
}

func (c *Controller) effectivePaused() bool {
	return c.state.EffectivePaused(nowMillis(c.clock))
}

func (c *Controller) openMain(show bool) {
	if c.surfaces.Live(types.SurfaceMain) != nil {
		if show {
			c.surfaces.Show(types.SurfaceMain)
		}
		return
	}
	c.surfaces.Open(types.SurfaceMain, c.cfg.MainURL(), types.SurfaceOptions{
		Width:     mainSurfaceWidth,
		Height:    mainSurfaceHeight,
		Title:     trayAppName,
		Movable:   true,
		Resizable: true,
		Show:      show,
	})
	c.surfaces.Send(types.SurfaceMain, types.ChannelNotificationState, c.snapshot())
}

func (c *Controller) openAux(role types.SurfaceRole, url, title string) {
	if c.surfaces.Show(role) {
		return
	}
	c.surfaces.Open(role, url, types.SurfaceOptions{
		Width:     auxSurfaceWidth,
		Height:    auxSurfaceHeight,
		Title:     title,
		Movable:   true,
		Resizable: true,
		Show:      true,
	})
}

func (c *Controller) quitApp() {
	if c.quitting {
		return
	}
	c.quitting = true
	c.surfaces.SetQuitting()
	c.logger.Info("controller_quit")
	c.quit()
}
