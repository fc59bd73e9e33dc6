package daemon

import (
	"github.com/google/uuid"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

type surfaceLifecycle string

const (
	surfaceUncreated surfaceLifecycle = "uncreated"
	surfaceLoading   surfaceLifecycle = "loading"
	surfaceReady     surfaceLifecycle = "ready"
	surfaceDestroyed surfaceLifecycle = "destroyed"
)

const maxPillLoadRetries = 5

// surfaceTransitions lists the events each lifecycle state accepts. Anything
// else is dropped as stale.
var surfaceTransitions = map[surfaceLifecycle]map[types.SurfaceEventKind]bool{
	surfaceLoading: {
		types.SurfaceLoaded:         true,
		types.SurfaceLoadFailed:     true,
		types.SurfaceCrashed:        true,
		types.SurfaceUnresponsive:   true,
		types.SurfaceCloseRequested: true,
		types.SurfaceClosed:         true,
		types.SurfaceMoved:          true,
	},
	surfaceReady: {
		types.SurfaceLoadFailed:     true,
		types.SurfaceCrashed:        true,
		types.SurfaceUnresponsive:   true,
		types.SurfaceCloseRequested: true,
		types.SurfaceClosed:         true,
		types.SurfaceMoved:          true,
	},
}

type heldMessage struct {
	channel string
	payload any
}

type surface struct {
	id            string
	role          types.SurfaceRole
	lifecycle     surfaceLifecycle
	url           string
	visible       bool
	held          []heldMessage
	fallbackTried bool
	failedLoads   int
}

func (s *surface) hold(channel string, payload any) {
	for i := range s.held {
		if s.held[i].channel == channel {
			s.held[i].payload = payload
			return
		}
	}
	s.held = append(s.held, heldMessage{channel: channel, payload: payload})
}

// SurfaceManager keeps at most one live surface per role and drives each
// through uncreated, loading, ready and destroyed.
type SurfaceManager struct {
	host        SurfaceHost
	logger      logging.Logger
	metrics     *Metrics
	newID       func() string
	live        map[types.SurfaceRole]*surface
	quitting    bool
	fallbackURL string
}

func NewSurfaceManager(host SurfaceHost, fallbackURL string, metrics *Metrics, logger logging.Logger) *SurfaceManager {
	if host == nil {
		host = nopSurfaceHost{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &SurfaceManager{
		host:        host,
		logger:      logger,
		metrics:     metrics,
		newID:       func() string { return uuid.NewString() },
		live:        map[types.SurfaceRole]*surface{},
		fallbackURL: fallbackURL,
	}
}

func (m *SurfaceManager) Live(role types.SurfaceRole) *surface {
	s, ok := m.live[role]
	if !ok || s.lifecycle == surfaceDestroyed {
		return nil
	}
	return s
}

func (m *SurfaceManager) Lifecycle(role types.SurfaceRole) surfaceLifecycle {
	if s := m.Live(role); s != nil {
		return s.lifecycle
	}
	return surfaceUncreated
}

// Open returns the live surface for role, creating it when none exists.
func (m *SurfaceManager) Open(role types.SurfaceRole, url string, opts types.SurfaceOptions) (*surface, bool) {
	if s := m.Live(role); s != nil {
		return s, false
	}
	s := &surface{
		id:        m.newID(),
		role:      role,
		lifecycle: surfaceLoading,
		url:       url,
		visible:   opts.Show,
	}
	m.live[role] = s
	if err := m.host.Create(s.id, role, url, opts); err != nil {
		m.logger.Warn("surface_create_failed",
			logging.F("role", role),
			logging.F("surface_id", s.id),
			logging.F("error", err),
		)
	}
	m.logger.Info("surface_created", logging.F("role", role), logging.F("surface_id", s.id))
	return s, true
}

// Show focuses a live surface. It reports false when the role has none.
func (m *SurfaceManager) Show(role types.SurfaceRole) bool {
	s := m.Live(role)
	if s == nil {
		return false
	}
	s.visible = true
	m.call("surface_show_failed", s, m.host.Show(s.id))
	m.call("surface_focus_failed", s, m.host.Focus(s.id))
	return true
}

func (m *SurfaceManager) Hide(role types.SurfaceRole) {
	s := m.Live(role)
	if s == nil {
		return
	}
	s.visible = false
	m.call("surface_hide_failed", s, m.host.Hide(s.id))
}

func (m *SurfaceManager) Destroy(role types.SurfaceRole) {
	s := m.Live(role)
	if s == nil {
		return
	}
	m.markDestroyed(s)
	m.call("surface_destroy_failed", s, m.host.Destroy(s.id))
	m.logger.Info("surface_destroyed", logging.F("role", role), logging.F("surface_id", s.id))
}

func (m *SurfaceManager) Navigate(role types.SurfaceRole, url string) {
	s := m.Live(role)
	if s == nil || url == "" {
		return
	}
	s.url = url
	s.lifecycle = surfaceLoading
	m.call("surface_navigate_failed", s, m.host.Navigate(s.id, url))
}

func (m *SurfaceManager) SetBounds(role types.SurfaceRole, bounds types.Rect) {
	s := m.Live(role)
	if s == nil {
		return
	}
	m.call("surface_bounds_failed", s, m.host.SetBounds(s.id, bounds))
}

// Send delivers a message to role. Messages for a surface that is still
// loading are held, latest per channel, until it reports loaded.
func (m *SurfaceManager) Send(role types.SurfaceRole, channel string, payload any) bool {
	s := m.Live(role)
	if s == nil {
		return false
	}
	if s.lifecycle != surfaceReady {
		s.hold(channel, payload)
		return true
	}
	m.call("surface_send_failed", s, m.host.Send(s.id, channel, payload))
	return true
}

func (m *SurfaceManager) ShowDialog(dialog types.Dialog) {
	if err := m.host.ShowDialog(dialog); err != nil {
		m.logger.Warn("dialog_show_failed", logging.F("title", dialog.Title), logging.F("error", err))
	}
}

func (m *SurfaceManager) SetQuitting() {
	m.quitting = true
}

// Reset forgets every surface without calling the host. Used when the host
// itself went away and took its windows with it.
func (m *SurfaceManager) Reset() {
	for role, s := range m.live {
		s.lifecycle = surfaceDestroyed
		delete(m.live, role)
	}
}

// HandleEvent applies ev to the live surface it names and reports whether it
// was accepted. Events from a replaced surface, or that the surface's
// current state does not accept, are ignored.
func (m *SurfaceManager) HandleEvent(ev types.SurfaceEvent) bool {
	s := m.lookup(ev)
	if s == nil {
		m.logger.Debug("surface_event_stale",
			logging.F("surface_id", ev.SurfaceID),
			logging.F("role", ev.Role),
			logging.F("kind", ev.Kind),
		)
		return false
	}
	if !surfaceTransitions[s.lifecycle][ev.Kind] {
		m.logger.Debug("surface_event_ignored",
			logging.F("surface_id", s.id),
			logging.F("role", s.role),
			logging.F("kind", ev.Kind),
			logging.F("lifecycle", s.lifecycle),
		)
		return false
	}
	if m.metrics != nil {
		m.metrics.surfaceEvents.WithLabelValues(string(s.role), string(ev.Kind)).Inc()
	}
	switch ev.Kind {
	case types.SurfaceLoaded:
		s.lifecycle = surfaceReady
		s.failedLoads = 0
		if s.role == types.SurfaceMain {
			s.fallbackTried = false
		}
		m.flush(s)
	case types.SurfaceLoadFailed, types.SurfaceCrashed, types.SurfaceUnresponsive:
		m.recover(s, ev)
	case types.SurfaceCloseRequested:
		if s.role == types.SurfaceMain && !m.quitting {
			m.Hide(s.role)
			return true
		}
		m.Destroy(s.role)
	case types.SurfaceClosed:
		m.markDestroyed(s)
		m.logger.Info("surface_closed", logging.F("role", s.role), logging.F("surface_id", s.id))
	case types.SurfaceMoved:
	}
	return true
}

func (m *SurfaceManager) lookup(ev types.SurfaceEvent) *surface {
	if ev.Role != "" {
		s := m.Live(ev.Role)
		if s == nil || s.id != ev.SurfaceID {
			return nil
		}
		return s
	}
	for _, s := range m.live {
		if s.id == ev.SurfaceID && s.lifecycle != surfaceDestroyed {
			return s
		}
	}
	return nil
}

// recover is the single recovery path for load failures, crashes and
// unresponsive content. The main surface retries a failed load once against
// the fallback origin. The pill reloads after a failed load, up to
// maxPillLoadRetries in a row, since its queued summaries wait for it. Status
// and chat ignore load failures. Crashes reload.
func (m *SurfaceManager) recover(s *surface, ev types.SurfaceEvent) {
	fields := []logging.Field{
		logging.F("role", s.role),
		logging.F("surface_id", s.id),
		logging.F("kind", ev.Kind),
		logging.F("url", firstNonEmptyString(ev.URL, s.url)),
	}
	if ev.Error != "" {
		fields = append(fields, logging.F("error", ev.Error))
	}
	if ev.Kind == types.SurfaceLoadFailed && s.role == types.SurfacePill {
		s.failedLoads++
		if s.failedLoads > maxPillLoadRetries {
			m.logger.Warn("pill_surface_load_gave_up", append(fields, logging.F("attempts", s.failedLoads))...)
			return
		}
	} else if ev.Kind == types.SurfaceLoadFailed {
		if s.role != types.SurfaceMain {
			m.logger.Debug("surface_load_failed_ignored", fields...)
			return
		}
		if s.fallbackTried || m.fallbackURL == "" || s.url == m.fallbackURL {
			m.logger.Warn("main_surface_load_gave_up", fields...)
			return
		}
		s.fallbackTried = true
		m.countRecovery(s, "fallback")
		m.logger.Warn("main_surface_fallback", append(fields, logging.F("fallback_url", m.fallbackURL))...)
		m.Navigate(s.role, m.fallbackURL)
		return
	}
	m.countRecovery(s, string(ev.Kind))
	m.logger.Warn("surface_reload", fields...)
	s.lifecycle = surfaceLoading
	m.call("surface_reload_failed", s, m.host.Reload(s.id))
}

func (m *SurfaceManager) flush(s *surface) {
	held := s.held
	s.held = nil
	for _, msg := range held {
		m.call("surface_send_failed", s, m.host.Send(s.id, msg.channel, msg.payload))
	}
}

func (m *SurfaceManager) markDestroyed(s *surface) {
	s.lifecycle = surfaceDestroyed
	s.visible = false
	s.held = nil
	if current, ok := m.live[s.role]; ok && current == s {
		delete(m.live, s.role)
	}
}

func (m *SurfaceManager) countRecovery(s *surface, reason string) {
	if m.metrics != nil {
		m.metrics.surfaceRecoveries.WithLabelValues(string(s.role), reason).Inc()
	}
}

func (m *SurfaceManager) call(event string, s *surface, err error) {
	if err == nil {
		return
	}
	m.logger.Warn(event,
		logging.F("role", s.role),
		logging.F("surface_id", s.id),
		logging.F("error", err),
	)
}

func firstNonEmptyString(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
