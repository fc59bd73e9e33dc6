package daemon

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"casenotify/internal/config"
	"casenotify/internal/store"
	"casenotify/internal/types"
)

var testEpoch = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

type fakeTimer struct {
	clock   *fakeClock
	due     time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock only moves when Advance is called. Due timers fire in order on
// the calling goroutine.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, due: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.due.After(now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	sort.SliceStable(due, func(i, j int) bool { return due[i].due.Before(due[j].due) })
	for _, t := range due {
		t.fn()
	}
}

// sequence records side effects from every fake in the order they happen.
type sequence struct {
	mu    sync.Mutex
	items []string
}

func (s *sequence) add(item string) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
}

func (s *sequence) reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

func (s *sequence) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.items...)
}

func (s *sequence) index(item string) int {
	for i, got := range s.snapshot() {
		if got == item {
			return i
		}
	}
	return -1
}

type sequencedStore struct {
	*store.MemoryPreferenceStore
	seq *sequence
}

func (s sequencedStore) Set(ctx context.Context, key string, value any) error {
	s.seq.add("persist:" + key)
	return s.MemoryPreferenceStore.Set(ctx, key, value)
}

type hostCall struct {
	op      string
	id      string
	role    types.SurfaceRole
	url     string
	channel string
	payload any
	bounds  types.Rect
	opts    types.SurfaceOptions
}

type recordingHost struct {
	mu      sync.Mutex
	seq     *sequence
	calls   []hostCall
	roles   map[string]types.SurfaceRole
	ids     map[types.SurfaceRole]string
	dialogs []types.Dialog
}

func newRecordingHost(seq *sequence) *recordingHost {
	if seq == nil {
		seq = &sequence{}
	}
	return &recordingHost{
		seq:   seq,
		roles: map[string]types.SurfaceRole{},
		ids:   map[types.SurfaceRole]string{},
	}
}

func (h *recordingHost) record(call hostCall) {
	h.mu.Lock()
	if call.role == "" {
		call.role = h.roles[call.id]
	}
	h.calls = append(h.calls, call)
	h.mu.Unlock()
	label := call.op + ":" + string(call.role)
	if call.channel != "" {
		label += ":" + call.channel
	}
	h.seq.add(label)
}

func (h *recordingHost) Create(id string, role types.SurfaceRole, url string, opts types.SurfaceOptions) error {
	h.mu.Lock()
	h.roles[id] = role
	h.ids[role] = id
	h.mu.Unlock()
	h.record(hostCall{op: "create", id: id, role: role, url: url, opts: opts})
	return nil
}

func (h *recordingHost) Show(id string) error {
	h.record(hostCall{op: "show", id: id})
	return nil
}

func (h *recordingHost) Focus(id string) error {
	h.record(hostCall{op: "focus", id: id})
	return nil
}

func (h *recordingHost) Hide(id string) error {
	h.record(hostCall{op: "hide", id: id})
	return nil
}

func (h *recordingHost) Destroy(id string) error {
	h.record(hostCall{op: "destroy", id: id})
	return nil
}

func (h *recordingHost) SetBounds(id string, bounds types.Rect) error {
	h.record(hostCall{op: "bounds", id: id, bounds: bounds})
	return nil
}

func (h *recordingHost) Navigate(id, url string) error {
	h.record(hostCall{op: "navigate", id: id, url: url})
	return nil
}

func (h *recordingHost) Reload(id string) error {
	h.record(hostCall{op: "reload", id: id})
	return nil
}

func (h *recordingHost) Send(id, channel string, payload any) error {
	h.record(hostCall{op: "send", id: id, channel: channel, payload: payload})
	return nil
}

func (h *recordingHost) ShowDialog(dialog types.Dialog) error {
	h.mu.Lock()
	h.dialogs = append(h.dialogs, dialog)
	h.mu.Unlock()
	h.seq.add("dialog:" + string(dialog.Kind))
	return nil
}

// id returns the most recent surface id created for role.
func (h *recordingHost) id(role types.SurfaceRole) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ids[role]
}

func (h *recordingHost) callsFor(op string, role types.SurfaceRole) []hostCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []hostCall
	for _, call := range h.calls {
		if call.op == op && (role == "" || call.role == role) {
			out = append(out, call)
		}
	}
	return out
}

func (h *recordingHost) sends(role types.SurfaceRole, channel string) []any {
	var out []any
	for _, call := range h.callsFor("send", role) {
		if call.channel == channel {
			out = append(out, call.payload)
		}
	}
	return out
}

func (h *recordingHost) dialogCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.dialogs)
}

func (h *recordingHost) lastDialog() types.Dialog {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.dialogs) == 0 {
		return types.Dialog{}
	}
	return h.dialogs[len(h.dialogs)-1]
}

type recordingTray struct {
	mu    sync.Mutex
	seq   *sequence
	menus []types.TrayMenu
}

func (r *recordingTray) SetMenu(menu types.TrayMenu) {
	r.mu.Lock()
	r.menus = append(r.menus, menu)
	r.mu.Unlock()
	r.seq.add("menu")
}

func (r *recordingTray) last() types.TrayMenu {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.menus) == 0 {
		return types.TrayMenu{}
	}
	return r.menus[len(r.menus)-1]
}

type recordingEvents struct {
	mu     sync.Mutex
	seq    *sequence
	events []types.Event
}

func (r *recordingEvents) Publish(event types.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.seq.add("event:" + event.Type)
}

func (r *recordingEvents) ofType(kind string) []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Event
	for _, event := range r.events {
		if event.Type == kind {
			out = append(out, event)
		}
	}
	return out
}

type harness struct {
	t      *testing.T
	c      *Controller
	clock  *fakeClock
	host   *recordingHost
	tray   *recordingTray
	events *recordingEvents
	mem    *store.MemoryPreferenceStore
	seq    *sequence
	quits  int
}

type harnessOption func(*Options)

func withConfig(fn func(cfg *config.CoreConfig)) harnessOption {
	return func(opts *Options) { fn(&opts.Config) }
}

func withFeed(feed UpdateFeed) harnessOption {
	return func(opts *Options) { opts.UpdateFeed = feed }
}

func withVersion(version string) harnessOption {
	return func(opts *Options) { opts.Version = version }
}

// withStoredPrefs seeds the preference store before the controller loads.
func withStoredPrefs(values map[string]any) harnessOption {
	return func(opts *Options) {
		for key, value := range values {
			opts.Prefs.Save(key, value)
		}
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	seq := &sequence{}
	mem := store.NewMemoryPreferenceStore()
	h := &harness{
		t:      t,
		clock:  newFakeClock(),
		host:   newRecordingHost(seq),
		tray:   &recordingTray{seq: seq},
		events: &recordingEvents{seq: seq},
		mem:    mem,
		seq:    seq,
	}
	cfg := config.DefaultCoreConfig()
	cfg.BusinessHours.Enabled = false
	cfg.Updates.InitialDelaySeconds = 3600
	options := Options{
		Config:  cfg,
		Version: "1.0.0",
		Prefs:   store.NewPreferences(sequencedStore{MemoryPreferenceStore: mem, seq: seq}, nil),
		Host:    h.host,
		Tray:    h.tray,
		Events:  h.events,
		Clock:   h.clock,
		Quit:    func() { h.quits++ },
	}
	for _, opt := range opts {
		opt(&options)
	}
	h.c = NewController(options)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.c.Start(ctx); err != nil {
		t.Fatalf("start controller: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.c.Stop(ctx)
	})
	return h
}

// sync waits until everything already posted to the loop has run.
func (h *harness) sync() {
	h.t.Helper()
	h.do(func() {})
}

func (h *harness) do(fn func()) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.c.loop.Call(ctx, fn); err != nil {
		h.t.Fatalf("loop call: %v", err)
	}
}

func (h *harness) send(channel string, payload any) (any, error) {
	h.t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			h.t.Fatalf("marshal %s payload: %v", channel, err)
		}
		raw = data
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return h.c.HandleMessage(ctx, channel, raw)
}

func (h *harness) mustSend(channel string, payload any) any {
	h.t.Helper()
	result, err := h.send(channel, payload)
	if err != nil {
		h.t.Fatalf("%s: %v", channel, err)
	}
	return result
}

func (h *harness) click(id string) error {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return h.c.DispatchTrayAction(ctx, id)
}

// loaded reports the current surface for role as loaded.
func (h *harness) loaded(role types.SurfaceRole) {
	h.t.Helper()
	id := h.host.id(role)
	if id == "" {
		h.t.Fatalf("no %s surface created", role)
	}
	h.c.HandleSurfaceEvent(types.SurfaceEvent{SurfaceID: id, Role: role, Kind: types.SurfaceLoaded})
	h.sync()
}

func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	h.clock.Advance(d)
	h.sync()
}

func (h *harness) state() types.NotificationStateSnapshot {
	h.t.Helper()
	var out types.NotificationStateSnapshot
	h.do(func() { out = h.c.snapshot() })
	return out
}

func (h *harness) summary() types.PillSummary {
	h.t.Helper()
	var out types.PillSummary
	h.do(func() { out = h.c.pill.Summary(h.c.pillMode) })
	return out
}

func (h *harness) pillLifecycle() surfaceLifecycle {
	h.t.Helper()
	var out surfaceLifecycle
	h.do(func() { out = h.c.surfaces.Lifecycle(types.SurfacePill) })
	return out
}

func (h *harness) pillMode() types.PillMode {
	h.t.Helper()
	var out types.PillMode
	h.do(func() { out = h.c.pillMode })
	return out
}

func (h *harness) updateState() types.UpdateState {
	h.t.Helper()
	var out types.UpdateState
	h.do(func() { out = h.c.update })
	return out
}

func note(title, timestamp string) types.PillItem {
	return types.PillItem{Title: title, Message: title + " body", Timestamp: types.Timestamp(timestamp)}
}

func pillPayload(count int, notes ...types.PillItem) types.PillSummaryPayload {
	return types.PillSummaryPayload{Count: count, Notes: notes}
}

func itemTitles(items []types.PillItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fakeFeed answers with info on every check. When release is set, Check
// blocks until it is closed.
type fakeFeed struct {
	mu          sync.Mutex
	info        *types.UpdateInfo
	checkErr    error
	downloadErr error
	applyErr    error
	release     chan struct{}
	checks      int
	downloads   int
	applied     []types.DownloadedUpdate
}

func (f *fakeFeed) Check(ctx context.Context) (*types.UpdateInfo, error) {
	f.mu.Lock()
	f.checks++
	release := f.release
	info, err := f.info, f.checkErr
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return info, err
}

func (f *fakeFeed) Download(ctx context.Context, info types.UpdateInfo) (types.DownloadedUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.downloadErr != nil {
		return types.DownloadedUpdate{}, f.downloadErr
	}
	return types.DownloadedUpdate{Version: info.Version, Path: "/staged/casenotify-" + info.Version}, nil
}

func (f *fakeFeed) Apply(update types.DownloadedUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, update)
	return nil
}

func (f *fakeFeed) counts() (checks, downloads, applied int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks, f.downloads, len(f.applied)
}
