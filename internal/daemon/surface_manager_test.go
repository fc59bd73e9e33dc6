package daemon

import (
	"fmt"
	"testing"

	"casenotify/internal/types"
)

func newTestSurfaceManager(t *testing.T) (*SurfaceManager, *recordingHost) {
	t.Helper()
	host := newRecordingHost(nil)
	m := NewSurfaceManager(host, "https://fallback.example", NewMetrics(), nil)
	n := 0
	m.newID = func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
	return m, host
}

func TestSurfaceManagerDropsEventsFromReplacedSurface(t *testing.T) {
	m, _ := newTestSurfaceManager(t)
	old, _ := m.Open(types.SurfacePill, "https://pill", types.SurfaceOptions{})
	m.Destroy(types.SurfacePill)
	current, created := m.Open(types.SurfacePill, "https://pill", types.SurfaceOptions{})
	if !created || current.id == old.id {
		t.Fatalf("expected a fresh surface, got %s", current.id)
	}

	if m.HandleEvent(types.SurfaceEvent{SurfaceID: old.id, Role: types.SurfacePill, Kind: types.SurfaceLoaded}) {
		t.Fatalf("event for the replaced surface was accepted")
	}
	if got := m.Lifecycle(types.SurfacePill); got != surfaceLoading {
		t.Fatalf("lifecycle = %s, want loading", got)
	}
	if !m.HandleEvent(types.SurfaceEvent{SurfaceID: current.id, Kind: types.SurfaceLoaded}) {
		t.Fatalf("event without a role should match by id")
	}
	if got := m.Lifecycle(types.SurfacePill); got != surfaceReady {
		t.Fatalf("lifecycle = %s, want ready", got)
	}
}

func TestSurfaceManagerOpenReusesLiveSurface(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	first, _ := m.Open(types.SurfaceMain, "https://main", types.SurfaceOptions{})
	second, created := m.Open(types.SurfaceMain, "https://main", types.SurfaceOptions{})

	if created || first != second {
		t.Fatalf("expected the live surface to be reused")
	}
	if creates := host.callsFor("create", types.SurfaceMain); len(creates) != 1 {
		t.Fatalf("creates = %d, want 1", len(creates))
	}
}

func TestSurfaceManagerHoldsLatestMessagePerChannel(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	s, _ := m.Open(types.SurfacePill, "https://pill", types.SurfaceOptions{})

	m.Send(types.SurfacePill, "pill-summary", 1)
	m.Send(types.SurfacePill, "pill-summary", 2)
	m.Send(types.SurfacePill, "notification-card", 3)
	if sends := host.callsFor("send", types.SurfacePill); len(sends) != 0 {
		t.Fatalf("sent %d messages before load", len(sends))
	}

	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfacePill, Kind: types.SurfaceLoaded})

	sends := host.callsFor("send", types.SurfacePill)
	if len(sends) != 2 {
		t.Fatalf("sends = %d, want 2", len(sends))
	}
	if sends[0].channel != "pill-summary" || sends[0].payload != 2 {
		t.Fatalf("unexpected first send %+v", sends[0])
	}
	if sends[1].channel != "notification-card" || sends[1].payload != 3 {
		t.Fatalf("unexpected second send %+v", sends[1])
	}

	m.Send(types.SurfacePill, "pill-summary", 4)
	if sends := host.callsFor("send", types.SurfacePill); len(sends) != 3 {
		t.Fatalf("ready surface should receive at once")
	}
}

func TestSurfaceManagerSendWithoutSurface(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	if m.Send(types.SurfaceStatus, "x", nil) {
		t.Fatalf("send to a missing surface reported delivery")
	}
	if len(host.callsFor("send", "")) != 0 {
		t.Fatalf("host called for a missing surface")
	}
}

func TestMainSurfaceFallsBackOnce(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	s, _ := m.Open(types.SurfaceMain, "https://main", types.SurfaceOptions{})

	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfaceMain, Kind: types.SurfaceLoadFailed, Error: "dns"})
	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfaceMain, Kind: types.SurfaceLoadFailed, Error: "dns"})

	navs := host.callsFor("navigate", types.SurfaceMain)
	if len(navs) != 1 || navs[0].url != "https://fallback.example" {
		t.Fatalf("unexpected navigations %+v", navs)
	}
	if got := m.Lifecycle(types.SurfaceMain); got != surfaceLoading {
		t.Fatalf("lifecycle = %s, want loading", got)
	}
}

func TestLoadFailureOnStatusAndChatIsIgnored(t *testing.T) {
	for _, role := range []types.SurfaceRole{types.SurfaceStatus, types.SurfaceChat} {
		m, host := newTestSurfaceManager(t)
		s, _ := m.Open(role, "https://"+string(role), types.SurfaceOptions{})

		m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: role, Kind: types.SurfaceLoadFailed})

		if len(host.callsFor("navigate", "")) != 0 || len(host.callsFor("reload", "")) != 0 {
			t.Fatalf("%s load failure triggered recovery", role)
		}
	}
}

func TestPillLoadFailureReloadsAndFlushesHeldMessages(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	s, _ := m.Open(types.SurfacePill, "https://pill", types.SurfaceOptions{})
	m.Send(types.SurfacePill, types.ChannelPillSummary, types.PillSummary{Count: 2})

	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfacePill, Kind: types.SurfaceLoadFailed})

	if reloads := host.callsFor("reload", types.SurfacePill); len(reloads) != 1 {
		t.Fatalf("reloads = %d, want 1", len(reloads))
	}
	if got := m.Lifecycle(types.SurfacePill); got != surfaceLoading {
		t.Fatalf("lifecycle = %s, want loading", got)
	}
	if sends := host.callsFor("send", types.SurfacePill); len(sends) != 0 {
		t.Fatalf("summary sent before the pill loaded: %v", sends)
	}

	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfacePill, Kind: types.SurfaceLoaded})
	if sends := host.callsFor("send", types.SurfacePill); len(sends) != 1 {
		t.Fatalf("held summary not flushed after reload: %v", sends)
	}
}

func TestPillLoadFailureGivesUpAfterRetries(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	s, _ := m.Open(types.SurfacePill, "https://pill", types.SurfaceOptions{})

	for i := 0; i < maxPillLoadRetries+3; i++ {
		m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfacePill, Kind: types.SurfaceLoadFailed})
	}
	if reloads := host.callsFor("reload", types.SurfacePill); len(reloads) != maxPillLoadRetries {
		t.Fatalf("reloads = %d, want %d", len(reloads), maxPillLoadRetries)
	}
}

func TestCrashedSurfaceReloads(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	s, _ := m.Open(types.SurfacePill, "https://pill", types.SurfaceOptions{})
	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfacePill, Kind: types.SurfaceLoaded})

	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfacePill, Kind: types.SurfaceCrashed})

	if reloads := host.callsFor("reload", types.SurfacePill); len(reloads) != 1 {
		t.Fatalf("reloads = %d, want 1", len(reloads))
	}
	if got := m.Lifecycle(types.SurfacePill); got != surfaceLoading {
		t.Fatalf("lifecycle = %s, want loading", got)
	}
}

func TestCloseRequestedHidesMainUntilQuitting(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	s, _ := m.Open(types.SurfaceMain, "https://main", types.SurfaceOptions{Show: true})

	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfaceMain, Kind: types.SurfaceCloseRequested})
	if len(host.callsFor("hide", types.SurfaceMain)) != 1 || m.Live(types.SurfaceMain) == nil {
		t.Fatalf("main surface should hide on close")
	}

	m.SetQuitting()
	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfaceMain, Kind: types.SurfaceCloseRequested})
	if len(host.callsFor("destroy", types.SurfaceMain)) != 1 || m.Live(types.SurfaceMain) != nil {
		t.Fatalf("main surface should close while quitting")
	}
}

func TestClosedSurfaceIsForgotten(t *testing.T) {
	m, host := newTestSurfaceManager(t)
	s, _ := m.Open(types.SurfaceChat, "https://chat", types.SurfaceOptions{})

	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfaceChat, Kind: types.SurfaceClosed})

	if got := m.Lifecycle(types.SurfaceChat); got != surfaceUncreated {
		t.Fatalf("lifecycle = %s, want uncreated", got)
	}
	if len(host.callsFor("destroy", "")) != 0 {
		t.Fatalf("closed surface destroyed again")
	}
	if m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfaceChat, Kind: types.SurfaceLoaded}) {
		t.Fatalf("event for a closed surface was accepted")
	}
}

func TestLoadedWhileReadyIsIgnored(t *testing.T) {
	m, _ := newTestSurfaceManager(t)
	s, _ := m.Open(types.SurfacePill, "https://pill", types.SurfaceOptions{})
	m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfacePill, Kind: types.SurfaceLoaded})

	if m.HandleEvent(types.SurfaceEvent{SurfaceID: s.id, Role: types.SurfacePill, Kind: types.SurfaceLoaded}) {
		t.Fatalf("second loaded event accepted")
	}
}

func TestHostResetRecreatesMainSurface(t *testing.T) {
	h := newHarness(t)
	before := h.host.id(types.SurfaceMain)
	h.mustSend(types.ChannelSetPillSummary, pillPayload(1, note("a", "")))

	h.c.HostReset()
	h.sync()

	after := h.host.id(types.SurfaceMain)
	if after == "" || after == before {
		t.Fatalf("main surface not recreated: %q -> %q", before, after)
	}
	if creates := h.host.callsFor("create", types.SurfacePill); len(creates) != 2 {
		t.Fatalf("pill creates = %d, want 2", len(creates))
	}
	if len(h.host.callsFor("destroy", "")) != 0 {
		t.Fatalf("reset should not destroy surfaces on the new host")
	}
}

func TestSetDisplaysRepositionsPill(t *testing.T) {
	h := newHarness(t)
	h.mustSend(types.ChannelSetPillSummary, pillPayload(1, note("a", "")))

	h.c.SetDisplays([]types.Display{
		{ID: "2", WorkArea: types.Rect{X: 0, Y: 0, Width: 800, Height: 600}},
		{ID: "1", Primary: true, WorkArea: types.Rect{X: 1920, Y: 0, Width: 2560, Height: 1400}},
	})
	h.sync()

	bounds := h.host.callsFor("bounds", types.SurfacePill)
	if len(bounds) != 1 {
		t.Fatalf("bounds calls = %d, want 1", len(bounds))
	}
	want := types.Rect{X: 1920 + 2560 - 260 - 16, Y: 1400 - 64 - 16, Width: 260, Height: 64}
	if bounds[0].bounds != want {
		t.Fatalf("bounds = %+v, want %+v", bounds[0].bounds, want)
	}
}
