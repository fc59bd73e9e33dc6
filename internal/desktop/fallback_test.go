package desktop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"casenotify/internal/types"
)

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *recordingOpener) open(ctx context.Context, rawURL string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, rawURL)
	return o.err
}

func (o *recordingOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
	return nil
}

func (n *recordingNotifier) sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notes...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []types.SurfaceEvent
}

func (r *eventRecorder) HandleSurfaceEvent(ev types.SurfaceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func eventually(t *testing.T, what string, cond func() bool) {
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

func newTestFallback() (*Fallback, *recordingOpener, *recordingNotifier, *eventRecorder) {
	opener := &recordingOpener{}
	notifier := &recordingNotifier{}
	sink := &eventRecorder{}
	f := NewFallback(opener.open, notifier, nil)
	f.SetSink(sink)
	return f, opener, notifier, sink
}

func TestFallbackCreateReportsLoaded(t *testing.T) {
	f, opener, _, sink := newTestFallback()

	if err := f.Create("m1", types.SurfaceMain, "https://app", types.SurfaceOptions{}); err != nil {
		t.Fatalf("create: %v", err)
	}

	eventually(t, "loaded event", func() bool { return sink.count() == 1 })
	if len(opener.opened()) != 0 {
		t.Fatalf("hidden main surface opened a browser")
	}
}

func TestFallbackShowOpensBrowserForContentRoles(t *testing.T) {
	f, opener, _, _ := newTestFallback()
	_ = f.Create("m1", types.SurfaceMain, "https://app", types.SurfaceOptions{})
	_ = f.Create("p1", types.SurfacePill, "https://app/pill", types.SurfaceOptions{})

	if err := f.Show("m1"); err != nil {
		t.Fatalf("show main: %v", err)
	}
	if err := f.Show("p1"); err != nil {
		t.Fatalf("show pill: %v", err)
	}
	if err := f.Create("s1", types.SurfaceStatus, "https://status", types.SurfaceOptions{Show: true}); err != nil {
		t.Fatalf("create status: %v", err)
	}

	got := opener.opened()
	if len(got) != 2 || got[0] != "https://app" || got[1] != "https://status" {
		t.Fatalf("opened %v", got)
	}
}

func TestFallbackShowReportsOpenErrors(t *testing.T) {
	f, opener, _, _ := newTestFallback()
	opener.err = errors.New("no browser")
	_ = f.Create("m1", types.SurfaceMain, "https://app", types.SurfaceOptions{})

	if err := f.Show("m1"); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestFallbackTurnsPillSummaryIntoNotification(t *testing.T) {
	f, _, notifier, _ := newTestFallback()
	_ = f.Create("p1", types.SurfacePill, "https://app/pill", types.SurfaceOptions{})
	summary := types.PillSummary{Count: 2, Title: "From Ann", Message: "Call back"}

	_ = f.Send("p1", types.ChannelPillSummary, summary)
	_ = f.Send("p1", types.ChannelPillSummary, summary)
	_ = f.Send("p1", types.ChannelPillSummary, types.PillSummary{Count: 0})

	eventually(t, "notification", func() bool { return len(notifier.sent()) == 1 })
	time.Sleep(20 * time.Millisecond)
	sent := notifier.sent()
	if len(sent) != 1 {
		t.Fatalf("repeated summary notified again: %d", len(sent))
	}
	if sent[0].Title != "2 pending notifications" || sent[0].Body != "From Ann\nCall back" || sent[0].Tag != pillTag {
		t.Fatalf("unexpected notification %+v", sent[0])
	}
}

func TestFallbackNotifiesAgainAfterPillDestroyed(t *testing.T) {
	f, _, notifier, _ := newTestFallback()
	summary := types.PillSummary{Count: 1, Title: "From Ann"}
	_ = f.Create("p1", types.SurfacePill, "https://app/pill", types.SurfaceOptions{})
	_ = f.Send("p1", types.ChannelPillSummary, summary)
	_ = f.Destroy("p1")
	_ = f.Create("p2", types.SurfacePill, "https://app/pill", types.SurfaceOptions{})
	_ = f.Send("p2", types.ChannelPillSummary, summary)

	eventually(t, "two notifications", func() bool { return len(notifier.sent()) == 2 })
	if got := notifier.sent()[0].Title; got != "1 pending notification" {
		t.Fatalf("title = %q", got)
	}
}

func TestFallbackIgnoresNonPillTraffic(t *testing.T) {
	f, _, notifier, _ := newTestFallback()
	_ = f.Create("m1", types.SurfaceMain, "https://app", types.SurfaceOptions{})

	_ = f.Send("m1", types.ChannelNotificationState, map[string]bool{"paused": true})
	_ = f.Send("missing", types.ChannelPillSummary, types.PillSummary{Count: 3})

	time.Sleep(20 * time.Millisecond)
	if len(notifier.sent()) != 0 {
		t.Fatalf("unexpected notifications %+v", notifier.sent())
	}
}

func TestFallbackDialogUrgency(t *testing.T) {
	f, _, notifier, _ := newTestFallback()

	_ = f.ShowDialog(types.Dialog{Kind: types.DialogError, Title: "Update failed", Message: "disk full"})

	eventually(t, "dialog notification", func() bool { return len(notifier.sent()) == 1 })
	note := notifier.sent()[0]
	if note.Urgency != UrgencyCritical || note.Title != "Update failed" || note.Body != "disk full" {
		t.Fatalf("unexpected notification %+v", note)
	}
}

func TestOpenURLRejectsUnsafeURLs(t *testing.T) {
	for _, raw := range []string{"file:///etc/passwd", "javascript:alert(1)", "https://user:pw@example.com"} {
		if err := OpenURL(context.Background(), raw); err == nil {
			t.Fatalf("OpenURL(%q) should fail", raw)
		}
	}
}
