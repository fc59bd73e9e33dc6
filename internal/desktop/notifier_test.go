package desktop

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type fakeRunner struct {
	mu        sync.Mutex
	available map[string]bool
	failing   map[string]bool
	runs      []string
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	if r.available[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New(name + " not found")
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.runs = append(r.runs, name+" "+strings.Join(args, " "))
	r.mu.Unlock()
	if r.failing[name] {
		return errors.New(name + " failed")
	}
	return nil
}

func (r *fakeRunner) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.runs...)
}

func TestNewNotifierRejectsUnknownMethod(t *testing.T) {
	if _, err := NewNotifier("carrier-pigeon", &fakeRunner{}, nil); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}

func TestAutoPrefersDunstify(t *testing.T) {
	runner := &fakeRunner{available: map[string]bool{"dunstify": true, "notify-send": true}}
	n, err := NewNotifier("auto", runner, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := n.Notify(context.Background(), Notification{Title: "3 pending", Body: "Ann: call back", Tag: pillTag}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	calls := runner.calls()
	if len(calls) != 1 || !strings.HasPrefix(calls[0], "dunstify --appname Case Portal --urgency normal --replace ") {
		t.Fatalf("unexpected calls %v", calls)
	}
	if !strings.HasSuffix(calls[0], "3 pending Ann: call back") {
		t.Fatalf("title and body not passed last: %q", calls[0])
	}
}

func TestAutoFallsBackToNotifySend(t *testing.T) {
	runner := &fakeRunner{available: map[string]bool{"notify-send": true}}
	n, err := NewNotifier("", runner, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := n.Notify(context.Background(), Notification{Title: "t", Body: "b", Urgency: UrgencyCritical}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	calls := runner.calls()
	if len(calls) != 1 || calls[0] != "notify-send --app-name Case Portal --urgency critical t b" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestAutoWithNothingInstalledFails(t *testing.T) {
	n, err := NewNotifier("auto", &fakeRunner{}, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	if err := n.Notify(context.Background(), Notification{Title: "t"}); err == nil {
		t.Fatalf("expected an error with no notifier installed")
	}
}

func TestNoneMethodIsSilent(t *testing.T) {
	runner := &fakeRunner{available: map[string]bool{"notify-send": true}}
	n, err := NewNotifier("none", runner, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	if n.Method() != MethodNone {
		t.Fatalf("method = %s", n.Method())
	}
	if err := n.Notify(context.Background(), Notification{Title: "t"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(runner.calls()) != 0 {
		t.Fatalf("none method ran a command")
	}
}

func TestTagReplaceIDIsStable(t *testing.T) {
	a := tagReplaceID(pillTag)
	if a != tagReplaceID(pillTag) {
		t.Fatalf("replace id not stable")
	}
	if a == tagReplaceID("other") {
		t.Fatalf("distinct tags share a replace id")
	}
}

func TestParseMethodAliases(t *testing.T) {
	cases := map[string]Method{
		"":            MethodAuto,
		" Dunst ":     MethodDunstify,
		"notify_send": MethodNotifySend,
		"libnotify":   MethodNotifySend,
		"OFF":         MethodNone,
	}
	for raw, want := range cases {
		got, err := ParseMethod(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMethod(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseMethod("pager"); err == nil {
		t.Fatalf("expected error for unknown notifier")
	}
}
