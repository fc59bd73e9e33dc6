package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"casenotify/internal/client"
	"casenotify/internal/types"
)

type fakeCommandClient struct {
	ensureDaemonCalls int
	ensureErr         error
	paused            []bool
	snoozedUntil      []time.Time
	clearSnoozeCalls  int
	updateChecks      int
	shutdownErr       error
	health            *client.HealthResponse

	state  types.NotificationStateSnapshot
	pill   types.PillSummary
	update types.UpdateState
}

func (f *fakeCommandClient) EnsureDaemon(context.Context) error {
	f.ensureDaemonCalls++
	return f.ensureErr
}

func (f *fakeCommandClient) Health(context.Context) (*client.HealthResponse, error) {
	if f.health == nil {
		return nil, errors.New("dial tcp 127.0.0.1:7788: connect: connection refused")
	}
	return f.health, nil
}

func (f *fakeCommandClient) State(context.Context) (*types.NotificationStateSnapshot, error) {
	return &f.state, nil
}

func (f *fakeCommandClient) PillSummary(context.Context) (*types.PillSummary, error) {
	return &f.pill, nil
}

func (f *fakeCommandClient) UpdateState(context.Context) (*types.UpdateState, error) {
	return &f.update, nil
}

func (f *fakeCommandClient) SetPaused(_ context.Context, paused bool) error {
	f.paused = append(f.paused, paused)
	return nil
}

func (f *fakeCommandClient) SetSnooze(_ context.Context, until time.Time) error {
	f.snoozedUntil = append(f.snoozedUntil, until)
	return nil
}

func (f *fakeCommandClient) ClearSnooze(context.Context) error {
	f.clearSnoozeCalls++
	return nil
}

func (f *fakeCommandClient) CheckForUpdates(context.Context) error {
	f.updateChecks++
	return nil
}

func (f *fakeCommandClient) ShutdownDaemon(context.Context) error {
	return f.shutdownErr
}

func fixedFactory(c daemonClient) clientFactory {
	return func() (daemonClient, error) { return c, nil }
}

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func testWiring(fake *fakeCommandClient) (commandWiring, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	return commandWiring{
		stdout:     stdout,
		stderr:     &bytes.Buffer{},
		newClient:  fixedFactory(fake),
		runDaemon:  func(daemonRunOptions) error { return nil },
		killDaemon: func() error { return nil },
		runTray:    func(string, bool) error { return nil },
		now:        func() time.Time { return testNow },
		version:    "1.2.3",
	}, stdout
}

func execute(t *testing.T, wiring commandWiring, args ...string) error {
	t.Helper()
	root := newRootCommand(wiring)
	root.SetArgs(args)
	return root.Execute()
}

func TestDaemonCommandKillFlag(t *testing.T) {
	var calls []string
	wiring, _ := testWiring(&fakeCommandClient{})
	wiring.runDaemon = func(opts daemonRunOptions) error {
		calls = append(calls, "run")
		return nil
	}
	wiring.killDaemon = func() error {
		calls = append(calls, "kill")
		return nil
	}

	if err := execute(t, wiring, "daemon", "--kill"); err != nil {
		t.Fatalf("expected kill run to succeed, got err=%v", err)
	}
	if strings.Join(calls, ",") != "kill" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestDaemonCommandForceAndFlags(t *testing.T) {
	var calls []string
	var got daemonRunOptions
	wiring, _ := testWiring(&fakeCommandClient{})
	wiring.runDaemon = func(opts daemonRunOptions) error {
		calls = append(calls, "run")
		got = opts
		return nil
	}
	wiring.killDaemon = func() error {
		calls = append(calls, "kill")
		return nil
	}

	if err := execute(t, wiring, "daemon", "--force", "--background", "--no-tray"); err != nil {
		t.Fatalf("daemon: %v", err)
	}
	if strings.Join(calls, ",") != "kill,run" {
		t.Fatalf("unexpected call order: %v", calls)
	}
	if !got.background || got.tray {
		t.Fatalf("unexpected options: %+v", got)
	}
}

func TestPauseAndResumeCommands(t *testing.T) {
	fake := &fakeCommandClient{}
	wiring, stdout := testWiring(fake)

	if err := execute(t, wiring, "pause"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := execute(t, wiring, "resume"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(fake.paused) != 2 || !fake.paused[0] || fake.paused[1] {
		t.Fatalf("unexpected pause calls: %v", fake.paused)
	}
	if fake.ensureDaemonCalls != 2 {
		t.Fatalf("expected ensure daemon per command, got %d", fake.ensureDaemonCalls)
	}
	if !strings.Contains(stdout.String(), "notifications paused") || !strings.Contains(stdout.String(), "notifications resumed") {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestSnoozeCommand(t *testing.T) {
	fake := &fakeCommandClient{}
	wiring, stdout := testWiring(fake)

	if err := execute(t, wiring, "snooze", "90m"); err != nil {
		t.Fatalf("snooze: %v", err)
	}
	if len(fake.snoozedUntil) != 1 || !fake.snoozedUntil[0].Equal(testNow.Add(90*time.Minute)) {
		t.Fatalf("unexpected snooze: %v", fake.snoozedUntil)
	}
	if !strings.Contains(stdout.String(), "snoozed until 11:30") {
		t.Fatalf("unexpected output: %q", stdout.String())
	}

	if err := execute(t, wiring, "snooze", "off"); err != nil {
		t.Fatalf("snooze off: %v", err)
	}
	if fake.clearSnoozeCalls != 1 {
		t.Fatalf("expected clear snooze, got %d", fake.clearSnoozeCalls)
	}
}

func TestSnoozeCommandRejectsBadDuration(t *testing.T) {
	fake := &fakeCommandClient{}
	wiring, _ := testWiring(fake)

	for _, arg := range []string{"soon", "-5m", "0s"} {
		if err := execute(t, wiring, "snooze", arg); err == nil {
			t.Fatalf("expected error for %q", arg)
		}
	}
	if fake.ensureDaemonCalls != 0 {
		t.Fatalf("expected no daemon contact for invalid input")
	}
}

func TestStateCommandPrintsSummary(t *testing.T) {
	snoozed := types.NotificationState{
		SnoozedUntilMs:        testNow.Add(30 * time.Minute).UnixMilli(),
		ShowNotes:             true,
		IsWithinBusinessHours: true,
	}
	fake := &fakeCommandClient{
		state:  snoozed.Snapshot(testNow.UnixMilli(), 2, 0),
		pill:   types.PillSummary{Count: 3, Title: "From Ann"},
		update: types.UpdateState{Status: types.UpdateStatusDownloaded, ReadyToInstall: true, ReadyVersion: "1.3.0", CurrentVersion: "1.2.3"},
	}
	wiring, stdout := testWiring(fake)

	if err := execute(t, wiring, "state"); err != nil {
		t.Fatalf("state: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{
		"snoozed until 10:30",
		"staff notes",
		"2 notes, 0 senders",
		"From Ann",
		"v1.3.0 ready to install",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestStateCommandJSON(t *testing.T) {
	fake := &fakeCommandClient{pill: types.PillSummary{Count: 1}}
	wiring, stdout := testWiring(fake)

	if err := execute(t, wiring, "state", "--json"); err != nil {
		t.Fatalf("state --json: %v", err)
	}
	if !strings.Contains(stdout.String(), `"count": 1`) {
		t.Fatalf("unexpected json: %s", stdout.String())
	}
}

func TestCommandsReportUnreachableDaemon(t *testing.T) {
	fake := &fakeCommandClient{ensureErr: errors.New("daemon not healthy after start")}
	wiring, _ := testWiring(fake)

	err := execute(t, wiring, "check-updates")
	if err == nil || !strings.Contains(err.Error(), "daemon not reachable") {
		t.Fatalf("expected reachability error, got %v", err)
	}
	if fake.updateChecks != 0 {
		t.Fatalf("expected no update check")
	}
}

func TestConfigCommandDefaultsAsTOML(t *testing.T) {
	wiring, stdout := testWiring(&fakeCommandClient{})

	if err := execute(t, wiring, "config", "--defaults"); err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(stdout.String(), "[portal]") || !strings.Contains(stdout.String(), "https://app.caseportal.app") {
		t.Fatalf("unexpected config output:\n%s", stdout.String())
	}
	if err := execute(t, wiring, "config", "--format", "yaml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestKillDaemonIgnoresStoppedDaemon(t *testing.T) {
	fake := &fakeCommandClient{shutdownErr: errors.New("dial tcp: connect: connection refused")}
	if err := killDaemonWithFactory(fixedFactory(fake)); err != nil {
		t.Fatalf("expected nil for stopped daemon, got %v", err)
	}
}

func TestKillDaemonSurfacesAuthErrors(t *testing.T) {
	fake := &fakeCommandClient{shutdownErr: &client.APIError{StatusCode: 401, Message: "unauthorized"}}
	if err := killDaemonWithFactory(fixedFactory(fake)); err == nil {
		t.Fatalf("expected auth error")
	}
}

func TestTrayCommandPassesVersionAndRestartFlag(t *testing.T) {
	wiring, _ := testWiring(&fakeCommandClient{})
	var gotVersion string
	var gotRestart bool
	wiring.runTray = func(version string, restart bool) error {
		gotVersion, gotRestart = version, restart
		return nil
	}

	if err := execute(t, wiring, "tui", "--restart-daemon"); err != nil {
		t.Fatalf("tray: %v", err)
	}
	if gotVersion != "1.2.3" || !gotRestart {
		t.Fatalf("runTray(%q, %v)", gotVersion, gotRestart)
	}
}
