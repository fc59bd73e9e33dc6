package desktop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"casenotify/internal/logging"
)

// Method selects the notifier binary.
type Method string

const (
	MethodAuto       Method = "auto"
	MethodNotifySend Method = "notify-send"
	MethodDunstify   Method = "dunstify"
	MethodNone       Method = "none"
)

var methodAliases = map[string]Method{
	"":            MethodAuto,
	"auto":        MethodAuto,
	"notify-send": MethodNotifySend,
	"notify_send": MethodNotifySend,
	"libnotify":   MethodNotifySend,
	"dunstify":    MethodDunstify,
	"dunst":       MethodDunstify,
	"none":        MethodNone,
	"off":         MethodNone,
}

// ParseMethod accepts the notifier names allowed in the config file.
func ParseMethod(raw string) (Method, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("unknown notifier %q", raw)
	}
	return m, nil
}

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

// Notification is one desktop notification bubble.
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	// Tag replaces an earlier bubble with the same tag where supported.
	Tag string
}

type Sink interface {
	Method() Method
	Notify(ctx context.Context, n Notification) error
}

// CommandRunner runs a notifier binary. Swapped in tests.
type CommandRunner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

type notifySendSink struct {
	runner CommandRunner
}

func (notifySendSink) Method() Method {
	return MethodNotifySend
}

func (s notifySendSink) Notify(ctx context.Context, n Notification) error {
	if _, err := s.runner.LookPath("notify-send"); err != nil {
		return err
	}
	args := []string{"--app-name", appName, "--urgency", string(urgencyOrNormal(n.Urgency))}
	if n.Tag != "" {
		args = append(args, "--hint", "string:x-canonical-private-synchronous:"+n.Tag)
	}
	args = append(args, n.Title, n.Body)
	return s.runner.Run(ctx, "notify-send", args...)
}

type dunstifySink struct {
	runner CommandRunner
}

func (dunstifySink) Method() Method {
	return MethodDunstify
}

func (s dunstifySink) Notify(ctx context.Context, n Notification) error {
	if _, err := s.runner.LookPath("dunstify"); err != nil {
		return err
	}
	args := []string{"--appname", appName, "--urgency", string(urgencyOrNormal(n.Urgency))}
	if n.Tag != "" {
		args = append(args, "--replace", tagReplaceID(n.Tag))
	}
	args = append(args, n.Title, n.Body)
	return s.runner.Run(ctx, "dunstify", args...)
}

func urgencyOrNormal(u Urgency) Urgency {
	if u == "" {
		return UrgencyNormal
	}
	return u
}

// tagReplaceID maps a tag to a stable dunstify notification id.
func tagReplaceID(tag string) string {
	var sum uint32 = 2166136261
	for i := 0; i < len(tag); i++ {
		sum ^= uint32(tag[i])
		sum *= 16777619
	}
	return fmt.Sprint(sum%100000 + 1000)
}

// Notifier sends notifications through the configured method. Auto tries
// dunstify, then notify-send.
type Notifier struct {
	method Method
	sinks  map[Method]Sink
	logger logging.Logger
}

func NewNotifier(method string, runner CommandRunner, logger logging.Logger) (*Notifier, error) {
	normalized, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	if runner == nil {
		runner = execRunner{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	sinks := map[Method]Sink{}
	for _, sink := range []Sink{dunstifySink{runner: runner}, notifySendSink{runner: runner}} {
		sinks[sink.Method()] = sink
	}
	return &Notifier{method: normalized, sinks: sinks, logger: logger}, nil
}

func (n *Notifier) Method() Method {
	return n.method
}

func (n *Notifier) Notify(ctx context.Context, note Notification) error {
	switch n.method {
	case MethodNone:
		return nil
	case MethodAuto:
		var errs error
		for _, method := range []Method{MethodDunstify, MethodNotifySend} {
			err := n.sinks[method].Notify(ctx, note)
			if err == nil {
				return nil
			}
			errs = errors.Join(errs, err)
		}
		return fmt.Errorf("no notification sink available: %w", errs)
	default:
		sink, ok := n.sinks[n.method]
		if !ok {
			return fmt.Errorf("unknown notification method: %s", n.method)
		}
		return sink.Notify(ctx, note)
	}
}
