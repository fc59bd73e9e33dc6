package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

const osc52OptOutEnv = "CASENOTIFY_DISABLE_OSC52"

type clipboardTarget struct {
	name  string
	write func(text string) error
}

// clipboardTargets are tried in order. The terminal target writes an OSC52
// escape, which reaches the local clipboard over ssh.
var clipboardTargets = []clipboardTarget{
	{name: "system", write: clipboard.WriteAll},
	{name: "terminal", write: writeTerminalClipboard},
}

// copyToClipboard returns the name of the target that took the text.
func copyToClipboard(text string) (string, error) {
	var failures []error
	for _, target := range clipboardTargets {
		err := target.write(text)
		if err == nil {
			return target.name, nil
		}
		failures = append(failures, fmt.Errorf("%s clipboard: %w", target.name, err))
	}
	if headless() {
		failures = append([]error{errors.New("no display for the system clipboard")}, failures...)
	}
	return "", errors.Join(failures...)
}

func writeTerminalClipboard(text string) error {
	if !osc52Allowed() {
		return errors.New("terminal does not take OSC52")
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer tty.Close()
	return writeOSC52(tty, text)
}

// writeOSC52 wraps the sequence for tmux and screen, which otherwise swallow
// it.
func writeOSC52(w io.Writer, text string) error {
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if strings.HasPrefix(strings.ToLower(os.Getenv("TERM")), "screen") {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(w)
	return err
}

func osc52Allowed() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(osc52OptOutEnv))) {
	case "1", "true", "yes", "on":
		return false
	}
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return term != "" && term != "dumb"
}

func headless() bool {
	return os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}
