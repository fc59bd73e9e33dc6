package desktop

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// URLOpener opens a URL outside the controller.
type URLOpener func(ctx context.Context, rawURL string) error

// OpenURL opens an http(s) URL in the user's default browser.
func OpenURL(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("invalid url scheme: %s", u.Scheme)
	}
	if u.User != nil {
		return errors.New("urls with user info are not allowed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// The browser outlives the request, so the command is not bound to ctx.
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u.String())
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", u.String())
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u.String())
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}
