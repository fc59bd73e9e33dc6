// Package client is the HTTP and websocket client for the notification
// daemon, used by the CLI and the terminal tray.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"casenotify/internal/config"
	"casenotify/internal/types"
)

const requestTimeout = 10 * time.Second

// Client talks to a running daemon over its loopback API.
type Client struct {
	baseURL   string
	tokenPath string
	token     string
	http      *http.Client
}

// New reads the daemon address from the config file and the token from the
// data dir. A missing token is not an error until an authed call is made.
func New() (*Client, error) {
	cfg, err := config.LoadCoreConfig()
	if err != nil {
		return nil, err
	}
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}
	c := NewWithBaseURL(cfg.DaemonBaseURL(), "")
	c.tokenPath = tokenPath
	c.reloadToken()
	return c, nil
}

func NewWithBaseURL(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, request{method: http.MethodGet, path: "/health", public: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) State(ctx context.Context) (*types.NotificationStateSnapshot, error) {
	return getJSON[types.NotificationStateSnapshot](ctx, c, "/v1/state")
}

func (c *Client) PillSummary(ctx context.Context) (*types.PillSummary, error) {
	return getJSON[types.PillSummary](ctx, c, "/v1/pill")
}

func (c *Client) UpdateState(ctx context.Context) (*types.UpdateState, error) {
	return getJSON[types.UpdateState](ctx, c, "/v1/update")
}

func (c *Client) TrayMenu(ctx context.Context) (*types.TrayMenu, error) {
	return getJSON[types.TrayMenu](ctx, c, "/v1/tray/menu")
}

// TrayAction runs a tray menu item as if it had been clicked.
func (c *Client) TrayAction(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("action id is required")
	}
	return c.call(ctx, request{method: http.MethodPost, path: "/v1/tray/actions/" + url.PathEscape(id)}, nil)
}

// Send posts payload on a message channel and returns the raw result. A nil
// payload sends an empty body.
func (c *Client) Send(ctx context.Context, channel string, payload any) (json.RawMessage, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, errors.New("channel is required")
	}
	var out MessageResponse
	err := c.call(ctx, request{method: http.MethodPost, path: "/v1/messages/" + url.PathEscape(channel), body: payload}, &out)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) SetPaused(ctx context.Context, paused bool) error {
	_, err := c.Send(ctx, types.ChannelSetPaused, paused)
	return err
}

func (c *Client) SetSnooze(ctx context.Context, until time.Time) error {
	_, err := c.Send(ctx, types.ChannelSetSnooze, types.SnoozePayload{UntilMs: until.UnixMilli()})
	return err
}

func (c *Client) ClearSnooze(ctx context.Context) error {
	_, err := c.Send(ctx, types.ChannelClearSnooze, nil)
	return err
}

func (c *Client) CheckForUpdates(ctx context.Context) error {
	_, err := c.Send(ctx, types.ChannelCheckForUpdates, nil)
	return err
}

func (c *Client) ShutdownDaemon(ctx context.Context) error {
	return c.call(ctx, request{method: http.MethodPost, path: "/v1/shutdown"}, nil)
}

func getJSON[T any](ctx context.Context, c *Client, path string) (*T, error) {
	out := new(T)
	if err := c.call(ctx, request{method: http.MethodGet, path: path}, out); err != nil {
		return nil, err
	}
	return out, nil
}
