package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"casenotify/internal/types"
)

func TestSendPostsPayloadOnChannel(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"channel":"set-snooze","result":null}`))
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "token")
	until := time.UnixMilli(1767225600000)
	require.NoError(t, c.SetSnooze(context.Background(), until))

	assert.Equal(t, "/v1/messages/set-snooze", gotPath)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.JSONEq(t, `{"untilMs":1767225600000}`, string(gotBody))
}

func TestSendReturnsResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"channel":"notify","result":{"shown":false,"reason":"paused"}}`))
	}))
	defer server.Close()

	raw, err := NewWithBaseURL(server.URL, "token").Send(context.Background(), types.ChannelNotify, types.NotifyPayload{Title: "t"})
	require.NoError(t, err)
	var result types.NotifyResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.False(t, result.Shown)
	assert.Equal(t, "paused", result.Reason)
}

func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unknown tray action: nope"}`))
	}))
	defer server.Close()

	err := NewWithBaseURL(server.URL, "token").TrayAction(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "unknown tray action")
}

func TestMissingTokenFailsBeforeRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := NewWithBaseURL(server.URL, "").State(context.Background())
	require.Error(t, err)
	assert.False(t, called)
}

func TestHealthNeedsNoToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ok":true,"version":"1.2.3","pid":42,"shell_connected":true}`))
	}))
	defer server.Close()

	health, err := NewWithBaseURL(server.URL, "").Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.OK)
	assert.Equal(t, "1.2.3", health.Version)
	assert.True(t, health.ShellConnected)
}

func TestEnsureDaemonStartsWhenUnhealthy(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"version":"1.0.0"}`))
	}))
	defer server.Close()

	starts := 0
	prev := startDaemon
	startDaemon = func() error {
		starts++
		healthy.Store(true)
		return nil
	}
	defer func() { startDaemon = prev }()

	require.NoError(t, NewWithBaseURL(server.URL, "token").EnsureDaemon(context.Background()))
	assert.Equal(t, 1, starts)
}

func TestSubscribeDeliversEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()
		_ = wsjson.Write(ctx, conn, types.Event{Type: types.EventState, Payload: types.DefaultNotificationState().Snapshot(0, 0, 0)})
		_ = wsjson.Write(ctx, conn, types.Event{Type: types.EventTrayMenu, Payload: types.TrayMenu{Title: "3"}})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events, _, err := NewWithBaseURL(server.URL, "token").Subscribe(ctx)
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, types.EventState, first.Type)
	var state types.NotificationStateSnapshot
	require.NoError(t, first.Decode(&state))
	assert.True(t, state.ShowNotes)

	second := <-events
	var menu types.TrayMenu
	require.NoError(t, second.Decode(&menu))
	assert.Equal(t, "3", menu.Title)
}

func TestEnsureDaemonVersionReplacesStaleDaemon(t *testing.T) {
	var running atomic.Value
	running.Store("0.9.0")
	var shutdowns atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/shutdown":
			shutdowns.Add(1)
			running.Store("")
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/health":
			v := running.Load().(string)
			if v == "" {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"version":"` + v + `","pid":7}`))
		}
	}))
	defer server.Close()

	prev := startDaemon
	startDaemon = func() error {
		running.Store("1.0.0")
		return nil
	}
	defer func() { startDaemon = prev }()

	c := NewWithBaseURL(server.URL, "token")
	err := c.EnsureDaemonVersion(context.Background(), "1.0.0", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version mismatch")

	require.NoError(t, c.EnsureDaemonVersion(context.Background(), "1.0.0", true))
	assert.Equal(t, int32(1), shutdowns.Load())
}
