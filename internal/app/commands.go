package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"casenotify/internal/client"
)

const (
	actionTimeout  = 10 * time.Second
	reconnectDelay = 2 * time.Second
)

type streamOpenedMsg struct {
	events <-chan client.Event
	errs   <-chan error
}

type streamClosedMsg struct {
	err error
}

type reconnectMsg struct{}

type eventMsg client.Event

type actionResultMsg struct {
	id  string
	err error
}

func subscribeCmd(ctx context.Context, api trayAPI) tea.Cmd {
	return func() tea.Msg {
		events, errs, err := api.Subscribe(ctx)
		if err != nil {
			return streamClosedMsg{err: err}
		}
		return streamOpenedMsg{events: events, errs: errs}
	}
}

// waitForEventCmd blocks for the next frame. Once the event channel closes
// the error channel holds the reason, if any.
func waitForEventCmd(events <-chan client.Event, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{err: <-errs}
		}
		return eventMsg(ev)
	}
}

func reconnectCmd() tea.Cmd {
	return tea.Tick(reconnectDelay, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}

func trayActionCmd(ctx context.Context, api trayAPI, id string) tea.Cmd {
	return func() tea.Msg {
		actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		return actionResultMsg{id: id, err: api.TrayAction(actionCtx, id)}
	}
}
