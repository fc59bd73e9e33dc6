package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"casenotify/internal/logging"
)

var ErrLoopStopped = errors.New("event loop stopped")

// EventLoop runs every state mutation on a single goroutine. Producers
// (HTTP handlers, websocket readers, tray clicks, timers) submit closures
// and never touch controller state directly. Closures run in submission
// order.
type EventLoop struct {
	tasks  chan func()
	done   chan struct{}
	logger logging.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

func NewEventLoop(logger logging.Logger) *EventLoop {
	if logger == nil {
		logger = logging.Nop()
	}
	return &EventLoop{
		tasks:  make(chan func(), 256),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (l *EventLoop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.stopped {
		return
	}
	l.started = true
	l.wg.Add(1)
	go l.run()
}

func (l *EventLoop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case task := <-l.tasks:
			l.execute(task)
		}
	}
}

func (l *EventLoop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event_loop_task_panic", logging.F("panic", fmt.Sprint(r)))
		}
	}()
	task()
}

// Post queues fn without waiting for it to run. It reports false once the
// loop has stopped.
func (l *EventLoop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for it. It must not be used from a
// closure already running on the loop.
func (l *EventLoop) Call(ctx context.Context, fn func()) error {
	if ctx == nil {
		ctx = context.Background()
	}
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop halts the loop. Closures still queued are dropped.
func (l *EventLoop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	close(l.done)
	l.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(finished)
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
