package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/backlog/internal/away"
	"github.com/roach88/backlog/internal/search"
	"github.com/roach88/backlog/internal/store"
)

// Engine is the single-writer event loop of one user's log.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Handle(): only when Run is not running
type Engine struct {
	store    *store.Store
	searcher *search.Searcher
	away     *away.Module
	queue    *eventQueue
	clock    *Clock
	ids      IDGenerator
	loc      *time.Location
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithAway replaces the away module. The default one uses away.DefaultReason.
func WithAway(m *away.Module) Option {
	return func(e *Engine) {
		e.away = m
	}
}

// WithIDGenerator sets the request id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLocation sets the zone used for local timestamps in output.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		e.loc = loc
	}
}

// New creates an Engine logging to s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		searcher: search.New(s),
		queue:    newEventQueue(),
		clock:    &Clock{},
		ids:      UUIDv7Generator{},
		loc:      time.Local,
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.away == nil {
		e.away = away.New(away.Config{}, s)
	}

	return e
}

// Enqueue submits an event for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	if ev.ID == "" {
		ev.ID = e.ids.Generate()
	}
	return e.queue.Enqueue(ev)
}

// Handle processes one event synchronously and returns its error.
// For callers that do not run the loop (the CLI and tests).
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = e.ids.Generate()
	}
	ev.Seq = e.clock.Next()
	return e.processEvent(ctx, ev)
}

// Run starts the single-writer event loop.
// Blocks until context is cancelled or Stop() is called.
//
// On event processing failure, the error is logged with full event context
// and processing continues.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			event.Seq = e.clock.Next()
			if err := e.processEvent(ctx, event); err != nil {
				logEventError(event, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue, so this fires
			// immediately once stopped.
			if e.queue.Drained() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Events already queued are still processed before Run returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// QueueLen returns the number of events waiting to be processed.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Clock returns the sequence clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Away returns the away module.
func (e *Engine) Away() *away.Module {
	return e.away
}

// logEventError logs an event processing failure with full context.
func logEventError(ev Event, err error) {
	slog.Error("event processing failed",
		"error", err,
		"event_id", ev.ID,
		"seq", ev.Seq,
		"type", ev.Type.String(),
		"nick", ev.Nick,
		"target", ev.Target,
		"network", ev.Network,
	)
}
