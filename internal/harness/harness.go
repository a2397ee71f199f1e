package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/backlog/internal/away"
	"github.com/roach88/backlog/internal/engine"
	"github.com/roach88/backlog/internal/store"
	"github.com/roach88/backlog/internal/testutil"
)

// Harness feeds a scenario's events to a real engine over a fresh
// in-memory log, with a deterministic clock and request ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	self   string
	caps   ClientCaps
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Failed expectations and assertions are reported in the result; the
// error is only for scenarios that cannot run at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	self, start, step, col, err := scenario.settings()
	if err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	clock := testutil.NewDeterministicClock(start)
	clock.SetStep(step)

	st, err := store.Open(":memory:", store.WithClock(clock), store.WithCollation(col))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(st,
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator(scenario.Name)),
		engine.WithLocation(time.UTC),
		engine.WithAway(away.New(away.Config{DefaultReason: away.DefaultReason}, st, away.WithClock(clock))),
	)

	h := &Harness{
		store:  st,
		engine: eng,
		clock:  clock,
		self:   self,
		caps:   scenario.Client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup writes the setup lines straight to the log.
func (h *Harness) executeSetup(ctx context.Context, setup []LogLine) error {
	for i, line := range setup {
		who := store.Own()
		if line.Who != "" {
			who = store.Other(line.Who)
		}
		err := h.store.Append(ctx, store.Entry{
			Who:     who,
			Where:   line.Where,
			Message: line.Message,
			Type:    line.Type,
		})
		if err != nil {
			return fmt.Errorf("setup line %d: %w", i, err)
		}
	}
	return nil
}

// executeFlow hands each step to the engine and checks its expect clause.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		typ, err := engine.ParseEventType(step.Event)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		host := engine.NewBufferHost(h.self)
		host.SelfMessage = h.caps.SelfMessage
		host.ServerTime = h.caps.ServerTime

		ev := engine.Event{
			Type:    typ,
			Nick:    step.Nick,
			Target:  step.Target,
			Text:    step.Text,
			Module:  step.Module,
			Network: step.Network,
			Client: away.Client{
				ID:      step.ClientID,
				Host:    step.ClientHost,
				Network: step.Network,
			},
			Host: host,
		}

		handleErr := h.engine.Handle(ctx, ev)

		trace := TraceEvent{
			Seq:     h.engine.Clock().Current(),
			Event:   step.Event,
			Target:  step.Target,
			Text:    step.Text,
			Outputs: host.Outputs(),
		}
		if handleErr != nil {
			var rtErr *engine.RuntimeError
			if !errors.As(handleErr, &rtErr) {
				return fmt.Errorf("flow step %d: %w", i, handleErr)
			}
			trace.Error = string(rtErr.Code)
		}
		result.AddTrace(trace)

		if step.Expect != nil {
			for _, msg := range checkExpect(i, step.Expect, trace, host) {
				result.AddError(msg)
			}
		}

		h.logger.Info("flow step completed",
			"step", i,
			"event", step.Event,
			"outputs", len(trace.Outputs),
			"error", trace.Error,
		)
	}

	return nil
}

// checkExpect compares one step's output with its expect clause.
func checkExpect(step int, want *ExpectClause, got TraceEvent, host *engine.BufferHost) []string {
	var errs []string

	if want.Error != got.Error {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected error %q, got %q", step, want.Error, got.Error))
	}

	channels := []struct {
		to   engine.Channel
		want []string
	}{
		{engine.ToUser, want.User},
		{engine.ToModule, want.Module},
		{engine.ToIRC, want.IRC},
		{engine.ToClient, want.Client},
	}
	for _, ch := range channels {
		if ch.want == nil {
			continue
		}
		lines := host.Lines(ch.to)
		if lines == nil {
			lines = []string{}
		}
		if diff := cmp.Diff(ch.want, lines); diff != "" {
			errs = append(errs, fmt.Sprintf("flow[%d]: %s output mismatch (-want +got):\n%s", step, ch.to, diff))
		}
	}
	return errs
}
