package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/backlog/internal/engine"
	"github.com/roach88/backlog/internal/store"
)

func resultWith(outputs ...engine.Output) *Result {
	r := NewResult()
	r.AddTrace(TraceEvent{Seq: 1, Event: "mod_command", Outputs: outputs})
	return r
}

func TestAssertOutputContains(t *testing.T) {
	r := resultWith(engine.Output{To: engine.ToModule, Line: "No results"})

	assert.NoError(t, assertOutputContains(r, Assertion{Channel: "module", Line: "No results"}))

	err := assertOutputContains(r, Assertion{Channel: "user", Line: "No results"})
	require.Error(t, err)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertOutputContains, aerr.Type)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), "module: No results")
}

func TestAssertOutputOrder(t *testing.T) {
	r := resultWith(
		engine.Output{To: engine.ToUser, Line: "a"},
		engine.Output{To: engine.ToModule, Line: "noise"},
		engine.Output{To: engine.ToUser, Line: "b"},
		engine.Output{To: engine.ToUser, Line: "c"},
	)

	assert.NoError(t, assertOutputOrder(r, Assertion{Channel: "user", Lines: []string{"a", "c"}}))
	assert.NoError(t, assertOutputOrder(r, Assertion{Channel: "user", Lines: []string{"a", "b", "c"}}))
	assert.Error(t, assertOutputOrder(r, Assertion{Channel: "user", Lines: []string{"c", "a"}}))
	assert.Error(t, assertOutputOrder(r, Assertion{Channel: "user", Lines: []string{"a", "a"}}))
	assert.Error(t, assertOutputOrder(r, Assertion{Channel: "user", Lines: []string{"noise"}}))
}

func TestAssertOutputCount(t *testing.T) {
	r := resultWith(
		engine.Output{To: engine.ToIRC, Line: "AWAY"},
		engine.Output{To: engine.ToIRC, Line: "AWAY :x"},
	)

	assert.NoError(t, assertOutputCount(r, Assertion{Channel: "irc", Count: 2}))
	assert.NoError(t, assertOutputCount(r, Assertion{Channel: "client", Count: 0}))
	assert.Error(t, assertOutputCount(r, Assertion{Channel: "irc", Count: 1}))
}

func setupAssertionStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "assert.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	require.NoError(t, st.Append(ctx, store.Entry{Who: store.Other("bob"), Where: "#go", Message: "one"}))
	require.NoError(t, st.Append(ctx, store.Entry{Who: store.Own(), Where: "#go", Message: "two"}))
	require.NoError(t, st.Append(ctx, store.Entry{Who: store.Other("bob"), Where: "bob", Message: "three", Type: "ACTION"}))
	return st
}

func TestAssertFinalState(t *testing.T) {
	st := setupAssertionStore(t)
	ctx := context.Background()

	assert.NoError(t, assertFinalState(ctx, st, Assertion{
		Where:  map[string]any{"who": nil},
		Expect: map[string]any{"message": "two", "where": "#go", "type": nil},
	}))

	assert.NoError(t, assertFinalState(ctx, st, Assertion{
		Where:  map[string]any{"where": "bob"},
		Expect: map[string]any{"type": "ACTION"},
	}))

	// ambiguous
	err := assertFinalState(ctx, st, Assertion{
		Where:  map[string]any{"who": "bob"},
		Expect: map[string]any{"where": "#go"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple rows matched")

	// missing
	err = assertFinalState(ctx, st, Assertion{
		Where:  map[string]any{"who": "carol"},
		Expect: map[string]any{"where": "#go"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row not found")

	// wrong value
	err = assertFinalState(ctx, st, Assertion{
		Where:  map[string]any{"message": "one"},
		Expect: map[string]any{"who": "alice"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "who" = alice`)

	// unknown column
	err = assertFinalState(ctx, st, Assertion{
		Where:  map[string]any{"message": "one"},
		Expect: map[string]any{"nick": "bob"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "nick" not present`)
}

func TestAssertRowCount(t *testing.T) {
	st := setupAssertionStore(t)
	ctx := context.Background()

	assert.NoError(t, assertRowCount(ctx, st, Assertion{Count: 3}))
	assert.NoError(t, assertRowCount(ctx, st, Assertion{Where: map[string]any{"where": "#GO"}, Count: 2}))
	assert.NoError(t, assertRowCount(ctx, st, Assertion{Table: "settings", Count: 0}))
	assert.Error(t, assertRowCount(ctx, st, Assertion{Count: 2}))
}

func TestBuildWhereClause(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]any{"where": "#go", "who": nil, "type": "ACTION"})
	require.NoError(t, err)
	assert.Equal(t, `"type" = ? AND "where" = ? AND "who" IS NULL`, sql)
	assert.Equal(t, []any{"ACTION", "#go"}, args)

	_, _, err = buildWhereClause(map[string]any{"who; DROP TABLE log": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column name")
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(nil, nil))
	assert.False(t, stateValuesEqual(nil, "x"))
	assert.False(t, stateValuesEqual("x", nil))
	assert.True(t, stateValuesEqual("on", []byte("on")))
	assert.True(t, stateValuesEqual(3, int64(3)))
	assert.True(t, stateValuesEqual(true, int64(1)))
	assert.False(t, stateValuesEqual("3", int64(3)))
}

func TestEvaluateAssertions_NeedsStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertRowCount}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}
