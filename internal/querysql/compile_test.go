package querysql

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/backlog/internal/querylang"
	"github.com/roach88/backlog/internal/queryir"
	"github.com/roach88/backlog/internal/store"
)

func compile(t *testing.T, self, query string, limit int) Compiled {
	t.Helper()
	q, err := querylang.Parse(query)
	require.NoError(t, err)
	c, err := NewCompiler(self).Compile(q, limit)
	require.NoError(t, err)
	return c
}

func renderCompiled(c Compiled) []byte {
	var b strings.Builder
	b.WriteString(c.SQL())
	b.WriteByte('\n')
	for i, a := range c.Args() {
		fmt.Fprintf(&b, "%d: %T %#v\n", i+1, a, a)
	}
	return []byte(b.String())
}

func TestCompile_Golden(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"who_equals", "who = alice"},
		{"where_and_contains", "where = '#go' message ~ 'dead lock'"},
		{"time_between", "time between 09:00 and now"},
		{"date_yesterday_who", "date = yesterday who != bob"},
		{"datetime_and_number", "time >= 2024-03-01T08:30:00 type <> 42"},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, renderCompiled(compile(t, "me", tt.query, 10)))
		})
	}
}

func TestCompile_PlaceholdersMatchParameters(t *testing.T) {
	queries := []string{
		"who = alice",
		"where = '#go'",
		"type != ACTION",
		"message like 'a_b%'",
		"message ~ 42",
		"who between a and z",
		"message between 'a' and 'b' who = x",
		"time > 12:00",
		"time < now",
		"time between 2024-01-01 00:00:00 and 10:00",
		"date = today",
		"date between 2024-01-01 and yesterday",
		"where = '?' message = 'what?'",
	}

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			c := compile(t, "me", query, 25)
			assert.Equal(t, strings.Count(c.SQL(), "?"), len(c.Args()), c.SQL())
			assert.Equal(t, strings.Count(c.Where(), "?"), len(c.Params), c.Where())
			assert.Equal(t, 25, c.Args()[len(c.Args())-1], "limit is the last argument")
		})
	}
}

func TestCompile_SingleClauseOneParameter(t *testing.T) {
	for _, col := range []string{"where", "type", "message"} {
		for _, op := range []string{"=", "!=", "<>", "<", ">", "<=", ">=", "like"} {
			c := compile(t, "me", col+" "+op+" value", 10)
			require.Len(t, c.Fragments, 1)
			assert.Equal(t, []any{"value"}, c.Params, "%s %s", col, op)
			assert.Equal(t, 1, strings.Count(c.Fragments[0], "?"))
		}
	}
}

func TestCompile_ContainsDesugarsToLike(t *testing.T) {
	tilde := compile(t, "me", "message ~ 'foo'", 10)
	like := compile(t, "me", "message like 'x'", 10)

	assert.Equal(t, like.Fragments, tilde.Fragments)
	assert.Equal(t, []any{"%foo%"}, tilde.Params)
	assert.Equal(t, []any{"x"}, like.Params)
}

func TestCompile_WhoBindsSelfBeforeOperand(t *testing.T) {
	for _, op := range []string{"=", "!=", "like"} {
		c := compile(t, "mynick", "where = '#go' who "+op+" alice", 10)

		require.Len(t, c.Fragments, 2)
		assert.Equal(t, `COALESCE("who", ?) COLLATE LOGTEXT `+strings.ToUpper(op)+` ?`, c.Fragments[1])
		assert.Equal(t, []any{"#go", "mynick", "alice"}, c.Params)
	}
}

func TestCompile_WhoBetweenBindsSelfThenBounds(t *testing.T) {
	c := compile(t, "me", "who between a and m", 10)
	assert.Equal(t, `COALESCE("who", ?) COLLATE LOGTEXT BETWEEN ? AND ?`, c.Fragments[0])
	assert.Equal(t, []any{"me", "a", "m"}, c.Params)
}

func TestCompile_BetweenLowerThenUpper(t *testing.T) {
	c := compile(t, "me", "message between 'lo' and 'hi'", 10)
	assert.Equal(t, `"message" BETWEEN ? AND ?`, c.Fragments[0])
	assert.Equal(t, []any{"lo", "hi"}, c.Params)
}

func TestCompile_VirtualColumnsUseLocalTime(t *testing.T) {
	for _, query := range []string{"time > now", "time = 10:00", "date = today", "date < 2024-01-01"} {
		c := compile(t, "me", query, 10)
		frag := c.Fragments[0]
		assert.False(t, strings.HasPrefix(frag, `"time"`), frag)
		assert.Contains(t, frag, `'localtime')`)
	}
}

func TestCompile_ShorthandWithoutParameters(t *testing.T) {
	c := compile(t, "me", "time < now date = today date > yesterday", 10)
	assert.Empty(t, c.Params)
	assert.Equal(t, []any{10}, c.Args())
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	c := compile(t, "me", `message = 'x'' OR 1=1 --' who = 'Robert'`, 10)
	assert.NotContains(t, c.SQL(), "OR 1=1")
	assert.NotContains(t, c.SQL(), "Robert")
	assert.Equal(t, []any{"x' OR 1=1 --", "me", "Robert"}, c.Params)
}

func TestCompile_SelectListMatchesStore(t *testing.T) {
	c := compile(t, "me", "who = x", 1)
	assert.True(t, strings.HasPrefix(c.SQL(), "SELECT "+store.RowColumns+" FROM "))
}

func TestCompile_Errors(t *testing.T) {
	comp := NewCompiler("me")

	_, err := comp.Compile(queryir.Query{}, 10)
	assert.ErrorIs(t, err, ErrNoConditions)

	q := queryir.Query{Conditions: []queryir.Condition{
		{Column: queryir.ColumnWho, Op: queryir.OpEq, Operands: []queryir.Operand{queryir.Word{Value: "x"}}},
	}}
	_, err = comp.Compile(q, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	bad := queryir.Query{Conditions: []queryir.Condition{
		{Column: queryir.ColumnDate, Op: queryir.OpEq, Operands: []queryir.Operand{queryir.Now{}}},
	}}
	_, err = comp.Compile(bad, 10)
	var verr *queryir.ValidationError
	assert.True(t, errors.As(err, &verr))
}
