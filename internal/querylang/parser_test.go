package querylang

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/backlog/internal/queryir"
)

func TestParse_SingleConditions(t *testing.T) {
	tests := []struct {
		input string
		want  queryir.Condition
	}{
		{"who = alice", queryir.Condition{Column: queryir.ColumnWho, Op: queryir.OpEq, Operands: []queryir.Operand{queryir.Word{Value: "alice"}}}},
		{"WHERE != '#go'", queryir.Condition{Column: queryir.ColumnWhere, Op: queryir.OpNe, Operands: []queryir.Operand{queryir.String{Value: "#go"}}}},
		{"type <> 'ACTION'", queryir.Condition{Column: queryir.ColumnType, Op: queryir.OpNeAlt, Operands: []queryir.Operand{queryir.String{Value: "ACTION"}}}},
		{"message LIKE 'a%'", queryir.Condition{Column: queryir.ColumnMessage, Op: queryir.OpLike, Operands: []queryir.Operand{queryir.String{Value: "a%"}}}},
		{"message ~ foo", queryir.Condition{Column: queryir.ColumnMessage, Op: queryir.OpContains, Operands: []queryir.Operand{queryir.Word{Value: "foo"}}}},
		{"message >= 10", queryir.Condition{Column: queryir.ColumnMessage, Op: queryir.OpGe, Operands: []queryir.Operand{queryir.Number{Value: 10}}}},
		{"who between a and m", queryir.Condition{Column: queryir.ColumnWho, Op: queryir.OpBetween, Operands: []queryir.Operand{queryir.Word{Value: "a"}, queryir.Word{Value: "m"}}}},
		{"time > 12:30", queryir.Condition{Column: queryir.ColumnTime, Op: queryir.OpGt, Operands: []queryir.Operand{queryir.TimeOfDay{Hour: 12, Minute: 30}}}},
		{"time <= now", queryir.Condition{Column: queryir.ColumnTime, Op: queryir.OpLe, Operands: []queryir.Operand{queryir.Now{}}}},
		{"time between 2024-03-01T08:00:00 and NOW", queryir.Condition{Column: queryir.ColumnTime, Op: queryir.OpBetween, Operands: []queryir.Operand{
			queryir.DateTime{Date: queryir.Date{Year: 2024, Month: 3, Day: 1}, Time: queryir.TimeOfDay{Hour: 8}}, queryir.Now{},
		}}},
		{"date = today", queryir.Condition{Column: queryir.ColumnDate, Op: queryir.OpEq, Operands: []queryir.Operand{queryir.Today{}}}},
		{"date between 2024-01-01 and yesterday", queryir.Condition{Column: queryir.ColumnDate, Op: queryir.OpBetween, Operands: []queryir.Operand{
			queryir.Date{Year: 2024, Month: 1, Day: 1}, queryir.Yesterday{},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := Parse(tt.input)
			require.NoError(t, err)
			require.Len(t, q.Conditions, 1)
			assert.Equal(t, tt.want, q.Conditions[0])
			assert.NoError(t, queryir.Validate(q))
		})
	}
}

func TestParse_ConditionsConjoinedInOrder(t *testing.T) {
	q, err := Parse("where = 'mychan'   type = 'ACTION'\tmessage ~ 'hi there'")
	require.NoError(t, err)
	require.Len(t, q.Conditions, 3)

	assert.Equal(t, queryir.ColumnWhere, q.Conditions[0].Column)
	assert.Equal(t, queryir.ColumnType, q.Conditions[1].Column)
	assert.Equal(t, queryir.ColumnMessage, q.Conditions[2].Column)
	assert.Equal(t, queryir.String{Value: "hi there"}, q.Conditions[2].Operands[0])
}

func TestParse_StoredColumnsTakeKeywordsAsWords(t *testing.T) {
	q, err := Parse("message = now who = today")
	require.NoError(t, err)
	assert.Equal(t, queryir.Word{Value: "now"}, q.Conditions[0].Operands[0])
	assert.Equal(t, queryir.Word{Value: "today"}, q.Conditions[1].Operands[0])
}

func TestParse_HugeNumberIsWord(t *testing.T) {
	q, err := Parse("message = 99999999999999999999999")
	require.NoError(t, err)
	assert.Equal(t, queryir.Word{Value: "99999999999999999999999"}, q.Conditions[0].Operands[0])
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := Parse(input)
		assert.ErrorIs(t, err, ErrEmptyQuery, "%q", input)
		assert.False(t, IsSyntaxError(err))
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		offset   int
		expected string
	}{
		{"unknown column", "nick = alice", 0, expectColumn},
		{"help is not a query", "help", 0, expectColumn},
		{"missing operator", "who alice", 4, expectOperator},
		{"missing operand", "who =", 5, expectLiteral},
		{"trailing garbage", "who = alice !", 12, expectColumn},
		{"explicit and between clauses", "who = a and where = b", 8, expectColumn},
		{"between without and", "who between a b", 14, expectAnd},
		{"tilde on time", "time ~ now", 5, expectVirtOp},
		{"literal on time", "time = 5", 7, expectTime},
		{"date shorthand on time", "time = today", 7, expectTime},
		{"time shorthand on date", "date = 12:00", 7, expectDate},
		{"time on stored column", "message = 12:30", 10, expectLiteral},
		{"out of range time", "time > 25:00", 7, expectTime},
		{"out of range date", "date = 2024-13-01", 7, expectDate},
		{"unterminated string", "message = 'oops", 10, expectQuote},
		{"illegal character", "where = #go", 8, expectLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "got %T: %v", err, err)
			assert.Equal(t, tt.input, se.Source)
			assert.Equal(t, tt.offset, se.Offset)
			assert.Equal(t, tt.expected, se.Expected)
		})
	}
}

func TestSyntaxError_Message(t *testing.T) {
	_, err := Parse("who = alice bogus")
	require.Error(t, err)
	assert.Equal(t, `unexpected "bogus" at offset 12, expected `+expectColumn, err.Error())

	_, err = Parse("who =")
	require.Error(t, err)
	assert.Equal(t, "unexpected end of query at offset 5, expected "+expectLiteral, err.Error())
}

func TestSyntaxError_FragmentTruncated(t *testing.T) {
	_, err := Parse("bogus " + "x x x x x x x x x x x x x x x x x x x x")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bogus x x x x x x x x x ...", se.Fragment)
}

func TestDescribe_MentionsEveryColumnAndOperator(t *testing.T) {
	d := Describe()
	for _, c := range queryir.Columns {
		assert.Contains(t, d, `"`+c.String()+`"`)
	}
	for _, op := range queryir.ComparisonOps {
		assert.Contains(t, d, `"`+op.String()+`"`)
	}
	assert.Contains(t, d, `"like"`)
	assert.Contains(t, d, `"between"`)
	assert.Contains(t, d, `"~"`)
}
