package querylang

import (
	"strings"

	"github.com/roach88/backlog/internal/queryir"
)

// Describe renders the query grammar for the "help" query.
func Describe() string {
	ops := make([]string, 0, len(queryir.ComparisonOps)+1)
	for _, op := range queryir.ComparisonOps {
		ops = append(ops, `"`+op.String()+`"`)
	}
	ops = append(ops, `"like"`)

	var b strings.Builder
	lines := []string{
		`query     := condition { condition }`,
		`condition := column op operand`,
		`           | column "between" operand "and" operand`,
		`           | column "~" operand`,
		`           | "time" op timeval | "time" "between" timeval "and" timeval`,
		`           | "date" op dateval | "date" "between" dateval "and" dateval`,
		`column    := "who" | "where" | "type" | "message"`,
		`op        := ` + strings.Join(ops, " | "),
		`operand   := number | 'string' | word`,
		`timeval   := HH:MM[:SS] | YYYY-MM-DD[T]HH:MM:SS | "now"`,
		`dateval   := YYYY-MM-DD | "today" | "yesterday"`,
		``,
		`Conditions are separated by spaces and must all match.`,
		`"~" matches a substring: message ~ foo is message like '%foo%'.`,
		`like patterns use % for any run of characters and _ for one character.`,
		`who matches your own messages by your nick.`,
		`time and date use local time; HH:MM means today at that time.`,
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
