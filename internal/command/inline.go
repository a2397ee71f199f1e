package command

import (
	"regexp"
	"strconv"
)

var inlineBacklog = regexp.MustCompile(`(?i)^\s*!bl\s*(\d*)\s*$`)

// ParseInline recognises "!bl [N]" typed into a buffer. It reports the
// requested line count and whether text was such a request.
func ParseInline(text string) (int, bool) {
	m := inlineBacklog.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	if m[1] == "" {
		return DefaultNum, true
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
