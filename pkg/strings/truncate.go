// Package strings holds text helpers shared by the CLI renderers.
package strings

import (
	"strings"
)

// DefaultCellMaxLen is the widest table cell the status renderers print.
const DefaultCellMaxLen = 60

// MinTruncateLen leaves room for one character plus "...".
const MinTruncateLen = 4

// Truncate folds s onto a single line and cuts it to at most maxLen runes,
// ending in "..." when anything was removed. maxLen is clamped to
// MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
