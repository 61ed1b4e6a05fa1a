package strings

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	// ErrorMaxLen bounds error messages printed in run summaries. Docker and
	// pm2 errors often carry whole command transcripts.
	ErrorMaxLen = 160
	// CellMaxLen bounds free-form table cells such as image names.
	CellMaxLen = 48
	// MinTruncateLen leaves room for one character and the ellipsis.
	MinTruncateLen = 4
)

// OneLine collapses all whitespace in s into single spaces and shortens the
// result to maxLen display columns, ending it with "..." when cut. A maxLen
// of zero or less keeps the whole line.
func OneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 {
		return s
	}
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	return text.Snip(s, maxLen, "...")
}
