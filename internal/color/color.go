// Package color holds the ANSI/SGR escape sequences used to paint hints,
// completion groups and the vi-mode prompt indicator, plus a Strip helper
// used wherever display width must be measured ignoring color codes.
package color

import ansi "github.com/acarl005/stripansi"

// Text attributes and colors used across the hint/completion/prompt
// renderers. Named the way the teacher lineage names them (seqDim,
// seqReset, etc.) but grouped under a proper package instead of
// package-level globals in the root package.
const (
	Reset = "\x1b[0m"
	Bold  = "\x1b[1m"
	Dim   = "\x1b[2m"

	FgRed       = "\x1b[31m"
	FgGreen     = "\x1b[32m"
	FgYellow    = "\x1b[33m"
	FgCyan      = "\x1b[36m"
	FgCyanBright = "\x1b[96m"

	Inverse  = "\x1b[7m"
	DimReset = "\x1b[22m"
)

// Strip removes every ANSI escape sequence from s, for display-width
// measurement and for bucketing candidates by their visible value.
func Strip(s string) string {
	return ansi.Strip(s)
}
