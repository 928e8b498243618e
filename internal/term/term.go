// Package term wraps the raw-mode/size/capability concerns spec §6 assigns
// to the externally-provided terminal: entering/leaving raw mode, querying
// size, and emitting the small vocabulary of cursor-movement and
// clear-region capability codes the display engine needs. This is the
// bundled default implementation of the terminal contract; consumers may
// supply their own (e.g. over an SSH channel) by implementing core.Reader,
// as StdinDriver does, instead of calling into this package.
package term

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Capability escape sequences. Grounded on the cursor-movement helpers in
// the teacher's update.go (moveCursorUp/Down/Forwards/Backwards, the
// clear-line/clear-screen-below sequences used by echo/clearHelpers).
const (
	ClearLineAfter    = "\x1b[0K"
	ClearLineBefore   = "\x1b[1K"
	ClearLine         = "\x1b[2K"
	ClearScreenBelow  = "\x1b[0J"
	CursorSave        = "\x1b[s"
	CursorRestore     = "\x1b[u"
	KeypadApplication = "\x1b[?1h\x1b="
	KeypadLocal       = "\x1b[?1l\x1b>"
	Bell              = "\a"
)

// State is the terminal attribute set saved on entering raw mode and
// restored when the read loop exits.
type State = term.State

// MakeRaw puts the terminal connected to fd into raw mode, returning its
// prior state for Restore.
func MakeRaw(fd int) (*State, error) {
	return term.MakeRaw(fd)
}

// Restore reapplies a previously saved terminal state.
func Restore(fd int, state *State) error {
	return term.Restore(fd, state)
}

// GetSize returns the terminal's current (columns, rows).
func GetSize(fd int) (width, height int, err error) {
	return term.GetSize(fd)
}

// GetWidth returns the width of the controlling terminal, defaulting to 80
// columns if it cannot be determined (e.g. output is redirected).
func GetWidth() int {
	width, _, err := GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}

	return width
}

// GetHeight returns the height of the controlling terminal, defaulting to
// 24 rows if it cannot be determined.
func GetHeight() int {
	_, height, err := GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return 24
	}

	return height
}

// MoveCursorUp emits the capability to move the cursor up n rows.
func MoveCursorUp(n int) {
	if n > 0 {
		printf("\x1b[%dA", n)
	}
}

// MoveCursorDown emits the capability to move the cursor down n rows.
func MoveCursorDown(n int) {
	if n > 0 {
		printf("\x1b[%dB", n)
	}
}

// MoveCursorForwards emits the capability to move the cursor right n columns.
func MoveCursorForwards(n int) {
	if n > 0 {
		printf("\x1b[%dC", n)
	}
}

// MoveCursorBackwards emits the capability to move the cursor left n columns.
func MoveCursorBackwards(n int) {
	if n > 0 {
		printf("\x1b[%dD", n)
	}
}

func printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}
