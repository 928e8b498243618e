// Package logutil provides the minimal internal-anomaly logging spec §7
// asks for: a single, optionally-enabled logger that reports conditions
// the dispatcher or its subsystems consider a bug if they occur (a widget
// panicking, a keymap trie node found in an inconsistent state), never
// anything a user would see during normal editing.
package logutil

import (
	"io"
	"log"
	"os"
)

var logger = log.New(io.Discard, "readline: ", log.LstdFlags)

// SetOutput redirects internal diagnostics to w; pass nil to silence them
// again. Host applications wire this to a debug flag, not to stderr by
// default, since a dispatcher loop owns the raw terminal and stray output
// would corrupt the display.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}

	logger.SetOutput(w)
}

// SetOutputFile is a convenience for the common "debug log to a file" case.
func SetOutputFile(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	SetOutput(f)

	return nil
}

// Printf logs an internal anomaly. Never called on the happy path.
func Printf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}
