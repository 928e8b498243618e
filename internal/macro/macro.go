// Package macro implements keyboard-macro recording and replay: start/stop
// recording appends every key consumed by the dispatcher to the active
// recording buffer, and running a macro feeds its recorded keys back onto
// core.Keys exactly as if they had been typed (spec §4.1's "runMacro pushes
// the macro's keys back onto the input").
package macro

import "github.com/corvidae/readline/internal/core"

// Engine owns the set of named macro registers (one per lowercase letter,
// like the kill-ring registers) plus whichever one is currently recording.
type Engine struct {
	keys *core.Keys

	registers map[byte][]rune

	recording   bool
	activeReg   byte
	appendToReg bool
}

// NewEngine returns an Engine with no macros recorded.
func NewEngine(keys *core.Keys) *Engine {
	return &Engine{keys: keys, registers: make(map[byte][]rune)}
}

// Start begins recording into register reg, replacing any macro already
// stored there (unless appendMode, which extends it instead).
func (e *Engine) Start(reg byte, appendMode bool) {
	e.recording = true
	e.activeReg = reg
	e.appendToReg = appendMode

	if !appendMode {
		e.registers[reg] = nil
	}
}

// Stop ends recording.
func (e *Engine) Stop() {
	e.recording = false
}

// Toggle starts recording into reg if idle, or stops if already recording.
func (e *Engine) Toggle(reg byte) {
	if e.recording {
		e.Stop()
		return
	}

	e.Start(reg, false)
}

// Recording reports whether a macro is currently being recorded, used to
// keep the "recording" hint visible (readline.go's updatePosRunHints).
func (e *Engine) Recording() bool {
	return e.recording
}

// Play feeds the named register's recorded keys back onto the key stack,
// to be matched and dispatched exactly as if freshly typed.
func (e *Engine) Play(reg byte) {
	keys := e.registers[reg]
	if len(keys) == 0 {
		return
	}

	e.keys.Feed(true, keys...)
}

// LastRegister returns the register most recently recorded into (the
// target of call-last-kbd-macro), or 0 if none has been recorded yet.
func (e *Engine) LastRegister() byte {
	return e.activeReg
}

// RecordKeys appends whatever the previous command consumed to the active
// recording, if one is in progress. Called once per dispatcher iteration,
// before the consumed keys are flushed (readline.go's main loop, ahead of
// core.FlushUsed).
func RecordKeys(e *Engine) {
	if e == nil || !e.recording {
		return
	}

	caller := e.keys.Caller()
	if len(caller) == 0 {
		return
	}

	e.registers[e.activeReg] = append(e.registers[e.activeReg], caller...)
}
