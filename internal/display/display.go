// Package display implements spec §4.5's diff renderer: it soft-wraps the
// prompt+buffer+hint into terminal rows, compares them against what was
// printed on the previous cycle, and rewrites only the rows that changed
// instead of clearing and reprinting the whole screen region every time.
package display

import (
	"strings"

	"github.com/corvidae/readline/internal/color"
	"github.com/corvidae/readline/internal/core"
	"github.com/corvidae/readline/internal/strutil"
	"github.com/corvidae/readline/internal/term"
	"github.com/corvidae/readline/internal/ui"
)

// Engine owns the previous redisplay's rendered rows and the shell
// components it reads from to compute the next ones.
type Engine struct {
	line      *core.Line
	cursor    *core.Cursor
	selection *core.Selection
	hint      *ui.Hint
	prompt    *ui.Prompt
	keymode   func() string

	highlighter func(string) string
	width       strutil.WidthFunc

	// previous redisplay state, for diffing.
	lastRows   []string
	lastCurRow int
	lastCurCol int
	lastHint   string
}

// NewEngine returns a display Engine bound to the shell's line/cursor/
// selection/hint/prompt components.
func NewEngine(line *core.Line, cursor *core.Cursor, selection *core.Selection, hint *ui.Hint, prompt *ui.Prompt) *Engine {
	return &Engine{
		line:      line,
		cursor:    cursor,
		selection: selection,
		hint:      hint,
		prompt:    prompt,
		width:     strutil.DefaultWidth,
	}
}

// Init (re)configures the engine at the start of each Readline() call: it
// installs the syntax highlighter (nil disables it) and clears any rows
// left over from a previous, now-accepted line.
func Init(e *Engine, highlighter func(string) string) {
	e.highlighter = highlighter
	e.lastRows = nil
	e.lastCurRow = 0
	e.lastCurCol = 0
	e.lastHint = ""
}

// SetKeymapIndicator installs a callback the engine queries each refresh to
// paint a vi-mode indicator (INSERT/NORMAL/...) in the prompt row, when the
// host prompt format wants one.
func (e *Engine) SetKeymapIndicator(fn func() string) {
	e.keymode = fn
}

// Refresh recomputes the rows for the current buffer and hint, and emits
// only the ANSI needed to turn what is on screen into that, then leaves the
// cursor at the buffer's logical cursor position.
func (e *Engine) Refresh() {
	rows := e.render()

	e.diffPaint(rows)
	e.placeCursor(rows)

	e.lastRows = rows
	e.lastHint = e.hint.Get()
}

// AcceptLine prints a final newline-terminated view of the accepted line
// (no hint row, cursor parked at the end) and forgets the diff state, so
// the next Readline() call starts from a blank slate below it.
func (e *Engine) AcceptLine() {
	rows := e.renderLineOnly()

	e.diffPaint(rows)
	term.MoveCursorDown(len(rows) - e.lastCurRowOr(len(rows)-1) - 1)
	print("\r\n")

	e.lastRows = nil
	e.lastCurRow = 0
	e.lastCurCol = 0
	e.lastHint = ""
}

// ResetHelpers clears the hint row and any completion-menu rows below the
// buffer without touching the buffer rows themselves, used when a widget
// (Escape, Ctrl-G) explicitly dismisses helpers.
func (e *Engine) ResetHelpers() {
	e.hint.ResetPersist()
	e.Refresh()
}

// RefreshTransient prints the configured transient prompt in place of the
// full prompt+buffer, run once on Readline() return (deferred).
func (e *Engine) RefreshTransient() {
	e.prompt.TransientPrint()
}

func (e *Engine) lastCurRowOr(def int) int {
	if len(e.lastRows) == 0 {
		return def
	}

	return e.lastCurRow
}

// render soft-wraps prompt-offset + buffer + hint into display rows.
func (e *Engine) render() []string {
	rows := e.renderLineOnly()

	if hint := e.hint.Get(); hint != "" {
		rows = append(rows, hint)
	}

	return rows
}

func (e *Engine) renderLineOnly() []string {
	text := string(*e.line)
	if e.highlighter != nil {
		text = e.highlighter(text)
	}

	width := term.GetWidth()
	if width <= 0 {
		width = 80
	}

	indent := e.prompt.LastUsed()
	if indent < 0 {
		indent = 0
	}

	return softWrap(text, width, indent, e.width)
}

// softWrap breaks text on existing newlines, then further breaks any row
// wider than the terminal into width-sized chunks; indent only reduces the
// budget of the first physical row, to account for the prompt already
// occupying those columns.
func softWrap(text string, width, indent int, measure strutil.WidthFunc) []string {
	var rows []string

	for _, line := range strings.Split(text, "\n") {
		budget := width - indent
		if budget <= 0 {
			budget = width
		}

		for measure(line) > budget {
			cut := cutToWidth(line, budget, measure)
			rows = append(rows, line[:cut])
			line = line[cut:]
			budget = width
		}

		rows = append(rows, line)
		indent = 0
	}

	if len(rows) == 0 {
		rows = []string{""}
	}

	return rows
}

func cutToWidth(s string, budget int, measure strutil.WidthFunc) int {
	for i := range s {
		if measure(s[:i]) > budget {
			if i == 0 {
				return len(s)
			}

			return i
		}
	}

	return len(s)
}

// diffPaint rewrites only the rows that differ between lastRows and rows,
// moving the cursor to each changed row before repainting it and clearing
// to end-of-line so shorter replacements don't leave stale characters.
func (e *Engine) diffPaint(rows []string) {
	term.MoveCursorUp(e.lastCurRow)
	term.MoveCursorBackwards(e.lastCurCol)

	max := len(rows)
	if len(e.lastRows) > max {
		max = len(e.lastRows)
	}

	col := 0

	for i := 0; i < max; i++ {
		var oldRow, newRow string

		if i < len(e.lastRows) {
			oldRow = e.lastRows[i]
		}

		if i < len(rows) {
			newRow = rows[i]
		}

		if i > 0 {
			print("\r\n")
			col = 0
		}

		if oldRow == newRow && i < len(e.lastRows) && i < len(rows) {
			continue
		}

		print(term.ClearLineAfter)
		print(newRow)
		col = strutil.RealLength(newRow)
	}

	// Cursor is now on the last row: after its text if that row was
	// repainted, at its first column if it was left unchanged.
	e.lastCurRow = max - 1
	if e.lastCurRow < 0 {
		e.lastCurRow = 0
	}

	e.lastCurCol = col
}

func lastOf(rows []string) string {
	if len(rows) == 0 {
		return ""
	}

	return rows[len(rows)-1]
}

// placeCursor moves from wherever diffPaint left the cursor (end of the
// last painted row) back up to the buffer's logical cursor position,
// accounting for the hint row (never part of the cursor target) and any
// soft-wrapping before the cursor.
func (e *Engine) placeCursor(rows []string) {
	bufRows := rows
	if e.hint.Get() != "" && len(rows) > 0 {
		bufRows = rows[:len(rows)-1]
	}

	targetRow, targetCol := e.cursorRowCol(bufRows)

	if e.lastCurRow > targetRow {
		term.MoveCursorUp(e.lastCurRow - targetRow)
	} else if e.lastCurRow < targetRow {
		term.MoveCursorDown(targetRow - e.lastCurRow)
	}

	if e.lastCurCol > targetCol {
		term.MoveCursorBackwards(e.lastCurCol - targetCol)
	} else if e.lastCurCol < targetCol {
		term.MoveCursorForwards(targetCol - e.lastCurCol)
	}

	e.lastCurRow = targetRow
	e.lastCurCol = targetCol
}

// cursorRowCol walks the rendered buffer rows counting runes until it has
// consumed cursor.Pos() of them, returning which row/column that lands on.
func (e *Engine) cursorRowCol(rows []string) (row, col int) {
	remaining := e.cursor.Pos()

	for i, r := range rows {
		length := len([]rune(color.Strip(r)))

		if remaining <= length || i == len(rows)-1 {
			return i, remaining
		}

		remaining -= length
	}

	return 0, remaining
}
