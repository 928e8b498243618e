package core

import "unicode"

// Cursor tracks the insertion point into a Line, along with the vi "mark"
// (set on entering insert mode, and consulted by vi-goto-mark). The cursor
// is always clamped to [0, line.Len()] by every mutator on this type — the
// spec's bounds invariant.
type Cursor struct {
	line *Line
	pos  int
	mark int
}

// NewCursor returns a cursor bound to line, positioned at 0 with no mark set.
func NewCursor(line *Line) *Cursor {
	return &Cursor{line: line, mark: -1}
}

// Pos returns the current cursor position.
func (c *Cursor) Pos() int {
	return c.clamp(c.pos)
}

// Set moves the cursor to an absolute position, clamped to bounds.
func (c *Cursor) Set(pos int) {
	c.pos = c.clamp(pos)
}

// Move applies a signed delta to the cursor position, clamped to bounds.
func (c *Cursor) Move(delta int) {
	c.Set(c.pos + delta)
}

// Inc moves the cursor one position right, if not already at the end.
func (c *Cursor) Inc() {
	if c.pos < c.line.Len() {
		c.pos++
	}
}

// Dec moves the cursor one position left, if not already at the start.
func (c *Cursor) Dec() {
	if c.pos > 0 {
		c.pos--
	}
}

func (c *Cursor) clamp(pos int) int {
	if pos < 0 {
		return 0
	}

	if pos > c.line.Len() {
		return c.line.Len()
	}

	return pos
}

//
// Mark -----------------------------------------------------------------
//

// SetMark records the current position as the vi insertion mark.
func (c *Cursor) SetMark() {
	c.mark = c.pos
}

// Mark returns the last-recorded vi mark, or -1 if none is set.
func (c *Cursor) Mark() int {
	return c.mark
}

//
// Line-relative queries --------------------------------------------------
//

// Line returns the 0-based index of the logical (newline-delimited) line
// the cursor currently sits on.
func (c *Cursor) Line() int {
	line := 0

	for i := 0; i < c.Pos() && i < c.line.Len(); i++ {
		if (*c.line)[i] == '\n' {
			line++
		}
	}

	return line
}

// LineMove moves the cursor up (negative) or down (positive) n logical
// lines, preserving its column offset where possible. Returns false when
// the motion could not be fully applied (top/bottom of buffer reached).
func (c *Cursor) LineMove(n int) bool {
	if n == 0 {
		return true
	}

	col := c.Pos() - c.lineStart(c.Pos())

	target := c.Line() + n
	want := target

	if target < 0 {
		target = 0
	}

	lineStarts := c.lineStarts()
	if target >= len(lineStarts) {
		target = len(lineStarts) - 1
	}

	start := lineStarts[target]
	end := c.lineEnd(start)

	newPos := start + col
	if newPos > end {
		newPos = end
	}

	c.Set(newPos)

	return target == want
}

func (c *Cursor) lineStarts() []int {
	starts := []int{0}

	for i := 0; i < c.line.Len(); i++ {
		if (*c.line)[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return starts
}

func (c *Cursor) lineStart(pos int) int {
	for i := pos - 1; i >= 0; i-- {
		if (*c.line)[i] == '\n' {
			return i + 1
		}
	}

	return 0
}

func (c *Cursor) lineEnd(start int) int {
	for i := start; i < c.line.Len(); i++ {
		if (*c.line)[i] == '\n' {
			return i
		}
	}

	return c.line.Len()
}

// BeginningOfLine moves the cursor to the start of the current logical line.
func (c *Cursor) BeginningOfLine() {
	c.Set(c.lineStart(c.Pos()))
}

// EndOfLine moves the cursor to the last character of the current logical
// line (not past it).
func (c *Cursor) EndOfLine() {
	end := c.lineEnd(c.lineStart(c.Pos()))
	if end > c.lineStart(c.Pos()) {
		end--
	}

	c.Set(end)
}

// EndOfLineAppend moves the cursor one past the last character of the
// current line, the position used for $, A, C, D so the final character is
// included in any resulting operator span.
func (c *Cursor) EndOfLineAppend() {
	c.Set(c.lineEnd(c.lineStart(c.Pos())))
}

// AtBeginningOfLine reports whether the cursor sits at the first column of
// its logical line.
func (c *Cursor) AtBeginningOfLine() bool {
	return c.Pos() == c.lineStart(c.Pos())
}

// AtEndOfLine reports whether the cursor sits at (or past) the last column
// of its logical line.
func (c *Cursor) AtEndOfLine() bool {
	return c.Pos() >= c.lineEnd(c.lineStart(c.Pos()))
}

// OnEmptyLine reports whether the current logical line has zero characters.
func (c *Cursor) OnEmptyLine() bool {
	start := c.lineStart(c.Pos())
	return c.lineEnd(start) == start
}

// ToFirstNonSpace moves the cursor forward (or, if forward is false,
// backward) to the first non-blank character of the current logical line.
func (c *Cursor) ToFirstNonSpace(forward bool) {
	start := c.lineStart(c.Pos())
	end := c.lineEnd(start)

	if forward {
		for i := start; i < end; i++ {
			if !unicode.IsSpace((*c.line)[i]) {
				c.Set(i)
				return
			}
		}

		c.Set(start)

		return
	}

	for i := end - 1; i >= start; i-- {
		if !unicode.IsSpace((*c.line)[i]) {
			c.Set(i)
			return
		}
	}

	c.Set(start)
}

// CheckCommand clamps the cursor so it never rests one-past-the-end of a
// non-empty line, the invariant vi command mode enforces (unlike insert
// mode, where the cursor may sit just after the last character).
func (c *Cursor) CheckCommand() {
	if c.line.Len() > 0 && c.pos >= c.line.Len() {
		c.pos = c.line.Len() - 1
	}
}
