package core

// RegionType distinguishes a plain character span from a line-aligned one.
type RegionType int

// Region kinds, per spec §3.
const (
	RegionNone RegionType = iota
	RegionChar
	RegionLine
)

// Selection tracks the active region between a mark and the cursor. It is
// used both for vi's persistent visual-mode region and for the transient
// region implicitly spanned by a pending operator (d/c/y + motion).
type Selection struct {
	line   *Line
	cursor *Cursor

	active bool
	kind   RegionType
	mark   int
}

// NewSelection returns a selection bound to line/cursor, inactive.
func NewSelection(line *Line, cursor *Cursor) *Selection {
	return &Selection{line: line, cursor: cursor, mark: -1}
}

// Mark activates the region with its mark at pos.
func (s *Selection) Mark(pos int) {
	s.mark = pos
	s.active = true

	if s.kind == RegionNone {
		s.kind = RegionChar
	}
}

// MarkRange activates a character region with its mark at bpos. epos is not
// stored: the other end of the region is the cursor, which callers place.
func (s *Selection) MarkRange(bpos, epos int) {
	s.mark = bpos
	s.active = true
	s.kind = RegionChar
}

// MarkSurround is an alias of MarkRange used when highlighting a matched
// surround pair for vi-change-surround's visual feedback.
func (s *Selection) MarkSurround(bpos, epos int) {
	s.MarkRange(bpos, epos)
}

// Visual sets whether the active region is line-aligned (true) or a plain
// character span (false).
func (s *Selection) Visual(line bool) {
	if line {
		s.kind = RegionLine
	} else {
		s.kind = RegionChar
	}
}

// IsVisual reports whether the region is currently line-aligned.
func (s *Selection) IsVisual() bool {
	return s.kind == RegionLine
}

// Active reports whether a region is currently marked.
func (s *Selection) Active() bool {
	return s.active
}

// Cursor returns the cursor position that should remain after the region is
// consumed: the lower bound of the span.
func (s *Selection) Cursor() int {
	bpos, _ := s.Pos()
	return bpos
}

// Pos computes the [begin, end) bounds of the region, expanding to whole
// lines when in RegionLine mode.
func (s *Selection) Pos() (bpos, epos int) {
	cpos := s.cursor.Pos()

	if s.mark <= cpos {
		bpos, epos = s.mark, cpos+1
	} else {
		bpos, epos = cpos, s.mark
	}

	if bpos < 0 {
		bpos = 0
	}

	if epos > s.line.Len() {
		epos = s.line.Len()
	}

	if s.kind == RegionLine {
		for bpos > 0 && (*s.line)[bpos-1] != '\n' {
			bpos--
		}

		for epos < s.line.Len() && (*s.line)[epos] != '\n' {
			epos++
		}

		if epos < s.line.Len() {
			epos++ // consume the trailing newline too
		}
	}

	return bpos, epos
}

// Pop returns the selected text and its bounds, and resets the selection.
func (s *Selection) Pop() (text string, bpos, epos, cpos int) {
	bpos, epos = s.Pos()
	text = string((*s.line)[bpos:epos])
	cpos = bpos

	s.Reset()

	return text, bpos, epos, cpos
}

// Cut removes the selected span from the line and returns the removed text.
// The selection is reset as a side effect.
func (s *Selection) Cut() string {
	bpos, epos := s.Pos()
	text := s.line.Cut(bpos, epos)
	s.Reset()

	return text
}

// ReplaceWith applies fn to every rune in the active span, in place.
func (s *Selection) ReplaceWith(fn func(rune) rune) {
	bpos, epos := s.Pos()

	for i := bpos; i < epos; i++ {
		(*s.line)[i] = fn((*s.line)[i])
	}
}

// Surround wraps the active span with bchar/echar.
func (s *Selection) Surround(bchar, echar rune) {
	bpos, epos := s.Pos()

	s.line.Insert(epos, echar)
	s.line.Insert(bpos, bchar)
	s.Reset()
}

// SelectAWord marks a vi "a word" span (word plus trailing blank) around the
// cursor.
func (s *Selection) SelectAWord() {
	bpos, epos := s.line.SelectWord(s.cursor.Pos())
	epos = extendTrailingBlank(*s.line, epos)
	s.MarkRange(bpos, epos)
	s.cursor.Set(epos - 1)
}

// SelectABlankWord marks a vi "a WORD" span (WORD plus trailing blank).
func (s *Selection) SelectABlankWord() {
	bpos, epos := s.line.SelectBlankWord(s.cursor.Pos())
	epos = extendTrailingBlank(*s.line, epos)
	s.MarkRange(bpos, epos)
	s.cursor.Set(epos - 1)
}

// SelectAShellWord marks the blank-delimited word around the cursor. Quote
// characters are not treated specially, and trailing blanks are not included.
func (s *Selection) SelectAShellWord() {
	bpos, epos := s.line.SelectBlankWord(s.cursor.Pos())
	s.MarkRange(bpos, epos)
	s.cursor.Set(epos - 1)
}

func extendTrailingBlank(line Line, epos int) int {
	for epos < len(line) && (line[epos] == ' ' || line[epos] == '\t') {
		epos++
	}

	return epos
}

// Reset clears the region.
func (s *Selection) Reset() {
	s.active = false
	s.mark = -1
	s.kind = RegionNone
}
