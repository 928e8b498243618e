package completion

import (
	"regexp"

	"github.com/corvidae/readline/inputrc"
	"github.com/corvidae/readline/internal/core"
	"github.com/corvidae/readline/internal/keymap"
	"github.com/corvidae/readline/internal/ui"
)

// Engine computes, filters and renders completion candidates. It owns the
// completion-specific minibuffers (incremental/non-incremental search) and
// the virtually-inserted candidate used while the user is tabbing through
// a match list, keeping the real input line untouched until a candidate is
// accepted.
type Engine struct {
	line      *core.Line
	cursor    *core.Cursor
	selection *core.Selection
	keymaps   *keymap.Engine
	hint      *ui.Hint
	config    *inputrc.Config

	completers map[string]Completer
	active     string

	cached Values
	groups []*group
	prefix string

	// Currently selected/inserted candidate, if any.
	selected  Candidate
	completed *core.Line
	compCursor *core.Cursor

	// Incremental/non-incremental search minibuffer.
	auto             bool
	autoForce        bool
	isearchBuf       *core.Line
	isearchCur       *core.Cursor
	isearchName      string
	isearchForward   bool
	isearchSubstring bool
	isearchInsert    bool
	isearchModeExit  keymap.Mode
	IsearchRegex     *regexp.Regexp
}

// NewEngine returns a completion engine bound to the shell's core editing
// state: it reads/writes the same line and cursor the dispatcher uses, and
// shares the keymap engine so it can switch to/from the isearch local mode.
func NewEngine(line *core.Line, cursor *core.Cursor, selection *core.Selection, keymaps *keymap.Engine, hint *ui.Hint) *Engine {
	return &Engine{
		line:       line,
		cursor:     cursor,
		selection:  selection,
		keymaps:    keymaps,
		hint:       hint,
		config:     inputrc.NewConfig(),
		completers: make(map[string]Completer),
	}
}

// Register binds a named completer, run by Generate(name).
func (e *Engine) Register(name string, fn Completer) {
	e.completers[name] = fn
}

// GenerateWith recomputes the candidate groups from comps, the menu's
// current source of truth (either a freshly generated Values, or a cached
// one being re-filtered by an isearch minibuffer).
func (e *Engine) GenerateWith(comps Values) {
	e.cached = comps
	e.groups = e.groups[:0]
	e.prefix = comps.PREFIX

	gen := e.generateGroup(comps)

	tags := make(map[string]bool)

	vals := comps.sorted()
	for _, val := range vals {
		if !tags[val.Tag] {
			tags[val.Tag] = true
		}
	}

	if len(tags) == 0 {
		gen("", vals)
		return
	}

	byTag := make(map[string]RawValues)
	for _, val := range vals {
		byTag[val.Tag] = append(byTag[val.Tag], val)
	}

	for tag, tagged := range byTag {
		gen(tag, tagged)
	}
}

// Generate runs the named completer (if registered) and feeds its result
// through GenerateWith.
func (e *Engine) Generate(name string) {
	fn, ok := e.completers[name]
	if !ok {
		return
	}

	e.GenerateWith(fn())
}

// Matches returns the total number of candidates across all groups.
func (e *Engine) Matches() int {
	var count int

	for _, g := range e.groups {
		for _, row := range g.rows {
			count += len(row)
		}
	}

	return count
}

// Select virtually inserts the candidate at (x, y) into a shadow line, so
// the real buffer is left untouched until the selection is accepted.
func (e *Engine) Select(x, y int) {
	if len(e.groups) == 0 {
		return
	}

	g := e.groups[0]
	g.posX, g.posY = x-1, y

	comp := g.selected()
	e.selected = comp

	base := *e.line
	shadow := make(core.Line, len(base))
	copy(shadow, base)

	e.completed = &shadow
	e.compCursor = core.NewCursor(e.completed)
	e.compCursor.Set(e.completed.Len())
	e.completed.Insert(e.compCursor.Pos(), []rune(comp.Value)...)
	e.compCursor.Move(len([]rune(comp.Value)))
}

// Reset cancels any pending candidate insertion and clears the cached
// groups, without disturbing an active isearch minibuffer.
func (e *Engine) Reset() {
	e.selected = Candidate{}
	e.completed = nil
	e.compCursor = nil
	e.groups = nil
	e.cached = Values{}
}

// ResetForce fully resets the engine, including any active isearch state;
// called once per Readline() loop iteration's init step.
func (e *Engine) ResetForce() {
	e.Reset()
	e.isearchBuf = nil
	e.isearchCur = nil
	e.IsearchRegex = nil
	e.auto = false
	e.autoForce = false
}

// UpdateInserted commits the currently selected candidate (if any) onto
// the real input line, then resets the selection. Called whenever a key
// is about to act directly on the line rather than on the completion menu.
func UpdateInserted(e *Engine) {
	if e == nil || len(e.selected.Value) == 0 || e.completed == nil {
		return
	}

	*e.line = *e.completed
	e.cursor.Set(e.compCursor.Pos())

	e.Reset()
}
