// Package keymap implements spec §4.1's BindingReader: a trie of key
// sequences per mode, resolved against the pending key stack with the
// longest-match-wins and ambiguous-binding-timeout rules, plus the small
// piece of per-mode state (main/local mode, vi operator-pending command)
// that the dispatcher and the vi widget library both read and mutate.
package keymap

import (
	"time"

	"github.com/corvidae/readline/inputrc"
	"github.com/corvidae/readline/internal/core"
)

// Mode names a keymap, per spec §6: main is not itself bindable, it is the
// Engine's notion of "whichever of emacs/viins/vicmd is currently active".
type Mode string

const (
	Emacs   Mode = "emacs"
	ViIns   Mode = "viins"
	ViCmd   Mode = "vicmd"
	Vi      Mode = "vi"
	Visual  Mode = "visual"
	Menu    Mode = "menu"
	Isearch Mode = "isearch"
	ViOpp   Mode = "viopp"
	Safe    Mode = "safe"
)

// ViCommand and ViMove are aliases kept for the historical spelling used
// by an earlier version of the dispatcher loop; they are the same mode as
// ViCmd/Vi and exist so both naming styles resolve identically.
const (
	ViCommand = ViCmd
	ViMove    = Vi
)

// AmbiguousTimeout bounds how long MatchMain/MatchLocal wait for more keys
// when the pending sequence is a prefix of a longer binding (spec §4.1
// step 4), unless SetTimeout replaces it. No inputrc variable is read for it.
const AmbiguousTimeout = 300 * time.Millisecond

// node is one trie node: either a leaf bind, or a set of children keyed by
// the next byte of the sequence.
type node struct {
	bind     inputrc.Bind
	isLeaf   bool
	children map[byte]*node
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

func (n *node) insert(seq []byte, bind inputrc.Bind) {
	cur := n

	for _, b := range seq {
		next, ok := cur.children[b]
		if !ok {
			next = newNode()
			cur.children[b] = next
		}

		cur = next
	}

	cur.bind = bind
	cur.isLeaf = true
}

// Engine owns every mode's binding trie plus the dispatcher-visible
// mode/pending state. It is the type readline.go calls keymap.MatchLocal
// and keymap.MatchMain against.
type Engine struct {
	keys *core.Keys

	binds   map[Mode]*node
	widgets map[string]func()

	main  Mode
	local Mode

	// pending is the vi operator waiting for its motion (e.g. "d" in "dw").
	pending    bool
	pendingCmd inputrc.Bind

	active inputrc.Bind

	timeout time.Duration
}

// NewEngine returns an Engine with empty binding tries for every mode and
// main set to emacs, the readline default.
func NewEngine(keys *core.Keys) *Engine {
	e := &Engine{
		keys:    keys,
		binds:   make(map[Mode]*node),
		widgets: make(map[string]func()),
		main:    Emacs,
		timeout: AmbiguousTimeout,
	}

	for _, m := range []Mode{Emacs, ViIns, ViCmd, Visual, Menu, Isearch, ViOpp, Safe} {
		e.binds[m] = newNode()
	}

	return e
}

// SetTimeout overrides the ambiguous-binding wait.
func (e *Engine) SetTimeout(d time.Duration) {
	e.timeout = d
}

// RegisterWidget makes a named widget callable from a binding's Action.
func (e *Engine) RegisterWidget(name string, fn func()) {
	e.widgets[name] = fn
}

// Bind installs seq -> bind in the given mode's trie. seq is the raw byte
// sequence (already unescaped from inputrc notation).
func (e *Engine) Bind(mode Mode, seq string, bind inputrc.Bind) {
	trie, ok := e.binds[mode]
	if !ok {
		trie = newNode()
		e.binds[mode] = trie
	}

	trie.insert([]byte(seq), bind)
}

// Main returns the active main keymap (emacs/viins/vicmd).
func (e *Engine) Main() Mode { return e.main }

// SetMain switches the active main keymap.
func (e *Engine) SetMain(mode Mode) { e.main = mode }

// Local returns the active local keymap overlay ("" if none), e.g.
// isearch, visual, or a pending vi operator's menu.
func (e *Engine) Local() Mode { return e.local }

// SetLocal installs or clears ("" ) the local keymap overlay.
func (e *Engine) SetLocal(mode Mode) { e.local = mode }

// IsEmacs reports whether the main keymap is the emacs keymap, as opposed
// to either vi submode.
func (e *Engine) IsEmacs() bool { return e.main == Emacs }

// IsPending reports whether a vi operator (d/c/y) is waiting for its
// motion.
func (e *Engine) IsPending() bool { return e.pending }

// Pending marks the operator that was just read as awaiting its motion,
// recording it as the active command so later widgets (adjustSelectionPending)
// can inspect which operator is in flight.
func (e *Engine) Pending() {
	e.pending = true
	e.pendingCmd = e.active
}

// CancelPending clears the pending-operator state, called once the
// operator's motion (or a repeat of the operator itself, e.g. "dd") has
// been consumed.
func (e *Engine) CancelPending() {
	e.pending = false
	e.pendingCmd = inputrc.Bind{}
}

// RunPending is a placeholder hook for operators that must act only after
// the full command (operator + motion) has been read and any outstanding
// iteration count resolved; in this engine the operator widgets perform
// their cut/change inline, so RunPending has nothing left to do once
// CancelPending has already fired.
func (e *Engine) RunPending() {}

// PendingCursor signals that the engine is about to block reading a single
// "argument" character (vi f/F/t/T/r targets), so the display can switch
// to a distinct cursor style; the returned func reverts it. Safe to call
// even when the display has no special pending-read cursor style.
func (e *Engine) PendingCursor() func() {
	prev := e.local
	e.local = ViOpp

	return func() {
		e.local = prev
	}
}

// ActiveCommand returns the bind currently executing, so a widget can
// branch on which operator invoked it (vim.go's adjustSelectionPending).
func (e *Engine) ActiveCommand() inputrc.Bind {
	if e.pending {
		return e.pendingCmd
	}

	return e.active
}

// PrintCursor is a hint to the display engine that the local keymap has a
// distinct cursor rendering (visual-mode block cursor, etc). The keymap
// engine itself has no display dependency, so this only records the mode;
// the display engine queries Local() each refresh to decide how to render.
func (e *Engine) PrintCursor(mode Mode) {
	e.local = mode
}

// match walks trie against the pending key bytes, returning the deepest
// leaf bind found along the walked path (longest match), whether the walk
// ended mid-trie with more children available (a true prefix needing more
// keys), and how many bytes were consumed by the longest match.
func match(trie *node, keys []byte) (bind inputrc.Bind, found bool, prefixed bool, consumed int) {
	cur := trie

	for i, b := range keys {
		next, ok := cur.children[b]
		if !ok {
			return bind, found, false, consumed
		}

		cur = next

		if cur.isLeaf {
			bind, found = cur.bind, true
			consumed = i + 1
		}

		if len(cur.children) > 0 {
			prefixed = true
		} else {
			prefixed = false
		}
	}

	return bind, found, prefixed && len(cur.children) > 0, consumed
}

// resolve runs the BindingReader algorithm (spec §4.1) against one mode's
// trie: pop keys one at a time, walk the trie, and when the walk is
// ambiguous (both a complete match and further children exist) wait up to
// the ambiguous-binding timeout for one more key before committing to the
// longest match found so far.
func resolve(e *Engine, mode Mode) (bind inputrc.Bind, command func(), prefixed bool) {
	trie, ok := e.binds[mode]
	if !ok {
		return inputrc.Bind{}, nil, false
	}

	pending, empty := e.keys.PeekAll()
	if empty {
		return inputrc.Bind{}, nil, false
	}

	raw := make([]byte, 0, len(pending))
	for _, r := range pending {
		raw = append(raw, byte(r))
	}

	b, found, isPrefix, consumed := match(trie, raw)
	if isPrefix {
		if _, ok := e.keys.Wait(e.timeout); ok {
			return resolve(e, mode)
		}
	}

	if !found {
		if isPrefix {
			return inputrc.Bind{}, nil, true
		}

		return inputrc.Bind{}, nil, false
	}

	for i := 0; i < consumed; i++ {
		e.keys.Pop()
	}

	e.active = b

	if b.Action != "" {
		command = e.widgets[b.Action]
	}

	return b, command, false
}

// MatchLocal resolves against the engine's local keymap overlay (e.g.
// isearch, menu-complete, vi operator-pending), per readline.go step 1.
// Returns prefixed=true when more keys are needed to disambiguate.
func MatchLocal(e *Engine) (bind inputrc.Bind, command func(), prefixed bool) {
	if e.local == "" {
		return inputrc.Bind{}, nil, false
	}

	return resolve(e, e.local)
}

// MatchMain resolves against the engine's active main keymap (emacs,
// viins or vicmd), per readline.go step 2.
func MatchMain(e *Engine) (bind inputrc.Bind, command func(), prefixed bool) {
	return resolve(e, e.main)
}
