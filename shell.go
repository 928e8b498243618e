package readline

import (
	"github.com/corvidae/readline/inputrc"
	"github.com/corvidae/readline/internal/completion"
	"github.com/corvidae/readline/internal/core"
	"github.com/corvidae/readline/internal/display"
	"github.com/corvidae/readline/internal/history"
	"github.com/corvidae/readline/internal/keymap"
	"github.com/corvidae/readline/internal/macro"
	"github.com/corvidae/readline/internal/term"
	"github.com/corvidae/readline/internal/ui"
)

// EditingMode selects the dispatcher's initial main keymap.
type EditingMode int

const (
	EmacsMode EditingMode = iota
	ViMode
)

// Shell is the entry point of the module: one Shell per line-editing
// session. Construct with NewShell, configure its Prompt/options, then call
// Readline in a loop.
type Shell struct {
	// Core editing state.
	line       *core.Line
	cursor     *core.Cursor
	selection  *core.Selection
	keys       *core.Keys
	iterations *core.Iterations
	buffers    *core.Registers
	undo       *core.UndoTree

	// Dispatch/keymap state.
	keymaps *keymap.Engine
	macros  *macro.Engine

	// Completion/history engines.
	completer *completion.Engine
	histories *history.Sources

	// Display/UI. Only Prompt is exported: host applications set
	// prompt callbacks and never need the others directly.
	display *display.Engine
	Prompt  *ui.Prompt
	hint    *ui.Hint

	config *inputrc.Config

	// AcceptMultiline, if set, is asked whether the current buffer should
	// be accepted as-is (true) or whether editing should continue onto
	// another physical line (false). Nil means single-line behavior.
	AcceptMultiline func(line core.Line) bool

	// syntaxHighlighter, if set, transforms the buffer before it is
	// rendered (never before it is stored/returned). Set via
	// SetSyntaxHighlighter.
	syntaxHighlighter func(string) string
}

// NewShell returns a Shell wired for interactive use on the current
// terminal: emacs editing mode, an in-memory default history source, and
// inputrc defaults per spec §6.
func NewShell() *Shell {
	rl := &Shell{}

	rl.config = inputrc.NewConfig()

	rl.line = new(core.Line)
	rl.cursor = core.NewCursor(rl.line)
	rl.selection = core.NewSelection(rl.line, rl.cursor)
	rl.keys = core.NewKeys(term.NewStdinDriver())
	rl.iterations = &core.Iterations{}
	rl.buffers = core.NewRegisters()
	rl.undo = core.NewUndoTree("", 0)

	rl.keymaps = keymap.NewEngine(rl.keys)
	rl.macros = macro.NewEngine(rl.keys)

	rl.hint = ui.NewHint()
	rl.Prompt = ui.NewPrompt(rl.keys, rl.line, rl.cursor, rl.config)
	rl.Prompt.Primary(func() string { return "> " })

	rl.histories = history.NewSources(rl.line, rl.cursor, rl.hint, rl.config)
	rl.completer = completion.NewEngine(rl.line, rl.cursor, rl.selection, rl.keymaps, rl.hint)

	rl.display = display.NewEngine(rl.line, rl.cursor, rl.selection, rl.hint, rl.Prompt)

	rl.bindDefaults()

	return rl
}

// SetEditingMode switches the Shell's initial main keymap between emacs and
// vi before the first Readline call (or immediately, if called mid-session).
func (rl *Shell) SetEditingMode(mode EditingMode) {
	switch mode {
	case ViMode:
		rl.keymaps.SetMain(keymap.ViIns)
	default:
		rl.keymaps.SetMain(keymap.Emacs)
	}
}

// SetSyntaxHighlighter installs a function applied to the buffer's text
// before each redisplay; pass nil to disable highlighting.
func (rl *Shell) SetSyntaxHighlighter(fn func(string) string) {
	rl.syntaxHighlighter = fn
}

// AddCompletion registers a named completer, run when the completion
// engine generates candidates under that name.
func (rl *Shell) AddCompletion(name string, fn completion.Completer) {
	rl.completer.Register(name, fn)
}

// BindWidget exposes a function under name so it can be bound to a key
// sequence via Bind.
func (rl *Shell) BindWidget(name string, fn func()) {
	rl.keymaps.RegisterWidget(name, fn)
}

// Bind installs seq (inputrc caret/escape notation) as a binding to the
// named widget in the given keymap.
func (rl *Shell) Bind(mode keymap.Mode, seq string, widget string) {
	rl.keymaps.Bind(mode, inputrc.Unescape(seq), inputrc.Bind{Action: widget})
}

// Config exposes the shell's inputrc-style variable set, so host
// applications can Parse an inputrc file or Set individual variables.
func (rl *Shell) Config() *inputrc.Config {
	return rl.config
}
