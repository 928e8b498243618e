package readline

import (
	"errors"
	"os"
	"os/exec"

	"github.com/corvidae/readline/inputrc"
	"github.com/corvidae/readline/internal/keymap"
)

var errEndOfFile = errors.New("readline: end of file")

// selfInsert inserts the key(s) that triggered the current widget at the
// cursor position. It is the default binding for every printable ASCII key
// in the emacs and vi-insert keymaps.
func (rl *Shell) selfInsert() {
	keys := rl.keys.Caller()
	if len(keys) == 0 {
		return
	}

	rl.line.Insert(rl.cursor.Pos(), keys...)
	rl.cursor.Move(len(keys))
}

// backwardDeleteChar deletes the character before the cursor.
func (rl *Shell) backwardDeleteChar() {
	pos := rl.cursor.Pos()
	if pos == 0 {
		return
	}

	rl.buffers.AddBackwards(rl.line.Cut(pos-1, pos))
	rl.cursor.Set(pos - 1)
}

// beginningOfLine moves the cursor to the start of the current line.
func (rl *Shell) beginningOfLine() {
	rl.cursor.BeginningOfLine()
}

// endOfLine moves the cursor to the end of the current line.
func (rl *Shell) endOfLine() {
	rl.cursor.EndOfLine()
}

// endOfFile behaves like Ctrl-D in most shells: on an empty buffer it
// signals end of input, otherwise it deletes the character under the
// cursor (like delete-char).
func (rl *Shell) endOfFile() {
	if rl.line.Len() == 0 {
		rl.histories.Accept(false, false, errEndOfFile)
		return
	}

	pos := rl.cursor.Pos()
	if pos >= rl.line.Len() {
		return
	}

	rl.line.Cut(pos, pos+1)
}

// editCommandLine opens the buffer in $VISUAL/$EDITOR/vi, replacing it
// with the file's contents once the editor exits.
func (rl *Shell) editCommandLine() {
	edited, err := runEditor(string(*rl.line))
	if err != nil {
		rl.hint.Set(err.Error())
		return
	}

	rl.line.Set([]rune(edited)...)
	rl.cursor.Set(rl.line.Len())
}

// editAndExecuteCommand edits the buffer like editCommandLine, then
// accepts it immediately as if the user had pressed enter.
func (rl *Shell) editAndExecuteCommand() {
	rl.editCommandLine()
	rl.acceptLine()
}

func runEditor(text string) (string, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	tmp, err := os.CreateTemp("", "readline-cmdline-*")
	if err != nil {
		return text, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return text, err
	}
	tmp.Close()

	cmd := exec.Command(editor, tmp.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return text, err
	}

	edited, err := os.ReadFile(tmp.Name())
	if err != nil {
		return text, err
	}

	return string(edited), nil
}

// historyCompletion opens the completion menu over the active history
// source, either as an incremental (filtered while typing) or classic
// (full list, pick-then-filter) search.
func (rl *Shell) historyCompletion(forward, incremental, filter bool) {
	rl.completer.Generate("history")
	_ = filter

	if incremental {
		rl.completer.IsearchStart(rl.histories.Name(), true)
	}
}

// bindDefaults registers every widget exposed by the shell's command
// tables under its readline/zsh-style name, then installs spec's default
// key bindings for both the emacs and vi keymaps. Host applications layer
// their own bindings on top with Bind/BindWidget.
func (rl *Shell) bindDefaults() {
	for name, fn := range rl.historyCommands() {
		rl.keymaps.RegisterWidget(name, fn)
	}

	for name, fn := range rl.viCommands() {
		rl.keymaps.RegisterWidget(name, fn)
	}

	standard := map[string]func(){
		"self-insert":            rl.selfInsert,
		"backward-delete-char":   rl.backwardDeleteChar,
		"beginning-of-line":      rl.beginningOfLine,
		"end-of-line":            rl.endOfLine,
		"end-of-file":            rl.endOfFile,
		"edit-command-line":      rl.editCommandLine,
		"edit-and-execute-command": rl.editAndExecuteCommand,
	}

	for name, fn := range standard {
		rl.keymaps.RegisterWidget(name, fn)
	}

	bind := func(mode keymap.Mode, seq, widget string) {
		rl.keymaps.Bind(mode, seq, inputrc.Bind{Action: widget})
	}

	// Bindings common to both editing modes.
	for _, mode := range []keymap.Mode{keymap.Emacs, keymap.ViIns} {
		for c := byte(0x20); c < 0x7f; c++ {
			bind(mode, string(c), "self-insert")
		}

		bind(mode, "\r", "accept-line")
		bind(mode, "\n", "accept-line")
		bind(mode, "\x7f", "backward-delete-char")
		bind(mode, "\x04", "end-of-file")
		bind(mode, "\x01", "beginning-of-line")
		bind(mode, "\x05", "end-of-line")
		bind(mode, "\x10", "previous-history")
		bind(mode, "\x0e", "next-history")
		bind(mode, "\x12", "reverse-search-history")
	}

	// Emacs-main-specific.
	bind(keymap.Emacs, "\x1b", "vi-movement-mode")

	// Vi command-mode motion/editing defaults.
	bind(keymap.ViCmd, "i", "vi-insertion-mode")
	bind(keymap.ViCmd, "a", "vi-append-mode")
	bind(keymap.ViCmd, "A", "vi-append-eol")
	bind(keymap.ViCmd, "h", "vi-backward-char")
	bind(keymap.ViCmd, "l", "vi-forward-char")
	bind(keymap.ViCmd, "w", "vi-next-word")
	bind(keymap.ViCmd, "b", "vi-prev-word")
	bind(keymap.ViCmd, "x", "vi-delete")
	bind(keymap.ViCmd, "dd", "vi-kill-line")
	bind(keymap.ViCmd, "0", "vi-insert-beg")
	bind(keymap.ViCmd, "$", "vi-end-of-line")
	bind(keymap.ViCmd, "u", "vi-redo")
	bind(keymap.ViCmd, "k", "previous-history")
	bind(keymap.ViCmd, "j", "next-history")
	bind(keymap.ViCmd, "v", "vi-visual-mode")
	bind(keymap.ViCmd, "V", "vi-visual-line-mode")
}
