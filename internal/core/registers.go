package core

// killRingSize is the default bound on the number of slots kept, per spec §3.
const killRingSize = 60

// Registers is the kill-ring: a bounded ring of killed/yanked text, plus the
// two flags (LastKill, LastYank) the dispatcher resets based on widget
// identity so that adjacent kill-family commands coalesce into one entry and
// adjacent yank/yank-pop commands rotate rather than push.
type Registers struct {
	slots []string
	pos   int // index of the most recently pushed/rotated-to slot

	active byte // a named register selected with vi-set-buffer, or 0 for the default

	named map[byte]string

	LastKill bool
	LastYank bool
}

// NewRegisters returns an empty kill-ring.
func NewRegisters() *Registers {
	return &Registers{named: make(map[byte]string)}
}

// Write is the generic append-or-push entry point used for both emacs kills
// and vi yanks/deletes: if the previous command was also a kill, the text is
// appended to the current tail (so `M-d M-d` accumulates one entry); else a
// new slot is pushed.
func (r *Registers) Write(text ...rune) {
	if r.active != 0 {
		r.named[r.active] = string(text)
		return
	}

	r.Add(string(text))
}

// Add pushes s as a new kill-ring entry, or appends it to the tail entry if
// the previous widget was also a kill-family command.
func (r *Registers) Add(s string) {
	if s == "" {
		return
	}

	if r.LastKill && len(r.slots) > 0 {
		r.slots[len(r.slots)-1] += s
		r.pos = len(r.slots) - 1
		return
	}

	r.push(s)
}

// AddBackwards is like Add but prepends s to the tail entry instead of
// appending, used by backward-kill-family widgets.
func (r *Registers) AddBackwards(s string) {
	if s == "" {
		return
	}

	if r.LastKill && len(r.slots) > 0 {
		r.slots[len(r.slots)-1] = s + r.slots[len(r.slots)-1]
		r.pos = len(r.slots) - 1
		return
	}

	r.push(s)
}

func (r *Registers) push(s string) {
	r.slots = append(r.slots, s)
	if len(r.slots) > killRingSize {
		r.slots = r.slots[len(r.slots)-killRingSize:]
	}

	r.pos = len(r.slots) - 1
}

// Yank returns the tail (most recently killed) entry.
func (r *Registers) Yank() string {
	if r.active != 0 {
		return r.named[r.active]
	}

	if len(r.slots) == 0 {
		return ""
	}

	r.pos = len(r.slots) - 1

	return r.slots[r.pos]
}

// YankPop rotates to the entry before the last-yanked one and returns it,
// wrapping around the ring; used by yank-pop after a yank.
func (r *Registers) YankPop() string {
	if len(r.slots) == 0 {
		return ""
	}

	r.pos--
	if r.pos < 0 {
		r.pos = len(r.slots) - 1
	}

	return r.slots[r.pos]
}

// Active returns the text currently selected by the active register (or the
// default kill-ring tail if no register is selected), used by vi put.
func (r *Registers) Active() []rune {
	if r.active != 0 {
		return []rune(r.named[r.active])
	}

	return []rune(r.Yank())
}

// SetActive selects a named register (a-z, 0-9) for the next write/read.
func (r *Registers) SetActive(reg byte) {
	r.active = reg
}

// Reset deselects any active named register, reverting to the default ring.
func (r *Registers) Reset() {
	r.active = 0
}

// IsSelected reports whether a named register is active, and which one, so
// the dispatcher can hint it to the user (e.g. "(register: a)") while it
// stays selected for the next write/read.
func (r *Registers) IsSelected() (register string, selected bool) {
	if r.active == 0 {
		return "", false
	}

	return string(r.active), true
}
