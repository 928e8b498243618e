package core

import (
	"errors"
	"io"
	"sync"
	"time"
)

const keyScanBufSize = 1024

// Reader is the narrow terminal-input contract core.Keys reads through: one
// blocking read of raw bytes. The concrete implementation lives in
// internal/term, keeping core free of any terminal-driver dependency.
type Reader interface {
	ReadByte() (byte, error)
}

// Keys owns the raw byte stream coming from the terminal, a pushback stack
// for matched-but-not-yet-consumed keys, and the macro feed. It is the
// engine behind spec §4.1's BindingReader: Pop/Peek walk the pending
// sequence; MatchedPrefix/MatchedKeys/FlushUsed track what has been
// consumed against the active keymap trie.
type Keys struct {
	reader Reader

	buf       []byte // bytes read from the terminal, not yet dispatched
	macroKeys []rune // keys fed back by the macro engine (take priority)
	matched   []rune // keys consumed by the command currently running
	mustWait  bool   // buf has been matched by prefix; block for more on empty

	interrupted bool
	mutex       sync.Mutex
}

// NewKeys returns a Keys reading from r.
func NewKeys(r Reader) *Keys {
	return &Keys{reader: r}
}

// WaitAvailableKeys blocks until at least one key is available, reading from
// the terminal if the stack and macro feed are both empty.
func WaitAvailableKeys(k *Keys) {
	k.mutex.Lock()
	hasKeys := (len(k.buf) > 0 && !k.mustWait) || len(k.macroKeys) > 0
	k.mutex.Unlock()

	if hasKeys {
		return
	}

	for {
		b, err := k.reader.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}

			continue
		}

		k.mutex.Lock()
		k.buf = append(k.buf, b)
		k.mustWait = false
		k.mutex.Unlock()

		return
	}
}

// PopKey removes and returns the next key (without marking it matched).
func (k *Keys) PopKey() (key byte, empty bool) {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	switch {
	case len(k.buf) > 0:
		key = k.buf[0]
		k.buf = k.buf[1:]
	case len(k.macroKeys) > 0:
		key = byte(k.macroKeys[0])
		k.macroKeys = k.macroKeys[1:]
	default:
		return 0, true
	}

	return key, false
}

// Pop removes the next key and records it as matched (visible via Caller()),
// used when a widget consumes an argument key that did not go through the
// keymap matcher (e.g. the character read by vi-find-next-char).
func (k *Keys) Pop() (key byte, empty bool) {
	key, empty = k.PopKey()
	if !empty {
		k.mutex.Lock()
		k.matched = append(k.matched, rune(key))
		k.mutex.Unlock()
	}

	return key, empty
}

// Peek returns the next key without removing it.
func (k *Keys) Peek() (key byte, empty bool) {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	switch {
	case len(k.buf) > 0:
		return k.buf[0], false
	case len(k.macroKeys) > 0:
		return byte(k.macroKeys[0]), false
	default:
		return 0, true
	}
}

// PeekAll returns every currently buffered key without removing them, used
// by vi-arg-digit to read an entire pasted numeric-argument run at once.
func (k *Keys) PeekAll() (keys []rune, empty bool) {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	if len(k.buf) == 0 {
		return nil, true
	}

	for _, b := range k.buf {
		keys = append(keys, rune(b))
	}

	return keys, false
}

// ReadArgument blocks for exactly one more key from the terminal (bypassing
// the keymap matcher entirely), used by widgets like vi-find-next-char and
// quoted-insert that need one raw character. isAbort reports whether the
// key was an escape (caller should abandon the operation).
func (k *Keys) ReadArgument() (key []rune, isAbort bool) {
	if r, empty := k.PopKey(); !empty {
		k.mutex.Lock()
		k.matched = append(k.matched, rune(r))
		k.mutex.Unlock()

		return []rune{rune(r)}, r == 0x1b
	}

	b, err := k.reader.ReadByte()
	if err != nil {
		return nil, true
	}

	k.mutex.Lock()
	k.matched = append(k.matched, rune(b))
	k.mutex.Unlock()

	return []rune{rune(b)}, b == 0x1b
}

// HasPending reports, without blocking, whether any key is waiting in the
// pending sequence or in the macro feed. The timed wait for the ambiguous
// binding timeout is Wait, which internal/keymap calls.
func (k *Keys) HasPending() bool {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	return len(k.buf) > 0 || len(k.macroKeys) > 0
}

// MatchedKeys records keys consumed while matching a binding (regardless of
// whether a command was ultimately found), and re-queues any trailing
// argument bytes that were read speculatively but not part of the match.
func MatchedKeys(k *Keys, matched []byte, args ...byte) {
	if len(matched) > 0 {
		k.matched = append(k.matched, runesOf(matched)...)
	}

	if len(args) > 0 {
		k.buf = append(args, k.buf...)
	}
}

// MatchedPrefix records keys that matched a keymap node by prefix only
// (ambiguous binding not yet resolved): they are pushed back so the next
// read can continue extending the same sequence.
func MatchedPrefix(k *Keys, prefix ...byte) {
	if len(prefix) == 0 {
		return
	}

	k.mutex.Lock()
	defer k.mutex.Unlock()

	k.mustWait = len(k.buf) == 0
	k.buf = append(prefix, k.buf...)
	k.matched = runesOf(prefix)
}

// FlushUsed drops the keys matched by the command that just ran.
func FlushUsed(k *Keys) {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	k.matched = nil
}

// Caller returns the keys that matched the command currently running,
// exposed to widgets as getLastBinding().
func (k *Keys) Caller() []rune {
	return k.matched
}

// Feed pushes keys onto the macro stack: begin=true inserts them ahead of
// any already-queued macro keys (LIFO replay order for nested macros),
// begin=false appends them (FIFO for a single macro's own body).
func (k *Keys) Feed(begin bool, keys ...rune) {
	if len(keys) == 0 {
		return
	}

	k.mutex.Lock()
	defer k.mutex.Unlock()

	if begin {
		k.macroKeys = append(append([]rune{}, keys...), k.macroKeys...)
	} else {
		k.macroKeys = append(k.macroKeys, keys...)
	}
}

// Interrupt flags that the blocking read should abort at the next
// opportunity; set from the INT signal handler, consulted by the
// dispatcher's read loop. Async-signal-safe: it only flips a bool.
func (k *Keys) Interrupt() {
	k.mutex.Lock()
	k.interrupted = true
	k.mutex.Unlock()
}

// Interrupted reports and clears the interrupt flag.
func (k *Keys) Interrupted() bool {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	interrupted := k.interrupted
	k.interrupted = false

	return interrupted
}

// Wait blocks up to d for one more byte to arrive on the terminal, without
// consuming it from the pending sequence. Backs spec §4.1 step 4's
// ambiguous-binding timeout: internal/keymap calls this when the pending
// sequence both matches a binding and is a strict prefix of a longer one.
func (k *Keys) Wait(d time.Duration) (key rune, ok bool) {
	if k.HasPending() {
		b, empty := k.Peek()
		if !empty {
			return rune(b), true
		}
	}

	type result struct {
		b   byte
		err error
	}

	done := make(chan result, 1)

	go func() {
		b, err := k.reader.ReadByte()
		done <- result{b, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0, false
		}

		k.mutex.Lock()
		k.buf = append(k.buf, r.b)
		k.mutex.Unlock()

		return rune(r.b), true
	case <-time.After(d):
		return 0, false
	}
}

func runesOf(b []byte) []rune {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}

	return r
}
