// Package inputrc parses readline's classic inputrc configuration format
// (config variables and key bindings, spec §6) and holds the small set of
// escape/caret helpers (Unescape, Newline, Space, Esc) that the rest of the
// module uses to talk about literal control characters. It is exported,
// rather than kept under internal/, so host applications can load their own
// inputrc-style files the way the teacher's consumers do.
package inputrc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	caret "github.com/reiver/go-caret"
)

// Literal control runes referred to throughout the widget library.
const (
	Esc     = '\x1b'
	Space   = ' '
	Newline = '\n'
)

// Bind is a single resolved key binding: either a named widget action, a
// macro (a literal sequence to replay), or empty (explicitly unbound).
type Bind struct {
	Action string
	Macro  bool
}

// Config holds the parsed contents of one or more inputrc files: boolean
// and string/int "set" variables, and nothing else. Binding
// tables themselves live in the keymap engine; Config only carries the
// variables spec §6 lists (WORDCHARS, BELL_STYLE, LIST_MAX, ...).
type Config struct {
	Vars map[string]string
}

// NewConfig returns a Config seeded with spec §6's documented defaults.
func NewConfig() *Config {
	return &Config{
		Vars: map[string]string{
			"bell-style":             "audible",
			"comment-begin":          "#",
			"completion-query-items": "100",
			"errors":                 "2",
			"list-max":               "100",
			"ambiguous-binding":      "1000",
			"blink-matching-paren":   "500",
			"search-terminators":     string(Esc) + string(Newline),
			"wordchars":              `*?_-.[]~=/&;!#$%^(){}<>`,
		},
	}
}

// Get returns a string variable's value and whether it was set.
func (c *Config) Get(name string) (string, bool) {
	v, ok := c.Vars[name]
	return v, ok
}

// GetBool reports a boolean "set" variable, readline-style: "on"/"1"/"yes"
// are true, anything else is false.
func (c *Config) GetBool(name string) bool {
	v, ok := c.Vars[name]
	if !ok {
		return false
	}

	switch strings.ToLower(v) {
	case "on", "1", "yes", "true":
		return true
	default:
		return false
	}
}

// GetInt returns an integer "set" variable, or 0 if unset/unparseable.
func (c *Config) GetInt(name string) int {
	v, ok := c.Vars[name]
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}

	return n
}

// GetString returns a string "set" variable, or "" if unset.
func (c *Config) GetString(name string) string {
	return c.Vars[name]
}

// Set assigns a variable, as encountered while parsing a "set" directive or
// set programmatically by a host application.
func (c *Config) Set(name, value string) {
	c.Vars[name] = value
}

// Parse reads inputrc-format text, applying "set var value" lines to c and
// ignoring bind ($if/key-sequence) lines, which belong to the keymap
// engine's own loader. Comments start with '#'; blank lines are skipped.
func (c *Config) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.HasPrefix(line, "set ") {
			continue
		}

		fields := strings.Fields(strings.TrimPrefix(line, "set "))
		if len(fields) < 2 {
			return fmt.Errorf("inputrc: malformed set directive: %q", line)
		}

		c.Set(fields[0], strings.Join(fields[1:], " "))
	}

	return scanner.Err()
}

// Unescape decodes inputrc-style escape and caret notation (\C-a, \M-x,
// \e, \n, \t, ^A...) into the literal runes they represent, delegating
// caret decoding to go-caret.
func Unescape(s string) string {
	decoded, err := caret.Decode(expandBackslashes(s))
	if err != nil {
		return expandBackslashes(s)
	}

	return decoded
}

// Escape encodes literal control runes back into caret notation, the
// inverse of Unescape, used when rendering a key sequence for display.
func Escape(s string) string {
	return caret.Encode(s)
}

// expandBackslashes handles the small set of backslash escapes inputrc
// files use that go-caret does not: \e (Escape), \n, \t, \\, and \C-x /
// \M-x meta/control prefixes.
func expandBackslashes(s string) string {
	var out strings.Builder

	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i == len(runes)-1 {
			out.WriteRune(runes[i])
			continue
		}

		next := runes[i+1]

		switch next {
		case 'e':
			out.WriteRune(Esc)
			i++
		case 'n':
			out.WriteRune(Newline)
			i++
		case 't':
			out.WriteRune('\t')
			i++
		case '\\':
			out.WriteRune('\\')
			i++
		case 'C':
			if i+3 < len(runes) && runes[i+2] == '-' {
				out.WriteRune(runes[i+3] & 0x1f)
				i += 3
			} else {
				out.WriteRune(next)
				i++
			}
		case 'M':
			if i+3 < len(runes) && runes[i+2] == '-' {
				out.WriteRune(Esc)
				out.WriteRune(runes[i+3])
				i += 3
			} else {
				out.WriteRune(next)
				i++
			}
		default:
			out.WriteRune(next)
			i++
		}
	}

	return out.String()
}
