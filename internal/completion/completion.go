package completion

import "sort"

// Completer is a function generating completions.
// This is generally used so that a given completer function
// (history, registers, etc) can be cached and reused by the engine.
type Completer func() Values

// Candidate represents a completion candidate.
type Candidate struct {
	Value       string // Value is the value of the completion as actually inserted in the line
	Display     string // When display is not nil, this string is used to display the completion in the menu.
	Description string // A description to display next to the completion candidate.
	Style       string // An arbitrary string of color/text effects to use when displaying the completion.
	Tag         string // All completions with the same tag are grouped together and displayed under the tag heading.

	// NoSpace lists runes automatically trimmed when a space or a non-nil
	// character is inserted immediately after the completion. Used for
	// slash-autoremoval in path completions, comma-separated completions.
	NoSpace SuffixMatcher

	displayLen int
	descLen    int
}

// RawValues is a list of completion candidates, sortable by display value.
type RawValues []Candidate

func (r RawValues) Len() int      { return len(r) }
func (r RawValues) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
func (r RawValues) Less(i, j int) bool {
	return r[i].Display < r[j].Display
}

// SuffixMatcher holds a set of runes considered "suffix" characters for
// autoremoval purposes: when one of them is immediately followed by a
// space (or another non-nil rune), it is trimmed from the inserted value.
type SuffixMatcher []rune

// Matches returns true when r is a registered suffix rune.
func (s SuffixMatcher) Matches(r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}

	return false
}

// Messages accumulates informational/error strings produced while
// generating completions (e.g. "no matches", a completer's own error),
// printed above the candidate groups.
type Messages struct {
	list []string
}

// Add appends a message, ignoring empty ones.
func (m *Messages) Add(msg string) {
	if msg == "" {
		return
	}

	m.list = append(m.list, msg)
}

// Get returns all accumulated messages.
func (m *Messages) Get() []string {
	return m.list
}

// Values is used internally to hold all completion candidates and their associated data.
type Values struct {
	values   RawValues
	Messages Messages
	NoSpace  SuffixMatcher
	usage    string

	ListLong map[string]bool
	NoSort   map[string]bool
	ListSep  map[string]string
	Escapes  map[string]bool

	// PREFIX is initially set to the part of the current word from the
	// beginning of the word up to the position of the cursor; it may be
	// altered to give a common prefix for all matches.
	PREFIX string
}

// AddRaw wraps a pre-built list of candidates into a Values ready for
// display, bypassing the usual Completer callback. Used by sources (like
// command history) that already compute their own Candidate list.
func AddRaw(vals []Candidate) Values {
	return Values{
		values:   RawValues(vals),
		ListLong: make(map[string]bool),
		NoSort:   make(map[string]bool),
		ListSep:  make(map[string]string),
		Escapes:  make(map[string]bool),
	}
}

func (v Values) sorted() RawValues {
	sorted := make(RawValues, len(v.values))
	copy(sorted, v.values)
	sort.Stable(sorted)

	return sorted
}
