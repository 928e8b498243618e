package ui

// Hint is the one-line helper message printed below the input line: search
// prompts, pending-register/iteration indicators, completion error text.
// A "persisted" hint survives the next redisplay even if nothing else set
// one; a transient hint (Set) is cleared by the following ResetPersist
// unless something Persists it first.
type Hint struct {
	text      string
	persisted string
}

// NewHint returns an empty Hint.
func NewHint() *Hint {
	return &Hint{}
}

// Set replaces the current hint text for this redisplay cycle only.
func (h *Hint) Set(text string) {
	h.text = text
}

// Get returns whichever hint text is currently showing: the transient one
// if set, else the persisted one.
func (h *Hint) Get() string {
	if h.text != "" {
		return h.text
	}

	return h.persisted
}

// Persist keeps text showing across redisplay cycles until explicitly
// reset, used for the active-register/iteration-count indicators.
func (h *Hint) Persist(text string) {
	h.persisted = text
}

// Reset clears the transient hint only.
func (h *Hint) Reset() {
	h.text = ""
}

// ResetPersist clears both the transient and the persisted hint.
func (h *Hint) ResetPersist() {
	h.text = ""
	h.persisted = ""
}
