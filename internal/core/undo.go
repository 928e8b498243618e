package core

// Snapshot is an immutable (text, cursor) pair, per spec §3. Used by undo,
// history-recall and the completion preview path.
type Snapshot struct {
	Text   string
	Cursor int
}

// UndoTree is an append-only list of snapshots with a current-position
// index: newState truncates any redo tail and appends, Undo/Redo move the
// index and report the snapshot to restore. The snapshot at the current
// index is always the last *committed* state; a mutation in progress (the
// widget currently running) is not yet reflected here.
type UndoTree struct {
	snapshots []Snapshot
	pos       int

	// skip suppresses the next NewState call, set by widgets (navigating
	// history, reading an argument key) that must not create an undo
	// boundary for a non-content-changing or already-tracked operation.
	skip bool
}

// NewUndoTree returns an UndoTree seeded with an initial snapshot, matching
// dispatcher step 2 ("seed undo with a snapshot") before the first read.
func NewUndoTree(text string, cursor int) *UndoTree {
	return &UndoTree{snapshots: []Snapshot{{Text: text, Cursor: cursor}}}
}

// SkipNext suppresses the next NewState call once.
func (u *UndoTree) SkipNext() {
	u.skip = true
}

// NewState truncates any redo tail and appends a new committed snapshot,
// unless skip was requested (consumed by this call either way).
func (u *UndoTree) NewState(text string, cursor int) {
	if u.skip {
		u.skip = false
		return
	}

	u.snapshots = u.snapshots[:u.pos+1]
	u.snapshots = append(u.snapshots, Snapshot{Text: text, Cursor: cursor})
	u.pos = len(u.snapshots) - 1
}

// Undo moves back one snapshot and returns it, or ok=false if already at the
// oldest snapshot.
func (u *UndoTree) Undo() (snap Snapshot, ok bool) {
	if u.pos == 0 {
		return Snapshot{}, false
	}

	u.pos--

	return u.snapshots[u.pos], true
}

// Redo moves forward one snapshot and returns it, or ok=false if already at
// the newest snapshot.
func (u *UndoTree) Redo() (snap Snapshot, ok bool) {
	if u.pos >= len(u.snapshots)-1 {
		return Snapshot{}, false
	}

	u.pos++

	return u.snapshots[u.pos], true
}

// Pos returns the current index into the snapshot list (0 means "at the
// oldest/only snapshot, nothing to undo").
func (u *UndoTree) Pos() int {
	return u.pos
}

// Current returns the committed snapshot at the current index.
func (u *UndoTree) Current() Snapshot {
	return u.snapshots[u.pos]
}
