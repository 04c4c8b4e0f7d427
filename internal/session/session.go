// Package session implements the interactive editing state over a set of diagnostic records.
//
// A [Session] is a small modal state machine. In [Browse] mode the user moves between
// records, in [Insert] mode they edit the current record's line with a cursor, and
// [ConfirmQuit] asks before throwing away unsaved edits. The session knows nothing
// about keys or rendering, that is left to the UI driving it.
package session

import (
	"go.followtheprocess.codes/bless/internal/diagnostic"
)

// Mode is the current mode of a [Session].
type Mode int

const (
	Browse      Mode = iota // Moving between records
	Insert                  // Editing the current record's line
	ConfirmQuit             // Asking whether to quit with unsaved edits
)

// String implements [fmt.Stringer] for a [Mode].
func (m Mode) String() string {
	switch m {
	case Browse:
		return "Browse"
	case Insert:
		return "Insert"
	case ConfirmQuit:
		return "ConfirmQuit"
	default:
		return "Unknown"
	}
}

// Session is the editing state over a store of records.
//
// Operations only apply in the mode they belong to, calling one in any other
// mode does nothing and reports false. Cursor movement and deletions at the
// ends of a line are likewise no-ops.
type Session struct {
	store   *diagnostic.Store           // Records being edited, the store's cursor is the current record
	edited  map[*diagnostic.Record]bool // Records changed during this session
	pending map[*diagnostic.Record]bool // Records changed since the last save
	written map[*diagnostic.Record]bool // Records whose edits have been saved at least once
	mode    Mode                        // Current mode
	cursor  int                         // Gap position in the current record's buffer, in [0, Len]
	quit    bool                        // Whether the user has decided to quit
}

// New returns a new [Session] over store, in [Browse] mode.
func New(store *diagnostic.Store) *Session {
	return &Session{
		store:   store,
		edited:  make(map[*diagnostic.Record]bool),
		pending: make(map[*diagnostic.Record]bool),
		written: make(map[*diagnostic.Record]bool),
		mode:    Browse,
	}
}

// Store returns the store the session is editing.
func (s *Session) Store() *diagnostic.Store {
	return s.store
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Current returns the current record, false if there are none.
func (s *Session) Current() (*diagnostic.Record, bool) {
	return s.store.Current()
}

// Cursor returns the cursor position within the current record's line, as a
// character offset. It is only meaningful in [Insert] mode.
func (s *Session) Cursor() int {
	return s.cursor
}

// Unsaved reports whether any change has been made since the last save.
func (s *Session) Unsaved() bool {
	return len(s.pending) != 0
}

// Edited reports whether record has been changed during the session.
func (s *Session) Edited(record *diagnostic.Record) bool {
	return s.edited[record]
}

// Quitting reports whether the user has decided to quit.
func (s *Session) Quitting() bool {
	return s.quit
}

// Next moves to the next record.
func (s *Session) Next() bool {
	if s.mode != Browse {
		return false
	}

	before := s.store.Index()
	s.store.Next()

	return s.store.Index() != before
}

// Prev moves to the previous record.
func (s *Session) Prev() bool {
	if s.mode != Browse {
		return false
	}

	before := s.store.Index()
	s.store.Prev()

	return s.store.Index() != before
}

// Insert enters [Insert] mode with the cursor on the column the compiler
// reported, clamped to the line.
func (s *Session) Insert() bool {
	if s.mode != Browse {
		return false
	}

	record, ok := s.store.Current()
	if !ok {
		return false
	}

	s.mode = Insert
	s.cursor = min(max(record.Column-1, 0), record.Buffer().Len())

	return true
}

// RequestQuit quits straight away if nothing is unsaved, otherwise it moves to
// [ConfirmQuit] to ask first.
func (s *Session) RequestQuit() bool {
	if s.mode != Browse {
		return false
	}

	if !s.Unsaved() {
		s.quit = true
		return true
	}

	s.mode = ConfirmQuit

	return true
}

// Confirm answers the quit confirmation, yes quits discarding unsaved changes,
// no goes back to [Browse].
func (s *Session) Confirm(yes bool) bool {
	if s.mode != ConfirmQuit {
		return false
	}

	if yes {
		s.quit = true
	}

	s.mode = Browse

	return true
}

// CanRelaunch reports whether the build may be run again, which would
// discard the current records. Only allowed once every change is saved.
func (s *Session) CanRelaunch() bool {
	return !s.Unsaved()
}

// MarkSaved records that every change has been written.
func (s *Session) MarkSaved() {
	for record := range s.pending {
		s.written[record] = true
	}

	clear(s.pending)
}

// Revert throws away the edits to the current record, putting its line back
// the way the compiler reported it.
//
// Once a record's edits have been written its file no longer holds the original
// line, so such a record cannot be reverted, the user has to edit it back.
func (s *Session) Revert() bool {
	if s.mode != Browse {
		return false
	}

	record, ok := s.store.Current()
	if !ok || !record.Edited() || s.written[record] {
		return false
	}

	record.Reset()

	delete(s.edited, record)
	delete(s.pending, record)

	return true
}

// Written reports whether record's edits have been saved during the session.
func (s *Session) Written(record *diagnostic.Record) bool {
	return s.written[record]
}

// Left moves the cursor one character left.
func (s *Session) Left() bool {
	if s.mode != Insert || s.cursor == 0 {
		return false
	}

	s.cursor--

	return true
}

// Right moves the cursor one character right.
func (s *Session) Right() bool {
	record, ok := s.editing()
	if !ok || s.cursor >= record.Buffer().Len() {
		return false
	}

	s.cursor++

	return true
}

// Home moves the cursor to the start of the line.
func (s *Session) Home() bool {
	if s.mode != Insert {
		return false
	}

	s.cursor = 0

	return true
}

// End moves the cursor to the end of the line.
func (s *Session) End() bool {
	record, ok := s.editing()
	if !ok {
		return false
	}

	s.cursor = record.Buffer().Len()

	return true
}

// Type inserts r at the cursor and moves past it.
func (s *Session) Type(r rune) bool {
	record, ok := s.editing()
	if !ok {
		return false
	}

	if err := record.Buffer().InsertAt(s.cursor, r); err != nil {
		return false
	}

	s.cursor++
	s.changed(record)

	return true
}

// Backspace deletes the character before the cursor.
func (s *Session) Backspace() bool {
	record, ok := s.editing()
	if !ok || !record.Buffer().DeleteBefore(s.cursor) {
		return false
	}

	s.cursor--
	s.changed(record)

	return true
}

// Delete deletes the character under the cursor.
func (s *Session) Delete() bool {
	record, ok := s.editing()
	if !ok || !record.Buffer().DeleteAfter(s.cursor) {
		return false
	}

	s.changed(record)

	return true
}

// Leave goes back to [Browse] mode.
func (s *Session) Leave() bool {
	if s.mode != Insert {
		return false
	}

	s.mode = Browse

	return true
}

// editing returns the record being edited, false if not in [Insert] mode.
func (s *Session) editing() (*diagnostic.Record, bool) {
	if s.mode != Insert {
		return nil, false
	}

	return s.store.Current()
}

// changed marks record as edited and the session as having unsaved changes.
func (s *Session) changed(record *diagnostic.Record) {
	s.edited[record] = true
	s.pending[record] = true
}
