package diagnostic

import (
	"iter"
)

// key identifies a record within a parse session.
type key struct {
	file string
	line int
}

// Store is an ordered collection of records with a navigation cursor.
//
// Records are only ever added during parsing, once the store is handed to
// a consumer it is navigated and its records' buffers edited, nothing is
// removed. Navigation saturates at both ends, moving past either end is
// a no-op rather than an error.
//
// A Store is not safe for concurrent use.
type Store struct {
	index   map[key]int // (file, line) -> position in records
	records []*Record   // Records in emission order
	current int         // Index of the record under the cursor
}

// NewStore returns a new, empty [Store].
func NewStore() *Store {
	return &Store{index: make(map[key]int)}
}

// Add appends a record to the store.
//
// If a record for the same file and line is already present, the new record
// is still appended but [Store.Lookup] continues to return the first one.
func (s *Store) Add(record *Record) {
	if s.index == nil {
		s.index = make(map[key]int)
	}

	k := key{file: record.File, line: record.Line}
	if _, exists := s.index[k]; !exists {
		s.index[k] = len(s.records)
	}

	s.records = append(s.records, record)
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// At returns the record at index i (0 indexed) and whether it exists.
func (s *Store) At(i int) (*Record, bool) {
	if i < 0 || i >= len(s.records) {
		return nil, false
	}

	return s.records[i], true
}

// Lookup returns the record for the given file and line, if there is one.
func (s *Store) Lookup(file string, line int) (*Record, bool) {
	i, ok := s.index[key{file: file, line: line}]
	if !ok {
		return nil, false
	}

	return s.records[i], true
}

// Index returns the index of the record under the cursor.
func (s *Store) Index() int {
	return s.current
}

// Current returns the record under the cursor, or false if the
// store is empty.
func (s *Store) Current() (*Record, bool) {
	return s.At(s.current)
}

// Next moves the cursor to the next record and returns it. At the last
// record the cursor stays put.
func (s *Store) Next() (*Record, bool) {
	if s.current < len(s.records)-1 {
		s.current++
	}

	return s.Current()
}

// Prev moves the cursor to the previous record and returns it. At the first
// record the cursor stays put.
func (s *Store) Prev() (*Record, bool) {
	if s.current > 0 {
		s.current--
	}

	return s.Current()
}

// All returns an iterator over the records in the store, in order, along
// with their index.
func (s *Store) All() iter.Seq2[int, *Record] {
	return func(yield func(int, *Record) bool) {
		for i, record := range s.records {
			if !yield(i, record) {
				return
			}
		}
	}
}

// Edited returns the records whose buffer differs from their original
// source, in store order.
func (s *Store) Edited() []*Record {
	var edited []*Record

	for _, record := range s.records {
		if record.Edited() {
			edited = append(edited, record)
		}
	}

	return edited
}

// Files returns the distinct files referenced by the store, in the order
// they first appear.
func (s *Store) Files() []string {
	seen := make(map[string]struct{})

	var files []string

	for _, record := range s.records {
		if _, ok := seen[record.File]; ok {
			continue
		}

		seen[record.File] = struct{}{}

		files = append(files, record.File)
	}

	return files
}
