package incident

// Store owns the loaded corpus for the lifetime of the process.
// It is read-only after construction and safe for concurrent use.
type Store struct {
	records []Record
}

// NewStore creates a store over records, preserving their order.
func NewStore(records []Record) *Store {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Store{records: cp}
}

// FindByID returns the first record whose identifier, under either key
// variant, equals id after normalization.
func (s *Store) FindByID(id any) (Record, bool) {
	key := NormalizeID(id)
	for _, r := range s.records {
		if r.hasID(key) {
			return r, true
		}
	}
	return nil, false
}

// Records returns the corpus in storage order. Callers must not modify it.
func (s *Store) Records() []Record {
	return s.records
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}
