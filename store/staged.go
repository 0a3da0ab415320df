package store

// Staged is a write-buffering overlay over a Store. All writes within a
// call land in the overlay; Commit flushes them to the base in write
// order only after every invariant has been checked. The backing engine
// offers no multi-key transaction, so this is the atomicity boundary: a
// discarded overlay is indistinguishable from a call that never ran.
type Staged struct {
	base    Store
	pending map[string][]byte
	order   []string
}

// NewStaged returns an empty overlay over base.
func NewStaged(base Store) *Staged {
	return &Staged{
		base:    base,
		pending: make(map[string][]byte),
	}
}

// Get reads through the overlay, then the base.
func (s *Staged) Get(key []byte) ([]byte, bool, error) {
	if v, ok := s.pending[string(key)]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, true, nil
	}
	return s.base.Get(key)
}

// Put buffers the write in the overlay.
func (s *Staged) Put(key, value []byte) error {
	k := string(key)
	if _, ok := s.pending[k]; !ok {
		s.order = append(s.order, k)
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.pending[k] = v
	return nil
}

// Has reads through the overlay, then the base.
func (s *Staged) Has(key []byte) (bool, error) {
	if _, ok := s.pending[string(key)]; ok {
		return true, nil
	}
	return s.base.Has(key)
}

// Len returns the number of buffered writes.
func (s *Staged) Len() int { return len(s.pending) }

// Commit flushes buffered writes to the base in first-write order and
// clears the overlay.
func (s *Staged) Commit() error {
	for _, k := range s.order {
		if err := s.base.Put([]byte(k), s.pending[k]); err != nil {
			return err
		}
	}
	s.Discard()
	return nil
}

// Discard drops every buffered write.
func (s *Staged) Discard() {
	s.pending = make(map[string][]byte)
	s.order = nil
}
