package bridge

import (
	"encoding/binary"

	"github.com/hackathon-cross/muta-cross/store"
)

var prefixHeaders = []byte("h")

// HeaderStore indexes parsed foreign headers by height. Resubmission at
// a height overwrites the prior entry; no continuity or fork checks are
// performed, the relayer set is trusted for chain selection.
type HeaderStore struct {
	kv store.Store
}

// NewHeaderStore binds the store to kv.
func NewHeaderStore(kv store.Store) *HeaderStore {
	return &HeaderStore{kv: kv}
}

func heightKey(height uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, height)
	return k
}

// Get returns the header stored at height.
func (hs *HeaderStore) Get(height uint64) (*HeaderRecord, error) {
	return getHeader(hs.kv, height)
}

func getHeader(kv store.Store, height uint64) (*HeaderRecord, error) {
	m := store.NewMap(kv, prefixHeaders)
	raw, ok, err := m.Get(heightKey(height))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errHeaderNotFound(height)
	}
	var rec HeaderRecord
	if err := rec.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &rec, nil
}

func putHeader(kv store.Store, rec *HeaderRecord) error {
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	m := store.NewMap(kv, prefixHeaders)
	return m.Put(heightKey(rec.Number), raw)
}
