// Package store provides the flat string-keyed snapshot store the
// pipeline persists derived narrative state into (completed puzzles,
// shown hints, echo and gift queues). Backends: in-memory and SQLite.
package store

// Store is the snapshot persistence contract. Reads return ok=false
// for absent keys; a read error is recoverable (callers fall back to
// an empty snapshot), a write error is deferred and retried rather
// than blocking a turn.
type Store interface {
	Read(key string) (value []byte, ok bool, err error)
	Write(key string, value []byte) error
}

// MemoryStore is a simple in-memory store. Used in tests and when no
// database path is configured.
type MemoryStore struct {
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

// Read returns the value for key, if present.
func (s *MemoryStore) Read(key string) ([]byte, bool, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := append([]byte(nil), v...)
	return out, true, nil
}

// Write stores a copy of value under key.
func (s *MemoryStore) Write(key string, value []byte) error {
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Keys returns all stored keys. Test helper.
func (s *MemoryStore) Keys() []string {
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	return out
}

// Commit applies a buffered write-set. The first error is returned so
// the caller can keep the write-set and retry it next turn.
func Commit(s Store, writes map[string][]byte) error {
	for k, v := range writes {
		if err := s.Write(k, v); err != nil {
			return err
		}
	}
	return nil
}
