// Package history keeps a bounded, per-user, per-channel buffer of recent
// exchanges. It is soft state: best-effort, in-process, and lost on
// restart. The durable record lives in the vector store.
package history

import "sync"

// DefaultCapacity is the number of exchanges retained per (user, channel).
const DefaultCapacity = 20

// Store holds recent exchanges keyed by user and channel ("blog",
// "social"). Appends and reads are individually atomic; interleaving of
// appends from parallel requests to the same key is unordered.
type Store struct {
	mu       sync.Mutex
	capacity int
	entries  map[key][]string
}

type key struct {
	userID  string
	channel string
}

// New creates a history store. capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		entries:  make(map[key][]string),
	}
}

// Append records an exchange for the (user, channel) pair, dropping the
// oldest entry once the capacity is exceeded.
func (s *Store) Append(userID, channel, entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{userID, channel}
	buf := append(s.entries[k], entry)
	if len(buf) > s.capacity {
		buf = buf[len(buf)-s.capacity:]
	}
	s.entries[k] = buf
}

// Recent returns up to n most recent entries for the (user, channel) pair,
// oldest first. n <= 0 returns everything retained.
func (s *Store) Recent(userID, channel string, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.entries[key{userID, channel}]
	if n > 0 && len(buf) > n {
		buf = buf[len(buf)-n:]
	}
	out := make([]string, len(buf))
	copy(out, buf)
	return out
}

// Len reports how many entries are retained for the (user, channel) pair.
func (s *Store) Len(userID, channel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries[key{userID, channel}])
}
