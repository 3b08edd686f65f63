package engine

import "sync"

// Sequencer orders overlapping runs. Each run takes an id from Next; when
// it finishes, Publish reports whether its result is still worth showing.
// A result is stale once a run with a higher id has been published.
type Sequencer struct {
	mu        sync.Mutex
	issued    uint64
	published uint64
}

// Next issues the next run id. Ids start at 1.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Publish records id as shown and returns true, or returns false if a
// newer run has already been published.
func (s *Sequencer) Publish(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id <= s.published {
		return false
	}
	s.published = id
	return true
}

// Latest returns the most recently issued id.
func (s *Sequencer) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}
