package tape

import (
	"errors"
	"sync"
)

// ErrNotFinalized is returned when shelving a tape that is still recording.
var ErrNotFinalized = errors.New("tape: not finalized")

// Shelf keeps the most recent finished tapes in memory, newest first.
type Shelf struct {
	mu    sync.Mutex
	max   int
	tapes []*Tape
}

// NewShelf returns a shelf holding at most size tapes. size <= 0 means 1.
func NewShelf(size int) *Shelf {
	if size <= 0 {
		size = 1
	}
	return &Shelf{max: size}
}

// Put shelves t, evicting the oldest tape when the shelf is full.
func (s *Shelf) Put(t *Tape) error {
	if !t.Finalized() {
		return ErrNotFinalized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tapes = append([]*Tape{t}, s.tapes...)
	if len(s.tapes) > s.max {
		s.tapes = s.tapes[:s.max]
	}
	return nil
}

// Last returns the newest tape.
func (s *Shelf) Last() (*Tape, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tapes) == 0 {
		return nil, false
	}
	return s.tapes[0], true
}

// Get finds a tape by name.
func (s *Shelf) Get(name string) (*Tape, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tapes {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// List returns the shelved tapes, newest first.
func (s *Shelf) List() []*Tape {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Tape, len(s.tapes))
	copy(out, s.tapes)
	return out
}

// Len reports how many tapes are shelved.
func (s *Shelf) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tapes)
}
