package tests

import "sync"

// SequenceRand replays a fixed list of Float64 values in [0, 1), cycling once
// the list is exhausted. It makes random walks reproducible in tests.
type SequenceRand struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func NewSequenceRand(values ...float64) *SequenceRand {
	if len(values) == 0 {
		values = []float64{0.5}
	}

	return &SequenceRand{values: values}
}

func (s *SequenceRand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.values[s.next%len(s.values)]
	s.next++

	return v
}
