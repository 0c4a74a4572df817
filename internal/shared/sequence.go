package shared

import (
	"sync"
	"time"
)

const stampLayout = "20060102150405"

// StampSequence issues prefix+YYYYMMDDhhmmss identifiers. Two calls within
// the same second get consecutive seconds so values stay unique in-process.
type StampSequence struct {
	mu     sync.Mutex
	prefix string
	last   time.Time
	now    func() time.Time
}

// NewStampSequence returns a sequence using the wall clock.
func NewStampSequence(prefix string) *StampSequence {
	return &StampSequence{prefix: prefix, now: time.Now}
}

// NewStampSequenceWithClock is used by tests to pin the clock.
func NewStampSequenceWithClock(prefix string, now func() time.Time) *StampSequence {
	return &StampSequence{prefix: prefix, now: now}
}

// Next returns the next identifier.
func (s *StampSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().Truncate(time.Second)
	if !ts.After(s.last) {
		ts = s.last.Add(time.Second)
	}
	s.last = ts
	return s.prefix + ts.Format(stampLayout)
}
