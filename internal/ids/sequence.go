// Package ids hands out sequential, human-readable identifiers such as
// UX-001 or TC-BTN-004.
package ids

import (
	"fmt"
	"sync/atomic"
)

// Sequence is a monotonic counter owned by a single analyzer or generator.
// The zero value is ready to use and starts at 1.
type Sequence struct {
	n atomic.Int64
}

// Next returns the next number in the sequence.
func (s *Sequence) Next() int {
	return int(s.n.Add(1))
}

// Format allocates the next number and renders it as PREFIX-%03d.
func (s *Sequence) Format(prefix string) string {
	return fmt.Sprintf("%s-%03d", prefix, s.Next())
}
