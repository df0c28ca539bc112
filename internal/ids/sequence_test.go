package ids

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceFormat(t *testing.T) {
	var s Sequence
	assert.Equal(t, "UX-001", s.Format("UX"))
	assert.Equal(t, "TC-BTN-002", s.Format("TC-BTN"))
	assert.Equal(t, 3, s.Next())
}

func TestSequencesAreIndependent(t *testing.T) {
	var a, b Sequence
	a.Next()
	a.Next()
	assert.Equal(t, 1, b.Next())
	assert.Equal(t, 3, a.Next())
}

func TestSequenceConcurrentUnique(t *testing.T) {
	var s Sequence
	var wg sync.WaitGroup
	seen := make(chan int, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- s.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int]bool{}
	for n := range seen {
		unique[n] = true
	}
	assert.Len(t, unique, 200)
	assert.Equal(t, 201, s.Next())
}
