package trace

import (
	"math/rand"
	"sync"
	"time"
)

// RNG supplies the uniform 16-bit integers the probe builder needs for
// packet identifiers, sequence numbers, source ports, and IP IDs. It is
// isolated behind this seam (rather than called inline with math/rand)
// so packet-building tests can inject a deterministic sequence instead of
// asserting against whatever the process-global generator produced.
type RNG interface {
	Uint16() uint16
}

// mathRNG is the default RNG, backed by a privately seeded math/rand
// source. math/rand rather than crypto/rand: these values are wire
// correlation tags, not secrets.
type mathRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRNG returns the default RNG seeded from the current time. Tests that
// need determinism should construct their own RNG (e.g. a fixed-sequence
// stub) instead of calling this.
func NewRNG() RNG {
	return &mathRNG{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *mathRNG) Uint16() uint16 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return uint16(g.r.Intn(1 << 16))
}

// sequenceRNG is a deterministic stub RNG used by tests: it replays a
// fixed sequence of values, wrapping around when exhausted.
type sequenceRNG struct {
	values []uint16
	i      int
}

func newSequenceRNG(values ...uint16) *sequenceRNG {
	return &sequenceRNG{values: values}
}

func (s *sequenceRNG) Uint16() uint16 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}
