package device

import (
	"math/rand"
	"time"
)

type Op uint8

const (
	OpRead Op = iota
	OpWrite
)

func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	}
	return "unknown"
}

// FailureSource decides whether the next read or write fails with a
// transient i/o error.
type FailureSource interface {
	Fail(op Op) bool
}

type FailureFunc func(op Op) bool

func (f FailureFunc) Fail(op Op) bool {
	return f(op)
}

type NoFailures struct{}

func (NoFailures) Fail(Op) bool { return false }

// RandomFailures fails each operation independently with a fixed
// probability.
type RandomFailures struct {
	rate float64
	rand *rand.Rand
}

func NewRandomFailures(rate float64, seed int64) *RandomFailures {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomFailures{
		rate: rate,
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomFailures) Fail(Op) bool {
	return r.rand.Float64() < r.rate
}

// FailSequence fails the next n operations of the given kinds and then
// lets everything through. With no kinds every operation counts.
type FailSequence struct {
	remaining int
	ops       map[Op]bool
}

func FailNext(n int, ops ...Op) *FailSequence {
	s := &FailSequence{remaining: n}
	if len(ops) > 0 {
		s.ops = make(map[Op]bool, len(ops))
		for _, op := range ops {
			s.ops[op] = true
		}
	}
	return s
}

func (s *FailSequence) Fail(op Op) bool {
	if s.ops != nil && !s.ops[op] {
		return false
	}
	if s.remaining <= 0 {
		return false
	}
	s.remaining--
	return true
}

func (s *FailSequence) Remaining() int {
	return s.remaining
}
