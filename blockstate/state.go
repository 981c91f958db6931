/*
Physical block lifecycle.

Every physical block is in exactly one State. Blocks start FREE, become
USED when written, TRIMMED when their logical block is deleted or
overwritten, and FREE again only through garbage collection. BAD is
terminal.

	FREE -> USED -> TRIMMED -> FREE
	  \       |        /
	   `---> BAD <----'
*/
package blockstate

import (
	"github.com/timtadh/ftl/errors"
)

type State uint8

const (
	FREE State = iota
	USED
	TRIMMED
	BAD
)

func (s State) String() string {
	switch s {
	case FREE:
		return "FREE"
	case USED:
		return "USED"
	case TRIMMED:
		return "TRIMMED"
	case BAD:
		return "BAD"
	}
	return "UNKNOWN"
}

// Legal reports whether a block may move from one state to another.
// TRIMMED -> TRIMMED is allowed so trimming is idempotent.
func Legal(from, to State) bool {
	switch from {
	case FREE:
		return to == USED || to == BAD
	case USED:
		return to == TRIMMED || to == BAD
	case TRIMMED:
		return to == TRIMMED || to == FREE || to == BAD
	}
	return false
}

type Table struct {
	states []State
}

func New(blocks int) *Table {
	return &Table{states: make([]State, blocks)}
}

func (self *Table) Len() int {
	return len(self.states)
}

func (self *Table) check(pba uint64) error {
	if pba >= uint64(len(self.states)) {
		return errors.Errorf(errors.Invalid, "invalid block id: %d", pba)
	}
	return nil
}

func (self *Table) Get(pba uint64) (State, error) {
	if err := self.check(pba); err != nil {
		return 0, err
	}
	return self.states[pba], nil
}

// Transition moves pba to the given state. An illegal transition leaves
// the block untouched.
func (self *Table) Transition(pba uint64, to State) error {
	if err := self.check(pba); err != nil {
		return err
	}
	from := self.states[pba]
	if from == BAD {
		return errors.Errorf(errors.BadBlock, "block %d is BAD", pba)
	}
	if !Legal(from, to) {
		return errors.Errorf(errors.Invalid, "illegal transition of block %d: %v -> %v", pba, from, to)
	}
	self.states[pba] = to
	return nil
}

// MarkBad forces pba into the BAD state whatever it was before.
func (self *Table) MarkBad(pba uint64) error {
	if err := self.check(pba); err != nil {
		return err
	}
	self.states[pba] = BAD
	return nil
}

func (self *Table) Count(s State) int {
	n := 0
	for _, st := range self.states {
		if st == s {
			n++
		}
	}
	return n
}
