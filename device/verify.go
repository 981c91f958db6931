package device

import (
	"github.com/timtadh/ftl/blockstate"
	"github.com/timtadh/ftl/errors"
)

// Verify() error
// Walks every physical block and checks the device's structural
// invariants: the two mapping directions agree, every mapped block
// exists, a block is free iff it is FREE and unmapped, USED blocks are
// mapped, and BAD blocks are never free. It does not look at block
// contents.
func (self *Device) Verify() error {
	if !self.mapping.Consistent() {
		return errors.Errorf(errors.Invalid, "lba -> pba and pba -> lba tables disagree")
	}
	for _, pba := range self.mapping.PBAs() {
		if pba >= uint64(self.states.Len()) {
			return errors.Errorf(errors.Invalid, "mapped block %d is past the end of the device", pba)
		}
	}
	if free, want := self.alloc.FreeCount(), self.states.Count(blockstate.FREE); free != want {
		return errors.Errorf(errors.Invalid, "free set holds %d blocks but %d are FREE", free, want)
	}
	for i := 0; i < self.states.Len(); i++ {
		pba := uint64(i)
		state, err := self.states.Get(pba)
		if err != nil {
			return err
		}
		free := self.alloc.IsFree(pba)
		_, mapped := self.mapping.Owner(pba)
		switch state {
		case blockstate.FREE:
			if !free {
				return errors.Errorf(errors.Invalid, "FREE block %d is missing from the free set", pba)
			}
			if mapped {
				return errors.Errorf(errors.Invalid, "FREE block %d is still mapped", pba)
			}
		case blockstate.USED:
			if !mapped {
				return errors.Errorf(errors.Invalid, "USED block %d is not mapped", pba)
			}
		}
		if state != blockstate.FREE && free {
			return errors.Errorf(errors.Invalid, "%v block %d is in the free set", state, pba)
		}
	}
	return nil
}
