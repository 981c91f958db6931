/*
Block allocation and garbage collection.

The Allocator hands out FREE physical blocks for new writes. When no
block is free it sweeps every physical block and reclaims the TRIMMED
ones, tearing down their mappings and erasing them. If the sweep finds nothing the
device is full.
*/
package alloc

import (
	"github.com/bits-and-blooms/bitset"
	"go.uber.org/zap"
)

import (
	"github.com/timtadh/ftl/blockstate"
	"github.com/timtadh/ftl/errors"
	"github.com/timtadh/ftl/mapping"
)

type Allocator struct {
	free    *bitset.BitSet
	states  *blockstate.Table
	mapping *mapping.Table
	erase   func(pba uint64) error
	logger  *zap.Logger
}

// New builds an allocator over the given tables. Every block that is
// FREE in states starts out in the free set.
func New(states *blockstate.Table, m *mapping.Table, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	free := bitset.New(uint(states.Len()))
	for pba := 0; pba < states.Len(); pba++ {
		if s, _ := states.Get(uint64(pba)); s == blockstate.FREE {
			if _, mapped := m.Owner(uint64(pba)); !mapped {
				free.Set(uint(pba))
			}
		}
	}
	return &Allocator{
		free:    free,
		states:  states,
		mapping: m,
		logger:  logger,
	}
}

func (self *Allocator) FreeCount() int {
	return int(self.free.Count())
}

func (self *Allocator) IsFree(pba uint64) bool {
	return self.free.Test(uint(pba))
}

// EraseWith installs a hook that garbage collection calls on every
// block it reclaims, before the block rejoins the free set. A block
// whose erase fails is fenced off as BAD.
func (self *Allocator) EraseWith(erase func(pba uint64) error) {
	self.erase = erase
}

// Allocate removes a FREE block from the free set and returns it. The
// lowest numbered free block is always chosen.
func (self *Allocator) Allocate() (uint64, error) {
	if self.free.None() {
		self.logger.Debug("free set empty, collecting garbage")
		if self.GarbageCollect() == 0 {
			return 0, errors.Errorf(errors.StorageFull, "storage full: no reclaimable blocks")
		}
	}
	pba, ok := self.free.NextSet(0)
	if !ok {
		return 0, errors.Errorf(errors.StorageFull, "storage full: no reclaimable blocks")
	}
	self.free.Clear(pba)
	return uint64(pba), nil
}

// Free puts an allocated block that was never bound back into the free
// set. It is used to undo an allocation when the write fails.
func (self *Allocator) Free(pba uint64) error {
	s, err := self.states.Get(pba)
	if err != nil {
		return err
	}
	if s != blockstate.FREE {
		return errors.Errorf(errors.Invalid, "cannot free block %d in state %v", pba, s)
	}
	if _, mapped := self.mapping.Owner(pba); mapped {
		return errors.Errorf(errors.Invalid, "cannot free mapped block %d", pba)
	}
	self.free.Set(uint(pba))
	return nil
}

// Remove fences pba off from allocation.
func (self *Allocator) Remove(pba uint64) {
	self.free.Clear(uint(pba))
}

// GarbageCollect reclaims every TRIMMED block, tearing down its
// mapping if it still has one, and returns how many were reclaimed. It
// is a full sweep. A block superseded by an overwrite is TRIMMED but no
// longer mapped, so the sweep walks the state table rather than the
// mapping.
func (self *Allocator) GarbageCollect() int {
	reclaimed := 0
	for i := 0; i < self.states.Len(); i++ {
		pba := uint64(i)
		if s, _ := self.states.Get(pba); s != blockstate.TRIMMED {
			continue
		}
		if err := self.states.Transition(pba, blockstate.FREE); err != nil {
			self.logger.Warn("could not reclaim block", zap.Uint64("pba", pba), zap.Error(err))
			continue
		}
		self.mapping.Unbind(pba)
		if self.erase != nil {
			if err := self.erase(pba); err != nil {
				self.logger.Warn("erase failed, fencing block", zap.Uint64("pba", pba), zap.Error(err))
				self.states.MarkBad(pba)
				continue
			}
		}
		self.free.Set(uint(pba))
		reclaimed++
	}
	self.logger.Debug("garbage collection finished",
		zap.Int("reclaimed", reclaimed),
		zap.Int("free", self.FreeCount()),
	)
	return reclaimed
}

// FreeBlocks lists the free set in ascending order.
func (self *Allocator) FreeBlocks() []uint64 {
	pbas := make([]uint64, 0, self.free.Count())
	for i, ok := self.free.NextSet(0); ok; i, ok = self.free.NextSet(i + 1) {
		pbas = append(pbas, uint64(i))
	}
	return pbas
}
