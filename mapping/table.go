package mapping

import (
	"sort"
)

// Table is the logical to physical indirection. Both directions are
// kept in lockstep: lba2pba[l] == p iff pba2lba[p] == l.
type Table struct {
	lba2pba map[uint64]uint64
	pba2lba map[uint64]uint64
}

func New() *Table {
	return &Table{
		lba2pba: make(map[uint64]uint64),
		pba2lba: make(map[uint64]uint64),
	}
}

func (self *Table) Len() int {
	return len(self.lba2pba)
}

func (self *Table) Lookup(lba uint64) (pba uint64, has bool) {
	pba, has = self.lba2pba[lba]
	return pba, has
}

func (self *Table) Owner(pba uint64) (lba uint64, has bool) {
	lba, has = self.pba2lba[pba]
	return lba, has
}

// Bind maps lba to pba, dropping whatever either of them was bound to
// before.
func (self *Table) Bind(lba, pba uint64) {
	if old, has := self.lba2pba[lba]; has {
		delete(self.pba2lba, old)
	}
	if old, has := self.pba2lba[pba]; has {
		delete(self.lba2pba, old)
	}
	self.lba2pba[lba] = pba
	self.pba2lba[pba] = lba
}

// Unbind tears down the mapping through pba in both directions.
func (self *Table) Unbind(pba uint64) (lba uint64, had bool) {
	lba, had = self.pba2lba[pba]
	if !had {
		return 0, false
	}
	delete(self.pba2lba, pba)
	if self.lba2pba[lba] == pba {
		delete(self.lba2pba, lba)
	}
	return lba, true
}

// PBAs lists the mapped physical blocks in ascending order.
func (self *Table) PBAs() []uint64 {
	pbas := make([]uint64, 0, len(self.pba2lba))
	for pba := range self.pba2lba {
		pbas = append(pbas, pba)
	}
	sort.Slice(pbas, func(i, j int) bool { return pbas[i] < pbas[j] })
	return pbas
}

// Snapshot copies the lba -> pba direction.
func (self *Table) Snapshot() map[uint64]uint64 {
	m := make(map[uint64]uint64, len(self.lba2pba))
	for lba, pba := range self.lba2pba {
		m[lba] = pba
	}
	return m
}

// Consistent reports whether both directions agree.
func (self *Table) Consistent() bool {
	if len(self.lba2pba) != len(self.pba2lba) {
		return false
	}
	for lba, pba := range self.lba2pba {
		if back, has := self.pba2lba[pba]; !has || back != lba {
			return false
		}
	}
	return true
}
