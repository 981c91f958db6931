package device

import (
	"sync"
)

import (
	"github.com/timtadh/ftl"
	"github.com/timtadh/ftl/blockstate"
)

// Locked serializes every operation on a Device behind one mutex so it
// can be shared between goroutines. Allocation and garbage collection
// both mutate the free set and the mapping, so the whole device is one
// critical section.
type Locked struct {
	mu  sync.Mutex
	dev *Device
}

var _ ftl.ManagedBlockDevice = (*Locked)(nil)

func NewLocked(dev *Device) *Locked {
	return &Locked{dev: dev}
}

func (l *Locked) BlockSize() int  { return l.dev.BlockSize() }
func (l *Locked) Capacity() int64 { return l.dev.Capacity() }

func (l *Locked) ReadBlock(lba uint64) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.ReadBlock(lba)
}

func (l *Locked) WriteBlock(lba uint64, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.WriteBlock(lba, data)
}

func (l *Locked) TrimBlock(lba uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.TrimBlock(lba)
}

func (l *Locked) MarkBlockBad(pba uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.MarkBlockBad(pba)
}

func (l *Locked) GarbageCollect() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.GarbageCollect()
}

func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.Stats()
}

func (l *Locked) Mapping() map[uint64]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.Mapping()
}

func (l *Locked) State(pba uint64) (blockstate.State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.State(pba)
}

func (l *Locked) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.Verify()
}

func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.Close()
}
