package alloc

import "testing"

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timtadh/ftl/blockstate"
	"github.com/timtadh/ftl/errors"
	"github.com/timtadh/ftl/mapping"
)

type T testing.T

func (t *T) assert(errs ...error) {
	for _, err := range errs {
		if err != nil {
			t.Fatalf("%+v", err)
		}
	}
}

func (t *T) allocator(blocks int) (*Allocator, *blockstate.Table, *mapping.Table) {
	states := blockstate.New(blocks)
	m := mapping.New()
	return New(states, m, nil), states, m
}

// use writes a fresh block for lba the way the device does.
func (t *T) use(a *Allocator, states *blockstate.Table, m *mapping.Table, lba uint64) uint64 {
	pba, err := a.Allocate()
	t.assert(err)
	t.assert(states.Transition(pba, blockstate.USED))
	m.Bind(lba, pba)
	return pba
}

func TestAllocateLowestFirst(x *testing.T) {
	t := (*T)(x)
	a, _, _ := t.allocator(4)
	assert.Equal(x, 4, a.FreeCount())
	for i := uint64(0); i < 4; i++ {
		pba, err := a.Allocate()
		t.assert(err)
		assert.Equal(x, i, pba)
		assert.False(x, a.IsFree(pba))
	}
	assert.Equal(x, 0, a.FreeCount())
}

func TestFullWithNothingToReclaim(x *testing.T) {
	t := (*T)(x)
	a, states, m := t.allocator(2)
	t.use(a, states, m, 0)
	t.use(a, states, m, 1)
	_, err := a.Allocate()
	assert.True(x, errors.Is(err, errors.StorageFull))
}

func TestGarbageCollect(x *testing.T) {
	t := (*T)(x)
	a, states, m := t.allocator(4)
	var pbas []uint64
	for lba := uint64(0); lba < 4; lba++ {
		pbas = append(pbas, t.use(a, states, m, lba))
	}
	t.assert(states.Transition(pbas[1], blockstate.TRIMMED))
	t.assert(states.Transition(pbas[3], blockstate.TRIMMED))

	assert.Equal(x, 2, a.GarbageCollect())
	assert.Equal(x, 2, a.FreeCount())
	assert.True(x, a.IsFree(pbas[1]))
	assert.True(x, a.IsFree(pbas[3]))
	_, has := m.Owner(pbas[1])
	assert.False(x, has)
	_, has = m.Lookup(3)
	assert.False(x, has)
	assert.Equal(x, 0, a.GarbageCollect())
}

func TestGarbageCollectErases(x *testing.T) {
	t := (*T)(x)
	a, states, m := t.allocator(3)
	p0 := t.use(a, states, m, 0)
	p1 := t.use(a, states, m, 1)
	t.use(a, states, m, 2)
	t.assert(states.Transition(p0, blockstate.TRIMMED))
	t.assert(states.Transition(p1, blockstate.TRIMMED))

	var erased []uint64
	a.EraseWith(func(pba uint64) error {
		erased = append(erased, pba)
		if pba == p1 {
			return errors.Errorf(errors.Transient, "erase failed")
		}
		return nil
	})
	assert.Equal(x, 1, a.GarbageCollect())
	assert.Equal(x, []uint64{p0, p1}, erased)
	assert.True(x, a.IsFree(p0))
	assert.False(x, a.IsFree(p1))
	s, err := states.Get(p1)
	t.assert(err)
	assert.Equal(x, blockstate.BAD, s)
	_, has := m.Owner(p1)
	assert.False(x, has)
}

func TestAllocateTriggersGC(x *testing.T) {
	t := (*T)(x)
	a, states, m := t.allocator(2)
	p0 := t.use(a, states, m, 0)
	t.use(a, states, m, 1)
	t.assert(states.Transition(p0, blockstate.TRIMMED))
	pba, err := a.Allocate()
	t.assert(err)
	assert.Equal(x, p0, pba)
	_, has := m.Lookup(0)
	assert.False(x, has)
}

func TestBadBlocksNeverReclaimed(x *testing.T) {
	t := (*T)(x)
	a, states, m := t.allocator(2)
	p0 := t.use(a, states, m, 0)
	t.use(a, states, m, 1)
	t.assert(states.MarkBad(p0))
	assert.Equal(x, 0, a.GarbageCollect())
	_, err := a.Allocate()
	assert.True(x, errors.Is(err, errors.StorageFull))
}

func TestFreeAndRemove(x *testing.T) {
	t := (*T)(x)
	a, states, _ := t.allocator(3)
	pba, err := a.Allocate()
	t.assert(err)
	t.assert(a.Free(pba))
	assert.True(x, a.IsFree(pba))

	a.Remove(2)
	assert.False(x, a.IsFree(2))
	assert.Equal(x, 2, a.FreeCount())

	require.NoError(x, states.Transition(1, blockstate.USED))
	assert.True(x, errors.Is(a.Free(1), errors.Invalid))
}

func TestNewSkipsNonFree(x *testing.T) {
	states := blockstate.New(3)
	require.NoError(x, states.Transition(1, blockstate.USED))
	require.NoError(x, states.MarkBad(2))
	a := New(states, mapping.New(), nil)
	assert.Equal(x, 1, a.FreeCount())
	assert.True(x, a.IsFree(0))
}

func TestCollectsSupersededBlocks(x *testing.T) {
	t := (*T)(x)
	a, states, m := t.allocator(3)
	old := t.use(a, states, m, 0)
	// overwrite: the old block is trimmed and the lba moves on
	t.assert(states.Transition(old, blockstate.TRIMMED))
	t.use(a, states, m, 0)
	_, mapped := m.Owner(old)
	assert.False(x, mapped)

	assert.Equal(x, 1, a.GarbageCollect())
	assert.Equal(x, []uint64{old, 2}, a.FreeBlocks())
	pba, has := m.Lookup(0)
	assert.True(x, has)
	assert.Equal(x, uint64(1), pba)
}
