package mapping

import "testing"

import (
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestBindLookup(t *testing.T) {
	tab := New()
	tab.Bind(3, 10)
	pba, has := tab.Lookup(3)
	assert.True(t, has)
	assert.Equal(t, uint64(10), pba)
	lba, has := tab.Owner(10)
	assert.True(t, has)
	assert.Equal(t, uint64(3), lba)
	_, has = tab.Lookup(4)
	assert.False(t, has)
	assert.True(t, tab.Consistent())
}

func TestRebindLBA(t *testing.T) {
	tab := New()
	tab.Bind(3, 10)
	tab.Bind(3, 11)
	_, has := tab.Owner(10)
	assert.False(t, has)
	assert.Equal(t, 1, tab.Len())
	assert.True(t, tab.Consistent())
}

func TestRebindPBA(t *testing.T) {
	tab := New()
	tab.Bind(3, 10)
	tab.Bind(4, 10)
	_, has := tab.Lookup(3)
	assert.False(t, has)
	lba, _ := tab.Owner(10)
	assert.Equal(t, uint64(4), lba)
	assert.True(t, tab.Consistent())
}

func TestUnbind(t *testing.T) {
	tab := New()
	tab.Bind(1, 5)
	tab.Bind(2, 6)
	lba, had := tab.Unbind(5)
	assert.True(t, had)
	assert.Equal(t, uint64(1), lba)
	_, had = tab.Unbind(5)
	assert.False(t, had)
	_, has := tab.Lookup(1)
	assert.False(t, has)
	assert.True(t, tab.Consistent())
}

func TestSnapshotIsCopy(t *testing.T) {
	tab := New()
	tab.Bind(0, 7)
	tab.Bind(1, 2)
	snap := tab.Snapshot()
	if diff := cmp.Diff(map[uint64]uint64{0: 7, 1: 2}, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	snap[9] = 9
	assert.Equal(t, 2, tab.Len())
	assert.Equal(t, []uint64{2, 7}, tab.PBAs())
}
