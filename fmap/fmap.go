package fmap

import (
	"github.com/edsrzf/mmap-go"
)

import (
	"github.com/timtadh/ftl/errors"
)

type BlockMap struct {
	mmap        mmap.MMap
	blksize     int
	blocks      int
	ptrs        []int
	outstanding int
}

// Anonymous maps size bytes of zeroed memory carved into blocks of
// blksize bytes. size must be a multiple of blksize.
func Anonymous(size, blksize int) (*BlockMap, error) {
	if blksize <= 0 || size <= 0 {
		return nil, errors.Errorf(errors.Invalid, "size (%d) and block size (%d) must be positive", size, blksize)
	}
	if size%blksize != 0 {
		return nil, errors.Errorf(errors.Invalid, "size %d is not a multiple of the block size %d", size, blksize)
	}
	m, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, errors.Wrap(errors.Invalid, err, "could not create anonymous map")
	}
	blocks := size / blksize
	return &BlockMap{
		mmap:    m,
		blksize: blksize,
		blocks:  blocks,
		ptrs:    make([]int, blocks),
	}, nil
}

func (self *BlockMap) BlockSize() int {
	return self.blksize
}

func (self *BlockMap) Blocks() int {
	return self.blocks
}

func (self *BlockMap) Size() int {
	return len(self.mmap)
}

func (self *BlockMap) Close() error {
	if self.mmap == nil {
		return nil
	}
	if self.outstanding > 0 {
		return errors.Errorf(errors.Invalid, "tried to unmap with %d outstanding pointers", self.outstanding)
	}
	if err := self.mmap.Unmap(); err != nil {
		return err
	}
	self.mmap = nil
	return nil
}

// Get returns a view of blocks consecutive blocks starting at blk. The
// view must be handed back with Release.
func (self *BlockMap) Get(blk, blocks uint64) ([]byte, error) {
	if self.mmap == nil {
		return nil, errors.Errorf(errors.Invalid, "block map is closed")
	}
	if blocks == 0 || blk+blocks > uint64(self.blocks) || blk+blocks < blk {
		return nil, errors.Errorf(errors.Invalid, "Get outside of the map, %d + %d > %d", blk, blocks, self.blocks)
	}
	for i := uint64(0); i < blocks; i++ {
		self.ptrs[blk+i] += 1
		self.outstanding += 1
	}
	start := blk * uint64(self.blksize)
	end := start + blocks*uint64(self.blksize)
	return self.mmap[start:end:end], nil
}

func (self *BlockMap) Release(blk, blocks uint64) error {
	if blk+blocks > uint64(len(self.ptrs)) {
		return errors.Errorf(errors.Invalid, "tried to release a block that was not in this mapping")
	}
	for i := uint64(0); i < blocks; i++ {
		if self.ptrs[blk+i] <= 0 {
			return errors.Errorf(errors.Invalid, "tried to release block with no outstanding pointers (double free?)")
		}
		self.ptrs[blk+i] -= 1
		self.outstanding -= 1
	}
	return nil
}

func (self *BlockMap) Do(blk, blocks uint64, do func([]byte) error) error {
	bytes, err := self.Get(blk, blocks)
	if err != nil {
		return err
	}
	defer self.Release(blk, blocks)
	return do(bytes)
}

// ReadBlock copies block blk out of the map.
func (self *BlockMap) ReadBlock(blk uint64) ([]byte, error) {
	out := make([]byte, self.blksize)
	err := self.Do(blk, 1, func(bytes []byte) error {
		copy(out, bytes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (self *BlockMap) WriteBlock(blk uint64, data []byte) error {
	if len(data) != self.blksize {
		return errors.Errorf(errors.Invalid, "write must be exactly %d bytes, got %d", self.blksize, len(data))
	}
	return self.Do(blk, 1, func(bytes []byte) error {
		copy(bytes, data)
		return nil
	})
}

func (self *BlockMap) Zero(blk uint64) error {
	return self.Do(blk, 1, func(bytes []byte) error {
		for i := range bytes {
			bytes[i] = 0
		}
		return nil
	})
}
