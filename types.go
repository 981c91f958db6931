package ftl

type BlockSizer interface {
	BlockSize() int
}

type Capacitor interface {
	Capacity() int64
}

type BlockReader interface {
	ReadBlock(lba uint64) (block []byte, err error)
}

type BlockWriter interface {
	WriteBlock(lba uint64, block []byte) error
}

type BlockTrimmer interface {
	TrimBlock(lba uint64) error
}

type BlockReadWriter interface {
	BlockReader
	BlockWriter
}

type Collector interface {
	GarbageCollect() int
}

// Maintainer exposes the fault injection and introspection hooks that
// are only meant for tests and maintenance tools.
type Maintainer interface {
	MarkBlockBad(pba uint64) error
	Mapping() map[uint64]uint64
}

type Closer interface {
	Close() error
}

// BlockDevice is everything the byte range driver needs.
type BlockDevice interface {
	BlockSizer
	Capacitor
	BlockReadWriter
	BlockTrimmer
}

type ManagedBlockDevice interface {
	BlockDevice
	Collector
	Maintainer
	Closer
}
