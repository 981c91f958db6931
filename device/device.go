/*
A simulated block device with a flash translation layer.

Device maps logical blocks onto physical blocks held in an anonymous
memory mapping. Every write lands on a fresh physical block; the block
it replaces is trimmed and later reclaimed by garbage collection. Reads
of logical blocks that were never written, or have been trimmed, return
zeros.

Reads and writes can be made to fail transiently through a
FailureSource. The device never retries on its own: each failure is
reported once and counted. Retrying is the driver's job.

A Device is not safe for concurrent use. Wrap it in a Locked to share
it between goroutines.
*/
package device

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

import (
	"github.com/timtadh/ftl"
	"github.com/timtadh/ftl/alloc"
	"github.com/timtadh/ftl/blockstate"
	"github.com/timtadh/ftl/consts"
	"github.com/timtadh/ftl/errors"
	"github.com/timtadh/ftl/fmap"
	"github.com/timtadh/ftl/mapping"
)

type Device struct {
	id       string
	cfg      Config
	storage  *fmap.BlockMap
	states   *blockstate.Table
	mapping  *mapping.Table
	alloc    *alloc.Allocator
	failures FailureSource
	simulate bool
	stats    Stats
	logger   *zap.Logger
}

var _ ftl.ManagedBlockDevice = (*Device)(nil)

type Option func(*Device)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithFailureSource replaces the random failure source. It also turns
// failure simulation on.
func WithFailureSource(fs FailureSource) Option {
	return func(d *Device) {
		d.failures = fs
		d.simulate = fs != nil
	}
}

// NewDevice creates a device of capacity bytes split into blocks of
// blockSize bytes.
func NewDevice(capacity int64, blockSize int, simulateFailures bool, opts ...Option) (*Device, error) {
	cfg := DefaultConfig()
	cfg.CapacityBytes = capacity
	cfg.BlockSize = blockSize
	cfg.SimulateFailures = simulateFailures
	return New(cfg, opts...)
}

func New(cfg Config, opts ...Option) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	storage, err := fmap.Anonymous(int(cfg.CapacityBytes), cfg.BlockSize)
	if err != nil {
		return nil, err
	}
	d := &Device{
		id:       uuid.NewString(),
		cfg:      cfg,
		storage:  storage,
		states:   blockstate.New(cfg.TotalBlocks()),
		mapping:  mapping.New(),
		simulate: cfg.SimulateFailures,
		logger:   zap.NewNop(),
	}
	if cfg.SimulateFailures {
		d.failures = NewRandomFailures(cfg.FailureRate, cfg.Seed)
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.failures == nil {
		d.failures = NoFailures{}
	}
	d.logger = d.logger.Named(consts.LOGGER_NAME).With(zap.String("device_id", d.id))
	d.alloc = alloc.New(d.states, d.mapping, d.logger)
	d.alloc.EraseWith(d.storage.Zero)
	d.logger.Debug("device created",
		zap.Int64("capacity", cfg.CapacityBytes),
		zap.Int("block_size", cfg.BlockSize),
		zap.Int("blocks", cfg.TotalBlocks()),
		zap.Bool("simulate_failures", d.simulate),
	)
	return d, nil
}

func (self *Device) ID() string {
	return self.id
}

func (self *Device) BlockSize() int {
	return self.cfg.BlockSize
}

func (self *Device) Capacity() int64 {
	return self.cfg.CapacityBytes
}

func (self *Device) TotalBlocks() int {
	return self.cfg.TotalBlocks()
}

func (self *Device) Close() error {
	return self.storage.Close()
}

// SimulateFailures switches failure injection on or off without
// replacing the failure source.
func (self *Device) SimulateFailures(on bool) {
	self.simulate = on
}

func (self *Device) SetFailureSource(fs FailureSource) {
	if fs == nil {
		fs = NoFailures{}
	}
	self.failures = fs
}

func (self *Device) validateBlock(id uint64) error {
	if id >= uint64(self.TotalBlocks()) {
		return errors.Errorf(errors.Invalid, "invalid block id: %d", id)
	}
	return nil
}

func (self *Device) injectFailure(op Op, kind opKind) error {
	if self.simulate && self.failures.Fail(op) {
		self.recordFailure(kind, "simulated")
		return errors.Errorf(errors.Transient, "simulated device i/o failure on %v", op)
	}
	return nil
}

func (self *Device) zeroBlock() []byte {
	return make([]byte, self.cfg.BlockSize)
}

// ReadBlock returns a copy of logical block lba. Unwritten and trimmed
// blocks read as zeros. An lba at or past TotalBlocks is not an
// unwritten block: it is rejected with an Invalid error.
func (self *Device) ReadBlock(lba uint64) ([]byte, error) {
	if err := self.validateBlock(lba); err != nil {
		return nil, err
	}
	pba, has := self.mapping.Lookup(lba)
	if !has {
		return self.zeroBlock(), nil
	}
	state, err := self.states.Get(pba)
	if err != nil {
		return nil, err
	}
	switch state {
	case blockstate.BAD:
		self.recordFailure(opRead, "bad_block")
		return nil, errors.Errorf(errors.BadBlock, "cannot read BAD block %d (lba %d)", pba, lba)
	case blockstate.TRIMMED:
		return self.zeroBlock(), nil
	}
	if err := self.injectFailure(OpRead, opRead); err != nil {
		return nil, err
	}
	block, err := self.storage.ReadBlock(pba)
	if err != nil {
		return nil, err
	}
	self.stats.Reads++
	self.recordOp(opRead)
	return block, nil
}

// WriteBlock writes a full block to lba. The data always lands on a
// newly allocated physical block; the block previously backing lba is
// trimmed first. If the write fails after allocation the new block
// goes back to the free set and lba reads as zeros.
func (self *Device) WriteBlock(lba uint64, data []byte) error {
	if err := self.validateBlock(lba); err != nil {
		return err
	}
	if len(data) != self.cfg.BlockSize {
		return errors.Errorf(errors.Invalid, "write must be exactly %d bytes, got %d", self.cfg.BlockSize, len(data))
	}
	if old, has := self.mapping.Lookup(lba); has {
		state, err := self.states.Get(old)
		if err != nil {
			return err
		}
		switch state {
		case blockstate.BAD:
			self.recordFailure(opWrite, "bad_block")
			return errors.Errorf(errors.BadBlock, "cannot write BAD block %d (lba %d)", old, lba)
		case blockstate.USED:
			if err := self.states.Transition(old, blockstate.TRIMMED); err != nil {
				return err
			}
		}
	}
	pba, err := self.alloc.Allocate()
	if err != nil {
		self.logger.Warn("allocation failed", zap.Uint64("lba", lba), zap.Error(err))
		return err
	}
	if err := self.injectFailure(OpWrite, opWrite); err != nil {
		if ferr := self.alloc.Free(pba); ferr != nil {
			return ferr
		}
		return err
	}
	if err := self.storage.WriteBlock(pba, data); err != nil {
		if ferr := self.alloc.Free(pba); ferr != nil {
			return ferr
		}
		return err
	}
	if err := self.states.Transition(pba, blockstate.USED); err != nil {
		return err
	}
	self.mapping.Bind(lba, pba)
	self.stats.Writes++
	self.recordOp(opWrite)
	return nil
}

// TrimBlock logically deletes lba. Trimming an unmapped or already
// trimmed block does nothing. Trimming a block whose physical block is
// BAD is an error and leaves it BAD.
func (self *Device) TrimBlock(lba uint64) error {
	if err := self.validateBlock(lba); err != nil {
		return err
	}
	pba, has := self.mapping.Lookup(lba)
	if !has {
		return nil
	}
	state, err := self.states.Get(pba)
	if err != nil {
		return err
	}
	switch state {
	case blockstate.BAD:
		self.recordFailure(opTrim, "bad_block")
		return errors.Errorf(errors.BadBlock, "cannot trim BAD block %d (lba %d)", pba, lba)
	case blockstate.TRIMMED:
		return nil
	}
	if err := self.states.Transition(pba, blockstate.TRIMMED); err != nil {
		return err
	}
	self.stats.Trims++
	self.recordOp(opTrim)
	return nil
}

// MarkBlockBad permanently fences off physical block pba, whatever
// state it is in. It simulates a media failure.
func (self *Device) MarkBlockBad(pba uint64) error {
	if err := self.validateBlock(pba); err != nil {
		return err
	}
	if err := self.states.MarkBad(pba); err != nil {
		return err
	}
	self.alloc.Remove(pba)
	lba, mapped := self.mapping.Owner(pba)
	self.logger.Warn("block marked bad",
		zap.Uint64("pba", pba),
		zap.Bool("mapped", mapped),
		zap.Uint64("lba", lba),
	)
	return nil
}

// GarbageCollect reclaims every TRIMMED physical block, zeroing its
// storage, and returns how many it reclaimed.
func (self *Device) GarbageCollect() int {
	n := self.alloc.GarbageCollect()
	self.recordReclaim(n)
	return n
}

func (self *Device) Stats() Stats {
	return self.stats
}

// Mapping returns a copy of the current lba -> pba table.
func (self *Device) Mapping() map[uint64]uint64 {
	return self.mapping.Snapshot()
}

func (self *Device) State(pba uint64) (blockstate.State, error) {
	return self.states.Get(pba)
}

// FreeBlocks lists the physical blocks available for allocation.
func (self *Device) FreeBlocks() []uint64 {
	return self.alloc.FreeBlocks()
}
