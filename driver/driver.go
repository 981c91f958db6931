/*
Byte range driver

The driver turns reads, writes and trims of arbitrary byte ranges into
whole block operations on a device. Partial blocks are written with a
read-modify-write. Transient write failures are retried a bounded
number of times; everything else is reported immediately.

Multi-block writes are not atomic. If block k fails for good, blocks
before it stay written.
*/
package driver

import (
	"fmt"
	"io"
)

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

import (
	"github.com/timtadh/ftl"
	"github.com/timtadh/ftl/consts"
	"github.com/timtadh/ftl/errors"
)

type Driver struct {
	dev        ftl.BlockDevice
	blksize    int64
	capacity   int64
	maxRetries int
	logger     *zap.Logger
}

type Option func(*Driver)

// WithMaxRetries sets how many times a block write is attempted before
// giving up. Values below one mean one attempt.
func WithMaxRetries(n int) Option {
	return func(d *Driver) {
		if n < 1 {
			n = 1
		}
		d.maxRetries = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func New(dev ftl.BlockDevice, opts ...Option) *Driver {
	d := &Driver{
		dev:        dev,
		blksize:    int64(dev.BlockSize()),
		capacity:   dev.Capacity(),
		maxRetries: consts.MAX_WRITE_RETRIES,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (self *Driver) Capacity() int64 {
	return self.capacity
}

func (self *Driver) validateBounds(offset, size int64) error {
	if offset < 0 || size < 0 {
		return errors.Errorf(errors.OutOfBounds, "offset (%d) and size (%d) must be non-negative", offset, size)
	}
	if offset > self.capacity || size > self.capacity-offset {
		return errors.Errorf(errors.OutOfBounds, "operation [%d, %d) exceeds device size %d", offset, offset+size, self.capacity)
	}
	return nil
}

// segment is the part of one block touched by a byte range.
type segment struct {
	lba uint64
	off int64 // within the block
	len int64
	pos int64 // within the range
}

func (self *Driver) segments(offset, size int64) []segment {
	var segs []segment
	for pos := int64(0); pos < size; {
		cur := offset + pos
		off := cur % self.blksize
		n := self.blksize - off
		if n > size-pos {
			n = size - pos
		}
		segs = append(segs, segment{
			lba: uint64(cur / self.blksize),
			off: off,
			len: n,
			pos: pos,
		})
		pos += n
	}
	return segs
}

// Read returns length bytes starting at offset. Unwritten and trimmed
// blocks read as zeros.
func (self *Driver) Read(offset, length int64) ([]byte, error) {
	if err := self.validateBounds(offset, length); err != nil {
		return nil, err
	}
	result := make([]byte, length)
	for _, seg := range self.segments(offset, length) {
		block, err := self.dev.ReadBlock(seg.lba)
		if err != nil {
			return nil, err
		}
		copy(result[seg.pos:seg.pos+seg.len], block[seg.off:seg.off+seg.len])
	}
	return result, nil
}

// Write stores data at offset. Each block is written separately, so a
// failure part way through leaves the earlier blocks written.
func (self *Driver) Write(offset int64, data []byte) error {
	size := int64(len(data))
	if err := self.validateBounds(offset, size); err != nil {
		return err
	}
	for _, seg := range self.segments(offset, size) {
		if err := self.writeSegment(seg, data[seg.pos:seg.pos+seg.len]); err != nil {
			return err
		}
	}
	return nil
}

func (self *Driver) writeSegment(seg segment, chunk []byte) error {
	block, err := self.readForUpdate(seg.lba)
	if err != nil {
		return err
	}
	copy(block[seg.off:seg.off+seg.len], chunk)

	var last error
	for attempt := 1; attempt <= self.maxRetries; attempt++ {
		err := self.dev.WriteBlock(seg.lba, block)
		if err == nil {
			return nil
		}
		if !errors.Retryable(err) {
			return err
		}
		last = err
		self.logger.Debug("retrying block write",
			zap.Uint64("lba", seg.lba),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return errors.Wrap(errors.RetriesExceeded, last,
		fmt.Sprintf("write of block %d failed after %d attempts", seg.lba, self.maxRetries))
}

// readForUpdate fetches the current content of a block for a partial
// write. Transient read failures share the write's retry budget.
func (self *Driver) readForUpdate(lba uint64) ([]byte, error) {
	var last error
	for attempt := 1; attempt <= self.maxRetries; attempt++ {
		block, err := self.dev.ReadBlock(lba)
		if err == nil {
			return block, nil
		}
		if !errors.Retryable(err) {
			return nil, err
		}
		last = err
	}
	return nil, errors.Wrap(errors.RetriesExceeded, last,
		fmt.Sprintf("read of block %d for update failed after %d attempts", lba, self.maxRetries))
}

// Trim logically deletes every block that overlaps [offset,
// offset+length), including blocks only partly covered. A block that
// cannot be trimmed does not stop the others; all errors are returned
// together.
func (self *Driver) Trim(offset, length int64) error {
	if err := self.validateBounds(offset, length); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	first := uint64(offset / self.blksize)
	last := uint64((offset + length - 1) / self.blksize)
	var errs error
	for lba := first; lba <= last; lba++ {
		errs = multierr.Append(errs, self.dev.TrimBlock(lba))
	}
	return errs
}

// ReadAt implements io.ReaderAt. Reads past the end of the device are
// short and return io.EOF.
func (self *Driver) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf(errors.OutOfBounds, "negative offset %d", off)
	}
	if off >= self.capacity {
		return 0, io.EOF
	}
	n := int64(len(p))
	var eof error
	if n > self.capacity-off {
		n = self.capacity - off
		eof = io.EOF
	}
	data, err := self.Read(off, n)
	if err != nil {
		return 0, err
	}
	copy(p, data)
	return int(n), eof
}

// WriteAt implements io.WriterAt.
func (self *Driver) WriteAt(p []byte, off int64) (int, error) {
	if err := self.Write(off, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
