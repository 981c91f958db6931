package device

import (
	"context"
)

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stats is a point in time copy of the device counters. The counters
// never decrease. Trims counts USED blocks that became TRIMMED, so
// trimming an unmapped or already trimmed lba does not count.
type Stats struct {
	Reads    uint64
	Writes   uint64
	Trims    uint64
	Failures uint64
}

var (
	meter = otel.Meter("github.com/timtadh/ftl/device")

	opCounter = must(meter.Int64Counter("ftl.device.ops",
		metric.WithDescription("completed block operations")))
	failureCounter = must(meter.Int64Counter("ftl.device.failures",
		metric.WithDescription("failed block operations")))
	reclaimCounter = must(meter.Int64Counter("ftl.device.gc.reclaimed",
		metric.WithDescription("physical blocks reclaimed by garbage collection")))
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

type opKind string

const (
	opRead  opKind = "read"
	opWrite opKind = "write"
	opTrim  opKind = "trim"
)

func (self *Device) recordOp(op opKind) {
	opCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("device_id", self.id),
		attribute.String("op_type", string(op)),
	))
}

func (self *Device) recordFailure(op opKind, reason string) {
	self.stats.Failures++
	failureCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("device_id", self.id),
		attribute.String("op_type", string(op)),
		attribute.String("reason", reason),
	))
}

func (self *Device) recordReclaim(n int) {
	if n == 0 {
		return
	}
	reclaimCounter.Add(context.Background(), int64(n), metric.WithAttributes(
		attribute.String("device_id", self.id),
	))
}
