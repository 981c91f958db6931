/*
vbd -- drive a simulated flash translation layer block device.

vbd builds an in memory device, runs a short script of byte range
operations against it through the driver and prints the device
statistics. It exists to show the pieces working together; nothing is
persisted.

How to install

    $ go install github.com/timtadh/ftl/vbd

Running the demonstration

    $ vbd demo

    Writes "Hello Block Device" at offset 1000, reads it back, trims the
    first block and reads the trimmed range.

Running a random workload

    $ vbd --seed=7 stress --ops=10000

    Issues random reads, writes and trims with failure simulation on,
    checks the device invariants after every operation and prints how
    many writes gave up after exhausting their retries.

Device geometry and failure simulation come from the environment
(FTL_CAPACITY_BYTES, FTL_BLOCK_SIZE, FTL_SIMULATE_FAILURES,
FTL_FAILURE_RATE, FTL_SEED) and can be overridden with flags.

*/
package main
