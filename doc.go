/*
Flash Translation Layer simulator

ftl simulates a block addressable storage device with an indirection
layer between logical and physical addresses, in the manner of the
translation layer inside an SSD. Clients address logical blocks (LBAs);
the device maps each one onto a physical block (PBA) and moves it on
every overwrite. Deleted data is trimmed rather than erased and is
reclaimed by garbage collection when the device runs out of free
blocks. Physical blocks can be fenced off as bad, and reads and writes
can be made to fail transiently so that retry logic can be exercised.

The major components of this project:

1. blockstate - the per physical block lifecycle (FREE, USED, TRIMMED,
BAD).

2. mapping - the bidirectional LBA <-> PBA table.

3. alloc - free block allocation and garbage collection.

4. fmap - the raw media, an anonymous memory mapping.

5. device - ties the above together behind ReadBlock, WriteBlock,
TrimBlock and MarkBlockBad, injects failures and keeps statistics.

6. driver - reads, writes and trims arbitrary byte ranges on top of a
device, retrying transient write failures.

7. errors - error kinds which separate transient failures from
permanent ones. Every error carries a stack trace.

8. vbd - a small command line demonstration.

*/
package ftl
