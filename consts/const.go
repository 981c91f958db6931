package consts

// Default device geometry.
const DEVICE_SIZE = 8 * 1024 * 1024
const BLOCKSIZE = 4096
const TOTAL_BLOCKS = DEVICE_SIZE / BLOCKSIZE

// The driver gives up on a block after this many write attempts.
const MAX_WRITE_RETRIES = 3

// Probability that a read or write fails when failure simulation is on.
const FAILURE_RATE = 0.05

const LOGGER_NAME = "virtual_block_device"
