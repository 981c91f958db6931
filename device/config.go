package device

import (
	"github.com/caarlos0/env/v11"
)

import (
	"github.com/timtadh/ftl/consts"
	"github.com/timtadh/ftl/errors"
)

type Config struct {
	CapacityBytes    int64   `env:"FTL_CAPACITY_BYTES"    envDefault:"8388608"`
	BlockSize        int     `env:"FTL_BLOCK_SIZE"        envDefault:"4096"`
	SimulateFailures bool    `env:"FTL_SIMULATE_FAILURES" envDefault:"true"`
	FailureRate      float64 `env:"FTL_FAILURE_RATE"      envDefault:"0.05"`
	// Seed for the random failure source. Zero seeds from the clock.
	Seed int64 `env:"FTL_SEED"`
}

func DefaultConfig() Config {
	return Config{
		CapacityBytes:    consts.DEVICE_SIZE,
		BlockSize:        consts.BLOCKSIZE,
		SimulateFailures: true,
		FailureRate:      consts.FAILURE_RATE,
	}
}

// ParseConfig reads the configuration from the environment.
func ParseConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Wrap(errors.Invalid, err, "could not parse device config")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.BlockSize <= 0 {
		return errors.Errorf(errors.Invalid, "block size must be positive, got %d", c.BlockSize)
	}
	if c.CapacityBytes <= 0 {
		return errors.Errorf(errors.Invalid, "capacity must be positive, got %d", c.CapacityBytes)
	}
	if c.CapacityBytes%int64(c.BlockSize) != 0 {
		return errors.Errorf(errors.Invalid, "capacity %d is not a multiple of the block size %d", c.CapacityBytes, c.BlockSize)
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return errors.Errorf(errors.Invalid, "failure rate must be within [0, 1], got %v", c.FailureRate)
	}
	return nil
}

func (c Config) TotalBlocks() int {
	return int(c.CapacityBytes / int64(c.BlockSize))
}
