package device

import "testing"

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timtadh/ftl/consts"
	"github.com/timtadh/ftl/errors"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, consts.TOTAL_BLOCKS, cfg.TotalBlocks())
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("FTL_CAPACITY_BYTES", "32")
	t.Setenv("FTL_BLOCK_SIZE", "4")
	t.Setenv("FTL_SIMULATE_FAILURES", "false")
	t.Setenv("FTL_FAILURE_RATE", "0.5")
	t.Setenv("FTL_SEED", "9")
	cfg, err := ParseConfig()
	require.NoError(t, err)
	assert.Equal(t, Config{
		CapacityBytes:    32,
		BlockSize:        4,
		SimulateFailures: false,
		FailureRate:      0.5,
		Seed:             9,
	}, cfg)
	assert.Equal(t, 8, cfg.TotalBlocks())
}

func TestParseConfigRejectsUnevenCapacity(t *testing.T) {
	t.Setenv("FTL_CAPACITY_BYTES", "30")
	t.Setenv("FTL_BLOCK_SIZE", "4")
	_, err := ParseConfig()
	assert.True(t, errors.Is(err, errors.Invalid))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureRate = 2
	assert.True(t, errors.Is(cfg.Validate(), errors.Invalid))
	cfg = DefaultConfig()
	cfg.BlockSize = -1
	assert.True(t, errors.Is(cfg.Validate(), errors.Invalid))
	require.NoError(t, DefaultConfig().Validate())
}
