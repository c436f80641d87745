package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "naive", cfg.Strategy.Kind)
	assert.Equal(t, 4096, cfg.Strategy.RingCapacity)
	assert.Equal(t, 5, cfg.Live.CheckpointIntervalSeconds)
}

func TestLoadMergesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	yaml := []byte("strategy:\n  kind: ev_maker\n  half_spread: \"2\"\nlive:\n  max_orders_per_second: 10\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	*configFile = path
	defer func() { *configFile = "" }()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ev_maker", cfg.Strategy.Kind)
	assert.Equal(t, "2", cfg.Strategy.HalfSpread)
	assert.Equal(t, 10.0, cfg.Live.MaxOrdersPerSecond)
}
