package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Driver)
	assert.Equal(t, 50, cfg.DefaultTimerTickMs)
	assert.False(t, cfg.Verbose)
}

func TestLoadFlagOverridesDefault(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--driver=select", "--verbose"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "select", cfg.Driver)
	assert.True(t, cfg.Verbose)
}
