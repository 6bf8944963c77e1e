package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("listen", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("address", "", "")
	flags.String("abi", "", "")
	flags.StringSlice("events", nil, "")
	flags.Uint64("from", 0, "")
	flags.Duration("poll-interval", 2*time.Second, "")
	flags.Bool("parallel", false, "")
	return flags
}

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.FaultDelay)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Dedup)
	assert.False(t, cfg.Parallel)
	assert.False(t, cfg.CheckpointEnabled)
	assert.Equal(t, 1, cfg.RPCBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Events)
	assert.Nil(t, cfg.FromBlock)
}

func TestLoadExplicitGenesisStart(t *testing.T) {
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--from", "0"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	require.NotNil(t, cfg.FromBlock)
	assert.Equal(t, uint64(0), *cfg.FromBlock)
}

func TestLoadFlagsAndEnv(t *testing.T) {
	t.Setenv("WATCHER_RPC", "http://env:8545")
	t.Setenv("WATCHER_FAULT_DELAY", "9s")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{
		"--address", "0x596E6682c72946AF006B27C131793F2b62527A4b",
		"--abi", "token.json",
		"--events", "Transfer, Approval,",
		"--from", "42",
		"--parallel",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "http://env:8545", cfg.RPCURL)
	assert.Equal(t, 9*time.Second, cfg.FaultDelay)
	assert.Equal(t, []string{"Transfer", "Approval"}, cfg.Events)
	require.NotNil(t, cfg.FromBlock)
	assert.Equal(t, uint64(42), *cfg.FromBlock)
	assert.True(t, cfg.Parallel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watcher.yaml")
	content := "rpc: http://file:8545\naddress: \"0xabc\"\nabi: ./abi.json\nevents:\n  - Transfer\npoll-interval: 500ms\nmetrics-addr: \":9100\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://file:8545", cfg.RPCURL)
	assert.Equal(t, []string{"Transfer"}, cfg.Events)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		RPCURL:       "http://localhost:8545",
		Address:      "0x596E6682c72946AF006B27C131793F2b62527A4b",
		ABIPath:      "abi.json",
		PollInterval: time.Second,
		FaultDelay:   time.Second,
		Console:      true,
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"rpc":       func(c *Config) { c.RPCURL = "" },
		"address":   func(c *Config) { c.Address = "" },
		"abi":       func(c *Config) { c.ABIPath = "" },
		"interval":  func(c *Config) { c.PollInterval = 0 },
		"delay":     func(c *Config) { c.FaultDelay = -time.Second },
		"rate":      func(c *Config) { c.RPCRateLimit = -1 },
		"no output": func(c *Config) { c.Console = false },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCheckpointName(t *testing.T) {
	assert.Equal(t, "56:0xabcdef", CheckpointName("56", "0xABCdef"))
}
