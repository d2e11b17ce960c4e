package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/poi-miner/post-miner/config"
	"github.com/poi-miner/post-miner/protocol"
	"github.com/poi-miner/post-miner/shared"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, protocol.Default, cfg.Protocol)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"unknown protocol", func(c *config.Config) { c.Protocol = "v1.0" }},
		{"bad identity", func(c *config.Config) { c.Identity = "0OIl" }},
		{"bad recipient", func(c *config.Config) { c.Recipient = "abc" }},
		{"bad state account", func(c *config.Config) { c.StateAccount = "0" }},
		{"negative threads", func(c *config.Config) { c.Threads = -1 }},
		{"zero progress interval", func(c *config.Config) { c.ProgressInterval = 0 }},
		{"zero backoff", func(c *config.Config) { c.ErrorBackoff = 0 }},
		{"zero max sleep", func(c *config.Config) { c.MaxSleep = 0 }},
		{"negative grace", func(c *config.Config) { c.EpochEndGrace = -time.Second }},
		{"short sim epoch", func(c *config.Config) { c.SimEpochDuration = time.Millisecond }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.modify(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestSearchThreads(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Threads = 3
	require.Equal(t, 3, cfg.SearchThreads())

	cfg.Threads = 0
	require.GreaterOrEqual(t, cfg.SearchThreads(), 1)
	require.LessOrEqual(t, cfg.SearchThreads(), 4*runtime.NumCPU())
}

func TestIdentities(t *testing.T) {
	r := require.New(t)
	cfg := config.DefaultConfig()

	_, err := cfg.MinerIdentity()
	r.Error(err)
	_, err = cfg.StateAccountIdentity()
	r.Error(err)
	recipient, err := cfg.RecipientIdentity()
	r.NoError(err)
	r.True(recipient.IsZero())

	id := shared.Identity{1, 2, 3}
	cfg.Identity = id.String()
	cfg.Recipient = shared.Identity{4}.String()
	cfg.StateAccount = shared.Identity{5}.String()
	r.NoError(cfg.Validate())

	got, err := cfg.MinerIdentity()
	r.NoError(err)
	r.Equal(id, got)
	recipient, err = cfg.RecipientIdentity()
	r.NoError(err)
	r.Equal(shared.Identity{4}, recipient)
	account, err := cfg.StateAccountIdentity()
	r.NoError(err)
	r.Equal(shared.Identity{5}, account)

	cfg.Keypair = filepath.Join(t.TempDir(), "missing.json")
	_, err = cfg.MinerIdentity()
	r.Error(err)
}

func TestLoad(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "miner.toml")
	content := `
protocol = "v3.0"
threads = 2
max-sleep = "15s"
journal = false
`
	r.NoError(os.WriteFile(file, []byte(content), 0o600))
	t.Setenv("POI_ERROR_BACKOFF", "3s")
	t.Setenv("POI_THREADS", "5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.SetFlags(flags, config.DefaultConfig())
	r.NoError(flags.Parse([]string{"--max-attempts=1000", "--datadir", dir}))

	cfg, err := config.Load(file, flags)
	r.NoError(err)
	r.Equal(protocol.V3, cfg.Protocol)
	r.Equal(5, cfg.Threads)
	r.Equal(15*time.Second, cfg.MaxSleep)
	r.Equal(3*time.Second, cfg.ErrorBackoff)
	r.Equal(uint64(1000), cfg.MaxAttempts)
	r.Equal(dir, cfg.DataDir)
	r.False(cfg.Journal)
	r.Equal(config.DefaultEpochEndGrace, cfg.EpochEndGrace)
	r.Equal(config.DefaultRPCURL, cfg.RPCURL)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, config.DefaultErrorBackoff, cfg.ErrorBackoff)
	require.Equal(t, protocol.Default, cfg.Protocol)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(file, []byte(`protocol = "v9"`), 0o600))
	_, err = config.Load(file, nil)
	require.Error(t, err)
}
