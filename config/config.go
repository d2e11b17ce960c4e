// Package config holds the miner configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/spacemeshos/smutil"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/poi-miner/post-miner/protocol"
	"github.com/poi-miner/post-miner/shared"
)

const (
	DefaultDataDirName      = ".poi-miner"
	DefaultConfigFileName   = "config.toml"
	DefaultRPCURL           = "https://solana-rpc.publicnode.com"
	DefaultProgressInterval = 5 * time.Second
	DefaultErrorBackoff     = 10 * time.Second
	DefaultMaxSleep         = 30 * time.Second
	DefaultEpochEndGrace    = 2 * time.Second
	DefaultSimEpochDuration = 600 * time.Second
	DefaultSimDifficulty    = 8

	// EnvPrefix prefixes environment variables overriding configuration keys. POI_MAX_SLEEP sets
	// max-sleep.
	EnvPrefix = "POI"
)

var DefaultDataDir = filepath.Join(smutil.GetUserHomeDirectory(), DefaultDataDirName)

type Config struct {
	Protocol string `mapstructure:"protocol"`

	// Identity is the miner's base58 public key. Keypair takes precedence when set.
	Identity     string `mapstructure:"identity"`
	Keypair      string `mapstructure:"keypair"`
	Recipient    string `mapstructure:"recipient"`
	RPCURL       string `mapstructure:"rpc-url"`
	StateAccount string `mapstructure:"state-account"`
	DataDir      string `mapstructure:"datadir"`

	// Threads is the number of search workers. Zero uses every logical CPU.
	Threads          int           `mapstructure:"threads"`
	MaxAttempts      uint64        `mapstructure:"max-attempts"`
	ProgressInterval time.Duration `mapstructure:"progress-interval"`
	ErrorBackoff     time.Duration `mapstructure:"error-backoff"`
	MaxSleep         time.Duration `mapstructure:"max-sleep"`
	EpochEndGrace    time.Duration `mapstructure:"epoch-end-grace"`
	Journal          bool          `mapstructure:"journal"`

	SimEpochDuration time.Duration `mapstructure:"sim-epoch-duration"`
	SimDifficulty    uint64        `mapstructure:"sim-difficulty"`
}

func DefaultConfig() *Config {
	return &Config{
		Protocol:         protocol.Default,
		RPCURL:           DefaultRPCURL,
		DataDir:          DefaultDataDir,
		ProgressInterval: DefaultProgressInterval,
		ErrorBackoff:     DefaultErrorBackoff,
		MaxSleep:         DefaultMaxSleep,
		EpochEndGrace:    DefaultEpochEndGrace,
		Journal:          true,
		SimEpochDuration: DefaultSimEpochDuration,
		SimDifficulty:    DefaultSimDifficulty,
	}
}

func (cfg *Config) Validate() error {
	if _, err := protocol.Lookup(cfg.Protocol); err != nil {
		return fmt.Errorf("invalid `protocol`: %w", err)
	}
	if cfg.Identity != "" {
		if _, err := shared.ParseIdentity(cfg.Identity); err != nil {
			return fmt.Errorf("invalid `identity`: %w", err)
		}
	}
	if cfg.Recipient != "" {
		if _, err := shared.ParseIdentity(cfg.Recipient); err != nil {
			return fmt.Errorf("invalid `recipient`: %w", err)
		}
	}
	if cfg.StateAccount != "" {
		if _, err := shared.ParseIdentity(cfg.StateAccount); err != nil {
			return fmt.Errorf("invalid `state-account`: %w", err)
		}
	}
	if cfg.Threads < 0 {
		return fmt.Errorf("invalid `threads`; expected: >= 0, given: %d", cfg.Threads)
	}
	if cfg.ProgressInterval <= 0 {
		return fmt.Errorf("invalid `progress-interval`; expected: > 0, given: %s", cfg.ProgressInterval)
	}
	if cfg.ErrorBackoff <= 0 {
		return fmt.Errorf("invalid `error-backoff`; expected: > 0, given: %s", cfg.ErrorBackoff)
	}
	if cfg.MaxSleep <= 0 {
		return fmt.Errorf("invalid `max-sleep`; expected: > 0, given: %s", cfg.MaxSleep)
	}
	if cfg.EpochEndGrace < 0 {
		return fmt.Errorf("invalid `epoch-end-grace`; expected: >= 0, given: %s", cfg.EpochEndGrace)
	}
	if cfg.SimEpochDuration < time.Second {
		return fmt.Errorf("invalid `sim-epoch-duration`; expected: >= 1s, given: %s", cfg.SimEpochDuration)
	}
	return nil
}

// SearchThreads returns the number of search workers to start.
func (cfg *Config) SearchThreads() int {
	if cfg.Threads > 0 {
		return cfg.Threads
	}
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// MinerIdentity resolves the miner's identity from the keypair file or the identity key.
func (cfg *Config) MinerIdentity() (shared.Identity, error) {
	switch {
	case cfg.Keypair != "":
		return shared.LoadIdentity(smutil.GetCanonicalPath(cfg.Keypair))
	case cfg.Identity != "":
		return shared.ParseIdentity(cfg.Identity)
	default:
		return shared.Identity{}, errors.New("no miner identity configured; set `identity` or `keypair`")
	}
}

// RecipientIdentity returns the configured reward recipient, or the zero identity.
func (cfg *Config) RecipientIdentity() (shared.Identity, error) {
	if cfg.Recipient == "" {
		return shared.Identity{}, nil
	}
	return shared.ParseIdentity(cfg.Recipient)
}

// StateAccountIdentity returns the address of the mine state account.
func (cfg *Config) StateAccountIdentity() (shared.Identity, error) {
	if cfg.StateAccount == "" {
		return shared.Identity{}, errors.New("no `state-account` configured")
	}
	return shared.ParseIdentity(cfg.StateAccount)
}

// SetFlags registers a flag per configuration key with the values of cfg as defaults.
func SetFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("protocol", cfg.Protocol, fmt.Sprintf("protocol version (%s)", strings.Join(protocol.Versions(), ", ")))
	flags.String("identity", cfg.Identity, "miner public key, base58")
	flags.String("keypair", cfg.Keypair, "path to the miner keypair file")
	flags.String("recipient", cfg.Recipient, "reward recipient, base58")
	flags.String("rpc-url", cfg.RPCURL, "JSON-RPC endpoint of the cluster")
	flags.String("state-account", cfg.StateAccount, "address of the mine state account, base58")
	flags.String("datadir", cfg.DataDir, "directory holding the journal")
	flags.Int("threads", cfg.Threads, "search threads, 0 for all logical CPUs")
	flags.Uint64("max-attempts", cfg.MaxAttempts, "hash attempts per epoch, 0 for unbounded")
	flags.Duration("progress-interval", cfg.ProgressInterval, "interval between search progress reports")
	flags.Duration("error-backoff", cfg.ErrorBackoff, "delay after a failed remote call")
	flags.Duration("max-sleep", cfg.MaxSleep, "longest single wait while polling the epoch")
	flags.Duration("epoch-end-grace", cfg.EpochEndGrace, "wait past the epoch end before advancing")
	flags.Bool("journal", cfg.Journal, "record solutions and transactions in the local journal")
	flags.Duration("sim-epoch-duration", cfg.SimEpochDuration, "epoch length of the simulated program")
	flags.Uint64("sim-difficulty", cfg.SimDifficulty, "initial difficulty of the simulated program")
}

// Load reads the configuration. Values come, by increasing priority, from the defaults, the
// config file, POI_ environment variables and flags that were set explicitly. A missing config
// file is not an error unless file was given explicitly.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	def := DefaultConfig()
	vip := viper.New()
	setDefaults(vip, def)

	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if flags != nil {
		if err := vip.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	explicit := file != ""
	if !explicit {
		file = filepath.Join(def.DataDir, DefaultConfigFileName)
	}
	vip.SetConfigFile(smutil.GetCanonicalPath(file))
	if err := vip.ReadInConfig(); err != nil && explicit {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := vip.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.DataDir = smutil.GetCanonicalPath(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(vip *viper.Viper, cfg *Config) {
	vip.SetDefault("protocol", cfg.Protocol)
	vip.SetDefault("identity", cfg.Identity)
	vip.SetDefault("keypair", cfg.Keypair)
	vip.SetDefault("recipient", cfg.Recipient)
	vip.SetDefault("rpc-url", cfg.RPCURL)
	vip.SetDefault("state-account", cfg.StateAccount)
	vip.SetDefault("datadir", cfg.DataDir)
	vip.SetDefault("threads", cfg.Threads)
	vip.SetDefault("max-attempts", cfg.MaxAttempts)
	vip.SetDefault("progress-interval", cfg.ProgressInterval)
	vip.SetDefault("error-backoff", cfg.ErrorBackoff)
	vip.SetDefault("max-sleep", cfg.MaxSleep)
	vip.SetDefault("epoch-end-grace", cfg.EpochEndGrace)
	vip.SetDefault("journal", cfg.Journal)
	vip.SetDefault("sim-epoch-duration", cfg.SimEpochDuration)
	vip.SetDefault("sim-difficulty", cfg.SimDifficulty)
}
