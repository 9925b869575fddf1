package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"
)

// Config holds the application configuration
type Config struct {
	Node      NodeConfig      `toml:"node"`
	Genesis   GenesisConfig   `toml:"genesis"`
	Dispatch  DispatchConfig  `toml:"dispatch"`
	Chain     ChainConfig     `toml:"chain"`
	Verify    VerifyConfig    `toml:"verify"`
	Scenarios ScenariosConfig `toml:"scenarios"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// NodeConfig points at the node under test
type NodeConfig struct {
	RPCURL string `toml:"rpc_url"`
}

// GenesisConfig holds the key of the genesis-controlled funding account
type GenesisConfig struct {
	PrivateKey string `toml:"private_key"`
}

// DispatchConfig bounds inclusion waits and block production
type DispatchConfig struct {
	ReceiptTimeout string `toml:"receipt_timeout"`
	PollInterval   string `toml:"poll_interval"`
	FundTimeout    string `toml:"fund_timeout"`
	ExtraBlocks    int    `toml:"extra_blocks"`
}

// ChainConfig names the node's test-only chain-control methods
type ChainConfig struct {
	BestHeadMethod    string `toml:"best_head_method"`
	CustomBlockMethod string `toml:"custom_block_method"`
	EmptyBlocksMethod string `toml:"empty_blocks_method"`
}

// VerifyConfig tunes difference reporting
type VerifyConfig struct {
	ShortCodeThreshold int `toml:"short_code_threshold"`
}

// ScenariosConfig adjusts built-in scenario expectations to the node
type ScenariosConfig struct {
	// ResolveDelegatedCode expects a delegated account to report its
	// delegate's code instead of the 0xef0100 delegation designator that
	// EIP-7702 nodes return. Enable it for nodes that resolve delegations
	// in their code queries.
	ResolveDelegatedCode bool `toml:"resolve_delegated_code"`
}

// DatabaseConfig holds database paths
type DatabaseConfig struct {
	HistoryPath string `toml:"history_path"`
}

// ServerConfig holds the history API listen address
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// LogConfig holds the logrus level name
type LogConfig struct {
	Level string `toml:"level"`
}

// Dir returns the default configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %v", err)
	}
	return filepath.Join(home, ".state-conformance"), nil
}

// DefaultConfig returns a configuration rooted at dir
func DefaultConfig(dir string) Config {
	return Config{
		Node: NodeConfig{RPCURL: "http://127.0.0.1:8545"},
		Dispatch: DispatchConfig{
			ReceiptTimeout: "1s",
			PollInterval:   "500ms",
			FundTimeout:    "120s",
			ExtraBlocks:    4,
		},
		Chain: ChainConfig{
			BestHeadMethod:    "cfx_getBestBlockHash",
			CustomBlockMethod: "test_generateCustomBlock",
			EmptyBlocksMethod: "test_generateEmptyBlocks",
		},
		Verify:   VerifyConfig{ShortCodeThreshold: 100},
		Database: DatabaseConfig{HistoryPath: filepath.Join(dir, "data", "history_db")},
		Server:   ServerConfig{ListenAddr: ":11111"},
		Log:      LogConfig{Level: "info"},
	}
}

// LoadConfig reads from config.toml and returns Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	file, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}

	err = toml.Unmarshal(file, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}

	cfg.fillDefaults(DefaultConfig(filepath.Dir(path)))
	return cfg, nil
}

// fillDefaults sets every key missing from the file to its value in def.
// Booleans and the genesis key have no default.
func (c *Config) fillDefaults(def Config) {
	setString := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	setString(&c.Node.RPCURL, def.Node.RPCURL)
	setString(&c.Dispatch.ReceiptTimeout, def.Dispatch.ReceiptTimeout)
	setString(&c.Dispatch.PollInterval, def.Dispatch.PollInterval)
	setString(&c.Dispatch.FundTimeout, def.Dispatch.FundTimeout)
	if c.Dispatch.ExtraBlocks <= 0 {
		c.Dispatch.ExtraBlocks = def.Dispatch.ExtraBlocks
	}
	setString(&c.Chain.BestHeadMethod, def.Chain.BestHeadMethod)
	setString(&c.Chain.CustomBlockMethod, def.Chain.CustomBlockMethod)
	setString(&c.Chain.EmptyBlocksMethod, def.Chain.EmptyBlocksMethod)
	if c.Verify.ShortCodeThreshold <= 0 {
		c.Verify.ShortCodeThreshold = def.Verify.ShortCodeThreshold
	}
	setString(&c.Database.HistoryPath, def.Database.HistoryPath)
	setString(&c.Server.ListenAddr, def.Server.ListenAddr)
	setString(&c.Log.Level, def.Log.Level)
}

// Save writes the configuration to path
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}
	return nil
}

// ReceiptTimeoutDuration is the inclusion bound of a single dispatched
// transaction.
func (d DispatchConfig) ReceiptTimeoutDuration() (time.Duration, error) {
	return parseDuration("receipt_timeout", d.ReceiptTimeout)
}

func (d DispatchConfig) PollIntervalDuration() (time.Duration, error) {
	return parseDuration("poll_interval", d.PollInterval)
}

// FundTimeoutDuration is the inclusion bound of funding and deployment.
func (d DispatchConfig) FundTimeoutDuration() (time.Duration, error) {
	return parseDuration("fund_timeout", d.FundTimeout)
}

// parseDuration treats an empty value as unset.
func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid dispatch.%s %q: %v", key, value, err)
	}
	return d, nil
}
