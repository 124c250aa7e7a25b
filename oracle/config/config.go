// Package config loads the oracle node configuration from <home>/config.toml,
// writing a default file on first use.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/GPTx-global/oraclelink/oracle/log"
)

const FileName = "config.toml"

type Config struct {
	Node   NodeConfig   `toml:"node"`
	Key    KeyConfig    `toml:"key"`
	Worker WorkerConfig `toml:"worker"`
	Fetch  FetchConfig  `toml:"fetch"`
	Submit SubmitConfig `toml:"submit"`
	Health HealthConfig `toml:"health"`
	Log    LogConfig    `toml:"log"`
	home   string
}

type NodeConfig struct {
	// Endpoint is the base URL of the coordinator API.
	Endpoint string `toml:"endpoint"`
	// StartSeq is the event sequence the watcher starts after on a fresh
	// start. The last processed sequence is persisted under home.
	StartSeq uint64 `toml:"start_seq"`
}

type KeyConfig struct {
	MnemonicFile string `toml:"mnemonic_file"`
	HDPath       string `toml:"hd_path"`
}

type WorkerConfig struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

type FetchConfig struct {
	Timeout     time.Duration `toml:"timeout"`
	MaxAttempts int           `toml:"max_attempts"`
	BaseDelay   time.Duration `toml:"base_delay"`
}

type SubmitConfig struct {
	MaxAttempts  int           `toml:"max_attempts"`
	BaseDelay    time.Duration `toml:"base_delay"`
	MaxFailures  int           `toml:"max_failures"`
	ResetTimeout time.Duration `toml:"reset_timeout"`
}

type HealthConfig struct {
	Interval time.Duration `toml:"interval"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	ToFile bool   `toml:"to_file"`
}

func Default() *Config {
	return &Config{
		Node: NodeConfig{
			Endpoint: "http://127.0.0.1:1317",
		},
		Key: KeyConfig{
			MnemonicFile: "mnemonic.txt",
			HDPath:       "m/44'/60'/0'/0/0",
		},
		Worker: WorkerConfig{
			Count:     4,
			QueueSize: 1 << 10,
		},
		Fetch: FetchConfig{
			Timeout:     10 * time.Second,
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
		},
		Submit: SubmitConfig{
			MaxAttempts:  3,
			BaseDelay:    500 * time.Millisecond,
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		Health: HealthConfig{
			Interval: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultHome is ~/.oracled.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".oracled"
	}
	return filepath.Join(home, ".oracled")
}

// Load reads the config file under home, creating it with defaults when it
// does not exist.
func Load(home string) (*Config, error) {
	path := filepath.Join(home, FileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefault(home); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	cfg.home = home

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Infof("Loaded config from %s", path)
	return cfg, nil
}

// WriteDefault writes the default config to home.
func WriteDefault(home string) error {
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", home, err)
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal TOML: %w", err)
	}

	if err := os.WriteFile(filepath.Join(home, FileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Node.Endpoint == "" {
		return fmt.Errorf("node endpoint is required")
	}
	if u, err := url.Parse(c.Node.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("node endpoint must be an http(s) URL: %q", c.Node.Endpoint)
	}
	if c.Key.MnemonicFile == "" {
		return fmt.Errorf("mnemonic file is required")
	}
	if c.Key.HDPath == "" {
		return fmt.Errorf("hd path is required")
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker queue size must be positive")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Fetch.MaxAttempts <= 0 || c.Submit.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.Submit.MaxFailures <= 0 {
		return fmt.Errorf("circuit breaker max failures must be positive")
	}
	if c.Health.Interval <= 0 {
		return fmt.Errorf("health interval must be positive")
	}
	return nil
}

func (c *Config) Home() string {
	return c.home
}

// SetHome points a config built in code at home.
func (c *Config) SetHome(home string) {
	c.home = home
}

// MnemonicPath resolves the mnemonic file relative to home.
func (c *Config) MnemonicPath() string {
	if filepath.IsAbs(c.Key.MnemonicFile) {
		return c.Key.MnemonicFile
	}
	return filepath.Join(c.home, c.Key.MnemonicFile)
}

// CursorPath is the file holding the last processed event sequence.
func (c *Config) CursorPath() string {
	return filepath.Join(c.home, "cursor")
}

func (c *Config) Print() {
	log.Infof("%-15s: %s", "Home", c.home)
	log.Infof("%-15s: %s", "Node Endpoint", c.Node.Endpoint)
	log.Infof("%-15s: %s", "Mnemonic File", c.MnemonicPath())
	log.Infof("%-15s: %s", "HD Path", c.Key.HDPath)
	log.Infof("%-15s: %d", "Workers", c.Worker.Count)
	log.Infof("%-15s: %s", "Fetch Timeout", c.Fetch.Timeout)
	log.Infof("%-15s: %d", "Submit Retries", c.Submit.MaxAttempts)
	log.Infof("%-15s: %s", "Log Level", c.Log.Level)
}
