package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	home := t.TempDir()

	cfg, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, Default().Node, cfg.Node)
	require.Equal(t, home, cfg.Home())
	require.FileExists(t, filepath.Join(home, FileName))
	require.Equal(t, filepath.Join(home, "mnemonic.txt"), cfg.MnemonicPath())
	require.Equal(t, filepath.Join(home, "cursor"), cfg.CursorPath())

	// a second load reads the file written by the first
	again, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, cfg.Fetch, again.Fetch)
}

func TestLoadOverrides(t *testing.T) {
	home := t.TempDir()
	data := []byte(`
[node]
endpoint = "https://coordinator.example:8443"
start_seq = 42

[key]
mnemonic_file = "/etc/oracled/words"

[worker]
count = 8
`)
	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), data, 0644))

	cfg, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, "https://coordinator.example:8443", cfg.Node.Endpoint)
	require.EqualValues(t, 42, cfg.Node.StartSeq)
	require.Equal(t, "/etc/oracled/words", cfg.MnemonicPath())
	require.Equal(t, 8, cfg.Worker.Count)
	// unset keys keep their defaults
	require.Equal(t, Default().Key.HDPath, cfg.Key.HDPath)
	require.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), []byte("[node]\nendpoint = \"ws://x\"\n"), 0644))

	_, err := Load(home)
	require.ErrorContains(t, err, "http(s) URL")

	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), []byte("not toml ["), 0644))
	_, err = Load(home)
	require.ErrorContains(t, err, "failed to parse TOML")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"default", func(*Config) {}, ""},
		{"no endpoint", func(c *Config) { c.Node.Endpoint = "" }, "node endpoint is required"},
		{"no mnemonic", func(c *Config) { c.Key.MnemonicFile = "" }, "mnemonic file is required"},
		{"no hd path", func(c *Config) { c.Key.HDPath = "" }, "hd path is required"},
		{"zero workers", func(c *Config) { c.Worker.Count = 0 }, "worker count"},
		{"zero queue", func(c *Config) { c.Worker.QueueSize = 0 }, "queue size"},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch timeout"},
		{"zero attempts", func(c *Config) { c.Submit.MaxAttempts = 0 }, "max attempts"},
		{"zero failures", func(c *Config) { c.Submit.MaxFailures = 0 }, "max failures"},
		{"zero interval", func(c *Config) { c.Health.Interval = 0 }, "health interval"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tc.errMsg)
			}
		})
	}
}
