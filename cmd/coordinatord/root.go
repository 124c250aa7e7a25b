package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/GPTx-global/oraclelink/server"
	guru "github.com/GPTx-global/oraclelink/types"
)

const (
	flagHome     = "home"
	flagLogLevel = "log_level"

	envPrefix = "COORD"
)

// DefaultNodeHome is the default coordinator home directory.
var DefaultNodeHome = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coordinatord"
	}
	return filepath.Join(home, ".coordinatord")
}()

// appConfig is the content of <home>/config/app.toml.
type appConfig struct {
	LogLevel  string        `mapstructure:"log_level"`
	DBBackend string        `mapstructure:"db_backend"`
	API       server.Config `mapstructure:"api"`
}

func configDefaults(v *viper.Viper) {
	api := server.DefaultConfig()
	v.SetDefault("log_level", "info")
	v.SetDefault("db_backend", "goleveldb")
	v.SetDefault("api.address", api.Address)
	v.SetDefault("api.read_timeout", api.ReadTimeout.String())
	v.SetDefault("api.write_timeout", api.WriteTimeout.String())
	v.SetDefault("api.cors_allowed_origins", api.CORSAllowedOrigins)
	v.SetDefault("api.rate_limit", api.RateLimit)
	v.SetDefault("api.rate_burst", api.RateBurst)
	v.SetDefault("api.max_page_size", api.MaxPageSize)
	v.SetDefault("api.enable_faucet", api.EnableFaucet)
	v.SetDefault("api.faucet_amount", api.FaucetAmount)
}

func configPath(home string) string {
	return filepath.Join(home, "config", "app.toml")
}

func genesisPath(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

// NewRootCmd creates the coordinatord root command.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:          "coordinatord",
		Short:        "Service agreement coordinator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			guru.SetBech32Prefixes(sdk.GetConfig())

			v.SetEnvPrefix(envPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			v.AutomaticEnv()
			configDefaults(v)
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String(flagHome, DefaultNodeHome, "directory for config and data")
	rootCmd.PersistentFlags().String(flagLogLevel, "", "log level (debug|info|error), overrides app.toml")

	rootCmd.AddCommand(
		InitCmd(v),
		StartCmd(v),
		ExportCmd(v),
	)
	return rootCmd
}

// loadConfig reads app.toml under home, applying environment overrides.
func loadConfig(v *viper.Viper, home string) (appConfig, error) {
	v.SetConfigFile(configPath(home))
	if err := v.ReadInConfig(); err != nil {
		return appConfig{}, fmt.Errorf("failed to read %s: %w", configPath(home), err)
	}

	var cfg appConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.API.Validate(); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}

func newLogger(level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(logger, opt), nil
}
