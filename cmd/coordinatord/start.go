package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	dbm "github.com/tendermint/tm-db"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/server"
)

// StartCmd runs the coordinator and its API until interrupted.
func StartCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the coordinator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home := v.GetString(flagHome)
			cfg, err := loadConfig(v, home)
			if err != nil {
				return err
			}

			level := cfg.LogLevel
			if override := v.GetString(flagLogLevel); override != "" {
				level = override
			}
			logger, err := newLogger(level)
			if err != nil {
				return err
			}

			genesis, err := app.LoadGenesis(genesisPath(home))
			if err != nil {
				return err
			}

			db, err := dbm.NewDB("application", dbm.BackendType(cfg.DBBackend), filepath.Join(home, "data"))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}

			a, err := app.New(logger, db, genesis)
			if err != nil {
				_ = db.Close()
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Error("failed to close app", "err", err)
				}
			}()

			api, err := server.New(a, cfg.API, logger.With("module", "api"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting coordinator", "chain_id", a.ChainID(), "height", a.LastHeight(), "api", cfg.API.Address)
			return api.Start(ctx)
		},
	}
	return cmd
}
