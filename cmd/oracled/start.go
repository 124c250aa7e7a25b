package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GPTx-global/oraclelink/oracle/daemon"
	"github.com/GPTx-global/oraclelink/oracle/log"
)

// StartCmd runs the oracle daemon until interrupted.
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the oracle daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, key, err := loadKey(cmd)
			if err != nil {
				return err
			}

			log.SetLevel(cfg.Log.Level)
			if cfg.Log.ToFile {
				if err := log.ResetLogger(cfg.Home()); err != nil {
					return err
				}
			}
			cfg.Print()

			d, err := daemon.New(cfg, key)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Infof("oracle %s started", d.Address())
			return d.Run(ctx)
		},
	}
}
