package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	dbm "github.com/tendermint/tm-db"

	"github.com/GPTx-global/oraclelink/app"
)

// ExportCmd prints the current state as genesis JSON.
func ExportCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export state as genesis JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home := v.GetString(flagHome)
			cfg, err := loadConfig(v, home)
			if err != nil {
				return err
			}
			logger, err := newLogger("error")
			if err != nil {
				return err
			}

			genesis, err := app.LoadGenesis(genesisPath(home))
			if err != nil {
				return err
			}
			db, err := dbm.NewDB("application", dbm.BackendType(cfg.DBBackend), filepath.Join(home, "data"))
			if err != nil {
				return err
			}
			a, err := app.New(logger, db, genesis)
			if err != nil {
				_ = db.Close()
				return err
			}
			defer a.Close()

			exported, err := a.ExportGenesis()
			if err != nil {
				return err
			}
			bz, err := json.MarshalIndent(exported, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(bz))
			return nil
		},
	}
}
