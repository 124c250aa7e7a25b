package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GPTx-global/oraclelink/app"
)

const (
	flagOverwrite    = "overwrite"
	flagEnableFaucet = "enable-faucet"
)

// InitCmd writes a default app.toml and an empty genesis for chain-id.
func InitCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [chain-id]",
		Short: "Initialize the coordinator home directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home := v.GetString(flagHome)
			overwrite, _ := cmd.Flags().GetBool(flagOverwrite)

			if err := os.MkdirAll(filepath.Join(home, "config"), 0755); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Join(home, "data"), 0755); err != nil {
				return err
			}

			if _, err := os.Stat(genesisPath(home)); err == nil && !overwrite {
				return fmt.Errorf("genesis.json already exists in %s, use --%s", home, flagOverwrite)
			}

			out := viper.New()
			configDefaults(out)
			if enable, _ := cmd.Flags().GetBool(flagEnableFaucet); enable {
				out.Set("api.enable_faucet", true)
			}
			if err := out.WriteConfigAs(configPath(home)); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			gs := app.DefaultGenesisState(args[0])
			if err := gs.Validate(); err != nil {
				return err
			}
			if err := gs.Save(genesisPath(home)); err != nil {
				return err
			}

			cmd.Printf("initialized %s in %s\n", args[0], home)
			return nil
		},
	}

	cmd.Flags().Bool(flagOverwrite, false, "overwrite an existing genesis.json")
	cmd.Flags().Bool(flagEnableFaucet, false, "enable the faucet endpoint")
	return cmd
}
