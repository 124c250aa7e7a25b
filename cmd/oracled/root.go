package main

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/GPTx-global/oraclelink/oracle/config"
	"github.com/GPTx-global/oraclelink/oracle/keys"
	guru "github.com/GPTx-global/oraclelink/types"
)

const flagHome = "home"

// NewRootCmd creates the oracled root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "oracled",
		Short:        "Oracle node for service agreements",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			guru.SetBech32Prefixes(sdk.GetConfig())
		},
	}
	rootCmd.PersistentFlags().String(flagHome, config.DefaultHome(), "oracle node home directory")

	rootCmd.AddCommand(
		InitCmd(),
		ShowAddressCmd(),
		StartCmd(),
		AccountCmd(),
		WithdrawCmd(),
	)
	return rootCmd
}

func homeFlag(cmd *cobra.Command) string {
	home, _ := cmd.Flags().GetString(flagHome)
	return home
}

// loadKey reads config and key from the home directory.
func loadKey(cmd *cobra.Command) (*config.Config, *keys.Key, error) {
	cfg, err := config.Load(homeFlag(cmd))
	if err != nil {
		return nil, nil, err
	}
	key, err := keys.Load(cfg.MnemonicPath(), cfg.Key.HDPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, key, nil
}

// InitCmd writes a default config and a fresh mnemonic.
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create config.toml and a signing mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home := homeFlag(cmd)
			cfg, err := config.Load(home)
			if err != nil {
				return err
			}
			mnemonic, err := keys.WriteMnemonic(cfg.MnemonicPath())
			if err != nil {
				return err
			}
			key, err := keys.FromMnemonic(mnemonic, cfg.Key.HDPath)
			if err != nil {
				return err
			}
			cmd.Printf("home: %s\naddress: %s\n", home, key.Address())
			return nil
		},
	}
}

// ShowAddressCmd prints the oracle address.
func ShowAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-address",
		Short: "Print the oracle account address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, key, err := loadKey(cmd)
			if err != nil {
				return err
			}
			cmd.Println(key.Address().String())
			return nil
		},
	}
}
