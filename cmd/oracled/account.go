package main

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/GPTx-global/oraclelink/oracle/client"
	"github.com/GPTx-global/oraclelink/oracle/config"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

func newClient(cfg *config.Config) (*client.Client, error) {
	return client.New(cfg.Node.Endpoint, cfg.Fetch.Timeout)
}

func printJSON(cmd *cobra.Command, v any) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(bz))
	return nil
}

// AccountCmd prints the oracle's balances and withdrawable earnings.
func AccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Query the oracle account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, key, err := loadKey(cmd)
			if err != nil {
				return err
			}
			c, err := newClient(cfg)
			if err != nil {
				return err
			}
			acc, err := c.Account(contextOf(cmd), key.Address())
			if err != nil {
				return err
			}
			return printJSON(cmd, acc)
		},
	}
}

// WithdrawCmd moves earned payments into the oracle's balance.
func WithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw [amount]",
		Short: "Withdraw earned payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, ok := sdkmath.NewIntFromString(args[0])
			if !ok || !amount.IsPositive() {
				return fmt.Errorf("invalid amount %q", args[0])
			}

			cfg, key, err := loadKey(cmd)
			if err != nil {
				return err
			}
			c, err := newClient(cfg)
			if err != nil {
				return err
			}

			ctx := contextOf(cmd)
			health, err := c.Health(ctx)
			if err != nil {
				return err
			}
			current, err := c.Account(ctx, key.Address())
			if err != nil {
				return err
			}

			digest := coordinatortypes.WithdrawalDigest(health.ChainID, key.Address(), current.WithdrawSequence, amount)
			sig, err := key.Sign(digest)
			if err != nil {
				return err
			}
			acc, err := c.Withdraw(ctx, key.Address(), amount, sig)
			if err != nil {
				return err
			}
			return printJSON(cmd, acc)
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
