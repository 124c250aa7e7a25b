package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Balance is the genesis balance of a single address.
type Balance struct {
	Address string    `json:"address"`
	Coins   sdk.Coins `json:"coins"`
}

// GenesisState defines the ledger module's genesis state.
type GenesisState struct {
	Balances []Balance `json:"balances"`
}

// DefaultGenesisState returns an empty ledger.
func DefaultGenesisState() *GenesisState {
	return &GenesisState{Balances: []Balance{}}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	seen := make(map[string]bool, len(gs.Balances))
	for _, b := range gs.Balances {
		if _, err := sdk.AccAddressFromBech32(b.Address); err != nil {
			return fmt.Errorf("invalid balance address %s: %w", b.Address, err)
		}
		if seen[b.Address] {
			return fmt.Errorf("duplicate balance for address %s", b.Address)
		}
		seen[b.Address] = true

		if err := b.Coins.Validate(); err != nil {
			return fmt.Errorf("invalid coins for %s: %w", b.Address, err)
		}
	}
	return nil
}
