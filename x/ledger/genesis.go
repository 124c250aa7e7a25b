package ledger

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/GPTx-global/oraclelink/x/ledger/keeper"
	"github.com/GPTx-global/oraclelink/x/ledger/types"
)

// InitGenesis mints the genesis balances.
func InitGenesis(ctx sdk.Context, k keeper.Keeper, data types.GenesisState) {
	for _, b := range data.Balances {
		addr, err := sdk.AccAddressFromBech32(b.Address)
		if err != nil {
			panic(fmt.Errorf("invalid genesis balance address %s: %w", b.Address, err))
		}
		if b.Coins.Empty() {
			continue
		}
		if err := k.MintCoins(ctx, addr, b.Coins); err != nil {
			panic(fmt.Errorf("failed to mint genesis balance for %s: %w", b.Address, err))
		}
	}
}

// ExportGenesis returns a GenesisState for a given context and keeper.
func ExportGenesis(ctx sdk.Context, k keeper.Keeper) *types.GenesisState {
	byAddr := make(map[string]sdk.Coins)
	var order []string
	k.IterateAllBalances(ctx, func(addr sdk.AccAddress, coin sdk.Coin) bool {
		key := addr.String()
		if _, ok := byAddr[key]; !ok {
			order = append(order, key)
		}
		byAddr[key] = byAddr[key].Add(coin)
		return false
	})

	gs := types.DefaultGenesisState()
	for _, addr := range order {
		gs.Balances = append(gs.Balances, types.Balance{Address: addr, Coins: byAddr[addr]})
	}
	return gs
}
