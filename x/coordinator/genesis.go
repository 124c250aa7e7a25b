package coordinator

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/GPTx-global/oraclelink/x/coordinator/keeper"
	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// InitGenesis loads the coordinator state. Pending multi-oracle requests get a
// fresh aggregation round.
func InitGenesis(ctx sdk.Context, k *keeper.Keeper, data types.GenesisState) {
	if err := data.Validate(); err != nil {
		panic(errorsmod.Wrapf(err, "invalid %s genesis", types.ModuleName))
	}
	if err := k.SetParams(ctx, data.Params); err != nil {
		panic(errorsmod.Wrapf(err, "error setting params"))
	}

	for _, agreement := range data.Agreements {
		if _, err := k.RegisterAgreement(ctx, agreement); err != nil {
			panic(errorsmod.Wrapf(err, "error registering agreement %s", agreement.ID.Hex()))
		}
	}

	for _, request := range data.Requests {
		if err := k.ImportRequest(ctx, request); err != nil {
			panic(errorsmod.Wrapf(err, "error importing request %s", request.ID.Hex()))
		}
	}

	for _, w := range data.Withdrawables {
		oracle, err := sdk.AccAddressFromBech32(w.Oracle)
		if err != nil {
			panic(fmt.Errorf("invalid withdrawable oracle %s: %w", w.Oracle, err))
		}
		k.ImportWithdrawable(ctx, oracle, w.Amount)
	}

	for _, ws := range data.WithdrawSequences {
		oracle, err := sdk.AccAddressFromBech32(ws.Oracle)
		if err != nil {
			panic(fmt.Errorf("invalid withdraw sequence oracle %s: %w", ws.Oracle, err))
		}
		k.SetWithdrawSequence(ctx, oracle, ws.Sequence)
	}
}

// ExportGenesis returns a GenesisState for a given context and keeper.
func ExportGenesis(ctx sdk.Context, k *keeper.Keeper) *types.GenesisState {
	requests := []types.Request{}
	k.IterateRequests(ctx, func(request types.Request) bool {
		requests = append(requests, request)
		return false
	})

	withdrawables := []types.Withdrawable{}
	k.IterateWithdrawables(ctx, func(oracle sdk.AccAddress, amount sdkmath.Int) bool {
		withdrawables = append(withdrawables, types.Withdrawable{Oracle: oracle.String(), Amount: amount})
		return false
	})

	sequences := []types.WithdrawSequence{}
	k.IterateWithdrawSequences(ctx, func(oracle sdk.AccAddress, sequence uint64) bool {
		sequences = append(sequences, types.WithdrawSequence{Oracle: oracle.String(), Sequence: sequence})
		return false
	})

	gs := types.NewGenesisState(k.GetParams(ctx), k.GetAllAgreements(ctx), requests, withdrawables).
		WithWithdrawSequences(sequences)
	return &gs
}
