package keeper

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// ImportRequest restores a request from genesis. Pending payments are added to
// the escrow total and the requester's counter is moved past the nonce.
func (k *Keeper) ImportRequest(ctx sdk.Context, request types.Request) error {
	if err := request.Validate(); err != nil {
		return err
	}
	agreement, err := k.GetAgreement(ctx, request.AgreementID)
	if err != nil {
		return err
	}
	if k.HasRequest(ctx, request.ID) {
		return errorsmod.Wrapf(types.ErrRequestIDCollision, "%s", request.ID.Hex())
	}

	if request.IsPending() {
		if agreement.IsMultiOracle() {
			strategy, ok := k.router.GetStrategy(agreement.Aggregator)
			if !ok {
				return errorsmod.Wrapf(types.ErrUnknownAggregator, "%s", agreement.Aggregator)
			}
			if err := strategy.OnRequestInitiated(ctx, request.ID, agreement); err != nil {
				return err
			}
		}
		k.setEscrowTotal(ctx, k.GetEscrowTotal(ctx).Add(request.Payment))
	}

	if k.GetNonce(ctx, request.Requester) <= request.Nonce {
		k.setNonce(ctx, request.Requester, request.Nonce+1)
	}
	k.SetRequest(ctx, request)
	return nil
}

// ImportWithdrawable restores an oracle's withdrawable balance from genesis.
func (k *Keeper) ImportWithdrawable(ctx sdk.Context, oracle sdk.AccAddress, amount sdkmath.Int) {
	k.setWithdrawable(ctx, oracle, k.GetWithdrawable(ctx, oracle).Add(amount))
}
