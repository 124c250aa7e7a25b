package keeper

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// finalizer is the capability handed to a strategy by SetRouter. It only
// completes requests whose agreement is bound to that strategy.
type finalizer struct {
	keeper     *Keeper
	aggregator types.AggregatorType
}

var _ types.Finalizer = (*finalizer)(nil)

func (f *finalizer) Finalize(ctx sdk.Context, requestID common.Hash, value []byte, payees []sdk.AccAddress) error {
	request, found := f.keeper.GetRequest(ctx, requestID)
	if !found {
		return errorsmod.Wrapf(types.ErrUnknownRequest, "%s", requestID.Hex())
	}
	agreement, err := f.keeper.GetAgreement(ctx, request.AgreementID)
	if err != nil {
		return err
	}
	if !agreement.IsMultiOracle() || agreement.Aggregator != f.aggregator {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s strategy cannot finalize request %s", f.aggregator, requestID.Hex())
	}
	return f.keeper.finalize(ctx, request, agreement, value, payees)
}

// finalize performs the single Pending to Fulfilled transition of request,
// releases its escrow to payees and delivers value to the requester.
func (k *Keeper) finalize(ctx sdk.Context, request types.Request, agreement types.ServiceAgreement, value []byte, payees []sdk.AccAddress) error {
	if !request.IsPending() {
		return errorsmod.Wrapf(types.ErrUnknownRequest, "%s is already %s", request.ID.Hex(), request.State)
	}
	if len(payees) == 0 {
		return errorsmod.Wrap(types.ErrUnauthorized, "no payees")
	}
	for _, payee := range payees {
		if !agreement.HasOracle(payee) {
			return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not an oracle of agreement %s", payee, agreement.ID.Hex())
		}
	}

	request.State = types.RequestStateFulfilled
	request.Result = value
	k.SetRequest(ctx, request)
	k.releaseEscrow(ctx, request.Payment, payees)

	payeeList := make([]string, len(payees))
	for i, p := range payees {
		payeeList[i] = p.String()
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRequestFulfilled,
			sdk.NewAttribute(types.AttributeKeyRequestID, request.ID.Hex()),
			sdk.NewAttribute(types.AttributeKeyValue, hexutil.Encode(value)),
			sdk.NewAttribute(types.AttributeKeyPayees, strings.Join(payeeList, ",")),
			sdk.NewAttribute(types.AttributeKeyPayment, request.Payment.String()),
		),
	)
	telemetry.IncrCounter(1, types.ModuleName, "request", "fulfilled")

	k.deliverCallback(ctx, request, value)
	return nil
}

// releaseEscrow splits payment equally between payees. The remainder of the
// division goes to the first payee.
func (k *Keeper) releaseEscrow(ctx sdk.Context, payment sdkmath.Int, payees []sdk.AccAddress) {
	k.setEscrowTotal(ctx, k.GetEscrowTotal(ctx).Sub(payment))

	n := sdkmath.NewInt(int64(len(payees)))
	share := payment.Quo(n)
	remainder := payment.Sub(share.Mul(n))

	for i, payee := range payees {
		amount := share
		if i == 0 {
			amount = amount.Add(remainder)
		}
		if amount.IsZero() {
			continue
		}
		k.setWithdrawable(ctx, payee, k.GetWithdrawable(ctx, payee).Add(amount))
	}
}

// deliverCallback invokes the requester's program once. A failing or panicking
// callback has its writes discarded; the fulfillment itself stands.
func (k *Keeper) deliverCallback(ctx sdk.Context, request types.Request, value []byte) {
	requester, ok := k.requesters[string(request.Requester)]
	if !ok {
		k.callbackFailed(ctx, request, fmt.Errorf("no requester program registered for %s", request.Requester))
		return
	}

	err := runAtomic(ctx, func(ctx sdk.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("requester callback panicked: %v", r)
			}
		}()
		return requester.FulfillRequest(ctx, k, request.ID, value)
	})
	if err != nil {
		k.callbackFailed(ctx, request, err)
		return
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCallbackDelivered,
			sdk.NewAttribute(types.AttributeKeyRequestID, request.ID.Hex()),
			sdk.NewAttribute(types.AttributeKeyRequester, request.Requester.String()),
		),
	)
}

func (k *Keeper) callbackFailed(ctx sdk.Context, request types.Request, err error) {
	k.Logger(ctx).Error("requester callback failed", "request", request.ID.Hex(), "requester", request.Requester.String(), "err", err)
	telemetry.IncrCounter(1, types.ModuleName, "callback", "failed")

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCallbackFailed,
			sdk.NewAttribute(types.AttributeKeyRequestID, request.ID.Hex()),
			sdk.NewAttribute(types.AttributeKeyRequester, request.Requester.String()),
			sdk.NewAttribute(types.AttributeKeyError, err.Error()),
		),
	)
}
