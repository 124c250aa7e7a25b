package keeper

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// TransferAndRequest moves amount from requester into custody and creates a
// request against agreementID in one step. A rejected call moves no funds.
func (k *Keeper) TransferAndRequest(
	ctx sdk.Context,
	requester sdk.AccAddress,
	agreementID common.Hash,
	params []byte,
	amount sdkmath.Int,
) (common.Hash, error) {
	agreement, err := k.GetAgreement(ctx, agreementID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := checkPayment(agreement, amount); err != nil {
		return common.Hash{}, err
	}

	var requestID common.Hash
	err = runAtomic(ctx, func(ctx sdk.Context) error {
		if amount.IsPositive() {
			coins := sdk.NewCoins(sdk.NewCoin(k.GetParams(ctx).Denom, amount))
			if err := k.bankKeeper.SendCoins(ctx, requester, k.custody, coins); err != nil {
				return errorsmod.Wrapf(types.ErrInsufficientPayment, "funding transfer failed: %v", err)
			}
			k.addDeposit(ctx, requester, amount)
		}

		var err error
		requestID, err = k.CreateRequest(ctx, agreementID, requester, params, amount)
		return err
	})
	if err != nil {
		return common.Hash{}, err
	}
	return requestID, nil
}

// CreateRequest turns amount of requester's custody deposit into the escrow of a
// new pending request and emits the oracle_request event oracles watch for.
func (k *Keeper) CreateRequest(
	ctx sdk.Context,
	agreementID common.Hash,
	requester sdk.AccAddress,
	params []byte,
	amount sdkmath.Int,
) (common.Hash, error) {
	agreement, err := k.GetAgreement(ctx, agreementID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := checkPayment(agreement, amount); err != nil {
		return common.Hash{}, err
	}
	if err := sdk.VerifyAddressFormat(requester); err != nil {
		return common.Hash{}, errorsmod.Wrapf(types.ErrUnauthorized, "invalid requester: %v", err)
	}

	deposit := k.GetDeposit(ctx, requester)
	if deposit.LT(amount) {
		return common.Hash{}, errorsmod.Wrapf(types.ErrInsufficientPayment, "deposit %s is smaller than payment %s", deposit, amount)
	}

	nonce := k.GetNonce(ctx, requester)
	requestID := k.idGenerator.RequestID(ctx, requester, nonce)
	if k.HasRequest(ctx, requestID) {
		return common.Hash{}, errorsmod.Wrapf(types.ErrRequestIDCollision, "%s", requestID.Hex())
	}

	if agreement.IsMultiOracle() {
		strategy, ok := k.router.GetStrategy(agreement.Aggregator)
		if !ok {
			return common.Hash{}, errorsmod.Wrapf(types.ErrUnknownAggregator, "%s", agreement.Aggregator)
		}
		if err := strategy.OnRequestInitiated(ctx, requestID, agreement); err != nil {
			return common.Hash{}, err
		}
	}

	request := types.Request{
		ID:            requestID,
		Requester:     requester,
		AgreementID:   agreementID,
		Params:        params,
		Payment:       amount,
		Nonce:         nonce,
		DataVersion:   k.GetParams(ctx).DataVersion,
		CreatedHeight: ctx.BlockHeight(),
		CreatedAt:     ctx.BlockTime().Unix(),
		State:         types.RequestStatePending,
	}

	k.setNonce(ctx, requester, nonce+1)
	k.setDeposit(ctx, requester, deposit.Sub(amount))
	k.setEscrowTotal(ctx, k.GetEscrowTotal(ctx).Add(amount))
	k.SetRequest(ctx, request)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeOracleRequest,
			sdk.NewAttribute(types.AttributeKeyRequestID, requestID.Hex()),
			sdk.NewAttribute(types.AttributeKeyAgreementID, agreementID.Hex()),
			sdk.NewAttribute(types.AttributeKeyRequester, requester.String()),
			sdk.NewAttribute(types.AttributeKeyPayment, amount.String()),
			sdk.NewAttribute(types.AttributeKeyDataVersion, strconv.FormatUint(uint64(request.DataVersion), 10)),
			sdk.NewAttribute(types.AttributeKeyParams, hexutil.Encode(params)),
		),
	)

	telemetry.IncrCounter(1, types.ModuleName, "request", "created")
	k.Logger(ctx).Debug("oracle request created", "id", requestID.Hex(), "agreement", agreementID.Hex(), "requester", requester.String())

	return requestID, nil
}

// FulfillOracleRequest accepts value from caller for a pending request. For a
// single-oracle agreement the request completes immediately; otherwise the
// value goes to the agreement's aggregation strategy.
func (k *Keeper) FulfillOracleRequest(ctx sdk.Context, requestID common.Hash, value []byte, caller sdk.AccAddress) error {
	request, found := k.GetRequest(ctx, requestID)
	if !found {
		return errorsmod.Wrapf(types.ErrUnknownRequest, "%s", requestID.Hex())
	}

	agreement, err := k.GetAgreement(ctx, request.AgreementID)
	if err != nil {
		return err
	}
	if !agreement.HasOracle(caller) {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not an oracle of agreement %s", caller, agreement.ID.Hex())
	}
	if !request.IsPending() {
		return errorsmod.Wrapf(types.ErrUnknownRequest, "%s is already %s", requestID.Hex(), request.State)
	}

	if agreement.IsMultiOracle() {
		strategy, ok := k.router.GetStrategy(agreement.Aggregator)
		if !ok {
			return errorsmod.Wrapf(types.ErrUnknownAggregator, "%s", agreement.Aggregator)
		}
		if err := strategy.Submit(ctx, requestID, caller, value); err != nil {
			return err
		}
	} else {
		if err := k.finalize(ctx, request, agreement, value, []sdk.AccAddress{caller}); err != nil {
			return err
		}
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeOracleResponse,
			sdk.NewAttribute(types.AttributeKeyRequestID, requestID.Hex()),
			sdk.NewAttribute(types.AttributeKeyOracle, caller.String()),
		),
	)
	return nil
}

// GetRequest returns the request stored under id.
func (k *Keeper) GetRequest(ctx sdk.Context, id common.Hash) (types.Request, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.GetRequestKey(id))
	if len(bz) == 0 {
		return types.Request{}, false
	}
	var request types.Request
	k.cdc.MustUnmarshal(bz, &request)
	return request, true
}

// HasRequest reports whether id is in use.
func (k *Keeper) HasRequest(ctx sdk.Context, id common.Hash) bool {
	return ctx.KVStore(k.storeKey).Has(types.GetRequestKey(id))
}

// SetRequest stores request.
func (k *Keeper) SetRequest(ctx sdk.Context, request types.Request) {
	ctx.KVStore(k.storeKey).Set(types.GetRequestKey(request.ID), k.cdc.MustMarshal(&request))
}

// IterateRequests calls cb for every request until cb returns true.
func (k *Keeper) IterateRequests(ctx sdk.Context, cb func(request types.Request) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyPrefixRequest)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var request types.Request
		k.cdc.MustUnmarshal(iterator.Value(), &request)
		if cb(request) {
			break
		}
	}
}

// GetNonce returns the number of requests requester has created.
func (k *Keeper) GetNonce(ctx sdk.Context, requester sdk.AccAddress) uint64 {
	return types.BytesToUint64(ctx.KVStore(k.storeKey).Get(types.GetNonceKey(requester)))
}

func (k *Keeper) setNonce(ctx sdk.Context, requester sdk.AccAddress, nonce uint64) {
	ctx.KVStore(k.storeKey).Set(types.GetNonceKey(requester), types.Uint64ToBytes(nonce))
}

func checkPayment(agreement types.ServiceAgreement, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.Equal(agreement.Payment) {
		return errorsmod.Wrapf(types.ErrInsufficientPayment, "funded %s, agreement %s requires %s", amount, agreement.ID.Hex(), agreement.Payment)
	}
	return nil
}
