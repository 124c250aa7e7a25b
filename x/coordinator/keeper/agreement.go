package keeper

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// RegisterAgreement validates and stores agreement. The id is derived from the
// content, so registering the same content twice fails.
func (k *Keeper) RegisterAgreement(ctx sdk.Context, agreement types.ServiceAgreement) (common.Hash, error) {
	agreement.ID = agreement.ComputeID()
	if err := agreement.Validate(); err != nil {
		return common.Hash{}, err
	}
	if agreement.IsMultiOracle() {
		if _, ok := k.router.GetStrategy(agreement.Aggregator); !ok {
			return common.Hash{}, errorsmod.Wrapf(types.ErrUnknownAggregator, "%s", agreement.Aggregator)
		}
	}
	if k.HasAgreement(ctx, agreement.ID) {
		return common.Hash{}, errorsmod.Wrapf(types.ErrDuplicateAgreement, "%s", agreement.ID.Hex())
	}

	k.setAgreement(ctx, agreement)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeAgreementRegistered,
			sdk.NewAttribute(types.AttributeKeyAgreementID, agreement.ID.Hex()),
			sdk.NewAttribute(types.AttributeKeyOracles, agreement.OracleList()),
			sdk.NewAttribute(types.AttributeKeyAggregator, agreement.Aggregator.String()),
			sdk.NewAttribute(types.AttributeKeyQuorum, strconv.FormatUint(uint64(agreement.EffectiveQuorum()), 10)),
			sdk.NewAttribute(types.AttributeKeyPayment, agreement.Payment.String()),
		),
	)

	k.Logger(ctx).Info("service agreement registered", "id", agreement.ID.Hex(), "oracles", len(agreement.Oracles))
	return agreement.ID, nil
}

// GetAgreement returns the agreement registered under id.
func (k *Keeper) GetAgreement(ctx sdk.Context, id common.Hash) (types.ServiceAgreement, error) {
	bz := ctx.KVStore(k.storeKey).Get(types.GetAgreementKey(id))
	if len(bz) == 0 {
		return types.ServiceAgreement{}, errorsmod.Wrapf(types.ErrUnknownAgreement, "%s", id.Hex())
	}
	var agreement types.ServiceAgreement
	k.cdc.MustUnmarshal(bz, &agreement)
	return agreement, nil
}

// HasAgreement reports whether id is registered.
func (k *Keeper) HasAgreement(ctx sdk.Context, id common.Hash) bool {
	return ctx.KVStore(k.storeKey).Has(types.GetAgreementKey(id))
}

// IterateAgreements calls cb for every agreement until cb returns true.
func (k *Keeper) IterateAgreements(ctx sdk.Context, cb func(agreement types.ServiceAgreement) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyPrefixAgreement)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var agreement types.ServiceAgreement
		k.cdc.MustUnmarshal(iterator.Value(), &agreement)
		if cb(agreement) {
			break
		}
	}
}

// GetAllAgreements returns every registered agreement.
func (k *Keeper) GetAllAgreements(ctx sdk.Context) []types.ServiceAgreement {
	agreements := []types.ServiceAgreement{}
	k.IterateAgreements(ctx, func(agreement types.ServiceAgreement) bool {
		agreements = append(agreements, agreement)
		return false
	})
	return agreements
}

func (k *Keeper) setAgreement(ctx sdk.Context, agreement types.ServiceAgreement) {
	ctx.KVStore(k.storeKey).Set(types.GetAgreementKey(agreement.ID), k.cdc.MustMarshal(&agreement))
}
