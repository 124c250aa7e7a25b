package keeper

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// GetEscrowTotal returns the sum of payments held for pending requests.
func (k *Keeper) GetEscrowTotal(ctx sdk.Context) sdkmath.Int {
	return k.getInt(ctx, types.KeyEscrowTotal)
}

func (k *Keeper) setEscrowTotal(ctx sdk.Context, amount sdkmath.Int) {
	k.setInt(ctx, types.KeyEscrowTotal, amount)
}

// GetDeposit returns the part of requester's custody balance not yet assigned
// to a request. Deposits are only credited by TransferAndRequest, which turns
// the credit into escrow in the same call, so the deposit is zero whenever a
// call is not running and genesis does not carry it.
func (k *Keeper) GetDeposit(ctx sdk.Context, requester sdk.AccAddress) sdkmath.Int {
	return k.getInt(ctx, types.GetDepositKey(requester))
}

func (k *Keeper) setDeposit(ctx sdk.Context, requester sdk.AccAddress, amount sdkmath.Int) {
	k.setInt(ctx, types.GetDepositKey(requester), amount)
}

func (k *Keeper) addDeposit(ctx sdk.Context, requester sdk.AccAddress, amount sdkmath.Int) {
	k.setDeposit(ctx, requester, k.GetDeposit(ctx, requester).Add(amount))
}

// GetWithdrawable returns oracle's released, not yet withdrawn earnings.
func (k *Keeper) GetWithdrawable(ctx sdk.Context, oracle sdk.AccAddress) sdkmath.Int {
	return k.getInt(ctx, types.GetWithdrawableKey(oracle))
}

func (k *Keeper) setWithdrawable(ctx sdk.Context, oracle sdk.AccAddress, amount sdkmath.Int) {
	k.setInt(ctx, types.GetWithdrawableKey(oracle), amount)
}

// IterateWithdrawables calls cb for every oracle with a withdrawable balance.
func (k *Keeper) IterateWithdrawables(ctx sdk.Context, cb func(oracle sdk.AccAddress, amount sdkmath.Int) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyPrefixWithdrawable)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		key := iterator.Key()
		oracle := sdk.AccAddress(key[1 : 1+int(key[0])])
		if cb(oracle, unmarshalInt(iterator.Value())) {
			break
		}
	}
}

// GetWithdrawSequence returns the number of withdrawals oracle has made.
func (k *Keeper) GetWithdrawSequence(ctx sdk.Context, oracle sdk.AccAddress) uint64 {
	return types.BytesToUint64(ctx.KVStore(k.storeKey).Get(types.GetWithdrawSequenceKey(oracle)))
}

// SetWithdrawSequence stores oracle's withdrawal counter.
func (k *Keeper) SetWithdrawSequence(ctx sdk.Context, oracle sdk.AccAddress, sequence uint64) {
	ctx.KVStore(k.storeKey).Set(types.GetWithdrawSequenceKey(oracle), types.Uint64ToBytes(sequence))
}

// IterateWithdrawSequences calls cb for every oracle that has withdrawn.
func (k *Keeper) IterateWithdrawSequences(ctx sdk.Context, cb func(oracle sdk.AccAddress, sequence uint64) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyPrefixWithdrawSequence)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		key := iterator.Key()
		oracle := sdk.AccAddress(key[1 : 1+int(key[0])])
		if cb(oracle, types.BytesToUint64(iterator.Value())) {
			break
		}
	}
}

// Withdraw pays amount of oracle's earnings out of custody and advances the
// oracle's withdrawal sequence.
func (k *Keeper) Withdraw(ctx sdk.Context, oracle sdk.AccAddress, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInsufficientWithdrawable, "amount must be positive")
	}
	available := k.GetWithdrawable(ctx, oracle)
	if available.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficientWithdrawable, "requested %s, available %s", amount, available)
	}

	coins := sdk.NewCoins(sdk.NewCoin(k.GetParams(ctx).Denom, amount))
	if err := k.bankKeeper.SendCoins(ctx, k.custody, oracle, coins); err != nil {
		return err
	}
	k.setWithdrawable(ctx, oracle, available.Sub(amount))
	sequence := k.GetWithdrawSequence(ctx, oracle) + 1
	k.SetWithdrawSequence(ctx, oracle, sequence)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdraw,
			sdk.NewAttribute(types.AttributeKeyOracle, oracle.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeySequence, strconv.FormatUint(sequence, 10)),
		),
	)
	return nil
}

func (k *Keeper) getInt(ctx sdk.Context, key []byte) sdkmath.Int {
	return unmarshalInt(ctx.KVStore(k.storeKey).Get(key))
}

func (k *Keeper) setInt(ctx sdk.Context, key []byte, amount sdkmath.Int) {
	store := ctx.KVStore(k.storeKey)
	if amount.IsZero() {
		store.Delete(key)
		return
	}
	bz, err := amount.Marshal()
	if err != nil {
		panic(err)
	}
	store.Set(key, bz)
}

func unmarshalInt(bz []byte) sdkmath.Int {
	if len(bz) == 0 {
		return sdkmath.ZeroInt()
	}
	var i sdkmath.Int
	if err := i.Unmarshal(bz); err != nil {
		panic(err)
	}
	return i
}
