package keeper

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/GPTx-global/oraclelink/x/ledger/types"
)

// Keeper holds account balances. It is the value transfer primitive the
// coordinator and consumer modules are wired against.
type Keeper struct {
	storeKey storetypes.StoreKey
}

func NewKeeper(storeKey storetypes.StoreKey) Keeper {
	return Keeper{storeKey: storeKey}
}

func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// GetBalance returns the balance of addr in denom. Missing balances are zero.
func (k Keeper) GetBalance(ctx sdk.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.BalanceKey(addr, denom))
	return sdk.NewCoin(denom, unmarshalInt(bz))
}

// GetAllBalances returns every non-zero balance held by addr.
func (k Keeper) GetAllBalances(ctx sdk.Context, addr sdk.AccAddress) sdk.Coins {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.AddressBalancePrefix(addr))
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	coins := sdk.NewCoins()
	for ; iterator.Valid(); iterator.Next() {
		coins = coins.Add(sdk.NewCoin(string(iterator.Key()), unmarshalInt(iterator.Value())))
	}
	return coins
}

// IterateAllBalances calls cb for every stored balance until cb returns true.
func (k Keeper) IterateAllBalances(ctx sdk.Context, cb func(addr sdk.AccAddress, coin sdk.Coin) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyPrefixBalance)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		addr, denom := types.SplitBalanceKey(iterator.Key())
		if cb(addr, sdk.NewCoin(denom, unmarshalInt(iterator.Value()))) {
			break
		}
	}
}

// GetSupply returns the total amount of denom ever minted.
func (k Keeper) GetSupply(ctx sdk.Context, denom string) sdk.Coin {
	store := ctx.KVStore(k.storeKey)
	return sdk.NewCoin(denom, unmarshalInt(store.Get(types.SupplyKey(denom))))
}

// SendCoins moves amt from one address to another. Either every coin moves or
// none does.
func (k Keeper) SendCoins(ctx sdk.Context, fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error {
	if err := validateTransfer(fromAddr, toAddr, amt); err != nil {
		return err
	}

	for _, coin := range amt {
		balance := k.GetBalance(ctx, fromAddr, coin.Denom)
		if balance.IsLT(coin) {
			return errorsmod.Wrapf(types.ErrInsufficientFunds, "%s is smaller than %s", balance, coin)
		}
	}

	for _, coin := range amt {
		from := k.GetBalance(ctx, fromAddr, coin.Denom)
		k.setBalance(ctx, fromAddr, from.Sub(coin))

		to := k.GetBalance(ctx, toAddr, coin.Denom)
		k.setBalance(ctx, toAddr, to.Add(coin))
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeTransfer,
			sdk.NewAttribute(types.AttributeKeyRecipient, toAddr.String()),
			sdk.NewAttribute(types.AttributeKeySender, fromAddr.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amt.String()),
		),
	)

	return nil
}

// MintCoins creates amt out of thin air and credits it to toAddr. It backs
// genesis balances and the development faucet.
func (k Keeper) MintCoins(ctx sdk.Context, toAddr sdk.AccAddress, amt sdk.Coins) error {
	if toAddr.Empty() {
		return errorsmod.Wrap(types.ErrInvalidAddress, "empty recipient")
	}
	if !amt.IsValid() {
		return errorsmod.Wrapf(types.ErrInvalidCoins, "%s", amt)
	}

	store := ctx.KVStore(k.storeKey)
	for _, coin := range amt {
		balance := k.GetBalance(ctx, toAddr, coin.Denom)
		k.setBalance(ctx, toAddr, balance.Add(coin))

		supply := k.GetSupply(ctx, coin.Denom).Add(coin)
		store.Set(types.SupplyKey(coin.Denom), marshalInt(supply.Amount))
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeMint,
			sdk.NewAttribute(types.AttributeKeyRecipient, toAddr.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amt.String()),
		),
	)

	return nil
}

func (k Keeper) setBalance(ctx sdk.Context, addr sdk.AccAddress, coin sdk.Coin) {
	store := ctx.KVStore(k.storeKey)
	key := types.BalanceKey(addr, coin.Denom)
	if coin.IsZero() {
		store.Delete(key)
		return
	}
	store.Set(key, marshalInt(coin.Amount))
}

func validateTransfer(fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error {
	if fromAddr.Empty() || toAddr.Empty() {
		return errorsmod.Wrap(types.ErrInvalidAddress, "empty sender or recipient")
	}
	if !amt.IsValid() {
		return errorsmod.Wrapf(types.ErrInvalidCoins, "%s", amt)
	}
	return nil
}

func marshalInt(i sdkmath.Int) []byte {
	bz, err := i.Marshal()
	if err != nil {
		panic(err)
	}
	return bz
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
