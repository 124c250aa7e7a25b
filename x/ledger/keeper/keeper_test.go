package keeper

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/store"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	tmdb "github.com/tendermint/tm-db"

	"github.com/GPTx-global/oraclelink/x/ledger/types"
)

const denom = "aguru"

var (
	alice = sdk.AccAddress([]byte("alice_______________"))
	bob   = sdk.AccAddress([]byte("bob_________________"))
)

// setupKeeper creates a new Keeper instance and context for testing
func setupKeeper(t *testing.T) (Keeper, sdk.Context) {
	storeKey := sdk.NewKVStoreKey(types.StoreKey)

	db := tmdb.NewMemDB()
	stateStore := store.NewCommitMultiStore(db)
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore, tmproto.Header{}, false, log.NewNopLogger())
	return NewKeeper(storeKey), ctx
}

func coins(amount int64) sdk.Coins {
	return sdk.NewCoins(sdk.NewInt64Coin(denom, amount))
}

func TestMintAndBalance(t *testing.T) {
	k, ctx := setupKeeper(t)

	require.True(t, k.GetBalance(ctx, alice, denom).IsZero())

	require.NoError(t, k.MintCoins(ctx, alice, coins(100)))
	require.Equal(t, int64(100), k.GetBalance(ctx, alice, denom).Amount.Int64())
	require.Equal(t, int64(100), k.GetSupply(ctx, denom).Amount.Int64())
	require.Equal(t, coins(100).String(), k.GetAllBalances(ctx, alice).String())
}

func TestSendCoins(t *testing.T) {
	tests := []struct {
		name      string
		minted    int64
		send      int64
		expErr    error
		expAlice  int64
		expBob    int64
		expEvents int
	}{
		{name: "exact balance", minted: 50, send: 50, expAlice: 0, expBob: 50, expEvents: 1},
		{name: "partial", minted: 50, send: 20, expAlice: 30, expBob: 20, expEvents: 1},
		{name: "insufficient", minted: 10, send: 11, expErr: types.ErrInsufficientFunds, expAlice: 10, expBob: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k, ctx := setupKeeper(t)
			require.NoError(t, k.MintCoins(ctx, alice, coins(tc.minted)))
			ctx = ctx.WithEventManager(sdk.NewEventManager())

			err := k.SendCoins(ctx, alice, bob, coins(tc.send))
			if tc.expErr != nil {
				require.ErrorIs(t, err, tc.expErr)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tc.expAlice, k.GetBalance(ctx, alice, denom).Amount.Int64())
			require.Equal(t, tc.expBob, k.GetBalance(ctx, bob, denom).Amount.Int64())
			require.Len(t, ctx.EventManager().Events(), tc.expEvents)
		})
	}
}

func TestSendCoinsEvent(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.MintCoins(ctx, alice, coins(5)))
	ctx = ctx.WithEventManager(sdk.NewEventManager())

	require.NoError(t, k.SendCoins(ctx, alice, bob, coins(5)))

	events := ctx.EventManager().Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventTypeTransfer, events[0].Type)

	attrs := map[string]string{}
	for _, attr := range events[0].Attributes {
		attrs[string(attr.Key)] = string(attr.Value)
	}
	require.Equal(t, bob.String(), attrs[types.AttributeKeyRecipient])
	require.Equal(t, alice.String(), attrs[types.AttributeKeySender])
	require.Equal(t, "5"+denom, attrs[types.AttributeKeyAmount])
}

func TestSendCoinsInvalid(t *testing.T) {
	k, ctx := setupKeeper(t)

	err := k.SendCoins(ctx, nil, bob, coins(1))
	require.ErrorIs(t, err, types.ErrInvalidAddress)

	err = k.SendCoins(ctx, alice, bob, sdk.Coins{sdk.Coin{Denom: denom, Amount: sdkmath.NewInt(-1)}})
	require.ErrorIs(t, err, types.ErrInvalidCoins)
}

func TestIterateAllBalances(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.MintCoins(ctx, alice, coins(1)))
	require.NoError(t, k.MintCoins(ctx, bob, coins(2)))

	seen := map[string]int64{}
	k.IterateAllBalances(ctx, func(addr sdk.AccAddress, coin sdk.Coin) bool {
		seen[addr.String()] = coin.Amount.Int64()
		return false
	})
	require.Equal(t, map[string]int64{alice.String(): 1, bob.String(): 2}, seen)
}
