// Package testutil assembles the ledger, coordinator and consumer keepers on a
// real multistore for tests.
package testutil

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/store"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	tmdb "github.com/tendermint/tm-db"

	"github.com/GPTx-global/oraclelink/x/consumer"
	consumerkeeper "github.com/GPTx-global/oraclelink/x/consumer/keeper"
	consumertypes "github.com/GPTx-global/oraclelink/x/consumer/types"
	"github.com/GPTx-global/oraclelink/x/coordinator/aggregator"
	coordinatorkeeper "github.com/GPTx-global/oraclelink/x/coordinator/keeper"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
	ledgerkeeper "github.com/GPTx-global/oraclelink/x/ledger/keeper"
	ledgertypes "github.com/GPTx-global/oraclelink/x/ledger/types"
)

// ChainID is the chain id of fixture contexts.
const ChainID = "oraclelink-test-1"

// Fixture is a fully wired set of keepers over an in-memory multistore.
type Fixture struct {
	Ctx        sdk.Context
	MultiStore storetypes.CommitMultiStore

	LedgerKeeper      ledgerkeeper.Keeper
	CoordinatorKeeper *coordinatorkeeper.Keeper
	Mean              *aggregator.Mean
	Median            *aggregator.Median

	consumerKey storetypes.StoreKey
}

// NewFixture mounts every store and wires the keepers. A nil idGenerator uses
// the context based default.
func NewFixture(t testing.TB, idGenerator coordinatortypes.RequestIDGenerator) *Fixture {
	ledgerKey := sdk.NewKVStoreKey(ledgertypes.StoreKey)
	coordinatorKey := sdk.NewKVStoreKey(coordinatortypes.StoreKey)
	aggregatorKey := sdk.NewKVStoreKey(coordinatortypes.AggregatorStoreKey)
	consumerKey := sdk.NewKVStoreKey(consumertypes.StoreKey)

	db := tmdb.NewMemDB()
	ms := store.NewCommitMultiStore(db)
	for _, key := range []storetypes.StoreKey{ledgerKey, coordinatorKey, aggregatorKey, consumerKey} {
		ms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	}
	require.NoError(t, ms.LoadLatestVersion())

	header := tmproto.Header{ChainID: ChainID, Height: 1, Time: time.Unix(1700000000, 0).UTC()}
	ctx := sdk.NewContext(ms, header, false, log.NewNopLogger())

	ledger := ledgerkeeper.NewKeeper(ledgerKey)
	mean := aggregator.NewMean(aggregatorKey)
	median := aggregator.NewMedian(aggregatorKey)
	coordinator := coordinatorkeeper.NewKeeper(coordinatortypes.ModuleCdc, coordinatorKey, ledger, idGenerator).
		SetRouter(aggregator.DefaultRouter(mean, median))
	require.NoError(t, coordinator.SetParams(ctx, coordinatortypes.DefaultParams()))

	return &Fixture{
		Ctx:               ctx,
		MultiStore:        ms,
		LedgerKeeper:      ledger,
		CoordinatorKeeper: coordinator,
		Mean:              mean,
		Median:            median,
		consumerKey:       consumerKey,
	}
}

// NewConsumer creates a consumer bound to agreementID and registers it with
// the coordinator.
func (f *Fixture) NewConsumer(t testing.TB, name string, agreementID common.Hash) *consumerkeeper.Keeper {
	k, err := consumer.NewConsumer(f.consumerKey, name, agreementID, f.CoordinatorKeeper, f.LedgerKeeper)
	require.NoError(t, err)
	return k
}

// Fund mints amount of the payment denom to addr.
func (f *Fixture) Fund(t testing.TB, addr sdk.AccAddress, amount sdkmath.Int) {
	denom := f.CoordinatorKeeper.GetParams(f.Ctx).Denom
	require.NoError(t, f.LedgerKeeper.MintCoins(f.Ctx, addr, sdk.NewCoins(sdk.NewCoin(denom, amount))))
}

// Balance returns addr's balance in the payment denom.
func (f *Fixture) Balance(addr sdk.AccAddress) sdkmath.Int {
	denom := f.CoordinatorKeeper.GetParams(f.Ctx).Denom
	return f.LedgerKeeper.GetBalance(f.Ctx, addr, denom).Amount
}

// ResetEvents gives the fixture context a fresh event manager.
func (f *Fixture) ResetEvents() {
	f.Ctx = f.Ctx.WithEventManager(sdk.NewEventManager())
}

// Events returns the events emitted on the fixture context.
func (f *Fixture) Events() sdk.Events {
	return f.Ctx.EventManager().Events()
}
