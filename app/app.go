// Package app assembles the ledger, coordinator and consumer modules over a
// committed IAVL multistore and serializes every state transition.
package app

import (
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/cosmos/cosmos-sdk/store"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/GPTx-global/oraclelink/x/consumer"
	consumerkeeper "github.com/GPTx-global/oraclelink/x/consumer/keeper"
	consumertypes "github.com/GPTx-global/oraclelink/x/consumer/types"
	"github.com/GPTx-global/oraclelink/x/coordinator"
	"github.com/GPTx-global/oraclelink/x/coordinator/aggregator"
	coordinatorkeeper "github.com/GPTx-global/oraclelink/x/coordinator/keeper"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
	"github.com/GPTx-global/oraclelink/x/ledger"
	ledgerkeeper "github.com/GPTx-global/oraclelink/x/ledger/keeper"
	ledgertypes "github.com/GPTx-global/oraclelink/x/ledger/types"
)

const (
	// Name is the application name.
	Name = "oraclelink"

	// DefaultSubscriptionBuffer is the number of live events a subscriber may
	// lag behind before it is dropped.
	DefaultSubscriptionBuffer = 256
)

// Option configures an App.
type Option func(*App)

// WithClock sets the source of block times.
func WithClock(now func() time.Time) Option {
	return func(app *App) {
		app.now = now
	}
}

// WithRequestIDGenerator replaces the default request id derivation.
func WithRequestIDGenerator(gen coordinatortypes.RequestIDGenerator) Option {
	return func(app *App) {
		app.idGenerator = gen
	}
}

// App owns the committed state. Execute runs one state transition at a time;
// Query reads the last committed state.
type App struct {
	mu sync.Mutex

	logger  log.Logger
	chainID string
	now     func() time.Time

	db   dbm.DB
	cms  storetypes.CommitMultiStore
	keys map[string]*storetypes.KVStoreKey

	idGenerator coordinatortypes.RequestIDGenerator

	LedgerKeeper      ledgerkeeper.Keeper
	CoordinatorKeeper *coordinatorkeeper.Keeper
	MeanAggregator    *aggregator.Mean
	MedianAggregator  *aggregator.Median

	consumers map[string]*consumerkeeper.Keeper
	broker    *broker
}

// New loads the latest committed state from db. An empty db is initialized from
// genesis. Consumer programs are always registered from genesis.
func New(logger log.Logger, db dbm.DB, genesis *GenesisState, opts ...Option) (*App, error) {
	if err := genesis.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		logger:    logger,
		chainID:   genesis.ChainID,
		now:       func() time.Time { return time.Now().UTC() },
		db:        db,
		keys:      sdk.NewKVStoreKeys(ledgertypes.StoreKey, coordinatortypes.StoreKey, coordinatortypes.AggregatorStoreKey, consumertypes.StoreKey, EventsStoreKey),
		consumers: make(map[string]*consumerkeeper.Keeper),
		broker:    newBroker(),
	}
	for _, opt := range opts {
		opt(app)
	}

	app.cms = store.NewCommitMultiStore(db)
	for _, key := range app.keys {
		app.cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := app.cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	app.LedgerKeeper = ledgerkeeper.NewKeeper(app.keys[ledgertypes.StoreKey])
	app.MeanAggregator = aggregator.NewMean(app.keys[coordinatortypes.AggregatorStoreKey])
	app.MedianAggregator = aggregator.NewMedian(app.keys[coordinatortypes.AggregatorStoreKey])
	app.CoordinatorKeeper = coordinatorkeeper.NewKeeper(
		coordinatortypes.ModuleCdc,
		app.keys[coordinatortypes.StoreKey],
		app.LedgerKeeper,
		app.idGenerator,
	).SetRouter(aggregator.DefaultRouter(app.MeanAggregator, app.MedianAggregator))

	for _, c := range genesis.Consumers {
		k, err := consumer.NewConsumer(app.keys[consumertypes.StoreKey], c.Name, c.AgreementID, app.CoordinatorKeeper, app.LedgerKeeper)
		if err != nil {
			return nil, err
		}
		app.consumers[c.Name] = k
	}

	if app.LastHeight() == 0 {
		if err := app.initChain(genesis); err != nil {
			return nil, err
		}
	}
	return app, nil
}

func (app *App) initChain(genesis *GenesisState) error {
	_, err := app.Execute(func(ctx sdk.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("failed to init genesis: %v", r)
			}
		}()
		ledger.InitGenesis(ctx, app.LedgerKeeper, genesis.Ledger)
		coordinator.InitGenesis(ctx, app.CoordinatorKeeper, genesis.Coordinator)
		return nil
	})
	if err != nil {
		return err
	}
	app.logger.Info("initialized chain from genesis", "chain_id", app.chainID, "agreements", len(genesis.Coordinator.Agreements))
	return nil
}

// ChainID returns the chain id from genesis.
func (app *App) ChainID() string {
	return app.chainID
}

// LastHeight returns the height of the last committed state.
func (app *App) LastHeight() int64 {
	return app.cms.LastCommitID().Version
}

// Consumer returns the consumer program called name.
func (app *App) Consumer(name string) (*consumerkeeper.Keeper, bool) {
	k, ok := app.consumers[name]
	return k, ok
}

// ConsumerNames returns the registered consumer names in sorted order.
func (app *App) ConsumerNames() []string {
	names := make([]string, 0, len(app.consumers))
	for name := range app.consumers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (app *App) newContext(ms storetypes.MultiStore, height int64) sdk.Context {
	header := tmproto.Header{
		ChainID:        app.chainID,
		Height:         height,
		Time:           app.now(),
		LastCommitHash: app.cms.LastCommitID().Hash,
	}
	return sdk.NewContext(ms, header, false, app.logger)
}

// callEntropy returns fresh random bytes that stand in for the tx bytes of a
// call. Request ids mix them in.
func (app *App) callEntropy() ([]byte, error) {
	bz := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, bz); err != nil {
		return nil, fmt.Errorf("failed to read call entropy: %w", err)
	}
	return bz, nil
}

// Execute runs fn against a branch of the committed state at the next height.
// When fn succeeds its writes and events are committed together; otherwise
// nothing changes.
func (app *App) Execute(fn func(ctx sdk.Context) error) ([]Event, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	entropy, err := app.callEntropy()
	if err != nil {
		return nil, err
	}

	height := app.LastHeight() + 1
	cacheMS := app.cms.CacheMultiStore()
	ctx := app.newContext(cacheMS, height).WithTxBytes(entropy)

	if err = fn(ctx); err != nil {
		return nil, err
	}

	events := appendEvents(ctx.KVStore(app.keys[EventsStoreKey]), height, ctx.EventManager().Events())
	cacheMS.Write()
	app.cms.Commit()

	app.broker.publish(events)
	return events, nil
}

// Query runs fn against the last committed state. Writes made by fn are
// discarded.
func (app *App) Query(fn func(ctx sdk.Context) error) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	ctx := app.newContext(app.cms.CacheMultiStore(), app.LastHeight())
	return fn(ctx)
}

// Events returns up to limit committed events after sequence number after.
func (app *App) Events(after uint64, limit int) []Event {
	app.mu.Lock()
	defer app.mu.Unlock()

	return eventsAfter(app.cms.GetKVStore(app.keys[EventsStoreKey]), after, limit)
}

// Subscribe returns a subscription that first replays every committed event
// after sequence number after and then follows new commits.
func (app *App) Subscribe(after uint64, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	backlog := eventsAfter(app.cms.GetKVStore(app.keys[EventsStoreKey]), after, 0)
	return app.broker.subscribe(backlog, buffer)
}

// ExportGenesis returns the current state as a genesis.
func (app *App) ExportGenesis() (*GenesisState, error) {
	gs := &GenesisState{ChainID: app.chainID}
	err := app.Query(func(ctx sdk.Context) error {
		gs.Ledger = *ledger.ExportGenesis(ctx, app.LedgerKeeper)
		gs.Coordinator = *coordinator.ExportGenesis(ctx, app.CoordinatorKeeper)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, name := range app.ConsumerNames() {
		gs.Consumers = append(gs.Consumers, ConsumerGenesis{Name: name, AgreementID: app.consumers[name].AgreementID()})
	}
	return gs, nil
}

// Close drops all subscribers and closes the database.
func (app *App) Close() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.broker.closeAll()
	return app.db.Close()
}
