package keeper

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/codec"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/GPTx-global/oraclelink/x/coordinator/aggregator"
	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

var _ types.Fulfiller = (*Keeper)(nil)

type Keeper struct {
	cdc      *codec.LegacyAmino
	storeKey storetypes.StoreKey

	bankKeeper  types.BankKeeper
	idGenerator types.RequestIDGenerator
	custody     sdk.AccAddress

	router     *aggregator.Router
	requesters map[string]types.Requester
}

func NewKeeper(
	cdc *codec.LegacyAmino,
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	idGenerator types.RequestIDGenerator,
) *Keeper {
	if idGenerator == nil {
		idGenerator = types.ContextIDGenerator{}
	}
	return &Keeper{
		cdc:         cdc,
		storeKey:    storeKey,
		bankKeeper:  bankKeeper,
		idGenerator: idGenerator,
		custody:     authtypes.NewModuleAddress(types.ModuleName),
		router:      aggregator.NewRouter(),
		requesters:  make(map[string]types.Requester),
	}
}

func (k *Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// CustodyAddress is the account holding escrowed payments and unwithdrawn
// oracle earnings.
func (k *Keeper) CustodyAddress() sdk.AccAddress {
	return k.custody
}

// SetRouter binds every strategy of router to this coordinator and seals the
// router. It can be called once.
func (k *Keeper) SetRouter(router *aggregator.Router) *Keeper {
	if k.router.Sealed() {
		panic("cannot reset a sealed aggregator router")
	}
	for _, strategy := range router.Strategies() {
		strategy.Bind(&finalizer{keeper: k, aggregator: strategy.Type()})
	}
	router.Seal()
	k.router = router
	return k
}

// SetRequester registers the program that receives results for requests made
// by addr.
func (k *Keeper) SetRequester(addr sdk.AccAddress, requester types.Requester) *Keeper {
	if _, ok := k.requesters[string(addr)]; ok {
		panic(fmt.Sprintf("requester %s already registered", addr))
	}
	k.requesters[string(addr)] = requester
	return k
}

// GetParams returns the module parameters.
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := ctx.KVStore(k.storeKey).Get(types.KeyParams)
	if len(bz) == 0 {
		return types.DefaultParams()
	}
	var params types.Params
	k.cdc.MustUnmarshal(bz, &params)
	return params
}

// SetParams validates and stores the module parameters.
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidParams, err)
	}
	ctx.KVStore(k.storeKey).Set(types.KeyParams, k.cdc.MustMarshal(&params))
	return nil
}

// runAtomic runs fn on a branch of ctx. Writes and events reach ctx only when
// fn succeeds.
func runAtomic(ctx sdk.Context, fn func(ctx sdk.Context) error) error {
	cacheCtx, write := ctx.CacheContext()
	em := sdk.NewEventManager()
	cacheCtx = cacheCtx.WithEventManager(em)

	if err := fn(cacheCtx); err != nil {
		return err
	}

	write()
	ctx.EventManager().EmitEvents(em.Events())
	return nil
}
