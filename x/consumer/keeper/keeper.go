package keeper

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/GPTx-global/oraclelink/encoding/params"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
	"github.com/GPTx-global/oraclelink/x/consumer/types"
)

var _ coordinatortypes.Requester = (*Keeper)(nil)

// Keeper is a consumer program bound to one agreement and one coordinator. It
// keeps only the most recently delivered value.
type Keeper struct {
	storeKey    storetypes.StoreKey
	name        string
	address     sdk.AccAddress
	agreementID common.Hash

	coordinator types.CoordinatorKeeper
	bankKeeper  types.BankKeeper
}

func NewKeeper(
	storeKey storetypes.StoreKey,
	name string,
	agreementID common.Hash,
	coordinator types.CoordinatorKeeper,
	bankKeeper types.BankKeeper,
) (*Keeper, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, errorsmod.Wrapf(types.ErrInvalidName, "%q", name)
	}
	return &Keeper{
		storeKey:    storeKey,
		name:        name,
		address:     types.ConsumerAddress(name),
		agreementID: agreementID,
		coordinator: coordinator,
		bankKeeper:  bankKeeper,
	}, nil
}

func (k *Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName), "consumer", k.name)
}

func (k *Keeper) Name() string {
	return k.name
}

// Address is the account that funds this consumer's requests.
func (k *Keeper) Address() sdk.AccAddress {
	return k.address
}

func (k *Keeper) AgreementID() common.Hash {
	return k.agreementID
}

func (k *Keeper) store(ctx sdk.Context) prefix.Store {
	return prefix.NewStore(ctx.KVStore(k.storeKey), types.ConsumerPrefix(k.name))
}

// RequestData pays the agreement price out of the consumer's balance and asks
// the coordinator for data described by p.
func (k *Keeper) RequestData(ctx sdk.Context, p params.Params) (common.Hash, error) {
	agreement, err := k.coordinator.GetAgreement(ctx, k.agreementID)
	if err != nil {
		return common.Hash{}, err
	}

	denom := k.coordinator.GetParams(ctx).Denom
	balance := k.bankKeeper.GetBalance(ctx, k.address, denom)
	if balance.Amount.LT(agreement.Payment) {
		return common.Hash{}, errorsmod.Wrapf(types.ErrInsufficientFunds, "balance %s, payment %s%s", balance, agreement.Payment, denom)
	}

	payload, err := p.Encode()
	if err != nil {
		return common.Hash{}, err
	}

	requestID, err := k.coordinator.TransferAndRequest(ctx, k.address, k.agreementID, payload, agreement.Payment)
	if err != nil {
		return common.Hash{}, err
	}

	k.Logger(ctx).Debug("data requested", "request", requestID.Hex())
	return requestID, nil
}

// FulfillRequest records value. Only the coordinator this consumer was built
// with may call it.
func (k *Keeper) FulfillRequest(ctx sdk.Context, from coordinatortypes.Fulfiller, requestID common.Hash, value []byte) error {
	if from == nil || from != coordinatortypes.Fulfiller(k.coordinator) {
		return errorsmod.Wrap(types.ErrUnauthorized, "fulfillment must come from the configured coordinator")
	}

	if value == nil {
		value = []byte{}
	}
	store := k.store(ctx)
	store.Set(types.KeyCurrentValue, value)
	store.Set(types.KeyLastFulfilled, requestID.Bytes())

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeValueUpdated,
			sdk.NewAttribute(types.AttributeKeyConsumer, k.name),
			sdk.NewAttribute(types.AttributeKeyRequestID, requestID.Hex()),
			sdk.NewAttribute(types.AttributeKeyValue, hexutil.Encode(value)),
		),
	)
	return nil
}

// CurrentValue returns the last delivered value, or nil before any delivery.
func (k *Keeper) CurrentValue(ctx sdk.Context) []byte {
	return k.store(ctx).Get(types.KeyCurrentValue)
}

// LastFulfilled returns the request whose value is current.
func (k *Keeper) LastFulfilled(ctx sdk.Context) (common.Hash, bool) {
	bz := k.store(ctx).Get(types.KeyLastFulfilled)
	if len(bz) == 0 {
		return common.Hash{}, false
	}
	return common.BytesToHash(bz), true
}
