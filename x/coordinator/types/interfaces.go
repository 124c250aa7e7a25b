package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
)

// Fulfiller identifies the party delivering a result to a Requester. Consumers
// compare the value they receive against the coordinator reference they were
// built with.
type Fulfiller interface {
	CustodyAddress() sdk.AccAddress
}

// Requester is implemented by programs that receive fulfilled results. It is
// invoked at most once per request.
type Requester interface {
	FulfillRequest(ctx sdk.Context, from Fulfiller, requestID common.Hash, value []byte) error
}

// Finalizer completes a multi-oracle request once its round reaches quorum.
// Strategies receive a Finalizer when they are bound to the coordinator; it is
// not reachable any other way.
type Finalizer interface {
	Finalize(ctx sdk.Context, requestID common.Hash, value []byte, payees []sdk.AccAddress) error
}

// Strategy combines submissions from multiple oracles into one result.
type Strategy interface {
	Type() AggregatorType
	// Bind hands the strategy the finalizer it must call when a round closes.
	Bind(f Finalizer)
	// OnRequestInitiated opens a round for a freshly created request.
	OnRequestInitiated(ctx sdk.Context, requestID common.Hash, agreement ServiceAgreement) error
	// Submit records one oracle's value for the round of requestID.
	Submit(ctx sdk.Context, requestID common.Hash, oracle sdk.AccAddress, value []byte) error
}

// RequestIDGenerator derives request ids. Implementations must never return the
// same id for two different (requester, nonce) pairs within one ledger.
type RequestIDGenerator interface {
	RequestID(ctx sdk.Context, requester sdk.AccAddress, nonce uint64) common.Hash
}
