package aggregator

import (
	"math/big"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// Submission is one oracle's value within a round.
type Submission struct {
	Oracle sdk.AccAddress `json:"oracle"`
	Value  []byte         `json:"value"`
}

// Round collects submissions for a single multi-oracle request.
type Round struct {
	RequestID   common.Hash      `json:"request_id"`
	Oracles     []sdk.AccAddress `json:"oracles"`
	Quorum      uint32           `json:"quorum"`
	Submissions []Submission     `json:"submissions"`
	Closed      bool             `json:"closed"`
}

// HasSubmitted reports whether oracle already submitted to the round.
func (r Round) HasSubmitted(oracle sdk.AccAddress) bool {
	for _, s := range r.Submissions {
		if s.Oracle.Equals(oracle) {
			return true
		}
	}
	return false
}

// Payees returns the submitting oracles in agreement order.
func (r Round) Payees() []sdk.AccAddress {
	payees := make([]sdk.AccAddress, 0, len(r.Submissions))
	for _, oracle := range r.Oracles {
		if r.HasSubmitted(oracle) {
			payees = append(payees, oracle)
		}
	}
	return payees
}

func (r Round) isMember(oracle sdk.AccAddress) bool {
	for _, o := range r.Oracles {
		if o.Equals(oracle) {
			return true
		}
	}
	return false
}

// reducer combines the numeric values of a closed round.
type reducer func(values []*big.Int) *big.Int

// rounds is the round bookkeeping shared by the quorum strategies. Each
// strategy keeps its rounds under its own prefix of the aggregator store.
type rounds struct {
	storeKey  storetypes.StoreKey
	typ       types.AggregatorType
	finalizer types.Finalizer
}

func newRounds(storeKey storetypes.StoreKey, typ types.AggregatorType) rounds {
	return rounds{storeKey: storeKey, typ: typ}
}

func (r *rounds) Type() types.AggregatorType {
	return r.typ
}

func (r *rounds) Bind(f types.Finalizer) {
	r.finalizer = f
}

func (r *rounds) roundKey(requestID common.Hash) []byte {
	return append([]byte{byte(r.typ)}, requestID.Bytes()...)
}

// GetRound returns the round of requestID.
func (r *rounds) GetRound(ctx sdk.Context, requestID common.Hash) (Round, bool) {
	bz := ctx.KVStore(r.storeKey).Get(r.roundKey(requestID))
	if len(bz) == 0 {
		return Round{}, false
	}
	var round Round
	types.ModuleCdc.MustUnmarshal(bz, &round)
	return round, true
}

func (r *rounds) setRound(ctx sdk.Context, round Round) {
	bz := types.ModuleCdc.MustMarshal(&round)
	ctx.KVStore(r.storeKey).Set(r.roundKey(round.RequestID), bz)
}

// OnRequestInitiated opens an empty round for requestID.
func (r *rounds) OnRequestInitiated(ctx sdk.Context, requestID common.Hash, agreement types.ServiceAgreement) error {
	if _, found := r.GetRound(ctx, requestID); found {
		return errorsmod.Wrapf(types.ErrRequestIDCollision, "round %s already exists", requestID.Hex())
	}

	r.setRound(ctx, Round{
		RequestID: requestID,
		Oracles:   agreement.Oracles,
		Quorum:    agreement.EffectiveQuorum(),
	})

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRoundOpened,
			sdk.NewAttribute(types.AttributeKeyRequestID, requestID.Hex()),
			sdk.NewAttribute(types.AttributeKeyAggregator, r.typ.String()),
			sdk.NewAttribute(types.AttributeKeyQuorum, strconv.FormatUint(uint64(agreement.EffectiveQuorum()), 10)),
		),
	)
	return nil
}

// submit records oracle's value and, when the round reaches quorum, reduces
// the values and hands the result to the finalizer. Nothing is written when
// finalization fails.
func (r *rounds) submit(ctx sdk.Context, requestID common.Hash, oracle sdk.AccAddress, value []byte, reduce reducer) error {
	round, found := r.GetRound(ctx, requestID)
	if !found {
		return errorsmod.Wrapf(types.ErrUnknownRound, "%s", requestID.Hex())
	}
	if !round.isMember(oracle) {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not part of round %s", oracle, requestID.Hex())
	}
	if round.HasSubmitted(oracle) {
		return errorsmod.Wrapf(types.ErrDuplicateSubmission, "%s in round %s", oracle, requestID.Hex())
	}
	if round.Closed {
		return errorsmod.Wrapf(types.ErrClosedRound, "%s", requestID.Hex())
	}
	if _, err := types.ParseNumeric(value); err != nil {
		return err
	}

	round.Submissions = append(round.Submissions, Submission{Oracle: oracle, Value: value})
	if uint32(len(round.Submissions)) < round.Quorum {
		r.setRound(ctx, round)
		return nil
	}

	values := make([]*big.Int, len(round.Submissions))
	for i, s := range round.Submissions {
		n, err := types.ParseNumeric(s.Value)
		if err != nil {
			return err
		}
		values[i] = n
	}
	result := types.EncodeWord(reduce(values))
	round.Closed = true

	if r.finalizer == nil {
		return errorsmod.Wrapf(types.ErrUnknownAggregator, "%s strategy is not bound", r.typ)
	}
	if err := r.finalizer.Finalize(ctx, requestID, result, round.Payees()); err != nil {
		return err
	}
	r.setRound(ctx, round)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRoundClosed,
			sdk.NewAttribute(types.AttributeKeyRequestID, requestID.Hex()),
			sdk.NewAttribute(types.AttributeKeyAggregator, r.typ.String()),
			sdk.NewAttribute(types.AttributeKeySubmissions, strconv.Itoa(len(round.Submissions))),
			sdk.NewAttribute(types.AttributeKeyResult, common.Bytes2Hex(result)),
		),
	)
	return nil
}
