package types

import (
	"fmt"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/encoding/params"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// Job is an oracle request this node has to answer.
type Job struct {
	RequestID   common.Hash
	AgreementID common.Hash
	Requester   string
	Payment     sdkmath.Int
	DataVersion uint32
	Params      params.Params
	// Seq is the event log position the job was read from.
	Seq uint64
}

type JobResult struct {
	Job   *Job
	Value []byte
	Err   error
}

// MakeJob builds a job from an oracle_request event. Events of other types
// yield nil without error.
func MakeJob(ev app.Event) (*Job, error) {
	if ev.Type != coordinatortypes.EventTypeOracleRequest {
		return nil, nil
	}

	requestID, err := parseHash(ev, coordinatortypes.AttributeKeyRequestID)
	if err != nil {
		return nil, err
	}
	agreementID, err := parseHash(ev, coordinatortypes.AttributeKeyAgreementID)
	if err != nil {
		return nil, err
	}

	payment, ok := sdkmath.NewIntFromString(ev.Attribute(coordinatortypes.AttributeKeyPayment))
	if !ok {
		return nil, fmt.Errorf("event %d: invalid payment %q", ev.Seq, ev.Attribute(coordinatortypes.AttributeKeyPayment))
	}

	version, err := strconv.ParseUint(ev.Attribute(coordinatortypes.AttributeKeyDataVersion), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("event %d: invalid data version: %w", ev.Seq, err)
	}

	raw, err := hexutil.Decode(ev.Attribute(coordinatortypes.AttributeKeyParams))
	if err != nil {
		return nil, fmt.Errorf("event %d: invalid params encoding: %w", ev.Seq, err)
	}
	p, err := params.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", ev.Seq, err)
	}

	return &Job{
		RequestID:   requestID,
		AgreementID: agreementID,
		Requester:   ev.Attribute(coordinatortypes.AttributeKeyRequester),
		Payment:     payment,
		DataVersion: uint32(version),
		Params:      p,
		Seq:         ev.Seq,
	}, nil
}

func parseHash(ev app.Event, key string) (common.Hash, error) {
	bz, err := hexutil.Decode(ev.Attribute(key))
	if err != nil || len(bz) != common.HashLength {
		return common.Hash{}, fmt.Errorf("event %d: invalid %s %q", ev.Seq, key, ev.Attribute(key))
	}
	return common.BytesToHash(bz), nil
}
