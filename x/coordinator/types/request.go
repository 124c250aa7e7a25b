package types

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
)

// RequestState is the lifecycle state of a Request.
type RequestState uint32

const (
	RequestStateUnspecified RequestState = iota
	RequestStatePending
	RequestStateFulfilled
)

func (s RequestState) String() string {
	switch s {
	case RequestStatePending:
		return "pending"
	case RequestStateFulfilled:
		return "fulfilled"
	default:
		return "unspecified"
	}
}

func (s RequestState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *RequestState) UnmarshalJSON(bz []byte) error {
	var str string
	if err := json.Unmarshal(bz, &str); err != nil {
		return err
	}
	switch str {
	case "pending":
		*s = RequestStatePending
	case "fulfilled":
		*s = RequestStateFulfilled
	default:
		*s = RequestStateUnspecified
	}
	return nil
}

// Request is a funded data request against a ServiceAgreement. Payment stays in
// escrow while the request is pending.
type Request struct {
	ID          common.Hash    `json:"id"`
	Requester   sdk.AccAddress `json:"requester"`
	AgreementID common.Hash    `json:"agreement_id"`
	Params      []byte         `json:"params"`
	Payment     sdkmath.Int    `json:"payment"`
	Nonce       uint64         `json:"nonce"`
	DataVersion uint32         `json:"data_version"`
	// CreatedHeight and CreatedAt (unix seconds) locate the request in the ledger.
	CreatedHeight int64        `json:"created_height"`
	CreatedAt     int64        `json:"created_at"`
	State         RequestState `json:"state"`
	Result        []byte       `json:"result,omitempty"`
}

// IsPending reports whether the request still accepts fulfillment.
func (r Request) IsPending() bool {
	return r.State == RequestStatePending
}

// Validate performs stateless checks on a stored request.
func (r Request) Validate() error {
	if r.ID == (common.Hash{}) {
		return fmt.Errorf("request id cannot be empty")
	}
	if r.AgreementID == (common.Hash{}) {
		return fmt.Errorf("request %s has empty agreement id", r.ID.Hex())
	}
	if err := sdk.VerifyAddressFormat(r.Requester); err != nil {
		return fmt.Errorf("request %s has invalid requester: %w", r.ID.Hex(), err)
	}
	if r.Payment.IsNil() || r.Payment.IsNegative() {
		return fmt.Errorf("request %s has negative payment", r.ID.Hex())
	}
	if r.State != RequestStatePending && r.State != RequestStateFulfilled {
		return fmt.Errorf("request %s has invalid state %d", r.ID.Hex(), r.State)
	}
	return nil
}
