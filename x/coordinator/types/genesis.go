package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
)

// Withdrawable is an oracle's accrued, not yet withdrawn earnings.
type Withdrawable struct {
	Oracle string      `json:"oracle"`
	Amount sdkmath.Int `json:"amount"`
}

// WithdrawSequence is the number of withdrawals an oracle has made.
type WithdrawSequence struct {
	Oracle   string `json:"oracle"`
	Sequence uint64 `json:"sequence"`
}

// GenesisState defines the coordinator module's genesis state.
type GenesisState struct {
	Params            Params             `json:"params"`
	Agreements        []ServiceAgreement `json:"agreements"`
	Requests          []Request          `json:"requests"`
	Withdrawables     []Withdrawable     `json:"withdrawables"`
	WithdrawSequences []WithdrawSequence `json:"withdraw_sequences"`
}

// NewGenesisState creates a new genesis state.
func NewGenesisState(params Params, agreements []ServiceAgreement, requests []Request, withdrawables []Withdrawable) GenesisState {
	return GenesisState{
		Params:        params,
		Agreements:    agreements,
		Requests:      requests,
		Withdrawables: withdrawables,
	}
}

// WithWithdrawSequences returns gs with sequences set.
func (gs GenesisState) WithWithdrawSequences(sequences []WithdrawSequence) GenesisState {
	gs.WithdrawSequences = sequences
	return gs
}

// DefaultGenesisState returns a default genesis state
func DefaultGenesisState() *GenesisState {
	return &GenesisState{
		Params:            DefaultParams(),
		Agreements:        []ServiceAgreement{},
		Requests:          []Request{},
		Withdrawables:     []Withdrawable{},
		WithdrawSequences: []WithdrawSequence{},
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}

	agreements := make(map[common.Hash]bool, len(gs.Agreements))
	for _, sa := range gs.Agreements {
		if err := sa.Validate(); err != nil {
			return fmt.Errorf("invalid agreement %s: %w", sa.ID.Hex(), err)
		}
		if agreements[sa.ID] {
			return fmt.Errorf("duplicate agreement %s", sa.ID.Hex())
		}
		agreements[sa.ID] = true
	}

	requests := make(map[common.Hash]bool, len(gs.Requests))
	for _, req := range gs.Requests {
		if err := req.Validate(); err != nil {
			return fmt.Errorf("invalid request: %w", err)
		}
		if !agreements[req.AgreementID] {
			return fmt.Errorf("request %s references unknown agreement %s", req.ID.Hex(), req.AgreementID.Hex())
		}
		if requests[req.ID] {
			return fmt.Errorf("duplicate request %s", req.ID.Hex())
		}
		requests[req.ID] = true
	}

	for _, w := range gs.Withdrawables {
		if _, err := sdk.AccAddressFromBech32(w.Oracle); err != nil {
			return fmt.Errorf("invalid withdrawable oracle %s: %w", w.Oracle, err)
		}
		if w.Amount.IsNil() || w.Amount.IsNegative() {
			return fmt.Errorf("invalid withdrawable amount for %s", w.Oracle)
		}
	}

	sequences := make(map[string]bool, len(gs.WithdrawSequences))
	for _, ws := range gs.WithdrawSequences {
		if _, err := sdk.AccAddressFromBech32(ws.Oracle); err != nil {
			return fmt.Errorf("invalid withdraw sequence oracle %s: %w", ws.Oracle, err)
		}
		if sequences[ws.Oracle] {
			return fmt.Errorf("duplicate withdraw sequence for %s", ws.Oracle)
		}
		sequences[ws.Oracle] = true
	}

	return nil
}
