package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	guru "github.com/GPTx-global/oraclelink/types"
)

// DataVersion is the version of the oracle_request payload layout.
const DataVersion uint32 = 1

// Params defines the coordinator module parameters.
type Params struct {
	// Denom is the coin every agreement payment is made in.
	Denom       string `json:"denom"`
	DataVersion uint32 `json:"data_version"`
}

// DefaultParams returns default coordinator module parameters
func DefaultParams() Params {
	return Params{
		Denom:       guru.AttoGuru,
		DataVersion: DataVersion,
	}
}

// Validate performs basic validation on coordinator parameters
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.Denom); err != nil {
		return fmt.Errorf("invalid denom: %w", err)
	}
	if p.DataVersion == 0 {
		return fmt.Errorf("data version cannot be zero")
	}
	return nil
}
