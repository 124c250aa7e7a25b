package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

const (
	// ModuleName defines the module name
	ModuleName = "consumer"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// KV Store key prefix bytes
const (
	prefixCurrentValue = iota + 1
	prefixLastFulfilled
)

// KV Store keys, relative to the consumer's own prefix
var (
	KeyCurrentValue  = []byte{prefixCurrentValue}
	KeyLastFulfilled = []byte{prefixLastFulfilled}
)

// ConsumerPrefix returns the store prefix owned by the consumer called name.
func ConsumerPrefix(name string) []byte {
	return append([]byte(name), '/')
}

// ConsumerAddress returns the account of the consumer called name.
func ConsumerAddress(name string) sdk.AccAddress {
	return authtypes.NewModuleAddress(ModuleName + "/" + name)
}
