package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

const (
	// ModuleName defines the module name
	ModuleName = "ledger"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// KV Store key prefix bytes
const (
	prefixBalance = iota + 1
	prefixSupply
)

// KV Store key prefixes
var (
	KeyPrefixBalance = []byte{prefixBalance}
	KeyPrefixSupply  = []byte{prefixSupply}
)

// AddressBalancePrefix returns the prefix under which every denom balance of
// addr is stored.
func AddressBalancePrefix(addr sdk.AccAddress) []byte {
	return append(KeyPrefixBalance, address.MustLengthPrefix(addr)...)
}

// BalanceKey returns the key of addr's balance in denom.
func BalanceKey(addr sdk.AccAddress, denom string) []byte {
	return append(AddressBalancePrefix(addr), []byte(denom)...)
}

// SupplyKey returns the key of the total supply of denom.
func SupplyKey(denom string) []byte {
	return append(KeyPrefixSupply, []byte(denom)...)
}

// SplitBalanceKey splits a balance key (without the module prefix byte) into
// the owning address and the denom.
func SplitBalanceKey(key []byte) (sdk.AccAddress, string) {
	addrLen := int(key[0])
	addr := sdk.AccAddress(key[1 : 1+addrLen])
	return addr, string(key[1+addrLen:])
}
