package types

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// ModuleName defines the module name
	ModuleName = "coordinator"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName

	// AggregatorStoreKey is the store owned by aggregation strategies.
	AggregatorStoreKey = "aggregator"
)

// KV Store key prefix bytes
const (
	prefixParams = iota + 1
	prefixAgreement
	prefixRequest
	prefixNonce
	prefixDeposit
	prefixWithdrawable
	prefixEscrowTotal
	prefixWithdrawSequence
)

// KV Store key prefixes
var (
	KeyParams             = []byte{prefixParams}
	KeyPrefixAgreement    = []byte{prefixAgreement}
	KeyPrefixRequest      = []byte{prefixRequest}
	KeyPrefixNonce        = []byte{prefixNonce}
	KeyPrefixDeposit      = []byte{prefixDeposit}
	KeyPrefixWithdrawable = []byte{prefixWithdrawable}
	KeyEscrowTotal        = []byte{prefixEscrowTotal}

	KeyPrefixWithdrawSequence = []byte{prefixWithdrawSequence}
)

// GetAgreementKey returns the key for storing a ServiceAgreement
func GetAgreementKey(id common.Hash) []byte {
	return append(KeyPrefixAgreement, id.Bytes()...)
}

// GetRequestKey returns the key for storing a Request
func GetRequestKey(id common.Hash) []byte {
	return append(KeyPrefixRequest, id.Bytes()...)
}

// GetNonceKey returns the key of the request counter of requester
func GetNonceKey(requester sdk.AccAddress) []byte {
	return append(KeyPrefixNonce, address.MustLengthPrefix(requester)...)
}

// GetDepositKey returns the key of the unassigned custody deposit of requester
func GetDepositKey(requester sdk.AccAddress) []byte {
	return append(KeyPrefixDeposit, address.MustLengthPrefix(requester)...)
}

// GetWithdrawableKey returns the key of an oracle's withdrawable balance
func GetWithdrawableKey(oracle sdk.AccAddress) []byte {
	return append(KeyPrefixWithdrawable, address.MustLengthPrefix(oracle)...)
}

// GetWithdrawSequenceKey returns the key of an oracle's withdrawal counter
func GetWithdrawSequenceKey(oracle sdk.AccAddress) []byte {
	return append(KeyPrefixWithdrawSequence, address.MustLengthPrefix(oracle)...)
}

func Uint64ToBytes(n uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, n)
	return bz
}

func BytesToUint64(bz []byte) uint64 {
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}
