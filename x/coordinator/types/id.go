package types

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// DeriveRequestID hashes the requester, its request counter and caller
// supplied entropy into a request id.
func DeriveRequestID(requester sdk.AccAddress, nonce uint64, entropy []byte) common.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte{byte(len(requester))})
	hasher.Write(requester)

	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, nonce)
	hasher.Write(bz)
	hasher.Write(entropy)

	var id common.Hash
	hasher.Sum(id[:0])
	return id
}

// ContextIDGenerator mixes the chain id, block height, block time, last commit
// hash and current transaction bytes into request ids. The transaction bytes
// carry the per-call randomness that keeps ids unpredictable.
type ContextIDGenerator struct{}

var _ RequestIDGenerator = ContextIDGenerator{}

func (ContextIDGenerator) RequestID(ctx sdk.Context, requester sdk.AccAddress, nonce uint64) common.Hash {
	entropy := []byte(ctx.ChainID())
	entropy = append(entropy, Uint64ToBytes(uint64(ctx.BlockHeight()))...)
	entropy = append(entropy, Uint64ToBytes(uint64(ctx.BlockTime().UnixNano()))...)
	entropy = append(entropy, ctx.BlockHeader().LastCommitHash...)
	entropy = append(entropy, ctx.TxBytes()...)
	return DeriveRequestID(requester, nonce, entropy)
}
