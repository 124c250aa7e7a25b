package types

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
)

// WordLength is the size of a numeric result word.
const WordLength = common.HashLength

// ParseNumeric decodes a submission value. A value made only of ASCII digits
// is a base-10 unsigned integer literal, whatever its length. Otherwise the
// value must be a WordLength big-endian unsigned word. Either form must fit in
// a word.
func ParseNumeric(value []byte) (*big.Int, error) {
	if len(value) == 0 {
		return nil, errorsmod.Wrap(ErrInvalidSubmission, "empty value")
	}

	var n *big.Int
	switch {
	case isDecimal(value):
		var ok bool
		n, ok = new(big.Int).SetString(string(value), 10)
		if !ok {
			return nil, errorsmod.Wrapf(ErrInvalidSubmission, "%q", value)
		}
	case len(value) == WordLength:
		n = new(big.Int).SetBytes(value)
	default:
		return nil, errorsmod.Wrapf(ErrInvalidSubmission, "%q", value)
	}

	if n.BitLen() > 8*WordLength {
		return nil, errorsmod.Wrapf(ErrInvalidSubmission, "value exceeds %d bits", 8*WordLength)
	}
	return n, nil
}

func isDecimal(value []byte) bool {
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// EncodeWord renders a non-negative integer as a WordLength big-endian word.
// Callers pass values accepted by ParseNumeric or aggregates of them, which
// always fit.
func EncodeWord(n *big.Int) []byte {
	return common.BigToHash(n).Bytes()
}
