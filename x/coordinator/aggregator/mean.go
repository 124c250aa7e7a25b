package aggregator

import (
	"math/big"

	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

var _ types.Strategy = (*Mean)(nil)

// Mean closes a round at quorum with the floor of the arithmetic mean of the
// submitted values.
type Mean struct {
	rounds
}

func NewMean(storeKey storetypes.StoreKey) *Mean {
	return &Mean{rounds: newRounds(storeKey, types.AggregatorMean)}
}

func (m *Mean) Submit(ctx sdk.Context, requestID common.Hash, oracle sdk.AccAddress, value []byte) error {
	return m.submit(ctx, requestID, oracle, value, mean)
}

func mean(values []*big.Int) *big.Int {
	sum := new(big.Int)
	for _, v := range values {
		sum.Add(sum, v)
	}
	return sum.Quo(sum, big.NewInt(int64(len(values))))
}
