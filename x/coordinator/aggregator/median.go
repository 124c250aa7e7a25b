package aggregator

import (
	"math/big"
	"sort"

	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

var _ types.Strategy = (*Median)(nil)

// Median closes a round at quorum with the median of the submitted values. For
// an even count it takes the floor of the two middle values' mean.
type Median struct {
	rounds
}

func NewMedian(storeKey storetypes.StoreKey) *Median {
	return &Median{rounds: newRounds(storeKey, types.AggregatorMedian)}
}

func (m *Median) Submit(ctx sdk.Context, requestID common.Hash, oracle sdk.AccAddress, value []byte) error {
	return m.submit(ctx, requestID, oracle, value, median)
}

func median(values []*big.Int) *big.Int {
	sorted := make([]*big.Int, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return new(big.Int).Set(sorted[mid])
	}
	sum := new(big.Int).Add(sorted[mid-1], sorted[mid])
	return sum.Quo(sum, big.NewInt(2))
}
