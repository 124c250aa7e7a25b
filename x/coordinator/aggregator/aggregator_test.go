package aggregator

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/store"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	tmdb "github.com/tendermint/tm-db"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

var (
	oracleA = sdk.AccAddress([]byte("oracle_a____________"))
	oracleB = sdk.AccAddress([]byte("oracle_b____________"))
	oracleC = sdk.AccAddress([]byte("oracle_c____________"))
)

type finalization struct {
	requestID common.Hash
	value     []byte
	payees    []sdk.AccAddress
}

type recordingFinalizer struct {
	calls []finalization
	err   error
}

func (f *recordingFinalizer) Finalize(_ sdk.Context, requestID common.Hash, value []byte, payees []sdk.AccAddress) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, finalization{requestID: requestID, value: value, payees: payees})
	return nil
}

type AggregatorTestSuite struct {
	suite.Suite

	ctx       sdk.Context
	storeKey  storetypes.StoreKey
	finalizer *recordingFinalizer
	mean      *Mean
	median    *Median
}

func TestAggregatorTestSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func (s *AggregatorTestSuite) SetupTest() {
	s.storeKey = sdk.NewKVStoreKey(types.AggregatorStoreKey)

	db := tmdb.NewMemDB()
	ms := store.NewCommitMultiStore(db)
	ms.MountStoreWithDB(s.storeKey, storetypes.StoreTypeIAVL, db)
	s.Require().NoError(ms.LoadLatestVersion())

	s.ctx = sdk.NewContext(ms, tmproto.Header{}, false, log.NewNopLogger())
	s.finalizer = &recordingFinalizer{}
	s.mean = NewMean(s.storeKey)
	s.mean.Bind(s.finalizer)
	s.median = NewMedian(s.storeKey)
	s.median.Bind(s.finalizer)
}

func (s *AggregatorTestSuite) agreement(typ types.AggregatorType, quorum uint32) types.ServiceAgreement {
	return types.NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB, oracleC}, typ, quorum, sdkmath.NewInt(90))
}

func word(n int64) []byte {
	return types.EncodeWord(big.NewInt(n))
}

func (s *AggregatorTestSuite) TestMeanFloorsAverage() {
	id := common.HexToHash("0x01")
	s.Require().NoError(s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 0)))

	s.Require().NoError(s.mean.Submit(s.ctx, id, oracleA, []byte("10")))
	s.Require().NoError(s.mean.Submit(s.ctx, id, oracleB, []byte("20")))
	s.Require().Empty(s.finalizer.calls)

	s.Require().NoError(s.mean.Submit(s.ctx, id, oracleC, word(31)))
	s.Require().Len(s.finalizer.calls, 1)
	s.Require().Equal(word(20), s.finalizer.calls[0].value)
	s.Require().Equal([]sdk.AccAddress{oracleA, oracleB, oracleC}, s.finalizer.calls[0].payees)

	round, found := s.mean.GetRound(s.ctx, id)
	s.Require().True(found)
	s.Require().True(round.Closed)
}

func (s *AggregatorTestSuite) TestMeanOrderIndependent() {
	values := map[string][]byte{
		oracleA.String(): []byte("7"),
		oracleB.String(): []byte("11"),
		oracleC.String(): []byte("100"),
	}
	orders := [][]sdk.AccAddress{
		{oracleA, oracleB, oracleC},
		{oracleC, oracleB, oracleA},
		{oracleB, oracleA, oracleC},
		{oracleC, oracleA, oracleB},
	}

	for i, order := range orders {
		id := common.BigToHash(big.NewInt(int64(i + 1)))
		s.Require().NoError(s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 0)))
		for _, oracle := range order {
			s.Require().NoError(s.mean.Submit(s.ctx, id, oracle, values[oracle.String()]))
		}
	}

	s.Require().Len(s.finalizer.calls, len(orders))
	for _, call := range s.finalizer.calls {
		s.Require().Equal(word(39), call.value)
		s.Require().Equal([]sdk.AccAddress{oracleA, oracleB, oracleC}, call.payees)
	}
}

func (s *AggregatorTestSuite) TestSubmitRejections() {
	id := common.HexToHash("0x02")
	s.Require().NoError(s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 2)))

	err := s.mean.Submit(s.ctx, common.HexToHash("0xdead"), oracleA, []byte("1"))
	s.Require().ErrorIs(err, types.ErrUnknownRound)

	err = s.mean.Submit(s.ctx, id, sdk.AccAddress([]byte("stranger____________")), []byte("1"))
	s.Require().ErrorIs(err, types.ErrUnauthorized)

	err = s.mean.Submit(s.ctx, id, oracleA, []byte("not a number"))
	s.Require().ErrorIs(err, types.ErrInvalidSubmission)

	s.Require().NoError(s.mean.Submit(s.ctx, id, oracleA, []byte("1")))
	err = s.mean.Submit(s.ctx, id, oracleA, []byte("2"))
	s.Require().ErrorIs(err, types.ErrDuplicateSubmission)

	s.Require().NoError(s.mean.Submit(s.ctx, id, oracleB, []byte("2")))
	s.Require().Len(s.finalizer.calls, 1)
	s.Require().Equal(word(1), s.finalizer.calls[0].value)
	s.Require().Equal([]sdk.AccAddress{oracleA, oracleB}, s.finalizer.calls[0].payees)

	err = s.mean.Submit(s.ctx, id, oracleC, []byte("3"))
	s.Require().ErrorIs(err, types.ErrClosedRound)

	err = s.mean.Submit(s.ctx, id, oracleB, []byte("3"))
	s.Require().ErrorIs(err, types.ErrDuplicateSubmission)
	s.Require().Len(s.finalizer.calls, 1)
}

func (s *AggregatorTestSuite) TestFinalizeFailureLeavesRoundOpen() {
	id := common.HexToHash("0x03")
	s.Require().NoError(s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 1)))

	s.finalizer.err = errors.New("boom")
	s.Require().Error(s.mean.Submit(s.ctx, id, oracleA, []byte("5")))

	round, found := s.mean.GetRound(s.ctx, id)
	s.Require().True(found)
	s.Require().False(round.Closed)
	s.Require().Empty(round.Submissions)

	s.finalizer.err = nil
	s.Require().NoError(s.mean.Submit(s.ctx, id, oracleA, []byte("5")))
	s.Require().Len(s.finalizer.calls, 1)
}

func (s *AggregatorTestSuite) TestDuplicateRound() {
	id := common.HexToHash("0x04")
	s.Require().NoError(s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 0)))
	err := s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 0))
	s.Require().ErrorIs(err, types.ErrRequestIDCollision)
}

func (s *AggregatorTestSuite) TestStrategiesKeepSeparateRounds() {
	id := common.HexToHash("0x05")
	s.Require().NoError(s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 0)))

	err := s.median.Submit(s.ctx, id, oracleA, []byte("1"))
	s.Require().ErrorIs(err, types.ErrUnknownRound)
}

func (s *AggregatorTestSuite) TestMedian() {
	tests := []struct {
		name   string
		quorum uint32
		values [][]byte
		exp    int64
	}{
		{name: "odd count", quorum: 3, values: [][]byte{[]byte("9"), []byte("1"), []byte("5")}, exp: 5},
		{name: "even count floors", quorum: 2, values: [][]byte{[]byte("4"), []byte("7")}, exp: 5},
	}

	oracles := []sdk.AccAddress{oracleA, oracleB, oracleC}
	for i, tc := range tests {
		s.Run(tc.name, func() {
			id := common.BigToHash(big.NewInt(int64(100 + i)))
			s.Require().NoError(s.median.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMedian, tc.quorum)))
			for j, v := range tc.values {
				s.Require().NoError(s.median.Submit(s.ctx, id, oracles[j], v))
			}
			last := s.finalizer.calls[len(s.finalizer.calls)-1]
			s.Require().Equal(id, last.requestID)
			s.Require().Equal(word(tc.exp), last.value)
		})
	}
}

func (s *AggregatorTestSuite) TestRouter() {
	router := DefaultRouter(s.mean, s.median)

	strategy, ok := router.GetStrategy(types.AggregatorMean)
	s.Require().True(ok)
	s.Require().Equal(types.AggregatorMean, strategy.Type())

	_, ok = router.GetStrategy(types.AggregatorNone)
	s.Require().False(ok)

	s.Require().Panics(func() { router.AddStrategy(NewMean(s.storeKey)) })
	router.Seal()
	s.Require().True(router.Sealed())
	s.Require().Len(router.Strategies(), 2)
}

func (s *AggregatorTestSuite) TestMeanWideDecimals() {
	id := common.HexToHash("0x0a")
	s.Require().NoError(s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 2)))

	// 32 digit literals are decimals, not words
	s.Require().NoError(s.mean.Submit(s.ctx, id, oracleA, []byte("10000000000000000000000000000000")))
	s.Require().NoError(s.mean.Submit(s.ctx, id, oracleB, []byte("30000000000000000000000000000000")))

	want, ok := new(big.Int).SetString("20000000000000000000000000000000", 10)
	s.Require().True(ok)
	s.Require().Len(s.finalizer.calls, 1)
	s.Require().Equal(types.EncodeWord(want), s.finalizer.calls[0].value)
}

func (s *AggregatorTestSuite) TestSubmitRejectsOversizedDecimal() {
	id := common.HexToHash("0x0b")
	s.Require().NoError(s.mean.OnRequestInitiated(s.ctx, id, s.agreement(types.AggregatorMean, 0)))

	huge := "1" + strings.Repeat("0", 80)
	err := s.mean.Submit(s.ctx, id, oracleA, []byte(huge))
	s.Require().ErrorIs(err, types.ErrInvalidSubmission)

	round, found := s.mean.GetRound(s.ctx, id)
	s.Require().True(found)
	s.Require().Empty(round.Submissions)
	s.Require().Empty(s.finalizer.calls)
}
