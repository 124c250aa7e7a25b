package types

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

var (
	oracleA = sdk.AccAddress([]byte("oracle_a____________"))
	oracleB = sdk.AccAddress([]byte("oracle_b____________"))
	oracleC = sdk.AccAddress([]byte("oracle_c____________"))
)

func TestComputeIDIsContentAddressed(t *testing.T) {
	a := NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB}, AggregatorMean, 0, sdkmath.NewInt(100))
	b := NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB}, AggregatorMean, 0, sdkmath.NewInt(100))
	require.Equal(t, a.ID, b.ID)

	variants := []ServiceAgreement{
		NewServiceAgreement([]sdk.AccAddress{oracleB, oracleA}, AggregatorMean, 0, sdkmath.NewInt(100)),
		NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB}, AggregatorMedian, 0, sdkmath.NewInt(100)),
		NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB}, AggregatorMean, 1, sdkmath.NewInt(100)),
		NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB}, AggregatorMean, 0, sdkmath.NewInt(101)),
	}
	for _, v := range variants {
		require.NotEqual(t, a.ID, v.ID)
	}
}

func TestServiceAgreementValidate(t *testing.T) {
	tests := []struct {
		name      string
		agreement func() ServiceAgreement
		expErr    error
	}{
		{
			name: "single oracle",
			agreement: func() ServiceAgreement {
				return NewServiceAgreement([]sdk.AccAddress{oracleA}, AggregatorNone, 0, sdkmath.NewInt(1))
			},
		},
		{
			name: "multi oracle with quorum",
			agreement: func() ServiceAgreement {
				return NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB, oracleC}, AggregatorMedian, 2, sdkmath.ZeroInt())
			},
		},
		{
			name: "empty oracle set",
			agreement: func() ServiceAgreement {
				return NewServiceAgreement(nil, AggregatorNone, 0, sdkmath.NewInt(1))
			},
			expErr: ErrInvalidAgreement,
		},
		{
			name: "duplicate oracle",
			agreement: func() ServiceAgreement {
				return NewServiceAgreement([]sdk.AccAddress{oracleA, oracleA}, AggregatorMean, 0, sdkmath.NewInt(1))
			},
			expErr: ErrInvalidAgreement,
		},
		{
			name: "quorum above oracle count",
			agreement: func() ServiceAgreement {
				return NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB}, AggregatorMean, 3, sdkmath.NewInt(1))
			},
			expErr: ErrInvalidAgreement,
		},
		{
			name: "negative payment",
			agreement: func() ServiceAgreement {
				return NewServiceAgreement([]sdk.AccAddress{oracleA}, AggregatorNone, 0, sdkmath.NewInt(-1))
			},
			expErr: ErrInvalidAgreement,
		},
		{
			name: "multi oracle without aggregator",
			agreement: func() ServiceAgreement {
				return NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB}, AggregatorNone, 0, sdkmath.NewInt(1))
			},
			expErr: ErrInvalidAgreement,
		},
		{
			name: "unknown aggregator",
			agreement: func() ServiceAgreement {
				return NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB}, AggregatorType(42), 0, sdkmath.NewInt(1))
			},
			expErr: ErrUnknownAggregator,
		},
		{
			name: "tampered id",
			agreement: func() ServiceAgreement {
				sa := NewServiceAgreement([]sdk.AccAddress{oracleA}, AggregatorNone, 0, sdkmath.NewInt(1))
				sa.Payment = sdkmath.NewInt(2)
				return sa
			},
			expErr: ErrInvalidAgreement,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.agreement().Validate()
			if tc.expErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expErr)
		})
	}
}

func TestEffectiveQuorum(t *testing.T) {
	sa := NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB, oracleC}, AggregatorMean, 0, sdkmath.NewInt(1))
	require.Equal(t, uint32(3), sa.EffectiveQuorum())

	sa = NewServiceAgreement([]sdk.AccAddress{oracleA, oracleB, oracleC}, AggregatorMean, 2, sdkmath.NewInt(1))
	require.Equal(t, uint32(2), sa.EffectiveQuorum())
	require.Equal(t, 1, sa.OracleIndex(oracleB))
	require.False(t, sa.HasOracle(sdk.AccAddress([]byte("stranger____________"))))
}

func TestParseAggregatorType(t *testing.T) {
	typ, err := ParseAggregatorType("Mean")
	require.NoError(t, err)
	require.Equal(t, AggregatorMean, typ)

	typ, err = ParseAggregatorType("")
	require.NoError(t, err)
	require.Equal(t, AggregatorNone, typ)

	_, err = ParseAggregatorType("mode")
	require.ErrorIs(t, err, ErrUnknownAggregator)
}
