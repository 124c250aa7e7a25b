package types_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/suite"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/encoding/params"
	"github.com/GPTx-global/oraclelink/oracle/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesTestSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func requestEvent(attrs map[string]string) app.Event {
	ev := app.Event{Seq: 7, Height: 3, Type: coordinatortypes.EventTypeOracleRequest}
	for _, key := range []string{
		coordinatortypes.AttributeKeyRequestID,
		coordinatortypes.AttributeKeyAgreementID,
		coordinatortypes.AttributeKeyRequester,
		coordinatortypes.AttributeKeyPayment,
		coordinatortypes.AttributeKeyDataVersion,
		coordinatortypes.AttributeKeyParams,
	} {
		if v, ok := attrs[key]; ok {
			ev.Attributes = append(ev.Attributes, app.Attribute{Key: key, Value: v})
		}
	}
	return ev
}

func validAttrs() map[string]string {
	p := params.New().Add(params.KeyGet, "https://example.com").Add(params.KeyPath, "USD")
	return map[string]string{
		coordinatortypes.AttributeKeyRequestID:   common.HexToHash("0x01").Hex(),
		coordinatortypes.AttributeKeyAgreementID: common.HexToHash("0x02").Hex(),
		coordinatortypes.AttributeKeyRequester:   "guru1requester",
		coordinatortypes.AttributeKeyPayment:     "1000",
		coordinatortypes.AttributeKeyDataVersion: "1",
		coordinatortypes.AttributeKeyParams:      hexutil.Encode(p.MustEncode()),
	}
}

func (suite *TypesTestSuite) TestMakeJob() {
	job, err := types.MakeJob(requestEvent(validAttrs()))
	suite.Require().NoError(err)
	suite.Require().Equal(common.HexToHash("0x01"), job.RequestID)
	suite.Require().Equal(common.HexToHash("0x02"), job.AgreementID)
	suite.Require().Equal("guru1requester", job.Requester)
	suite.Require().Equal(sdkmath.NewInt(1000), job.Payment)
	suite.Require().EqualValues(1, job.DataVersion)
	suite.Require().EqualValues(7, job.Seq)

	url, ok := job.Params.GetString(params.KeyGet)
	suite.Require().True(ok)
	suite.Require().Equal("https://example.com", url)
}

func (suite *TypesTestSuite) TestMakeJobIgnoresOtherEvents() {
	job, err := types.MakeJob(app.Event{Type: coordinatortypes.EventTypeRequestFulfilled})
	suite.Require().NoError(err)
	suite.Require().Nil(job)
}

func (suite *TypesTestSuite) TestMakeJobErrors() {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"short request id", coordinatortypes.AttributeKeyRequestID, "0x01"},
		{"missing agreement", coordinatortypes.AttributeKeyAgreementID, ""},
		{"bad payment", coordinatortypes.AttributeKeyPayment, "ten"},
		{"bad version", coordinatortypes.AttributeKeyDataVersion, "-1"},
		{"params not hex", coordinatortypes.AttributeKeyParams, "zz"},
		{"params not a map", coordinatortypes.AttributeKeyParams, "0x01"},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			attrs := validAttrs()
			attrs[tc.key] = tc.value
			_, err := types.MakeJob(requestEvent(attrs))
			suite.Require().Error(err)
		})
	}
}
