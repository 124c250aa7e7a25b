package server_test

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/server"
	consumertypes "github.com/GPTx-global/oraclelink/x/consumer/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
	ledgertypes "github.com/GPTx-global/oraclelink/x/ledger/types"
)

var payment = sdkmath.NewInt(1000)

type ServerTestSuite struct {
	suite.Suite

	app       *app.App
	srv       *httptest.Server
	key       *ecdsa.PrivateKey
	oracle    sdk.AccAddress
	agreement coordinatortypes.ServiceAgreement
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.setup(func(cfg *server.Config) {})
}

func (s *ServerTestSuite) TearDownTest() {
	s.srv.Close()
	s.Require().NoError(s.app.Close())
}

func (s *ServerTestSuite) setup(configure func(cfg *server.Config)) {
	var err error
	s.key, err = crypto.GenerateKey()
	s.Require().NoError(err)
	s.oracle = coordinatortypes.AddressFromPubKey(&s.key.PublicKey)
	s.agreement = coordinatortypes.NewServiceAgreement([]sdk.AccAddress{s.oracle}, coordinatortypes.AggregatorNone, 0, payment)

	gs := app.DefaultGenesisState("oraclelink-api-1")
	gs.Coordinator.Agreements = append(gs.Coordinator.Agreements, s.agreement)
	gs.Consumers = append(gs.Consumers, app.ConsumerGenesis{Name: "eth-usd", AgreementID: s.agreement.ID})
	gs.Ledger.Balances = append(gs.Ledger.Balances, ledgertypes.Balance{
		Address: consumertypes.ConsumerAddress("eth-usd").String(),
		Coins:   sdk.NewCoins(sdk.NewCoin(coordinatortypes.DefaultParams().Denom, payment.MulRaw(3))),
	})

	s.app, err = app.New(log.NewNopLogger(), dbm.NewMemDB(), gs)
	s.Require().NoError(err)

	cfg := server.DefaultConfig()
	cfg.RateLimit = 0
	configure(&cfg)
	api, err := server.New(s.app, cfg, log.NewNopLogger())
	s.Require().NoError(err)
	s.srv = httptest.NewServer(api.Handler())
}

func (s *ServerTestSuite) do(method, path string, body any, out any) int {
	var reader *bytes.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(bz)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (s *ServerTestSuite) sign(digest []byte, key *ecdsa.PrivateKey) hexutil.Bytes {
	sig, err := coordinatortypes.Sign(digest, key)
	s.Require().NoError(err)
	return sig
}

func (s *ServerTestSuite) requestData() common.Hash {
	var res struct {
		RequestID common.Hash `json:"request_id"`
	}
	status := s.do(http.MethodPost, "/v1/consumers/eth-usd/requests", map[string]any{
		"params": map[string]any{"get": "https://example.com/price", "path": "USD", "times": 100},
	}, &res)
	s.Require().Equal(http.StatusCreated, status)
	return res.RequestID
}

func (s *ServerTestSuite) fulfill(id common.Hash, value []byte, key *ecdsa.PrivateKey) (int, map[string]any) {
	var res map[string]any
	oracle := coordinatortypes.AddressFromPubKey(&key.PublicKey)
	status := s.do(http.MethodPost, "/v1/requests/"+id.Hex()+"/fulfill", map[string]any{
		"oracle":    oracle.String(),
		"value":     hexutil.Bytes(value),
		"signature": s.sign(coordinatortypes.FulfillmentDigest(id, value), key),
	}, &res)
	return status, res
}

func (s *ServerTestSuite) TestHealth() {
	var res map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/health", nil, &res))
	s.Require().Equal("oraclelink-api-1", res["chain_id"])
	s.Require().EqualValues(1, res["height"])
}

func (s *ServerTestSuite) TestRegisterAgreement() {
	keyB, err := crypto.GenerateKey()
	s.Require().NoError(err)
	oracleB := coordinatortypes.AddressFromPubKey(&keyB.PublicKey)

	sa := coordinatortypes.NewServiceAgreement([]sdk.AccAddress{s.oracle, oracleB}, coordinatortypes.AggregatorMedian, 0, payment)
	body := map[string]any{
		"oracles":    []string{s.oracle.String(), oracleB.String()},
		"aggregator": "median",
		"payment":    payment,
		"signatures": []hexutil.Bytes{s.sign(sa.ID.Bytes(), s.key), s.sign(sa.ID.Bytes(), s.key)},
	}

	var errRes map[string]any
	s.Require().Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/v1/agreements", body, &errRes))
	s.Require().Equal(coordinatortypes.ModuleName, errRes["codespace"])

	body["signatures"] = []hexutil.Bytes{s.sign(sa.ID.Bytes(), s.key), s.sign(sa.ID.Bytes(), keyB)}
	var res struct {
		AgreementID common.Hash `json:"agreement_id"`
	}
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/v1/agreements", body, &res))
	s.Require().Equal(sa.ID, res.AgreementID)

	s.Require().Equal(http.StatusConflict, s.do(http.MethodPost, "/v1/agreements", body, nil))

	var got coordinatortypes.ServiceAgreement
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/agreements/"+sa.ID.Hex(), nil, &got))
	s.Require().Equal(sa.Oracles, got.Oracles)
	s.Require().Equal(coordinatortypes.AggregatorMedian, got.Aggregator)

	s.Require().Equal(http.StatusNotFound, s.do(http.MethodGet, "/v1/agreements/"+common.HexToHash("0x01").Hex(), nil, nil))
	s.Require().Equal(http.StatusBadRequest, s.do(http.MethodGet, "/v1/agreements/xyz", nil, nil))
}

func (s *ServerTestSuite) TestRequestAndFulfill() {
	id := s.requestData()

	var request map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/requests/"+id.Hex(), nil, &request))
	s.Require().Equal("pending", request["state"])
	s.Require().Equal(map[string]any{"get": "https://example.com/price", "path": "USD", "times": float64(100)}, request["decoded_params"])

	stranger, err := crypto.GenerateKey()
	s.Require().NoError(err)
	status, _ := s.fulfill(id, []byte("2071.33"), stranger)
	s.Require().Equal(http.StatusForbidden, status)

	status, _ = s.fulfill(id, []byte("2071.33"), s.key)
	s.Require().Equal(http.StatusOK, status)

	status, _ = s.fulfill(id, []byte("2071.33"), s.key)
	s.Require().Equal(http.StatusNotFound, status)

	var consumer map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/consumers/eth-usd", nil, &consumer))
	s.Require().Equal(hexutil.Encode([]byte("2071.33")), consumer["current_value"])
	s.Require().Equal(id.Hex(), consumer["last_fulfilled"])

	var account map[string]any
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+s.oracle.String(), nil, &account))
	s.Require().Equal(payment.String(), account["withdrawable"])
}

func (s *ServerTestSuite) TestForgedFulfillment() {
	id := s.requestData()
	value := []byte("1")

	stranger, err := crypto.GenerateKey()
	s.Require().NoError(err)
	var res map[string]any
	status := s.do(http.MethodPost, "/v1/requests/"+id.Hex()+"/fulfill", map[string]any{
		"oracle":    s.oracle.String(),
		"value":     hexutil.Bytes(value),
		"signature": s.sign(coordinatortypes.FulfillmentDigest(id, value), stranger),
	}, &res)
	s.Require().Equal(http.StatusUnauthorized, status)
}

func (s *ServerTestSuite) TestConsumerErrors() {
	s.Require().Equal(http.StatusNotFound, s.do(http.MethodGet, "/v1/consumers/btc-usd", nil, nil))
	s.Require().Equal(http.StatusNotFound, s.do(http.MethodPost, "/v1/consumers/btc-usd/requests", map[string]any{}, nil))

	for i := 0; i < 3; i++ {
		s.requestData()
	}
	var res map[string]any
	s.Require().Equal(http.StatusPaymentRequired, s.do(http.MethodPost, "/v1/consumers/eth-usd/requests", map[string]any{}, &res))
	s.Require().Equal(consumertypes.ModuleName, res["codespace"])

	var names []string
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/consumers", nil, &names))
	s.Require().Equal([]string{"eth-usd"}, names)
}

func (s *ServerTestSuite) TestWithdraw() {
	id := s.requestData()
	status, _ := s.fulfill(id, []byte("1"), s.key)
	s.Require().Equal(http.StatusOK, status)

	amount := sdkmath.NewInt(400)
	path := "/v1/oracles/" + s.oracle.String() + "/withdraw"
	s.Require().Equal(http.StatusPaymentRequired, s.do(http.MethodPost, path, map[string]any{
		"amount":    payment.AddRaw(1),
		"signature": s.sign(coordinatortypes.WithdrawalDigest(s.app.ChainID(), s.oracle, 0, payment.AddRaw(1)), s.key),
	}, nil))

	var account struct {
		Balances         sdk.Coins   `json:"balances"`
		Withdrawable     sdkmath.Int `json:"withdrawable"`
		WithdrawSequence uint64      `json:"withdraw_sequence"`
	}
	body := map[string]any{
		"amount":    amount,
		"signature": s.sign(coordinatortypes.WithdrawalDigest(s.app.ChainID(), s.oracle, 0, amount), s.key),
	}
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, path, body, &account))
	s.Require().True(account.Withdrawable.Equal(payment.Sub(amount)))
	s.Require().True(account.Balances.AmountOf(coordinatortypes.DefaultParams().Denom).Equal(amount))
	s.Require().Equal(uint64(1), account.WithdrawSequence)

	// replaying the same signed body is rejected and moves nothing
	s.Require().Equal(http.StatusUnauthorized, s.do(http.MethodPost, path, body, nil))
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+s.oracle.String(), nil, &account))
	s.Require().True(account.Withdrawable.Equal(payment.Sub(amount)))
	s.Require().True(account.Balances.AmountOf(coordinatortypes.DefaultParams().Denom).Equal(amount))
}

func (s *ServerTestSuite) TestEventsPaging() {
	s.requestData()

	var page struct {
		Events []app.Event `json:"events"`
		Last   uint64      `json:"last"`
	}
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/events?limit=1", nil, &page))
	s.Require().Len(page.Events, 1)
	s.Require().Equal(uint64(1), page.Last)

	all := s.app.Events(0, 0)
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/v1/events?after=1", nil, &page))
	s.Require().Len(page.Events, len(all)-1)
	s.Require().Equal(all[len(all)-1].Seq, page.Last)
	s.Require().Equal(coordinatortypes.EventTypeOracleRequest, page.Events[len(page.Events)-1].Type)

	s.Require().Equal(http.StatusBadRequest, s.do(http.MethodGet, "/v1/events?after=-1", nil, nil))
}

func (s *ServerTestSuite) TestEventStream() {
	last := s.app.Events(0, 0)
	after := last[len(last)-1].Seq

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/v1/events/ws?after=" + strconv.FormatUint(after-1, 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	var ev app.Event
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	s.Require().NoError(conn.ReadJSON(&ev))
	s.Require().Equal(after, ev.Seq)

	id := s.requestData()
	for {
		s.Require().NoError(conn.ReadJSON(&ev))
		if ev.Type == coordinatortypes.EventTypeOracleRequest {
			break
		}
	}
	s.Require().Equal(id.Hex(), ev.Attribute(coordinatortypes.AttributeKeyRequestID))
}

func (s *ServerTestSuite) TestFaucet() {
	s.Require().Equal(http.StatusNotFound, s.do(http.MethodPost, "/v1/faucet", map[string]any{"address": s.oracle.String()}, nil))

	s.TearDownTest()
	s.setup(func(cfg *server.Config) {
		cfg.EnableFaucet = true
		cfg.FaucetAmount = "25"
	})

	var coin sdk.Coin
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/v1/faucet", map[string]any{"address": s.oracle.String()}, &coin))
	s.Require().Equal(sdkmath.NewInt(25).String(), coin.Amount.String())
	s.Require().Equal(http.StatusBadRequest, s.do(http.MethodPost, "/v1/faucet", map[string]any{"address": "nope"}, nil))
}

func (s *ServerTestSuite) TestRateLimit() {
	s.TearDownTest()
	s.setup(func(cfg *server.Config) {
		cfg.RateLimit = 0.001
		cfg.RateBurst = 1
	})

	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/health", nil, nil))
	s.Require().Equal(http.StatusTooManyRequests, s.do(http.MethodGet, "/health", nil, nil))
}

