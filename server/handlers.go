package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/encoding/params"
	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

const maxBodySize = 1 << 20

type healthResponse struct {
	ChainID string `json:"chain_id"`
	Height  int64  `json:"height"`
}

type registerAgreementBody struct {
	Oracles    []string        `json:"oracles"`
	Aggregator string          `json:"aggregator"`
	Quorum     uint32          `json:"quorum"`
	Payment    sdkmath.Int     `json:"payment"`
	Signatures []hexutil.Bytes `json:"signatures"`
}

type agreementResponse struct {
	AgreementID common.Hash `json:"agreement_id"`
}

type fulfillBody struct {
	Oracle    string        `json:"oracle"`
	Value     hexutil.Bytes `json:"value"`
	Signature hexutil.Bytes `json:"signature"`
}

type withdrawBody struct {
	Amount    sdkmath.Int   `json:"amount"`
	Signature hexutil.Bytes `json:"signature"`
}

type consumerRequestBody struct {
	Params json.RawMessage `json:"params"`
}

type requestIDResponse struct {
	RequestID common.Hash `json:"request_id"`
}

type faucetBody struct {
	Address string `json:"address"`
}

// requestView is the JSON form of a stored request.
type requestView struct {
	ID            common.Hash        `json:"id"`
	Requester     string             `json:"requester"`
	AgreementID   common.Hash        `json:"agreement_id"`
	Params        hexutil.Bytes      `json:"params"`
	DecodedParams params.Params      `json:"decoded_params,omitempty"`
	Payment       sdkmath.Int        `json:"payment"`
	Nonce         uint64             `json:"nonce"`
	DataVersion   uint32             `json:"data_version"`
	CreatedHeight int64              `json:"created_height"`
	CreatedAt     int64              `json:"created_at"`
	State         types.RequestState `json:"state"`
	Result        hexutil.Bytes      `json:"result,omitempty"`
}

func newRequestView(r types.Request) requestView {
	view := requestView{
		ID:            r.ID,
		Requester:     r.Requester.String(),
		AgreementID:   r.AgreementID,
		Params:        r.Params,
		Payment:       r.Payment,
		Nonce:         r.Nonce,
		DataVersion:   r.DataVersion,
		CreatedHeight: r.CreatedHeight,
		CreatedAt:     r.CreatedAt,
		State:         r.State,
		Result:        r.Result,
	}
	if decoded, err := params.Decode(r.Params); err == nil {
		view.DecodedParams = decoded
	}
	return view
}

type consumerView struct {
	Name          string        `json:"name"`
	Address       string        `json:"address"`
	AgreementID   common.Hash   `json:"agreement_id"`
	Balance       sdk.Coin      `json:"balance"`
	CurrentValue  hexutil.Bytes `json:"current_value,omitempty"`
	LastFulfilled *common.Hash  `json:"last_fulfilled,omitempty"`
}

type accountView struct {
	Address      string      `json:"address"`
	Balances     sdk.Coins   `json:"balances"`
	Withdrawable sdkmath.Int `json:"withdrawable"`
	Deposit      sdkmath.Int `json:"deposit"`
	Nonce        uint64      `json:"nonce"`
	// WithdrawSequence is signed into the oracle's next withdrawal.
	WithdrawSequence uint64 `json:"withdraw_sequence"`
}

type eventsResponse struct {
	Events []app.Event `json:"events"`
	Last   uint64      `json:"last"`
}

func decodeBody(r *http.Request, v any) error {
	bz, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pathHash(r *http.Request, name string) (common.Hash, error) {
	raw := mux.Vars(r)[name]
	bz, err := hexutil.Decode(raw)
	if err != nil || len(bz) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid %s %q", name, raw)
	}
	return common.BytesToHash(bz), nil
}

func pathAddress(r *http.Request) (sdk.AccAddress, error) {
	addr, err := sdk.AccAddressFromBech32(mux.Vars(r)["address"])
	if err != nil {
		return nil, errorsmod.Wrap(sdkerrors.ErrInvalidAddress, err.Error())
	}
	return addr, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{ChainID: s.app.ChainID(), Height: s.app.LastHeight()})
}

func (s *Server) handleRegisterAgreement(w http.ResponseWriter, r *http.Request) {
	var body registerAgreementBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := &types.MsgRegisterAgreement{
		Oracles:    body.Oracles,
		Aggregator: body.Aggregator,
		Quorum:     body.Quorum,
		Payment:    body.Payment,
		Signatures: make([][]byte, len(body.Signatures)),
	}
	for i, sig := range body.Signatures {
		msg.Signatures[i] = sig
	}

	var res *types.MsgRegisterAgreementResponse
	_, err := s.app.Execute(func(ctx sdk.Context) (err error) {
		res, err = s.msgServer.RegisterAgreement(sdk.WrapSDKContext(ctx), msg)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, agreementResponse{AgreementID: res.AgreementID})
}

func (s *Server) handleGetAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := pathHash(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var agreement types.ServiceAgreement
	err = s.app.Query(func(ctx sdk.Context) (err error) {
		agreement, err = s.app.CoordinatorKeeper.GetAgreement(ctx, id)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agreement)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathHash(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		request types.Request
		found   bool
	)
	_ = s.app.Query(func(ctx sdk.Context) error {
		request, found = s.app.CoordinatorKeeper.GetRequest(ctx, id)
		return nil
	})
	if !found {
		writeErr(w, errorsmod.Wrapf(types.ErrUnknownRequest, "%s", id.Hex()))
		return
	}
	writeJSON(w, http.StatusOK, newRequestView(request))
}

func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	id, err := pathHash(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body fulfillBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := &types.MsgFulfillOracleRequest{
		Oracle:    body.Oracle,
		RequestID: id,
		Value:     body.Value,
		Signature: body.Signature,
	}
	_, err = s.app.Execute(func(ctx sdk.Context) error {
		_, err := s.msgServer.FulfillOracleRequest(sdk.WrapSDKContext(ctx), msg)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requestIDResponse{RequestID: id})
}

func (s *Server) handleListConsumers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.ConsumerNames())
}

func (s *Server) handleGetConsumer(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	consumer, ok := s.app.Consumer(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown consumer %q", name))
		return
	}

	view := consumerView{
		Name:        consumer.Name(),
		Address:     consumer.Address().String(),
		AgreementID: consumer.AgreementID(),
	}
	_ = s.app.Query(func(ctx sdk.Context) error {
		denom := s.app.CoordinatorKeeper.GetParams(ctx).Denom
		view.Balance = s.app.LedgerKeeper.GetBalance(ctx, consumer.Address(), denom)
		view.CurrentValue = consumer.CurrentValue(ctx)
		if last, found := consumer.LastFulfilled(ctx); found {
			view.LastFulfilled = &last
		}
		return nil
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleConsumerRequest(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	consumer, ok := s.app.Consumer(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown consumer %q", name))
		return
	}

	var body consumerRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := params.New()
	if len(body.Params) > 0 {
		var err error
		if p, err = params.FromJSON(body.Params); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var id common.Hash
	_, err := s.app.Execute(func(ctx sdk.Context) (err error) {
		id, err = consumer.RequestData(ctx, p)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, requestIDResponse{RequestID: id})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	view := accountView{Address: addr.String()}
	_ = s.app.Query(func(ctx sdk.Context) error {
		k := s.app.CoordinatorKeeper
		view.Balances = s.app.LedgerKeeper.GetAllBalances(ctx, addr)
		view.Withdrawable = k.GetWithdrawable(ctx, addr)
		view.Deposit = k.GetDeposit(ctx, addr)
		view.Nonce = k.GetNonce(ctx, addr)
		view.WithdrawSequence = k.GetWithdrawSequence(ctx, addr)
		return nil
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var body withdrawBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := &types.MsgWithdraw{Oracle: addr.String(), Amount: body.Amount, Signature: body.Signature}
	_, err = s.app.Execute(func(ctx sdk.Context) error {
		_, err := s.msgServer.Withdraw(sdk.WrapSDKContext(ctx), msg)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	s.handleGetAccount(w, r)
}

func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	var body faucetBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	addr, err := sdk.AccAddressFromBech32(body.Address)
	if err != nil {
		writeErr(w, errorsmod.Wrap(sdkerrors.ErrInvalidAddress, err.Error()))
		return
	}

	var coin sdk.Coin
	_, err = s.app.Execute(func(ctx sdk.Context) error {
		coin = sdk.NewCoin(s.app.CoordinatorKeeper.GetParams(ctx).Denom, s.faucet)
		return s.app.LedgerKeeper.MintCoins(ctx, addr, sdk.NewCoins(coin))
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coin)
}

func queryUint(r *http.Request, key string) (uint64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	after, err := queryUint(r, "after")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryUint(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit == 0 || limit > uint64(s.cfg.MaxPageSize) {
		limit = uint64(s.cfg.MaxPageSize)
	}

	events := s.app.Events(after, int(limit))
	res := eventsResponse{Events: events, Last: after}
	if res.Events == nil {
		res.Events = []app.Event{}
	}
	if len(events) > 0 {
		res.Last = events[len(events)-1].Seq
	}
	writeJSON(w, http.StatusOK, res)
}
