// Package client talks to the coordinator HTTP API and its event stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/GPTx-global/oraclelink/app"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

const maxResponseSize = 4 << 20

// APIError is a non-2xx answer of the coordinator.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"error"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Codespace != "" {
		return fmt.Sprintf("status %d: %s (%s/%d)", e.Status, e.Message, e.Codespace, e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsClientError reports whether the coordinator rejected the call itself, as
// opposed to failing to serve it.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests
}

type Health struct {
	ChainID string `json:"chain_id"`
	Height  int64  `json:"height"`
}

type Request struct {
	ID            common.Hash                   `json:"id"`
	Requester     string                        `json:"requester"`
	AgreementID   common.Hash                   `json:"agreement_id"`
	Params        hexutil.Bytes                 `json:"params"`
	Payment       sdkmath.Int                   `json:"payment"`
	Nonce         uint64                        `json:"nonce"`
	DataVersion   uint32                        `json:"data_version"`
	CreatedHeight int64                         `json:"created_height"`
	State         coordinatortypes.RequestState `json:"state"`
	Result        hexutil.Bytes                 `json:"result,omitempty"`
}

type Account struct {
	Address      string      `json:"address"`
	Balances     sdk.Coins   `json:"balances"`
	Withdrawable sdkmath.Int `json:"withdrawable"`
	Deposit      sdkmath.Int `json:"deposit"`
	Nonce        uint64      `json:"nonce"`
	// WithdrawSequence goes into the next withdrawal signature.
	WithdrawSequence uint64 `json:"withdraw_sequence"`
}

type eventsPage struct {
	Events []app.Event `json:"events"`
	Last   uint64      `json:"last"`
}

type Client struct {
	base       *url.URL
	httpClient *http.Client
}

func New(endpoint string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("endpoint must be http(s): %q", endpoint)
	}
	return &Client{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Endpoint() string {
	return c.base.String()
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(bz)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	bz, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(bz, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bz, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &h)
	return h, err
}

func (c *Client) Agreement(ctx context.Context, id common.Hash) (coordinatortypes.ServiceAgreement, error) {
	var sa coordinatortypes.ServiceAgreement
	err := c.do(ctx, http.MethodGet, "/v1/agreements/"+id.Hex(), nil, nil, &sa)
	return sa, err
}

func (c *Client) Request(ctx context.Context, id common.Hash) (Request, error) {
	var r Request
	err := c.do(ctx, http.MethodGet, "/v1/requests/"+id.Hex(), nil, nil, &r)
	return r, err
}

func (c *Client) Account(ctx context.Context, addr sdk.AccAddress) (Account, error) {
	var a Account
	err := c.do(ctx, http.MethodGet, "/v1/accounts/"+addr.String(), nil, nil, &a)
	return a, err
}

// Fulfill submits value for a request. sig signs the fulfillment digest.
func (c *Client) Fulfill(ctx context.Context, requestID common.Hash, oracle sdk.AccAddress, value, sig []byte) error {
	body := struct {
		Oracle    string        `json:"oracle"`
		Value     hexutil.Bytes `json:"value"`
		Signature hexutil.Bytes `json:"signature"`
	}{oracle.String(), value, sig}
	return c.do(ctx, http.MethodPost, "/v1/requests/"+requestID.Hex()+"/fulfill", nil, body, nil)
}

// Withdraw moves amount of oracle's withdrawable balance to its account.
func (c *Client) Withdraw(ctx context.Context, oracle sdk.AccAddress, amount sdkmath.Int, sig []byte) (Account, error) {
	body := struct {
		Amount    sdkmath.Int   `json:"amount"`
		Signature hexutil.Bytes `json:"signature"`
	}{amount, sig}
	var a Account
	err := c.do(ctx, http.MethodPost, "/v1/oracles/"+oracle.String()+"/withdraw", nil, body, &a)
	return a, err
}

// Events returns up to limit committed events after seq, and the sequence
// to continue from.
func (c *Client) Events(ctx context.Context, after uint64, limit int) ([]app.Event, uint64, error) {
	query := url.Values{}
	query.Set("after", strconv.FormatUint(after, 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var page eventsPage
	if err := c.do(ctx, http.MethodGet, "/v1/events", query, nil, &page); err != nil {
		return nil, after, err
	}
	return page.Events, page.Last, nil
}
