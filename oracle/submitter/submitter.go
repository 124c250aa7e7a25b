package submitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/armon/go-metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/GPTx-global/oraclelink/oracle/client"
	"github.com/GPTx-global/oraclelink/oracle/config"
	"github.com/GPTx-global/oraclelink/oracle/log"
	"github.com/GPTx-global/oraclelink/oracle/retry"
	"github.com/GPTx-global/oraclelink/oracle/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// ErrAlreadyAnswered is returned when the coordinator no longer accepts a
// submission for the request: it was fulfilled, its round closed, or this
// oracle already submitted.
var ErrAlreadyAnswered = errors.New("request already answered")

// API is the part of the coordinator client used for submissions.
type API interface {
	Fulfill(ctx context.Context, requestID common.Hash, oracle sdk.AccAddress, value, sig []byte) error
}

type Signer interface {
	Address() sdk.AccAddress
	Sign(digest []byte) ([]byte, error)
}

// Submitter signs job results and delivers them to the coordinator.
type Submitter struct {
	api     API
	signer  Signer
	retry   retry.Config
	breaker *retry.CircuitBreaker
}

func New(api API, signer Signer, cfg config.SubmitConfig) *Submitter {
	return &Submitter{
		api:    api,
		signer: signer,
		retry: retry.Config{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			MaxDelay:    10 * cfg.BaseDelay,
			Multiplier:  2,
		},
		breaker: retry.NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout),
	}
}

// Breaker exposes the circuit state for health checks.
func (s *Submitter) Breaker() *retry.CircuitBreaker {
	return s.breaker
}

// Submit signs and posts a successful job result.
func (s *Submitter) Submit(ctx context.Context, res types.JobResult) error {
	if res.Err != nil {
		return fmt.Errorf("job failed: %w", res.Err)
	}
	id := res.Job.RequestID

	sig, err := s.signer.Sign(coordinatortypes.FulfillmentDigest(id, res.Value))
	if err != nil {
		return fmt.Errorf("failed to sign fulfillment: %w", err)
	}

	defer metrics.MeasureSince([]string{"oracle", "submit", "latency"}, time.Now())

	err = retry.Do(ctx, s.retry, func() error {
		return s.breaker.Execute(func() error {
			return classify(s.api.Fulfill(ctx, id, s.signer.Address(), res.Value, sig))
		})
	}, retryable)

	switch {
	case err == nil:
		metrics.IncrCounter([]string{"oracle", "submit", "success"}, 1)
		log.Infof("fulfilled request %s with %d byte value", id.Hex(), len(res.Value))
		return nil
	case errors.Is(err, ErrAlreadyAnswered):
		metrics.IncrCounter([]string{"oracle", "submit", "stale"}, 1)
		log.Debugf("request %s already answered: %v", id.Hex(), err)
		return ErrAlreadyAnswered
	default:
		metrics.IncrCounter([]string{"oracle", "submit", "failure"}, 1)
		return fmt.Errorf("failed to fulfill request %s: %w", id.Hex(), err)
	}
}

// classify marks coordinator rejections as permanent so that they are
// neither retried nor counted against the circuit.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if client.IsStatus(err, http.StatusNotFound) || client.IsStatus(err, http.StatusConflict) {
		return retry.Permanent(fmt.Errorf("%w: %v", ErrAlreadyAnswered, err))
	}
	if client.IsClientError(err) {
		return retry.Permanent(err)
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, retry.ErrCircuitOpen) {
		return true
	}
	if retry.IsPermanent(err) {
		return false
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return true
	}
	return retry.DefaultIsRetryable(err)
}
