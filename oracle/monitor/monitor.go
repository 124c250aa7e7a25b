// Package monitor selects the oracle requests this node is responsible for
// from the coordinator's event log.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/oracle/client"
	"github.com/GPTx-global/oraclelink/oracle/log"
	"github.com/GPTx-global/oraclelink/oracle/retry"
	"github.com/GPTx-global/oraclelink/oracle/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

type AgreementSource interface {
	Agreement(ctx context.Context, id common.Hash) (coordinatortypes.ServiceAgreement, error)
}

// Monitor turns oracle_request events into jobs for agreements that list
// this node's oracle address. Agreements never change once registered, so
// membership is cached per agreement id.
type Monitor struct {
	source     AgreementSource
	oracle     sdk.AccAddress
	membership cmap.ConcurrentMap[string, bool]
	retry      retry.Config
}

func New(source AgreementSource, oracle sdk.AccAddress) *Monitor {
	return &Monitor{
		source:     source,
		oracle:     oracle,
		membership: cmap.New[bool](),
		retry: retry.Config{
			MaxAttempts: 5,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Multiplier:  2,
		},
	}
}

// Job returns the job for ev, or nil when ev is not a request for this node.
func (m *Monitor) Job(ctx context.Context, ev app.Event) (*types.Job, error) {
	job, err := types.MakeJob(ev)
	if err != nil || job == nil {
		return nil, err
	}

	member, err := m.isMember(ctx, job.AgreementID)
	if err != nil {
		return nil, err
	}
	if !member {
		log.Debugf("request %s is not for %s", job.RequestID.Hex(), m.oracle)
		return nil, nil
	}
	return job, nil
}

func (m *Monitor) isMember(ctx context.Context, agreementID common.Hash) (bool, error) {
	if member, ok := m.membership.Get(agreementID.Hex()); ok {
		return member, nil
	}

	var agreement coordinatortypes.ServiceAgreement
	err := retry.Do(ctx, m.retry, func() (err error) {
		agreement, err = m.source.Agreement(ctx, agreementID)
		if client.IsClientError(err) {
			return retry.Permanent(err)
		}
		return err
	}, retry.DefaultIsRetryable)

	switch {
	case client.IsStatus(err, http.StatusNotFound):
		m.membership.Set(agreementID.Hex(), false)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to load agreement %s: %w", agreementID.Hex(), err)
	}

	member := agreement.HasOracle(m.oracle)
	m.membership.Set(agreementID.Hex(), member)
	if member {
		log.Infof("serving agreement %s (%s, %d oracles)", agreementID.Hex(), agreement.Aggregator, len(agreement.Oracles))
	}
	return member, nil
}
