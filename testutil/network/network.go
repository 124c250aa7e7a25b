// Package network boots an in-process coordinator with its HTTP API for
// tests of API clients.
package network

import (
	"crypto/ecdsa"
	"net/http/httptest"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/server"
	consumertypes "github.com/GPTx-global/oraclelink/x/consumer/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
	ledgertypes "github.com/GPTx-global/oraclelink/x/ledger/types"
)

type Config struct {
	ChainID    string
	NumOracles int
	Aggregator coordinatortypes.AggregatorType
	Quorum     uint32
	Payment    sdkmath.Int
	// Consumer is registered against the agreement and funded with
	// ConsumerFunds.
	Consumer      string
	ConsumerFunds sdkmath.Int
}

func DefaultConfig() Config {
	return Config{
		ChainID:       "oraclelink-net-1",
		NumOracles:    1,
		Aggregator:    coordinatortypes.AggregatorNone,
		Payment:       sdkmath.NewInt(1000),
		Consumer:      "eth-usd",
		ConsumerFunds: sdkmath.NewInt(10_000),
	}
}

// TestingT is satisfied by *testing.T and by ginkgo's GinkgoT().
type TestingT interface {
	require.TestingT
	Helper()
	Cleanup(func())
}

type Network struct {
	App       *app.App
	Server    *httptest.Server
	URL       string
	Keys      []*ecdsa.PrivateKey
	Oracles   []sdk.AccAddress
	Agreement coordinatortypes.ServiceAgreement
}

// New starts a coordinator from a genesis built from cfg. It is shut down
// with the test.
func New(t TestingT, cfg Config) *Network {
	t.Helper()

	n := &Network{}
	for i := 0; i < cfg.NumOracles; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		n.Keys = append(n.Keys, key)
		n.Oracles = append(n.Oracles, coordinatortypes.AddressFromPubKey(&key.PublicKey))
	}
	n.Agreement = coordinatortypes.NewServiceAgreement(n.Oracles, cfg.Aggregator, cfg.Quorum, cfg.Payment)

	gs := app.DefaultGenesisState(cfg.ChainID)
	gs.Coordinator.Agreements = append(gs.Coordinator.Agreements, n.Agreement)
	if cfg.Consumer != "" {
		gs.Consumers = append(gs.Consumers, app.ConsumerGenesis{Name: cfg.Consumer, AgreementID: n.Agreement.ID})
		gs.Ledger.Balances = append(gs.Ledger.Balances, ledgertypes.Balance{
			Address: consumertypes.ConsumerAddress(cfg.Consumer).String(),
			Coins:   sdk.NewCoins(sdk.NewCoin(gs.Coordinator.Params.Denom, cfg.ConsumerFunds)),
		})
	}

	var err error
	n.App, err = app.New(log.NewNopLogger(), dbm.NewMemDB(), gs)
	require.NoError(t, err)

	srvCfg := server.DefaultConfig()
	srvCfg.RateLimit = 0
	api, err := server.New(n.App, srvCfg, log.NewNopLogger())
	require.NoError(t, err)

	n.Server = httptest.NewServer(api.Handler())
	n.URL = n.Server.URL

	t.Cleanup(func() {
		n.Server.CloseClientConnections()
		n.Server.Close()
		_ = n.App.Close()
	})
	return n
}
