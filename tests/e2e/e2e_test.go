package e2e

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/GPTx-global/oraclelink/encoding/params"
	"github.com/GPTx-global/oraclelink/oracle/client"
	"github.com/GPTx-global/oraclelink/oracle/config"
	"github.com/GPTx-global/oraclelink/oracle/daemon"
	"github.com/GPTx-global/oraclelink/oracle/keys"
	"github.com/GPTx-global/oraclelink/testutil/network"
	guru "github.com/GPTx-global/oraclelink/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

const consumerName = "eth-usd"

var _ = BeforeSuite(func() {
	guru.SetBech32Prefixes(sdk.GetConfig())
})

// priceSource serves prices in turn, one per call.
func priceSource(prices ...string) *httptest.Server {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		i := calls.Add(1) - 1
		fmt.Fprintf(w, `{"ethereum": {"usd": %s}}`, prices[int(i)%len(prices)])
	}))
	DeferCleanup(srv.Close)
	return srv
}

func startOracles(net *network.Network) []*daemon.Daemon {
	var daemons []*daemon.Daemon
	for i := range net.Keys {
		cfg := config.Default()
		cfg.SetHome(GinkgoT().TempDir())
		cfg.Node.Endpoint = net.URL
		cfg.Fetch.BaseDelay = time.Millisecond
		cfg.Submit.BaseDelay = time.Millisecond

		d, err := daemon.New(cfg, keys.NewKey(net.Keys[i]))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- d.Run(ctx) }()
		DeferCleanup(func() {
			cancel()
			Expect(<-done).To(Succeed())
		})
		daemons = append(daemons, d)
	}
	return daemons
}

func requestPrice(net *network.Network, source string) common.Hash {
	consumer, ok := net.App.Consumer(consumerName)
	Expect(ok).To(BeTrue())

	p := params.New().
		Add(params.KeyGet, source).
		AddStringArray(params.KeyPath, []string{"ethereum", "usd"}).
		AddInt(params.KeyTimes, 100)

	var id common.Hash
	_, err := net.App.Execute(func(ctx sdk.Context) (err error) {
		id, err = consumer.RequestData(ctx, p)
		return err
	})
	Expect(err).NotTo(HaveOccurred())
	return id
}

func requestState(net *network.Network, id common.Hash) coordinatortypes.RequestState {
	var state coordinatortypes.RequestState
	_ = net.App.Query(func(ctx sdk.Context) error {
		r, found := net.App.CoordinatorKeeper.GetRequest(ctx, id)
		Expect(found).To(BeTrue())
		state = r.State
		return nil
	})
	return state
}

func currentValue(net *network.Network) []byte {
	consumer, _ := net.App.Consumer(consumerName)
	var value []byte
	_ = net.App.Query(func(ctx sdk.Context) error {
		value = consumer.CurrentValue(ctx)
		return nil
	})
	return value
}

var _ = Describe("Service agreements", func() {
	Context("with a single oracle", func() {
		var net *network.Network

		BeforeEach(func() {
			net = network.New(GinkgoT(), network.DefaultConfig())
			startOracles(net)
		})

		It("answers every request in order", func() {
			source := priceSource("1834.27", "1840.5")

			first := requestPrice(net, source.URL)
			Eventually(func() coordinatortypes.RequestState { return requestState(net, first) }).
				WithTimeout(10 * time.Second).WithPolling(20 * time.Millisecond).
				Should(Equal(coordinatortypes.RequestStateFulfilled))
			Expect(currentValue(net)).To(Equal(coordinatortypes.EncodeWord(big.NewInt(183427))))

			second := requestPrice(net, source.URL)
			Eventually(func() coordinatortypes.RequestState { return requestState(net, second) }).
				WithTimeout(10 * time.Second).WithPolling(20 * time.Millisecond).
				Should(Equal(coordinatortypes.RequestStateFulfilled))
			Expect(currentValue(net)).To(Equal(coordinatortypes.EncodeWord(big.NewInt(184050))))
		})
	})

	Context("with three oracles and a median", func() {
		var (
			net     *network.Network
			daemons []*daemon.Daemon
		)

		BeforeEach(func() {
			cfg := network.DefaultConfig()
			cfg.NumOracles = 3
			cfg.Aggregator = coordinatortypes.AggregatorMedian
			cfg.Payment = sdkmath.NewInt(999)
			net = network.New(GinkgoT(), cfg)
			daemons = startOracles(net)
		})

		It("stores the median and splits the payment", func() {
			source := priceSource("100", "300", "200")

			id := requestPrice(net, source.URL)
			Eventually(func() coordinatortypes.RequestState { return requestState(net, id) }).
				WithTimeout(10 * time.Second).WithPolling(20 * time.Millisecond).
				Should(Equal(coordinatortypes.RequestStateFulfilled))
			Expect(currentValue(net)).To(Equal(coordinatortypes.EncodeWord(big.NewInt(20000))))

			_ = net.App.Query(func(ctx sdk.Context) error {
				for _, d := range daemons {
					Expect(net.App.CoordinatorKeeper.GetWithdrawable(ctx, d.Address()).Int64()).To(Equal(int64(333)))
				}
				return nil
			})
		})

		It("lets an oracle withdraw its earnings", func() {
			source := priceSource("100", "300", "200")
			id := requestPrice(net, source.URL)
			Eventually(func() coordinatortypes.RequestState { return requestState(net, id) }).
				WithTimeout(10 * time.Second).WithPolling(20 * time.Millisecond).
				Should(Equal(coordinatortypes.RequestStateFulfilled))

			c, err := client.New(net.URL, 5*time.Second)
			Expect(err).NotTo(HaveOccurred())

			key := keys.NewKey(net.Keys[0])
			amount := sdkmath.NewInt(100)
			sig, err := key.Sign(coordinatortypes.WithdrawalDigest(net.App.ChainID(), key.Address(), 0, amount))
			Expect(err).NotTo(HaveOccurred())

			acc, err := c.Withdraw(context.Background(), key.Address(), amount, sig)
			Expect(err).NotTo(HaveOccurred())
			Expect(acc.Withdrawable.Int64()).To(Equal(int64(233)))
			Expect(acc.Balances.IsZero()).To(BeFalse())
			Expect(acc.WithdrawSequence).To(Equal(uint64(1)))

			// a replayed signature is rejected while earnings remain
			_, err = c.Withdraw(context.Background(), key.Address(), amount, sig)
			Expect(client.IsStatus(err, http.StatusUnauthorized)).To(BeTrue())
		})
	})
})
