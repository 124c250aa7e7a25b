package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/armon/go-metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/oracle/client"
	"github.com/GPTx-global/oraclelink/oracle/config"
	"github.com/GPTx-global/oraclelink/oracle/health"
	"github.com/GPTx-global/oraclelink/oracle/keys"
	"github.com/GPTx-global/oraclelink/oracle/log"
	"github.com/GPTx-global/oraclelink/oracle/monitor"
	"github.com/GPTx-global/oraclelink/oracle/retry"
	"github.com/GPTx-global/oraclelink/oracle/scheduler"
	"github.com/GPTx-global/oraclelink/oracle/submitter"
)

const cursorFlushInterval = time.Second

// Daemon follows the coordinator event stream, answers the requests of
// agreements its key belongs to and submits signed results.
type Daemon struct {
	cfg *config.Config
	key *keys.Key

	client    *client.Client
	monitor   *monitor.Monitor
	scheduler *scheduler.Scheduler
	submitter *submitter.Submitter
	health    *health.Checker
	sink      *metrics.InmemSink

	// lastSeq is the last event handed to the scheduler.
	lastSeq atomic.Uint64
	wg      sync.WaitGroup
}

// New creates a new oracle daemon with initialized components.
func New(cfg *config.Config, key *keys.Key) (*Daemon, error) {
	clt, err := client.New(cfg.Node.Endpoint, cfg.Fetch.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	sink := metrics.NewInmemSink(10*time.Second, time.Minute)
	metricsCfg := metrics.DefaultConfig("oracled")
	metricsCfg.EnableHostname = false
	metricsCfg.EnableRuntimeMetrics = false
	if _, err := metrics.NewGlobal(metricsCfg, sink); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	d := &Daemon{
		cfg:       cfg,
		key:       key,
		client:    clt,
		monitor:   monitor.New(clt, key.Address()),
		scheduler: scheduler.New(cfg.Worker, scheduler.NewExecutor(cfg.Fetch)),
		submitter: submitter.New(clt, key, cfg.Submit),
		health:    health.NewChecker(cfg.Health.Interval),
		sink:      sink,
	}

	d.health.AddCheck(health.NewFuncCheck("coordinator", func(ctx context.Context) error {
		_, err := clt.Health(ctx)
		return err
	}))
	d.health.AddCheck(health.NewFuncCheck("submitter", func(context.Context) error {
		if state := d.submitter.Breaker().State(); state == retry.StateOpen {
			return fmt.Errorf("circuit %s", state)
		}
		return nil
	}))

	return d, nil
}

func (d *Daemon) Address() sdk.AccAddress {
	return d.key.Address()
}

func (d *Daemon) Metrics() *metrics.InmemSink {
	return d.sink
}

func (d *Daemon) Health() *health.Checker {
	return d.health
}

// Run processes events until ctx is done. Requests that were scheduled but
// not answered before shutdown are replayed on the next run.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start, err := d.loadCursor()
	if err != nil {
		return err
	}
	d.lastSeq.Store(start)
	log.Infof("oracle %s following %s after seq %d", d.Address(), d.client.Endpoint(), start)

	d.scheduler.Start(ctx)
	for i := 0; i < d.cfg.Worker.Count; i++ {
		d.wg.Add(1)
		go d.serveResults(ctx)
	}
	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.health.Start(ctx)
	}()
	go d.flushCursor(ctx)

	err = d.client.Stream(ctx, start, func(ev app.Event) error {
		return d.handleEvent(ctx, ev)
	})

	cancel()
	d.scheduler.Stop()
	d.wg.Wait()
	if saveErr := d.saveCursor(); saveErr != nil {
		log.Errorf("failed to save cursor: %v", saveErr)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *Daemon) handleEvent(ctx context.Context, ev app.Event) error {
	job, err := d.monitor.Job(ctx, ev)
	if err != nil {
		metrics.IncrCounter([]string{"oracle", "event", "skipped"}, 1)
		log.Errorf("skipping event %d: %v", ev.Seq, err)
	}
	if job != nil {
		metrics.IncrCounter([]string{"oracle", "job", "scheduled"}, 1)
		switch err := d.scheduler.Schedule(job); {
		case errors.Is(err, scheduler.ErrDuplicateJob):
			log.Debugf("request %s already scheduled", job.RequestID.Hex())
		case err != nil:
			return err
		}
	}
	d.lastSeq.Store(ev.Seq)
	return nil
}

func (d *Daemon) serveResults(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case res := <-d.scheduler.Result():
			err := d.submitter.Submit(ctx, res)
			if err != nil && !errors.Is(err, submitter.ErrAlreadyAnswered) {
				log.Errorf("%v", err)
			}
			if ctx.Err() != nil && err != nil {
				// keep it pending so the cursor replays it
				return
			}
			d.scheduler.Done(res.Job.RequestID)
		case <-ctx.Done():
			return
		}
	}
}

// cursor is the sequence every earlier event has been fully handled up to.
func (d *Daemon) cursor() uint64 {
	last := d.lastSeq.Load()
	if oldest, ok := d.scheduler.OldestPending(); ok && oldest <= last {
		return oldest - 1
	}
	return last
}

func (d *Daemon) flushCursor(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(cursorFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := d.saveCursor(); err != nil {
				log.Errorf("failed to save cursor: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *Daemon) loadCursor() (uint64, error) {
	bz, err := os.ReadFile(d.cfg.CursorPath())
	if os.IsNotExist(err) {
		return d.cfg.Node.StartSeq, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}
	seq, err := strconv.ParseUint(strings.TrimSpace(string(bz)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor file %s: %w", d.cfg.CursorPath(), err)
	}
	return seq, nil
}

func (d *Daemon) saveCursor() error {
	path := d.cfg.CursorPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(d.cursor(), 10)), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
