package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/GPTx-global/oraclelink/oracle/config"
	"github.com/GPTx-global/oraclelink/oracle/log"
	"github.com/GPTx-global/oraclelink/oracle/types"
)

var (
	ErrDuplicateJob = errors.New("job already scheduled")
	ErrStopped      = errors.New("scheduler stopped")
)

// Runner computes the value for a job.
type Runner interface {
	Execute(ctx context.Context, job *types.Job) ([]byte, error)
}

// Scheduler runs jobs on a fixed pool of workers. A request is scheduled at
// most once until Done is called for it.
type Scheduler struct {
	wg          sync.WaitGroup
	quit        chan struct{}
	stopOnce    sync.Once
	workers     int
	runner      Runner
	jobStore    cmap.ConcurrentMap[string, *types.Job]
	jobQueue    chan *types.Job
	resultQueue chan types.JobResult
}

func New(cfg config.WorkerConfig, runner Runner) *Scheduler {
	return &Scheduler{
		quit:        make(chan struct{}),
		workers:     cfg.Count,
		runner:      runner,
		jobStore:    cmap.New[*types.Job](),
		jobQueue:    make(chan *types.Job, cfg.QueueSize),
		resultQueue: make(chan types.JobResult, cfg.QueueSize),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
}

// Schedule queues job unless its request is already in flight. It blocks
// while the queue is full.
func (s *Scheduler) Schedule(job *types.Job) error {
	select {
	case <-s.quit:
		return ErrStopped
	default:
	}
	if !s.jobStore.SetIfAbsent(job.RequestID.Hex(), job) {
		return ErrDuplicateJob
	}

	select {
	case s.jobQueue <- job:
		log.Debugf("scheduled request %s", job.RequestID.Hex())
		return nil
	case <-s.quit:
		s.jobStore.Remove(job.RequestID.Hex())
		return ErrStopped
	}
}

// Done releases a request so that it can be scheduled again.
func (s *Scheduler) Done(id common.Hash) {
	s.jobStore.Remove(id.Hex())
}

// Pending is the number of requests scheduled and not yet released.
func (s *Scheduler) Pending() int {
	return s.jobStore.Count()
}

// OldestPending returns the lowest event sequence among unreleased jobs.
func (s *Scheduler) OldestPending() (uint64, bool) {
	var (
		oldest uint64
		found  bool
	)
	s.jobStore.IterCb(func(_ string, job *types.Job) {
		if !found || job.Seq < oldest {
			oldest, found = job.Seq, true
		}
	})
	return oldest, found
}

func (s *Scheduler) Result() <-chan types.JobResult {
	return s.resultQueue
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case job := <-s.jobQueue:
			value, err := s.runner.Execute(ctx, job)
			if err != nil {
				log.Errorf("failed to execute request %s: %v", job.RequestID.Hex(), err)
			}

			select {
			case s.resultQueue <- types.JobResult{Job: job, Value: value, Err: err}:
			case <-s.quit:
				return
			case <-ctx.Done():
				return
			}

		case <-s.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}
