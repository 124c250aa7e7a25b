// Package health runs periodic liveness checks of the oracle node's
// dependencies.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/GPTx-global/oraclelink/oracle/log"
)

type Check interface {
	Check(ctx context.Context) error
	Name() string
}

type Status struct {
	Healthy   bool
	LastCheck time.Time
	LastError error
}

type Checker struct {
	mu       sync.RWMutex
	checks   map[string]Check
	status   map[string]Status
	interval time.Duration
}

func NewChecker(interval time.Duration) *Checker {
	return &Checker{
		checks:   make(map[string]Check),
		status:   make(map[string]Status),
		interval: interval,
	}
}

func (c *Checker) AddCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := check.Name()
	c.checks[name] = check
	c.status[name] = Status{Healthy: true, LastCheck: time.Now()}
}

// Start runs every check immediately and then once per interval until ctx
// is done.
func (c *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunChecks(ctx)
	for {
		select {
		case <-ticker.C:
			c.RunChecks(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunChecks runs all checks concurrently and waits for them to finish.
func (c *Checker) RunChecks(ctx context.Context) {
	c.mu.RLock()
	checks := make([]Check, 0, len(c.checks))
	for _, check := range c.checks {
		checks = append(checks, check)
	}
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(check Check) {
			defer wg.Done()

			err := check.Check(ctx)

			c.mu.Lock()
			prev := c.status[check.Name()]
			c.status[check.Name()] = Status{Healthy: err == nil, LastCheck: time.Now(), LastError: err}
			c.mu.Unlock()

			switch {
			case err != nil:
				log.Errorf("health check %s failed: %v", check.Name(), err)
			case !prev.Healthy:
				log.Infof("health check %s recovered", check.Name())
			}
		}(check)
	}
	wg.Wait()
}

func (c *Checker) Status() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Status, len(c.status))
	for name, status := range c.status {
		result[name] = status
	}
	return result
}

func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, status := range c.status {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// FuncCheck adapts a function to a Check.
type FuncCheck struct {
	name string
	fn   func(ctx context.Context) error
}

func NewFuncCheck(name string, fn func(ctx context.Context) error) *FuncCheck {
	return &FuncCheck{name: name, fn: fn}
}

func (f *FuncCheck) Check(ctx context.Context) error {
	return f.fn(ctx)
}

func (f *FuncCheck) Name() string {
	return f.name
}
