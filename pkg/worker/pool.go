/*
Package worker provides a fixed-size worker pool with optional rate limiting.
Results come back in submission order regardless of completion order, which
lets callers fan work out without giving up deterministic output.

Basic usage:

	pool, err := worker.NewPool(worker.Config{Workers: 4})
	if err != nil {
		return err
	}
	pool.Start(ctx)
	defer pool.Stop()

	pool.Submit(worker.Task{
		ID: 1,
		Execute: func(ctx context.Context) (worker.Result, error) {
			return worker.Result{ID: 1, Data: "processed"}, nil
		},
	})

	results, err := pool.Wait()
*/
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotStarted is returned when the pool is used before Start.
var ErrNotStarted = errors.New("pool not started")

// Task represents a unit of work to be processed by the worker pool
type Task struct {
	// ID identifies the task in errors and results
	ID int

	// Execute performs the work
	Execute func(context.Context) (Result, error)
}

// Result represents the output of a processed task
type Result struct {
	// ID matches the task ID that produced this result
	ID int

	// Data holds the actual result data
	Data interface{}

	order int
}

// Config holds the configuration for the worker pool
type Config struct {
	// Workers is the number of concurrent workers
	Workers int

	// RateLimit is the maximum number of task starts per second (0 for unlimited)
	RateLimit int
}

// Pool defines the interface for a worker pool
type Pool interface {
	// Start launches the workers
	Start(context.Context) error

	// Submit queues a task. It blocks while the queue is full.
	Submit(Task) error

	// Wait closes the queue, blocks until all submitted tasks are processed
	// and returns their results in submission order. The first task error,
	// if any, is returned instead.
	Wait() ([]Result, error)

	// Stats returns current statistics about the pool
	Stats() Stats

	// Status returns the current status of the pool
	Status() Status

	// Stop cancels outstanding work and waits for the workers to exit
	Stop() error
}

type queued struct {
	Task
	order int
}

type pool struct {
	config  Config
	limiter *rate.Limiter

	tasks  chan queued
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// sendMu keeps the task channel open while a Submit is sending on it
	sendMu sync.RWMutex

	mu        sync.Mutex
	started   bool
	closed    bool
	nextOrder int
	results   []Result
	firstErr  error
	completed int
	failed    int
	startTime time.Time

	active atomic.Int32
}

// NewPool creates a new worker pool with the given configuration
func NewPool(config Config) (Pool, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &pool{
		config:  config,
		limiter: limiter,
		tasks:   make(chan queued, config.Workers*2),
	}, nil
}

func validateConfig(config Config) error {
	if config.Workers <= 0 {
		return fmt.Errorf("number of workers must be positive")
	}
	if config.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}
	return nil
}

func (p *pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("pool already started")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true
	p.startTime = time.Now()

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return nil
}

func (p *pool) Submit(task Task) error {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrNotStarted
	}
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("pool is no longer accepting tasks")
	}
	order := p.nextOrder
	p.nextOrder++
	ctx := p.ctx
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("pool is shutting down: %w", ctx.Err())
	case p.tasks <- queued{Task: task, order: order}:
		return nil
	}
}

func (p *pool) Wait() ([]Result, error) {
	if !p.closeQueue() {
		return nil, ErrNotStarted
	}

	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.firstErr != nil {
		return nil, p.firstErr
	}

	results := make([]Result, len(p.results))
	copy(results, p.results)
	sort.Slice(results, func(i, j int) bool {
		return results[i].order < results[j].order
	})
	return results, nil
}

func (p *pool) Stop() error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil
	}

	p.cancel()
	p.closeQueue()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(500 * time.Millisecond):
		return fmt.Errorf("shutdown timed out")
	}
}

// closeQueue closes the task channel once. It reports false if the pool was
// never started.
func (p *pool) closeQueue() bool {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return false
	}
	if !p.closed {
		close(p.tasks)
		p.closed = true
	}
	return true
}

func (p *pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var uptime time.Duration
	if p.started {
		uptime = time.Since(p.startTime)
	}

	return Stats{
		ActiveWorkers:  int(p.active.Load()),
		QueuedTasks:    len(p.tasks),
		CompletedTasks: p.completed,
		FailedTasks:    p.failed,
		Status:         p.statusLocked(),
		Uptime:         uptime,
	}
}

func (p *pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *pool) statusLocked() Status {
	if !p.started || p.ctx.Err() != nil {
		return StatusStopped
	}
	if p.active.Load() > 0 || len(p.tasks) > 0 {
		return StatusProcessing
	}
	return StatusIdle
}

func (p *pool) worker() {
	defer p.wg.Done()

	for item := range p.tasks {
		if p.ctx.Err() != nil {
			continue
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(p.ctx); err != nil {
				p.record(item, Result{}, fmt.Errorf("rate limiter error: %w", err))
				continue
			}
		}

		p.active.Add(1)
		result, err := item.Execute(p.ctx)
		p.active.Add(-1)

		p.record(item, result, err)
	}
}

func (p *pool) record(item queued, result Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.failed++
		if p.firstErr == nil {
			p.firstErr = fmt.Errorf("task %d failed: %w", item.ID, err)
		}
		return
	}

	result.order = item.order
	p.completed++
	p.results = append(p.results, result)
}
