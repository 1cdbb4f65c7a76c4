package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/pricebook/internal/metrics"
)

var (
	// ErrQueueFull is returned when a user already has too many pending turns.
	ErrQueueFull = errors.New("user queue full")

	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// DispatcherConfig tunes a Dispatcher. Zero fields take defaults.
type DispatcherConfig struct {
	// Concurrency bounds turns running at once across all users (default 8).
	Concurrency int
	// QueueSize bounds pending turns per user (default 32).
	QueueSize int
	// IdleTimeout is how long a user's worker waits before exiting (default 2m).
	IdleTimeout time.Duration
	// TurnTimeout bounds a single turn (default 30s).
	TurnTimeout time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 2 * time.Minute
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = 30 * time.Second
	}
	return c
}

// Dispatcher runs turns of one user strictly in arrival order on a dedicated
// goroutine, while turns of different users run concurrently up to a global limit.
type Dispatcher struct {
	handle  func(ctx context.Context, in Inbound)
	cfg     DispatcherConfig
	sem     chan struct{}
	metrics *metrics.Metrics
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	workers map[string]chan Inbound
	closed  bool
}

func NewDispatcher(handle func(ctx context.Context, in Inbound), cfg DispatcherConfig, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handle:  handle,
		cfg:     cfg,
		sem:     make(chan struct{}, cfg.Concurrency),
		metrics: m,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		workers: make(map[string]chan Inbound),
	}
}

// Submit queues a turn without blocking.
func (d *Dispatcher) Submit(in Inbound) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	jobs, ok := d.workers[in.UserID]
	if !ok {
		jobs = make(chan Inbound, d.cfg.QueueSize)
		d.workers[in.UserID] = jobs
		d.wg.Add(1)
		d.metrics.WorkerStarted()
		go d.run(in.UserID, jobs)
	}

	select {
	case jobs <- in:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitUpdate parses and queues a raw update, recording the result under source.
func (d *Dispatcher) SubmitUpdate(source string, u Update) error {
	in, err := ParseUpdate(u)
	if err != nil {
		d.metrics.ObserveUpdate(source, "rejected")
		d.logger.Warn("Update rejected", "source", source, "update_id", u.UpdateID, "error", err)
		return err
	}
	if err := d.Submit(in); err != nil {
		d.metrics.ObserveUpdate(source, "dropped")
		d.logger.Warn("Update dropped", "source", source, "update_id", u.UpdateID, "user_id", in.UserID, "error", err)
		return err
	}
	d.metrics.ObserveUpdate(source, "accepted")
	return nil
}

// Workers returns the number of live per-user workers.
func (d *Dispatcher) Workers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

// Close stops accepting turns, cancels running ones and waits for workers to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run(userID string, jobs chan Inbound) {
	defer d.wg.Done()
	defer d.metrics.WorkerStopped()

	idle := time.NewTimer(d.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case in := <-jobs:
			d.process(in)
			idle.Reset(d.cfg.IdleTimeout)
		case <-idle.C:
			// Submit holds mu while enqueueing, so an empty queue here stays empty.
			d.mu.Lock()
			if len(jobs) > 0 {
				d.mu.Unlock()
				idle.Reset(d.cfg.IdleTimeout)
				continue
			}
			delete(d.workers, userID)
			d.mu.Unlock()
			return
		}
	}
}

func (d *Dispatcher) process(in Inbound) {
	select {
	case d.sem <- struct{}{}:
	case <-d.ctx.Done():
		return
	}
	defer func() { <-d.sem }()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Turn handler panicked", "user_id", in.UserID, "panic", fmt.Sprint(r))
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.TurnTimeout)
	defer cancel()
	d.handle(ctx, in)
}
