// Package sender runs outbound Bot API calls on a bounded worker pool so
// handlers return without waiting on Telegram.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/rosterbot/core/logger"
	"github.com/m3rciful/rosterbot/core/metrics"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job could not be queued without blocking.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options sizes the pool. Zero values pick defaults.
type Options struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single job.
	Timeout time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher runs each queued job exactly once. Failures are logged with a
// token-free message and counted; nothing is retried.
type Dispatcher struct {
	timeout time.Duration
	jobs    chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	d := &Dispatcher{
		timeout: opts.Timeout,
		jobs:    make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.do(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run. It never blocks.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close drains the queue and waits for the workers. Safe to call twice.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) do(j job) {
	start := time.Now()
	err := d.runWithTimeout(j.run)

	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.Duration("elapsed", logger.Took(start)),
	}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}

	if err == nil {
		metrics.Sends.WithLabelValues(j.action, "ok").Inc()
		logger.Debug(j.ctx, "tg.sender", "send.ok", attrs...)
		return
	}

	kind := classifyError(err)
	d.errs.Add(1)
	metrics.Sends.WithLabelValues(j.action, kind).Inc()
	logger.Error(j.ctx, "tg.sender", "send.fail", append(attrs,
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("error_kind", kind),
	)...)
}

// runWithTimeout stops waiting after the timeout; the call itself keeps
// running in the background until the HTTP client gives up.
func (d *Dispatcher) runWithTimeout(run func() error) error {
	done := make(chan error, 1)
	go func() { done <- run() }()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return context.DeadlineExceeded
	}
}
