// Package reporter delivers finished-run score records without blocking
// the simulation. Records are queued on a bounded channel and handed to a
// Sink by a single background worker; failures are logged and dropped.
package reporter

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/games/flappy"
)

// Sink persists or forwards one score record.
type Sink interface {
	Send(ctx context.Context, rec core.ScoreRecord) error
}

// Options configures a Dispatcher.
type Options struct {
	// QueueSize bounds the number of records waiting for the worker.
	// When full, new records are dropped. Defaults to 16.
	QueueSize int

	// Timeout bounds each Send. Zero means the sink's own limits apply.
	Timeout time.Duration

	// Logger receives delivery outcomes. Nil discards them.
	Logger *log.Logger
}

// Dispatcher is a fire-and-forget flappy.Reporter.
type Dispatcher struct {
	sink    Sink
	queue   chan core.ScoreRecord
	timeout time.Duration
	logger  *log.Logger
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// Ensure Dispatcher implements flappy.Reporter
var _ flappy.Reporter = (*Dispatcher)(nil)

// NewDispatcher starts the worker and returns the dispatcher.
// Call Close to drain pending records and stop the worker.
func NewDispatcher(sink Sink, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan core.ScoreRecord, opts.QueueSize),
		timeout: opts.Timeout,
		logger:  opts.Logger,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit queues rec for delivery and returns immediately.
func (d *Dispatcher) Submit(rec core.ScoreRecord) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("score dropped, reporter closed", "score", rec.Score)
		return
	}

	select {
	case d.queue <- rec:
	default:
		d.logger.Warn("score dropped, queue full", "score", rec.Score)
	}
}

// Close stops accepting records, waits for queued ones to be delivered
// and stops the worker. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for rec := range d.queue {
		d.deliver(rec)
	}
}

func (d *Dispatcher) deliver(rec core.ScoreRecord) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.sink.Send(ctx, rec); err != nil {
		d.logger.Error("error sending score", "score", rec.Score, "duration", rec.DurationSecs, "error", err)
		return
	}
	d.logger.Info("score saved", "score", rec.Score, "duration", rec.DurationSecs)
}
