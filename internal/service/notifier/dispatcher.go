package notifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	QueueSize  int
	Workers    int
	Timeout    time.Duration
	MaxRetries uint
	// RetryInterval is the first backoff delay; later delays grow exponentially.
	RetryInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 500 * time.Millisecond
	}
	return o
}

// Dispatcher is a bounded in-memory queue drained by a fixed worker pool.
// A full queue drops the export.
type Dispatcher struct {
	opts  Options
	sinks []Sink
	log   *slog.Logger

	queue  chan Export
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc

	failures metric.Int64Counter
	dropped  metric.Int64Counter
}

var _ Notifier = (*Dispatcher)(nil)

func New(opts Options, log *slog.Logger, sinks ...Sink) *Dispatcher {
	opts = opts.withDefaults()
	if log == nil {
		log = slog.Default()
	}

	meter := otel.Meter("github.com/Alijeyrad/surveybot/notifier")
	failures, _ := meter.Int64Counter("survey_export_failures_total",
		metric.WithDescription("Result exports that failed after all retries"))
	dropped, _ := meter.Int64Counter("survey_export_dropped_total",
		metric.WithDescription("Result exports dropped because the queue was full"))

	return &Dispatcher{
		opts:     opts,
		sinks:    sinks,
		log:      log.With("component", "notifier"),
		queue:    make(chan Export, opts.QueueSize),
		failures: failures,
		dropped:  dropped,
	}
}

// Start launches the workers. Workers stop when Shutdown drains the queue.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for e := range d.queue {
				d.dispatch(ctx, e)
			}
		}()
	}
	d.log.Info("notifier started", "workers", d.opts.Workers, "sinks", len(d.sinks))
}

func (d *Dispatcher) Enqueue(e Export) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("export dropped: notifier stopped", "session_id", e.SessionID)
		return false
	}
	select {
	case d.queue <- e:
		return true
	default:
		d.dropped.Add(context.Background(), 1)
		d.log.Warn("export dropped: queue full", "session_id", e.SessionID, "queue_size", d.opts.QueueSize)
		return false
	}
}

// Shutdown stops accepting exports and waits for queued ones to finish.
// When ctx expires first, in-flight sink calls are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if d.cancel != nil {
			d.cancel()
		}
		return nil
	case <-ctx.Done():
		if d.cancel != nil {
			d.cancel()
		}
		<-done
		return ctx.Err()
	}
}

// dispatch sends e to every sink concurrently. Sink failures are logged and
// never propagated.
func (d *Dispatcher) dispatch(ctx context.Context, e Export) {
	var g errgroup.Group
	for _, s := range d.sinks {
		g.Go(func() error {
			if err := d.send(ctx, s, e); err != nil {
				d.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", s.Name())))
				d.log.Warn("export failed", "sink", s.Name(), "session_id", e.SessionID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) send(ctx context.Context, s Sink, e Export) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.opts.RetryInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()

		err := s.Send(callCtx, e)
		var perm *PermanentError
		if errors.As(err, &perm) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.opts.MaxRetries+1))
	return err
}

// PermanentError marks a sink failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
