package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/ironsheep/snaptext/internal/log"
)

// ErrBusy is returned when a batch is submitted while another is running.
var ErrBusy = errors.New("a batch is already running")

// ErrAborted is returned by RunSync when the batch panicked.
var ErrAborted = errors.New("batch aborted")

// Runner executes batches on a single background worker so the caller stays
// responsive. Only one batch runs at a time; a second submission is
// rejected with ErrBusy rather than queued, since the OCR engine and the
// scratch arena are shared.
type Runner struct {
	pipeline *Pipeline
	pool     *ants.Pool
	busy     atomic.Bool
	logger   log.Logger
}

// antsLogger adapts log.Logger to the Printf interface ants expects.
type antsLogger struct{ l log.Logger }

func (a antsLogger) Printf(format string, args ...any) {
	a.l.Warnw(fmt.Sprintf(format, args...))
}

// NewRunner starts the worker pool.
func NewRunner(p *Pipeline, logger log.Logger) (*Runner, error) {
	if logger == nil {
		logger = log.Nop
	}
	pool, err := ants.NewPool(1,
		ants.WithLogger(antsLogger{logger}),
		ants.WithPanicHandler(func(v any) {
			logger.Errorw("batch worker panicked", "panic", v)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start batch worker: %w", err)
	}
	return &Runner{pipeline: p, pool: pool, logger: logger}, nil
}

// Busy reports whether a batch is running.
func (r *Runner) Busy() bool { return r.busy.Load() }

// Pipeline returns the wrapped pipeline.
func (r *Runner) Pipeline() *Pipeline { return r.pipeline }

// Submit starts job in the background. The returned channel delivers the
// result once and is then closed; it is closed without a value if the batch
// panicked.
func (r *Runner) Submit(ctx context.Context, job Job) (<-chan BatchResult, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	done := make(chan BatchResult, 1)
	err := r.pool.Submit(func() {
		defer close(done)
		done <- r.run(ctx, job)
	})
	if err != nil {
		r.busy.Store(false)
		return nil, fmt.Errorf("failed to submit batch: %w", err)
	}
	r.logger.Debugw("batch submitted", "items", len(job.Sources))
	return done, nil
}

// run clears the busy flag before the result is published, so a caller
// reacting to the result can submit again straight away.
func (r *Runner) run(ctx context.Context, job Job) BatchResult {
	defer r.busy.Store(false)
	return r.pipeline.Run(ctx, job)
}

// RunSync submits job and waits for it. Waiting stops early when ctx is
// done; the batch itself then winds down at the next item boundary.
func (r *Runner) RunSync(ctx context.Context, job Job) (BatchResult, error) {
	done, err := r.Submit(ctx, job)
	if err != nil {
		return BatchResult{}, err
	}
	select {
	case res, ok := <-done:
		if !ok {
			return BatchResult{}, ErrAborted
		}
		return res, nil
	case <-ctx.Done():
		return BatchResult{}, ctx.Err()
	}
}

// Close stops the worker. A running batch is allowed to finish.
func (r *Runner) Close() {
	r.pool.Release()
}
