package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/pkg/stats"
)

// Task is a unit of recurring work.
type Task func(ctx context.Context) error

// runner executes a named unit of work at most once at a time, with an
// optional timeout, recovering from panics.
type runner struct {
	name    string
	timeout time.Duration
	running atomic.Bool
}

func (r *runner) isRunning() bool {
	return r.running.Load()
}

// run executes fn unless a previous invocation is still in flight, in which
// case it returns false without doing anything.
func (r *runner) run(ctx context.Context, fn func(ctx context.Context) error) bool {
	if !r.running.CompareAndSwap(false, true) {
		stats.Skipped.WithLabelValues(r.name).Inc()
		log.WithFields(log.Fields{
			"module": "dispatcher",
			"task":   r.name,
		}).Debug("previous run still in progress, skipping")
		return false
	}
	defer r.running.Store(false)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	err := r.safeRun(ctx, fn)
	result := stats.Result(err)
	if errors.Is(err, context.DeadlineExceeded) {
		result = "timeout"
	}
	stats.Cycles.WithLabelValues(r.name, result).Inc()

	if err != nil {
		logger := log.WithFields(log.Fields{
			"module": "dispatcher",
			"task":   r.name,
		})
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			logger.WithError(err).Debug("task cancelled")
		} else {
			logger.WithError(err).Error("task failed")
		}
	}
	return true
}

func (r *runner) safeRun(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stats.HandlerPanics.WithLabelValues(r.name).Inc()
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()
	return fn(ctx)
}
