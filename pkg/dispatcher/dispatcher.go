// Package dispatcher runs recurring tasks and event handlers. Every task and
// handler is isolated: failures and panics are logged at the dispatch
// boundary, and a run that would overlap the previous run of the same task is
// skipped.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// IntervalOpts configures a recurring task.
type IntervalOpts struct {
	Interval time.Duration
	// Immediately makes the first run happen at Start instead of after the
	// first interval.
	Immediately bool
	Timeout     time.Duration
}

// HandlerOpts configures an event handler.
type HandlerOpts struct {
	// Timeout, if greater than zero, bounds every invocation. On expiry the
	// handler context is cancelled.
	Timeout time.Duration
}

// Registration is a task or handler to be activated by a Dispatcher.
type Registration interface {
	Name() string
	activate(d *Dispatcher) (deactivate func())
}

type intervalRegistration struct {
	opts IntervalOpts
	task Task
	*runner
}

// OnInterval returns a registration that runs task every opts.Interval.
func OnInterval(opts IntervalOpts, name string, task Task) Registration {
	return &intervalRegistration{
		opts:   opts,
		task:   task,
		runner: &runner{name: name, timeout: opts.Timeout},
	}
}

func (r *intervalRegistration) Name() string {
	return r.name
}

func (r *intervalRegistration) activate(d *Dispatcher) func() {
	ticker := time.NewTicker(r.opts.Interval)
	quit := make(chan struct{})

	fire := func() {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			r.run(d.ctx, r.task)
		}()
	}

	if r.opts.Immediately {
		fire()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ticker.C:
				fire()
			case <-quit:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(quit)
	}
}

type eventRegistration struct {
	event   *Event
	handler Handler
	*runner
}

// OnEvent returns a registration that subscribes handler to event.
func OnEvent(event *Event, opts HandlerOpts, name string, handler Handler) Registration {
	return &eventRegistration{
		event:   event,
		handler: handler,
		runner:  &runner{name: name, timeout: opts.Timeout},
	}
}

func (r *eventRegistration) Name() string {
	return r.name
}

func (r *eventRegistration) activate(d *Dispatcher) func() {
	sub := r.event.Subscribe(r.name, func(_ context.Context, payload interface{}) error {
		if !d.track() {
			return nil
		}
		defer d.wg.Done()

		// handlers outlive the emitter, so they run under the dispatcher
		// context rather than the one of the emitting task.
		r.run(d.ctx, func(ctx context.Context) error {
			return r.handler(ctx, payload)
		})
		return nil
	})
	return sub.Unsubscribe
}

// Builder collects registrations for a Dispatcher.
type Builder struct {
	registrations []Registration
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddHandler appends a registration.
func (b *Builder) AddHandler(r Registration) *Builder {
	b.registrations = append(b.registrations, r)
	return b
}

// Build returns a Dispatcher that is not yet started.
func (b *Builder) Build() *Dispatcher {
	registrations := make([]Registration, len(b.registrations))
	copy(registrations, b.registrations)
	return &Dispatcher{
		registrations: registrations,
		lock:          &sync.Mutex{},
		wg:            &sync.WaitGroup{},
	}
}

// Dispatcher activates timers and subscriptions on Start and tears them down
// on Stop.
type Dispatcher struct {
	registrations []Registration

	lock        *sync.Mutex
	started     bool
	ctx         context.Context
	cancel      context.CancelFunc
	deactivates []func()
	wg          *sync.WaitGroup
}

// Start validates the registrations and activates them. Recurring tasks with
// Immediately set run for the first time before Start returns.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.started {
		return ErrAlreadyStarted
	}

	names := make(map[string]bool, len(d.registrations))
	for _, r := range d.registrations {
		if names[r.Name()] {
			return fmt.Errorf("%w: %s", ErrDuplicatedTask, r.Name())
		}
		names[r.Name()] = true

		if ir, ok := r.(*intervalRegistration); ok && ir.opts.Interval <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidInterval, r.Name())
		}
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	for _, r := range d.registrations {
		d.deactivates = append(d.deactivates, r.activate(d))
		log.WithFields(log.Fields{
			"module": "dispatcher",
			"task":   r.Name(),
		}).Debug("task activated")
	}
	d.started = true
	return nil
}

// Stop deactivates every task, cancels the context of in-flight runs and
// waits for them to return.
func (d *Dispatcher) Stop() {
	d.lock.Lock()
	if !d.started {
		d.lock.Unlock()
		return
	}
	for _, deactivate := range d.deactivates {
		deactivate()
	}
	d.deactivates = nil
	d.cancel()
	d.started = false
	d.lock.Unlock()

	d.wg.Wait()
}

// track counts a run in the wait group of Stop, unless the dispatcher is
// stopped, in which case the run must not start.
func (d *Dispatcher) track() bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.started {
		return false
	}
	d.wg.Add(1)
	return true
}

// Running returns whether the named task is currently executing.
func (d *Dispatcher) Running(name string) bool {
	for _, r := range d.registrations {
		if r.Name() != name {
			continue
		}
		switch v := r.(type) {
		case *intervalRegistration:
			return v.isRunning()
		case *eventRegistration:
			return v.isRunning()
		}
	}
	return false
}
