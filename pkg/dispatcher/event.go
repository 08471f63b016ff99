package dispatcher

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/pkg/stats"
)

// Handler is invoked with the payload of an emitted event.
type Handler func(ctx context.Context, payload interface{}) error

// Event is a named fan-out point. Every subscriber is invoked concurrently on
// each emission and the emitter never waits for, nor observes, the outcome of
// its subscribers.
type Event struct {
	name string

	lock   *sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
}

// NewEvent returns an event without subscribers.
func NewEvent(name string) *Event {
	return &Event{
		name: name,
		lock: &sync.RWMutex{},
		subs: make(map[uint64]*Subscription),
	}
}

// Name returns the name the event was created with.
func (e *Event) Name() string {
	return e.name
}

// Subscribe registers a named handler. The handler only receives emissions
// issued after Subscribe returns.
func (e *Event) Subscribe(name string, handler Handler) *Subscription {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.nextID++
	sub := &Subscription{
		id:      e.nextID,
		name:    name,
		event:   e,
		handler: handler,
	}
	e.subs[sub.id] = sub
	return sub
}

// Subscribers returns the number of current subscribers.
func (e *Event) Subscribers() int {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return len(e.subs)
}

// Emit starts every current subscriber in its own go routine and returns
// immediately. Handler errors and panics are logged and never reach the
// emitter.
func (e *Event) Emit(ctx context.Context, payload interface{}) *Emission {
	e.lock.RLock()
	subs := make([]*Subscription, 0, len(e.subs))
	for _, s := range e.subs {
		subs = append(subs, s)
	}
	e.lock.RUnlock()

	emission := &Emission{wg: &sync.WaitGroup{}}
	emission.wg.Add(len(subs))
	for _, s := range subs {
		go func(s *Subscription) {
			defer emission.wg.Done()
			e.deliver(ctx, s, payload)
		}(s)
	}
	return emission
}

func (e *Event) deliver(ctx context.Context, s *Subscription, payload interface{}) {
	logger := log.WithFields(log.Fields{
		"module":  "dispatcher",
		"event":   e.name,
		"handler": s.name,
	})
	defer func() {
		if r := recover(); r != nil {
			stats.HandlerPanics.WithLabelValues(s.name).Inc()
			logger.WithError(fmt.Errorf("%v", r)).Error("recovered from panic in event handler")
		}
	}()

	if err := s.handler(ctx, payload); err != nil {
		logger.WithError(err).Error("event handler failed")
	}
}

// Subscription binds a handler to an event.
type Subscription struct {
	id      uint64
	name    string
	event   *Event
	handler Handler
}

func (s *Subscription) Name() string {
	return s.name
}

// Unsubscribe removes the handler from the event. Already started
// invocations are not affected. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.event.lock.Lock()
	defer s.event.lock.Unlock()
	delete(s.event.subs, s.id)
}

// Emission tracks the handlers started by a single Emit call.
type Emission struct {
	wg *sync.WaitGroup
}

// Wait blocks until all handlers started by the emission have returned.
func (em *Emission) Wait() {
	em.wg.Wait()
}
