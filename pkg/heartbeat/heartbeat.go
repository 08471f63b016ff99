// Package heartbeat tracks the last successful run of long living tasks and
// answers liveness queries about them.
package heartbeat

import (
	"sync"
	"time"
)

// Clock returns the current time. It can be overridden in tests.
type Clock func() time.Time

// Monitor is anything that can report its own liveness, either a single
// Heartbeat or a Group of monitors.
type Monitor interface {
	IsAlive() bool
	Status() Status
}

// Status is the reportable state of a Monitor.
type Status struct {
	Alive bool `json:"alive"`
	// LastSeen is nil if the heartbeat has never been marked alive.
	LastSeen *time.Time `json:"lastSeen,omitempty"`
	// AgeSeconds is the time elapsed since the last mark, or since start if
	// never marked.
	AgeSeconds float64 `json:"ageSeconds"`
	// DeadPeriodSeconds is the configured dead period of a single heartbeat.
	DeadPeriodSeconds float64           `json:"deadPeriodSeconds,omitempty"`
	Members           map[string]Status `json:"members,omitempty"`
}

// Option customizes a Heartbeat.
type Option func(*Heartbeat)

// WithClock makes the heartbeat read time from the given clock.
func WithClock(clock Clock) Option {
	return func(h *Heartbeat) {
		h.clock = clock
	}
}

// Heartbeat is alive if it has been marked within its dead period. A
// heartbeat that was never marked is alive for one dead period after its
// creation, so that tasks are not reported dead while the process boots.
type Heartbeat struct {
	deadPeriod time.Duration
	clock      Clock

	lock      *sync.RWMutex
	startedAt time.Time
	lastSeen  time.Time
}

// New returns a Heartbeat with the given dead period, created now.
func New(deadPeriod time.Duration, opts ...Option) *Heartbeat {
	h := &Heartbeat{
		deadPeriod: deadPeriod,
		clock:      time.Now,
		lock:       &sync.RWMutex{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.startedAt = h.clock()
	return h
}

// MarkAlive stamps the current time as the last success.
func (h *Heartbeat) MarkAlive() {
	now := h.clock()

	h.lock.Lock()
	defer h.lock.Unlock()

	if now.After(h.lastSeen) {
		h.lastSeen = now
	}
}

// IsAlive returns whether the elapsed time since the last mark (or since
// creation, if never marked) does not exceed the dead period.
func (h *Heartbeat) IsAlive() bool {
	return h.Age() <= h.deadPeriod
}

// Age returns the time elapsed since the last mark, or since creation if the
// heartbeat was never marked.
func (h *Heartbeat) Age() time.Duration {
	now := h.clock()

	h.lock.RLock()
	defer h.lock.RUnlock()

	if h.lastSeen.IsZero() {
		return now.Sub(h.startedAt)
	}
	return now.Sub(h.lastSeen)
}

// LastSeen returns the time of the last mark and whether there was any.
func (h *Heartbeat) LastSeen() (time.Time, bool) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return h.lastSeen, !h.lastSeen.IsZero()
}

// DeadPeriod returns the configured dead period.
func (h *Heartbeat) DeadPeriod() time.Duration {
	return h.deadPeriod
}

// Status returns the liveness of the heartbeat along with its last mark and
// age.
func (h *Heartbeat) Status() Status {
	age := h.Age()
	status := Status{
		Alive:             age <= h.deadPeriod,
		AgeSeconds:        age.Seconds(),
		DeadPeriodSeconds: h.deadPeriod.Seconds(),
	}
	if lastSeen, ok := h.LastSeen(); ok {
		status.LastSeen = &lastSeen
	}
	return status
}
