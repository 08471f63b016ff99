package heartbeat

import (
	"fmt"
	"sort"
	"sync"
)

// Group aggregates named monitors. A group is alive only if all of its members
// are alive. Groups can be nested.
type Group struct {
	lock    *sync.RWMutex
	names   []string
	members map[string]Monitor
}

// NewGroup returns an empty group. An empty group is alive.
func NewGroup() *Group {
	return &Group{
		lock:    &sync.RWMutex{},
		members: make(map[string]Monitor),
	}
}

// Add registers a monitor under the given name. Names must be unique within
// the group.
func (g *Group) Add(name string, m Monitor) error {
	if m == nil {
		return fmt.Errorf("heartbeat %s: monitor must not be nil", name)
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	if _, ok := g.members[name]; ok {
		return fmt.Errorf("heartbeat %s: %w", name, ErrDuplicatedName)
	}
	g.names = append(g.names, name)
	g.members[name] = m
	return nil
}

// Names returns the names of the registered members, sorted.
func (g *Group) Names() []string {
	g.lock.RLock()
	defer g.lock.RUnlock()

	names := make([]string, len(g.names))
	copy(names, g.names)
	sort.Strings(names)
	return names
}

// IsAlive returns the logical AND of the liveness of all members.
func (g *Group) IsAlive() bool {
	for _, m := range g.snapshot() {
		if !m.IsAlive() {
			return false
		}
	}
	return true
}

// Summary returns name -> status for every member.
func (g *Group) Summary() map[string]Status {
	members := g.snapshot()
	summary := make(map[string]Status, len(members))
	for name, m := range members {
		summary[name] = m.Status()
	}
	return summary
}

// Status returns the group liveness and the status of every member.
func (g *Group) Status() Status {
	summary := g.Summary()
	alive := true
	for _, s := range summary {
		alive = alive && s.Alive
	}
	return Status{Alive: alive, Members: summary}
}

func (g *Group) snapshot() map[string]Monitor {
	g.lock.RLock()
	defer g.lock.RUnlock()

	members := make(map[string]Monitor, len(g.members))
	for name, m := range g.members {
		members[name] = m
	}
	return members
}
