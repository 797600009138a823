// Package status tracks the session lifecycle from boot through pairing to
// readiness and teardown.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/wwebgo/wweb/internal/bus"
)

// State represents a session lifecycle state.
type State string

const (
	Booting        State = "BOOTING"
	AuthRequired   State = "AUTH_REQUIRED"
	Authenticating State = "AUTHENTICATING"
	Loading        State = "LOADING"
	Ready          State = "READY"
	Disconnected   State = "DISCONNECTED"
	Failed         State = "FAILED"
)

// validTransitions defines allowed lifecycle transitions.
var validTransitions = map[State][]State{
	Booting:        {AuthRequired, Authenticating, Failed},
	AuthRequired:   {Authenticating, Disconnected, Failed},
	Authenticating: {Loading, Ready, AuthRequired, Disconnected, Failed},
	Loading:        {Ready, Disconnected, Failed},
	Ready:          {Disconnected, AuthRequired, Failed},
	Disconnected:   {Booting, Failed},
	Failed:         {Booting},
}

// Machine tracks and enforces session lifecycle transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Emit(bus.KindLifecycle, StatusChange{From: from, To: to})
	}
	return nil
}

// StatusChange is the payload for lifecycle change events.
type StatusChange struct {
	From State
	To   State
}
