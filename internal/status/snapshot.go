// internal/status/snapshot.go
package status

import (
	"errors"
	"sync"
	"time"
)

// ErrUnavailable is returned when the last operation against the hub failed
// or no status word has been read yet.
var ErrUnavailable = errors.New("status: unavailable")

// ValveState is the presented state of one named valve.
type ValveState struct {
	Name string `json:"name"`
	Slot int    `json:"slot"`
	Open bool   `json:"open"`
}

// Snapshot is the decoded view of the last known status word.
// It contains no logic.
type Snapshot struct {
	Word       uint16       `json:"word"`
	Available  bool         `json:"available"`
	Alarm      bool         `json:"alarm"`
	Attributes Attributes   `json:"attributes"`
	Valves     []ValveState `json:"valves"`

	// LastErrorCode is 0 while available. A device exception carries the
	// function code of the exception response (0x86 for a refused write),
	// anything else is 1.
	LastErrorCode uint16    `json:"last_error_code"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Mirror holds the decoded status of one hub.
// Safe for concurrent use.
type Mirror struct {
	layout Layout
	names  []string

	mu   sync.RWMutex
	snap Snapshot
}

// NewMirror builds a mirror for the named valves.
// Valve i is bound to layout slot i; names beyond the layout are ignored.
func NewMirror(layout Layout, valveNames []string) *Mirror {
	n := len(valveNames)
	if n > layout.Len() {
		n = layout.Len()
	}
	names := append([]string(nil), valveNames[:n]...)

	valves := make([]ValveState, 0, n)
	for i, name := range names {
		valves = append(valves, ValveState{Name: name, Slot: i})
	}

	return &Mirror{
		layout: layout,
		names:  names,
		snap:   Snapshot{Valves: valves},
	}
}

// Publish decodes word and marks the hub available.
// A result older than the current snapshot is dropped and reported false.
func (m *Mirror) Publish(word uint16, at time.Time) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staleLocked(at) {
		return m.copyLocked(), false
	}

	m.snap.Word = word
	m.snap.Available = true
	m.snap.Alarm = DecodeAlarm(word)
	m.snap.Attributes = DecodeAttributes(word)
	m.snap.LastErrorCode = 0
	m.snap.UpdatedAt = at

	valves := make([]ValveState, len(m.names))
	for i, name := range m.names {
		open, _ := m.layout.DecodeValve(word, i) // slots bounded in NewMirror
		valves[i] = ValveState{Name: name, Slot: i, Open: open}
	}
	m.snap.Valves = valves

	return m.copyLocked(), true
}

// MarkUnavailable records a failed operation.
// Last-known decoded state is left untouched. Stale results are dropped
// the same way as in Publish.
func (m *Mirror) MarkUnavailable(code uint16, at time.Time) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staleLocked(at) {
		return m.copyLocked(), false
	}

	if code == 0 {
		code = 1
	}
	m.snap.Available = false
	m.snap.LastErrorCode = code
	m.snap.UpdatedAt = at

	return m.copyLocked(), true
}

// Snapshot returns a copy of the current state, available or not.
func (m *Mirror) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyLocked()
}

// Current returns the current state, or ErrUnavailable.
func (m *Mirror) Current() (Snapshot, error) {
	s := m.Snapshot()
	if !s.Available {
		return s, ErrUnavailable
	}
	return s, nil
}

func (m *Mirror) staleLocked(at time.Time) bool {
	return at.Before(m.snap.UpdatedAt)
}

func (m *Mirror) copyLocked() Snapshot {
	s := m.snap
	s.Valves = append([]ValveState(nil), m.snap.Valves...)
	return s
}
