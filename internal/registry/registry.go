// internal/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/neptun-bridge/internal/hub"
	"github.com/tamzrod/neptun-bridge/internal/metrics"
	"github.com/tamzrod/neptun-bridge/internal/poller"
	"github.com/tamzrod/neptun-bridge/internal/status"
	"github.com/tamzrod/neptun-bridge/internal/writer"
)

var (
	ErrUnknownHub   = errors.New("registry: unknown hub")
	ErrDuplicateHub = errors.New("registry: duplicate hub")
)

// MetricCommands counts service calls, tagged by op and result.
const MetricCommands = "command"

// Entry is everything attached for one hub.
type Entry struct {
	Hub    *hub.Hub
	Mirror *status.Mirror
	Writer writer.Writer
}

// HubState pairs a hub name with its presented snapshot.
type HubState struct {
	Name     string          `json:"name"`
	Snapshot status.Snapshot `json:"status"`
}

// Registry maps hub names to their entries.
// Safe for concurrent use; hub operations serialize on the hub itself.
type Registry struct {
	log  zerolog.Logger
	sink metrics.Sink
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry
}

// New returns an empty registry. A nil sink disables command metrics.
func New(logger zerolog.Logger, sink metrics.Sink) *Registry {
	if sink == nil {
		sink = metrics.Nop{}
	}
	return &Registry{
		log:     logger,
		sink:    sink,
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
}

// Add attaches a hub. Names are unique.
func (r *Registry) Add(e *Entry) error {
	if e == nil || e.Hub == nil || e.Mirror == nil || e.Writer == nil {
		return errors.New("registry: incomplete entry")
	}
	name := e.Hub.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateHub, name)
	}
	r.entries[name] = e
	r.log.Info().Str("hub", name).Msg("hub attached")
	return nil
}

// Get returns the entry for name.
func (r *Registry) Get(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHub, name)
	}
	return e, nil
}

// Names returns the attached hub names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ---- presentation ----

// State returns the presented snapshot of one hub.
func (r *Registry) State(name string) (HubState, error) {
	e, err := r.Get(name)
	if err != nil {
		return HubState{}, err
	}
	return HubState{Name: name, Snapshot: e.Mirror.Snapshot()}, nil
}

// States returns every hub's snapshot, ordered by name.
func (r *Registry) States() []HubState {
	names := r.Names()
	out := make([]HubState, 0, len(names))
	for _, name := range names {
		if s, err := r.State(name); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// ---- lifecycle ----

// CloseAll closes every hub transport.
func (r *Registry) CloseAll() error {
	r.mu.RLock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		if err := e.Hub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.log.Info().Int("hubs", len(entries)).Msg("all hubs closed")
	return errors.Join(errs...)
}

// deliver feeds one result through the hub's writer.
// Writer errors are metric delivery problems and never fail the caller.
func (r *Registry) deliver(e *Entry, res poller.PollResult) {
	if err := e.Writer.Write(res); err != nil {
		r.log.Warn().Err(err).Str("hub", res.Hub).Msg("status delivery failed")
	}
}
