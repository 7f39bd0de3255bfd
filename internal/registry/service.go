// internal/registry/service.go
package registry

import (
	"errors"
	"time"

	"github.com/tamzrod/neptun-bridge/internal/hub"
	"github.com/tamzrod/neptun-bridge/internal/poller"
)

// OpenValve opens valve n (1-based) on the named hub.
func (r *Registry) OpenValve(name string, n int) (HubState, error) {
	return r.apply(name, "open_valve", func(h *hub.Hub) (hub.Result, error) { return h.OpenValve(n) })
}

// CloseValve closes valve n (1-based) on the named hub.
func (r *Registry) CloseValve(name string, n int) (HubState, error) {
	return r.apply(name, "close_valve", func(h *hub.Hub) (hub.Result, error) { return h.CloseValve(n) })
}

// OpenAllValves opens every valve on the named hub.
func (r *Registry) OpenAllValves(name string) (HubState, error) {
	return r.apply(name, "open_all_valves", (*hub.Hub).OpenAllValves)
}

// CloseAllValves closes every valve on the named hub.
func (r *Registry) CloseAllValves(name string) (HubState, error) {
	return r.apply(name, "close_all_valves", (*hub.Hub).CloseAllValves)
}

// SetConfigAttribute sets one configuration attribute on the named hub.
func (r *Registry) SetConfigAttribute(name, attr string, value bool) (HubState, error) {
	return r.apply(name, "set_config_attribute", func(h *hub.Hub) (hub.Result, error) {
		return h.SetConfigAttribute(attr, value)
	})
}

// Connect opens the hub transport and refreshes the mirror with a fresh read.
func (r *Registry) Connect(name string) (HubState, error) {
	e, err := r.Get(name)
	if err != nil {
		return HubState{}, err
	}

	if err := e.Hub.Connect(); err != nil {
		r.deliver(e, poller.PollResult{Hub: name, At: r.now(), Err: err})
		r.count("connect", err)
		return r.state(name, e), err
	}

	res, err := e.Hub.ReadStatus()
	r.deliver(e, poller.PollResult{Hub: name, At: r.stamp(res), Word: res.Word, Err: err})
	r.count("connect", err)
	return r.state(name, e), err
}

// apply runs one read-modify-write on the hub and publishes the written word
// with the stamp the hub took under its lock, so a poll that read before
// the write can never overwrite it. A refused request (bad valve, unknown
// attribute) leaves the mirror alone.
func (r *Registry) apply(name, op string, fn func(*hub.Hub) (hub.Result, error)) (HubState, error) {
	e, err := r.Get(name)
	if err != nil {
		return HubState{}, err
	}

	res, err := fn(e.Hub)
	r.count(op, err)

	switch {
	case err == nil:
		r.deliver(e, poller.PollResult{Hub: name, At: r.stamp(res), Word: res.Word})

	case errors.Is(err, hub.ErrConfiguration):
		r.log.Warn().Err(err).Str("hub", name).Str("op", op).Msg("request refused")

	default:
		r.log.Warn().Err(err).Str("hub", name).Str("op", op).Msg("cannot apply while unavailable")
		r.deliver(e, poller.PollResult{Hub: name, At: r.stamp(res), Err: err})
	}

	return r.state(name, e), err
}

func (r *Registry) stamp(res hub.Result) time.Time {
	if res.At.IsZero() {
		return r.now()
	}
	return res.At
}

func (r *Registry) state(name string, e *Entry) HubState {
	return HubState{Name: name, Snapshot: e.Mirror.Snapshot()}
}

func (r *Registry) count(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if cerr := r.sink.Incr(MetricCommands, []string{"op:" + op, "result:" + result}); cerr != nil {
		r.log.Debug().Err(cerr).Str("op", op).Msg("command metric dropped")
	}
}
