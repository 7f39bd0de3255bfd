// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tamzrod/neptun-bridge/internal/metrics"
	"github.com/tamzrod/neptun-bridge/internal/poller"
	"github.com/tamzrod/neptun-bridge/internal/status"
)

// Metric names, relative to the configured namespace.
const (
	MetricAvailable     = "status.available"
	MetricWord          = "status.word"
	MetricAlarm         = "status.alarm"
	MetricLastErrorCode = "status.last_error_code"
	MetricAttribute     = "status.attribute"
	MetricValveOpen     = "valve.open"
	MetricErrors        = "status.errors"
)

// mirrorWriter publishes results into the mirror, then mirrors the
// snapshot into metrics. Only changed values are emitted; any emit
// failure forces a full re-assert on the next write.
type mirrorWriter struct {
	plan   Plan
	mirror *status.Mirror
	sink   metrics.Sink
	log    zerolog.Logger

	mu       sync.Mutex
	needFull bool
	last     status.Snapshot
}

// New builds a writer for one hub. A nil sink disables metrics.
func New(plan Plan, mirror *status.Mirror, sink metrics.Sink, logger zerolog.Logger) (Writer, error) {
	if plan.Hub == "" {
		return nil, errors.New("writer: hub name required")
	}
	if mirror == nil {
		return nil, errors.New("writer: mirror required")
	}
	if sink == nil {
		sink = metrics.Nop{}
	}
	if len(plan.Tags) == 0 {
		plan.Tags = []string{"hub:" + plan.Hub}
	}
	return &mirrorWriter{
		plan:     plan,
		mirror:   mirror,
		sink:     sink,
		log:      logger.With().Str("hub", plan.Hub).Logger(),
		needFull: true,
	}, nil
}

func (w *mirrorWriter) Write(res poller.PollResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []string
	base := w.plan.Tags

	// ------------------------------------------------------------
	// MIRROR (device-level truth)
	// ------------------------------------------------------------

	var (
		snap  status.Snapshot
		fresh bool
	)
	if res.Err == nil {
		snap, fresh = w.mirror.Publish(res.Word, res.At)
	} else {
		snap, fresh = w.mirror.MarkUnavailable(errorCode(res.Err), res.At)
	}
	if !fresh {
		// A newer result is already in the mirror.
		w.log.Debug().Time("at", res.At).Time("current", snap.UpdatedAt).Msg("stale result dropped")
		return nil
	}

	if res.Err == nil {
		w.log.Debug().Uint16("word", res.Word).Bool("alarm", snap.Alarm).Msg("status published")
	} else if err := w.sink.Incr(MetricErrors, base); err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", MetricErrors, err))
	}

	// ------------------------------------------------------------
	// METRICS (full on first write or after a failure, else deltas)
	// ------------------------------------------------------------

	full := w.needFull
	prev := w.last

	gauge := func(name string, v float64, changed bool, tags ...string) {
		if !full && !changed {
			return
		}
		all := append(append(make([]string, 0, len(base)+len(tags)), base...), tags...)
		if err := w.sink.Gauge(name, v, all); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}

	gauge(MetricAvailable, metrics.Bool(snap.Available), snap.Available != prev.Available)
	gauge(MetricLastErrorCode, float64(snap.LastErrorCode), snap.LastErrorCode != prev.LastErrorCode)

	// Decoded values are stale while unavailable.
	if snap.Available {
		gauge(MetricWord, float64(snap.Word), snap.Word != prev.Word)
		gauge(MetricAlarm, metrics.Bool(snap.Alarm), snap.Alarm != prev.Alarm)

		prevAttrs := prev.Attributes.Map()
		for name, v := range snap.Attributes.Map() {
			gauge(MetricAttribute, metrics.Bool(v), v != prevAttrs[name], "attribute:"+name)
		}

		for i, v := range snap.Valves {
			changed := i >= len(prev.Valves) || prev.Valves[i].Open != v.Open
			gauge(MetricValveOpen, metrics.Bool(v.Open), changed, "valve:"+v.Name)
		}
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next write.
		w.needFull = true
		return errors.New("writer: " + strings.Join(errs, " | "))
	}

	if snap.Available {
		w.needFull = false
		w.last = snap
	} else {
		w.last.Available = false
		w.last.LastErrorCode = snap.LastErrorCode
	}
	return nil
}
