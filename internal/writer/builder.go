// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/neptun-bridge/internal/config"
	"github.com/tamzrod/neptun-bridge/internal/metrics"
	"github.com/tamzrod/neptun-bridge/internal/status"
)

// BuildPlan converts one hub config into a delivery Plan for layout.
// Every configured valve must map to a layout slot.
func BuildPlan(h config.HubConfig, layout status.Layout) (Plan, error) {
	if h.Name == "" {
		return Plan{}, errors.New("writer: hub name required")
	}
	if layout.Len() == 0 {
		return Plan{}, fmt.Errorf("writer: hub %q: layout has no valve slots", h.Name)
	}
	if len(h.Valves) > layout.Len() {
		return Plan{}, fmt.Errorf("writer: hub %q: %d valves named, layout has %d slots",
			h.Name, len(h.Valves), layout.Len())
	}

	seen := make(map[string]struct{}, len(h.Valves))
	for i, v := range h.Valves {
		if v == "" {
			return Plan{}, fmt.Errorf("writer: hub %q: valve %d unnamed", h.Name, i+1)
		}
		if _, dup := seen[v]; dup {
			return Plan{}, fmt.Errorf("writer: hub %q: duplicate valve %q", h.Name, v)
		}
		seen[v] = struct{}{}
	}

	return Plan{
		Hub:    h.Name,
		Layout: layout,
		Valves: append([]string(nil), h.Valves...),
		Tags:   []string{"hub:" + h.Name},
	}, nil
}

// Build creates the mirror for one hub and the writer feeding it.
func Build(h config.HubConfig, layout status.Layout, sink metrics.Sink, logger zerolog.Logger) (Writer, *status.Mirror, error) {
	plan, err := BuildPlan(h, layout)
	if err != nil {
		return nil, nil, err
	}
	mirror := status.NewMirror(plan.Layout, plan.Valves)
	w, err := New(plan, mirror, sink, logger)
	if err != nil {
		return nil, nil, err
	}
	return w, mirror, nil
}
