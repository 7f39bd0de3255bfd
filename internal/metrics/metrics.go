// internal/metrics/metrics.go
package metrics

import (
	"fmt"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog"

	"github.com/tamzrod/neptun-bridge/internal/config"
)

// Sink receives hub metrics.
type Sink interface {
	Gauge(name string, value float64, tags []string) error
	Incr(name string, tags []string) error
	Close() error
}

// New returns a DogStatsD sink, or Nop when metrics are disabled.
func New(cfg config.MetricsConfig, logger zerolog.Logger) (Sink, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	c, err := statsd.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("metrics: statsd client for %s: %w", cfg.Address, err)
	}
	c.Namespace = cfg.Namespace
	c.Tags = cfg.Tags

	logger.Info().
		Str("addr", cfg.Address).
		Str("namespace", cfg.Namespace).
		Strs("tags", cfg.Tags).
		Msg("statsd metrics initialized")

	return &statsdSink{c: c}, nil
}

type statsdSink struct {
	c *statsd.Client
}

func (s *statsdSink) Gauge(name string, value float64, tags []string) error {
	return s.c.Gauge(name, value, tags, 1)
}

func (s *statsdSink) Incr(name string, tags []string) error {
	return s.c.Incr(name, tags, 1)
}

func (s *statsdSink) Close() error {
	return s.c.Close()
}

// Nop discards everything.
type Nop struct{}

func (Nop) Gauge(string, float64, []string) error { return nil }
func (Nop) Incr(string, []string) error           { return nil }
func (Nop) Close() error                          { return nil }

// Bool maps a flag onto a gauge value.
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
