// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/tamzrod/neptun-bridge/internal/status"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	n := cfg.Neptun

	if len(n.Hubs) == 0 {
		return fmt.Errorf("%w: at least one hub required", ErrInvalid)
	}

	maxValves := status.DefaultLayout().Len()
	seen := make(map[string]struct{}, len(n.Hubs))

	for i, h := range n.Hubs {
		if h.Name == "" {
			return fmt.Errorf("%w: hub #%d: name required", ErrInvalid, i)
		}
		if _, dup := seen[h.Name]; dup {
			return fmt.Errorf("%w: hub %q: duplicate name", ErrInvalid, h.Name)
		}
		seen[h.Name] = struct{}{}

		if err := validateConnection(h.Connection); err != nil {
			return fmt.Errorf("%w: hub %q: %v", ErrInvalid, h.Name, err)
		}

		// ------------------------------------------------------------
		// VALVES: one name per layout slot
		// ------------------------------------------------------------
		if len(h.Valves) > maxValves {
			return fmt.Errorf("%w: hub %q: %d valves configured, device supports %d",
				ErrInvalid, h.Name, len(h.Valves), maxValves)
		}
		names := make(map[string]struct{}, len(h.Valves))
		for vi, v := range h.Valves {
			if v == "" {
				return fmt.Errorf("%w: hub %q: valve %d: name required", ErrInvalid, h.Name, vi+1)
			}
			if _, dup := names[v]; dup {
				return fmt.Errorf("%w: hub %q: duplicate valve name %q", ErrInvalid, h.Name, v)
			}
			names[v] = struct{}{}
		}
	}

	if n.Poll.IntervalMs <= 0 {
		return fmt.Errorf("%w: poll.interval_ms must be > 0", ErrInvalid)
	}
	if n.HTTP.Listen == "" {
		return fmt.Errorf("%w: http.listen required", ErrInvalid)
	}

	switch n.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, n.Logging.Level)
	}
	switch n.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, n.Logging.Format)
	}

	if n.Metrics.Enabled && n.Metrics.Address == "" {
		return fmt.Errorf("%w: metrics.address required when metrics are enabled", ErrInvalid)
	}

	return nil
}

func validateConnection(c ConnectionConfig) error {
	if c.Type != "serial" {
		return fmt.Errorf("connection type %q not supported", c.Type)
	}
	switch c.Method {
	case "rtu", "ascii":
	default:
		return fmt.Errorf("method %q not supported", c.Method)
	}
	if c.Port == "" {
		return errors.New("port required")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("baudrate %d must be > 0", c.BaudRate)
	}
	switch c.ByteSize {
	case 5, 6, 7, 8:
	default:
		return fmt.Errorf("bytesize %d not in {5,6,7,8}", c.ByteSize)
	}
	switch c.Parity {
	case "E", "O", "N":
	default:
		return fmt.Errorf("parity %q not in {E,O,N}", c.Parity)
	}
	switch c.StopBits {
	case 1, 2:
	default:
		return fmt.Errorf("stopbits %d not in {1,2}", c.StopBits)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout %v must be > 0", c.Timeout)
	}
	return nil
}
