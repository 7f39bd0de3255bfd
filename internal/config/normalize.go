// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultType     = "serial"
	DefaultMethod   = "rtu"
	DefaultBaudRate = 9600
	DefaultByteSize = 8
	DefaultParity   = "N"
	DefaultStopBits = 1
	DefaultTimeout  = 1.0 // seconds

	DefaultPollIntervalMs = 10000
	DefaultListen         = ":8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultMetricsAddress = "127.0.0.1:8125"
	DefaultMetricsNS      = "neptun."
)

// Normalize fills defaults and canonicalizes case.
// It is allowed to mutate configuration.
// It MUST be called before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	n := &cfg.Neptun

	for i := range n.Hubs {
		h := &n.Hubs[i]
		h.Name = strings.TrimSpace(h.Name)

		c := &h.Connection
		if c.Type == "" {
			c.Type = DefaultType
		}
		c.Type = strings.ToLower(c.Type)

		if c.Method == "" {
			c.Method = DefaultMethod
		}
		c.Method = strings.ToLower(c.Method)

		if c.BaudRate == 0 {
			c.BaudRate = DefaultBaudRate
		}
		if c.ByteSize == 0 {
			c.ByteSize = DefaultByteSize
		}
		if c.Parity == "" {
			c.Parity = DefaultParity
		}
		c.Parity = strings.ToUpper(c.Parity)

		if c.StopBits == 0 {
			c.StopBits = DefaultStopBits
		}
		if c.Timeout == 0 {
			c.Timeout = DefaultTimeout
		}
	}

	if n.Poll.IntervalMs == 0 {
		n.Poll.IntervalMs = DefaultPollIntervalMs
	}
	if n.HTTP.Listen == "" {
		n.HTTP.Listen = DefaultListen
	}

	if n.Logging.Level == "" {
		n.Logging.Level = DefaultLogLevel
	}
	n.Logging.Level = strings.ToLower(n.Logging.Level)
	if n.Logging.Format == "" {
		n.Logging.Format = DefaultLogFormat
	}
	n.Logging.Format = strings.ToLower(n.Logging.Format)

	if n.Metrics.Enabled {
		if n.Metrics.Address == "" {
			n.Metrics.Address = DefaultMetricsAddress
		}
		if n.Metrics.Namespace == "" {
			n.Metrics.Namespace = DefaultMetricsNS
		}
	}
}
