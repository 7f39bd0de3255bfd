// internal/poller/builder.go
package poller

import (
	"time"

	"github.com/tamzrod/neptun-bridge/internal/config"
)

// Build constructs the Poller for one configured hub.
// The reader is the hub itself; the poller never owns the transport.
func Build(h config.HubConfig, poll config.PollConfig, reader StatusReader) (*Poller, error) {
	interval := time.Duration(poll.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = DefaultInterval
	}
	return New(Config{Hub: h.Name, Interval: interval}, reader)
}
