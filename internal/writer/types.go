// internal/writer/types.go
package writer

import (
	"github.com/tamzrod/neptun-bridge/internal/poller"
	"github.com/tamzrod/neptun-bridge/internal/status"
)

// Plan is the fully-built delivery plan for one hub.
type Plan struct {
	Hub string

	// Layout and Valves shape the mirror. Valves[i] names layout slot i.
	Layout status.Layout
	Valves []string

	// Tags are attached to every metric emitted for this hub.
	Tags []string
}

// Writer delivers one poll or toggle result into the status mirror.
type Writer interface {
	Write(res poller.PollResult) error
}
