// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls on every tick and emits each PollResult on out. The first
// read happens one interval after start; the caller owns the initial
// read at connect. One goroutine per hub. No overlap. No retries.
// Returns when ctx is cancelled.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.emit(ctx, out) {
				return
			}
		}
	}
}

func (p *Poller) emit(ctx context.Context, out chan<- PollResult) bool {
	res := p.PollOnce()
	select {
	case <-ctx.Done():
		return false
	case out <- res:
		return true
	}
}
