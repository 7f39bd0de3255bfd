// internal/poller/poller.go
package poller

import (
	"errors"
	"time"

	"github.com/tamzrod/neptun-bridge/internal/hub"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 10 * time.Second

// StatusReader is the one call the poller needs from a hub.
// The returned stamp orders the read against writes on the same hub.
type StatusReader interface {
	ReadStatus() (hub.Result, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Hub      string
	Interval time.Duration
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	reader StatusReader
	now    func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, reader StatusReader) (*Poller, error) {
	if cfg.Hub == "" {
		return nil, errors.New("poller: hub name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if reader == nil {
		return nil, errors.New("poller: reader required")
	}
	return &Poller{cfg: cfg, reader: reader, now: time.Now}, nil
}

// Interval returns the configured poll period.
func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// PollOnce performs exactly one read.
// The result carries the reader's stamp, or the poller clock when the
// reader gave none.
func (p *Poller) PollOnce() PollResult {
	r, err := p.reader.ReadStatus()
	res := PollResult{
		Hub: p.cfg.Hub,
		At:  r.At,
		Err: err,
	}
	if res.At.IsZero() {
		res.At = p.now()
	}
	if err == nil {
		res.Word = r.Word
	}
	return res
}
