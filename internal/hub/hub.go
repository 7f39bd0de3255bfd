// internal/hub/hub.go
package hub

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/neptun-bridge/internal/status"
)

// Transport is the register primitive the hub needs.
// Framing, CRC and serial IO live behind it.
type Transport interface {
	Connect() error
	Close() error
	ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]uint16, error)
	// WriteRegister returns the response function code. Codes above 0x80
	// are device exceptions.
	WriteRegister(unitID uint8, addr, value uint16) (uint8, error)
}

// exceptionThreshold separates success function codes from exceptions.
const exceptionThreshold uint8 = 0x80

// ErrorLevel decides how loudly the next failure is logged.
type ErrorLevel int

const (
	// LevelClear logs the next failure at error level.
	LevelClear ErrorLevel = iota
	// LevelSuppressed logs failures at debug level until a success.
	LevelSuppressed
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelClear:
		return "clear"
	case LevelSuppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// Result is the status word seen by one operation and the time the
// operation finished. At is taken under the hub lock, so results of one
// hub order the same way their register accesses did. On failure Word is
// zero and At is still set once the lock was taken.
type Result struct {
	Word uint16
	At   time.Time
}

// Config is the runtime config of one hub.
type Config struct {
	Name   string
	Layout status.Layout
	Logger zerolog.Logger
}

// Hub owns one transport to one controller.
//
// Every operation holds mu for its whole duration, so a read-modify-write
// is never interleaved with another operation on the same hub.
type Hub struct {
	name   string
	layout status.Layout
	log    zerolog.Logger

	now func() time.Time

	mu        sync.Mutex
	tr        Transport
	connected bool
	level     ErrorLevel
}

// New creates a hub. The transport is not opened; call Connect.
func New(cfg Config, tr Transport) (*Hub, error) {
	if cfg.Name == "" {
		return nil, errors.New("hub: name required")
	}
	if tr == nil {
		return nil, errors.New("hub: transport required")
	}
	if cfg.Layout.Len() == 0 {
		cfg.Layout = status.DefaultLayout()
	}
	return &Hub{
		name:   cfg.Name,
		layout: cfg.Layout,
		log:    cfg.Logger.With().Str("hub", cfg.Name).Logger(),
		now:    time.Now,
		tr:     tr,
	}, nil
}

// Name returns the hub name.
func (h *Hub) Name() string { return h.name }

// Layout returns the valve layout.
func (h *Hub) Layout() status.Layout { return h.layout }

// Level returns the current error logging level.
func (h *Hub) Level() ErrorLevel {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

// ---- lifecycle ----

// Connect opens the transport. A failure is logged but does not arm
// suppression, so the first real operation failure still logs at error.
func (h *Hub) Connect() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected {
		return nil
	}
	if err := h.tr.Connect(); err != nil {
		opErr := &OpError{Hub: h.name, Op: "connect", Err: fmt.Errorf("%w: %w", ErrConnection, err)}
		h.logFailureLocked(opErr, false)
		return opErr
	}
	h.connected = true
	h.log.Info().Msg("transport connected")
	return nil
}

// Close releases the transport. Safe to call repeatedly.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.connected {
		return nil
	}
	h.connected = false
	if err := h.tr.Close(); err != nil {
		return h.failLocked("close", fmt.Errorf("%w: %w", ErrConnection, err))
	}
	h.log.Info().Msg("transport closed")
	return nil
}

// ---- register access ----

// ReadStatus reads the status word.
func (h *Hub) ReadStatus() (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	word, err := h.readLocked("read_status")
	return h.resultLocked(word, err)
}

// WriteStatus writes value, limited to the meaningful bits.
func (h *Hub) WriteStatus(value uint16) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writeLocked("write_status", value)
	return err
}

// OpenValve opens valve n (1-based) and returns the word written.
func (h *Hub) OpenValve(n int) (Result, error) {
	return h.setValve("open_valve", n, true)
}

// CloseValve closes valve n (1-based) and returns the word written.
func (h *Hub) CloseValve(n int) (Result, error) {
	return h.setValve("close_valve", n, false)
}

// OpenAllValves opens every valve in the layout.
func (h *Hub) OpenAllValves() (Result, error) {
	return h.modify("open_all_valves", func(w uint16) uint16 {
		return h.layout.EncodeAllValves(w, true)
	})
}

// CloseAllValves closes every valve in the layout.
func (h *Hub) CloseAllValves() (Result, error) {
	return h.modify("close_all_valves", func(w uint16) uint16 {
		return h.layout.EncodeAllValves(w, false)
	})
}

// SetConfigAttribute sets one named configuration attribute.
// Unknown names fail with ErrUnknownAttribute before any IO.
func (h *Hub) SetConfigAttribute(name string, value bool) (Result, error) {
	mask, ok := status.AttributeMask(name)
	if !ok {
		return Result{}, &OpError{Hub: h.name, Op: "set_config_attribute", Err: fmt.Errorf("%w: %q", ErrUnknownAttribute, name)}
	}
	return h.modify("set_config_attribute", func(w uint16) uint16 {
		return status.EncodeAttribute(w, mask, value)
	})
}

func (h *Hub) setValve(op string, n int, open bool) (Result, error) {
	slot := n - 1
	if slot < 0 || slot >= h.layout.Len() {
		return Result{}, &OpError{Hub: h.name, Op: op, Err: fmt.Errorf("%w: %d", ErrUnsupportedValve, n)}
	}
	return h.modify(op, func(w uint16) uint16 {
		next, _ := h.layout.EncodeValve(w, slot, open) // slot checked above
		return next
	})
}

// modify runs read, fn, write under one lock acquisition.
// A failed read aborts before any write.
func (h *Hub) modify(op string, fn func(uint16) uint16) (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	word, err := h.readLocked(op)
	if err != nil {
		return h.resultLocked(0, err)
	}
	return h.resultLocked(h.writeLocked(op, fn(word)))
}

func (h *Hub) resultLocked(word uint16, err error) (Result, error) {
	res := Result{At: h.now()}
	if err == nil {
		res.Word = word
	}
	return res, err
}

func (h *Hub) readLocked(op string) (uint16, error) {
	if !h.connected {
		return 0, h.failLocked(op, ErrNotConnected)
	}

	regs, err := h.tr.ReadHoldingRegisters(status.UnitID, status.RegisterAddress, status.RegisterCount)
	if err != nil {
		return 0, h.failLocked(op, fmt.Errorf("%w: read: %w", ErrTransport, err))
	}
	if len(regs) < int(status.RegisterCount) {
		return 0, h.failLocked(op, fmt.Errorf("%w: read: empty response", ErrTransport))
	}

	h.level = LevelClear
	h.log.Debug().Str("op", op).Uint16("word", regs[0]).Msg("status read")
	return regs[0], nil
}

func (h *Hub) writeLocked(op string, value uint16) (uint16, error) {
	if !h.connected {
		return 0, h.failLocked(op, ErrNotConnected)
	}

	value &= status.WordMask
	fc, err := h.tr.WriteRegister(status.UnitID, status.RegisterAddress, value)
	if err != nil {
		return 0, h.failLocked(op, fmt.Errorf("%w: write: %w", ErrTransport, err))
	}
	if fc == 0 {
		return 0, h.failLocked(op, fmt.Errorf("%w: write: malformed response", ErrTransport))
	}
	if fc > exceptionThreshold {
		return 0, h.failLocked(op, fmt.Errorf("%w: write: %w", ErrTransport, &ExceptionError{FunctionCode: fc}))
	}

	h.level = LevelClear
	h.log.Debug().Str("op", op).Uint16("word", value).Uint8("fc", fc).Msg("status written")
	return value, nil
}

// failLocked wraps err and logs it under the sticky policy.
func (h *Hub) failLocked(op string, err error) error {
	opErr := &OpError{Hub: h.name, Op: op, Err: err}
	h.logFailureLocked(opErr, true)
	return opErr
}

// logFailureLocked logs at error once, then at debug until a success.
func (h *Hub) logFailureLocked(err error, arm bool) {
	if h.level == LevelSuppressed {
		h.log.Debug().Err(err).Msg("register operation failed")
		return
	}
	h.log.Error().Err(err).Msg("register operation failed")
	if arm {
		h.level = LevelSuppressed
	}
}
