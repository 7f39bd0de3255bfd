// internal/hub/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	stdlog "log"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"
)

// Framing methods supported on the serial line.
const (
	MethodRTU   = "rtu"
	MethodASCII = "ascii"
)

// Client is a serial Modbus connection to one bus.
// It serializes requests because it mutates SlaveId per request.
type Client struct {
	mu       sync.Mutex
	handler  modbus.ClientHandler
	client   modbus.Client
	setSlave func(uint8)
	connect  func() error
	close    func() error
}

// Config is the serial line config.
type Config struct {
	Method   string
	Port     string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	Timeout  time.Duration

	// Trace forwards raw frame logs to Logger.
	Trace  bool
	Logger zerolog.Logger
}

// New builds a client. The port is not opened until Connect.
func New(cfg Config) (*Client, error) {
	if cfg.Port == "" {
		return nil, errors.New("hub modbus: port required")
	}

	var trace *stdlog.Logger
	if cfg.Trace {
		trace = stdlog.New(cfg.Logger.With().Str("component", "modbus").Logger(), "", 0)
	}

	c := &Client{}

	switch cfg.Method {
	case MethodRTU, "":
		h := modbus.NewRTUClientHandler(cfg.Port)
		h.BaudRate = cfg.BaudRate
		h.DataBits = cfg.DataBits
		h.Parity = cfg.Parity
		h.StopBits = cfg.StopBits
		h.Timeout = cfg.Timeout
		h.Logger = trace
		c.handler = h
		c.setSlave = func(id uint8) { h.SlaveId = id }
		c.connect = h.Connect
		c.close = h.Close

	case MethodASCII:
		h := modbus.NewASCIIClientHandler(cfg.Port)
		h.BaudRate = cfg.BaudRate
		h.DataBits = cfg.DataBits
		h.Parity = cfg.Parity
		h.StopBits = cfg.StopBits
		h.Timeout = cfg.Timeout
		h.Logger = trace
		c.handler = h
		c.setSlave = func(id uint8) { h.SlaveId = id }
		c.connect = h.Connect
		c.close = h.Close

	default:
		return nil, fmt.Errorf("hub modbus: unsupported method %q", cfg.Method)
	}

	c.client = modbus.NewClient(c.handler)
	return c, nil
}

// ---- hub.Transport interface ----

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connect()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Client) ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(unitID)

	raw, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	if len(raw) != int(qty)*2 {
		return nil, fmt.Errorf("hub modbus: read-registers payload length %d, want %d", len(raw), int(qty)*2)
	}
	return unpackRegisters(raw), nil
}

// WriteRegister writes one holding register (FC 6).
// A device exception is reported through the returned function code,
// not as an error.
func (c *Client) WriteRegister(unitID uint8, addr, value uint16) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(unitID)

	if _, err := c.client.WriteSingleRegister(addr, value); err != nil {
		var me *modbus.ModbusError
		if errors.As(err, &me) {
			return me.FunctionCode, nil
		}
		return 0, err
	}
	return modbus.FuncCodeWriteSingleRegister, nil
}

// Modbus register memory order (BIG-ENDIAN)
func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
