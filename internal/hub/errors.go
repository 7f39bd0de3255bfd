// internal/hub/errors.go
package hub

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Hub wraps exactly one of the
// first three.
var (
	// ErrConnection is returned when the transport cannot be opened or used.
	ErrConnection = errors.New("hub: connection error")

	// ErrTransport is returned when a single read or write round trip fails:
	// timeout, framing or CRC failure, or a device exception response.
	ErrTransport = errors.New("hub: transport error")

	// ErrConfiguration is returned for caller or setup mistakes. Not retried.
	ErrConfiguration = errors.New("hub: configuration error")
)

var (
	// ErrNotConnected is returned when the hub was never connected or was closed.
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrConnection)

	// ErrUnsupportedValve is returned for a valve number outside the layout.
	ErrUnsupportedValve = fmt.Errorf("%w: unsupported valve", ErrConfiguration)

	// ErrUnknownAttribute is returned for an attribute name the device does not have.
	ErrUnknownAttribute = fmt.Errorf("%w: unknown attribute", ErrConfiguration)
)

// ExceptionError is a device exception response (function code above 0x80).
type ExceptionError struct {
	FunctionCode uint8
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("device exception: function code 0x%02x", e.FunctionCode)
}

// Code exposes the raw function code for status reporting.
func (e *ExceptionError) Code() uint16 {
	return uint16(e.FunctionCode)
}

// OpError records the hub and operation that failed.
type OpError struct {
	Hub string
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("hub %s: %s: %v", e.Hub, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
