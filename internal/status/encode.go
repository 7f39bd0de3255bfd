// internal/status/encode.go
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidValve is returned when a valve slot has no mask in the layout.
var ErrInvalidValve = errors.New("status: invalid valve index")

// Layout maps valve slots to their status bits.
// Slot 0 is valve 1.
type Layout struct {
	Valves []uint16
}

// DefaultLayout is the two-valve controller layout.
func DefaultLayout() Layout {
	return Layout{Valves: []uint16{MaskValve1, MaskValve2}}
}

// Len returns the number of valve slots.
func (l Layout) Len() int { return len(l.Valves) }

func (l Layout) mask(slot int) (uint16, error) {
	if slot < 0 || slot >= len(l.Valves) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidValve, slot)
	}
	return l.Valves[slot], nil
}

// AllValves returns the union of all valve masks.
func (l Layout) AllValves() uint16 {
	var m uint16
	for _, v := range l.Valves {
		m |= v
	}
	return m
}

// ---- ENCODE ----
// Pure bit arithmetic. No IO.

// EncodeAttribute sets or clears mask in word.
func EncodeAttribute(word, mask uint16, value bool) uint16 {
	if value {
		return word | mask
	}
	return word &^ mask
}

// EncodeValve opens or closes one valve slot.
// The result is limited to the meaningful bits.
func (l Layout) EncodeValve(word uint16, slot int, open bool) (uint16, error) {
	m, err := l.mask(slot)
	if err != nil {
		return word, err
	}
	return EncodeAttribute(word, m, open) & WordMask, nil
}

// EncodeAllValves opens or closes every valve slot at once.
func (l Layout) EncodeAllValves(word uint16, open bool) uint16 {
	return EncodeAttribute(word, l.AllValves(), open) & WordMask
}

// ---- LOOSE BOOLEANS ----

// ParseFlag maps a string to a boolean: "true" in any case is true,
// anything else is false.
func ParseFlag(s string) bool {
	return strings.EqualFold(s, "true")
}

// Flag is an attribute value as received from callers.
// It accepts a JSON boolean or a string; see ParseFlag.
// Any other JSON value decodes to false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Flag(ParseFlag(s))
		return nil
	}
	*f = false
	return nil
}
