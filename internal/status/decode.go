// internal/status/decode.go
package status

// Attributes are the configuration flags carried by the status word.
type Attributes struct {
	KeyboardLocked            bool `json:"keyboard_locked"`
	PessimisticWirelessSensor bool `json:"pessimistic_wireless_sensor"`
	ValveTwoGroups            bool `json:"two_valve_groups"`
	WirelessPairing           bool `json:"wireless_pairing"`
	FloorWashing              bool `json:"floor_washing"`
}

// Map returns the attributes keyed by attribute name.
func (a Attributes) Map() map[string]bool {
	return map[string]bool{
		AttrKeyboardLocked:            a.KeyboardLocked,
		AttrPessimisticWirelessSensor: a.PessimisticWirelessSensor,
		AttrValveTwoGroups:            a.ValveTwoGroups,
		AttrWirelessPairing:           a.WirelessPairing,
		AttrFloorWashing:              a.FloorWashing,
	}
}

func has(word, mask uint16) bool {
	return word&mask == mask
}

// DecodeAttributes extracts all configuration attributes from word.
func DecodeAttributes(word uint16) Attributes {
	return Attributes{
		KeyboardLocked:            has(word, MaskKeyboardLocked),
		PessimisticWirelessSensor: has(word, MaskPessimisticWirelessSensor),
		ValveTwoGroups:            has(word, MaskValveTwoGroups),
		WirelessPairing:           has(word, MaskWirelessPairing),
		FloorWashing:              has(word, MaskFloorWashing),
	}
}

// DecodeAlarm reports whether a leak alarm is raised.
func DecodeAlarm(word uint16) bool {
	return word&AlarmMask != 0
}

// DecodeValve reports whether the valve in slot is open.
func (l Layout) DecodeValve(word uint16, slot int) (bool, error) {
	m, err := l.mask(slot)
	if err != nil {
		return false, err
	}
	return has(word, m), nil
}
