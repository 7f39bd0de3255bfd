// internal/status/constants.go
package status

// Status register layout constants.
// These values define the device protocol and MUST NOT be configurable.

// ---- REGISTER ADDRESSING ----

// RegisterAddress is the holding register that carries the status word.
const RegisterAddress uint16 = 0

// RegisterCount is the number of registers read per status poll.
const RegisterCount uint16 = 1

// UnitID is the fixed bus address of the controller.
const UnitID uint8 = 240

// ---- WORD LIMITS ----

// WordMask selects the meaningful bits of the status word.
// Every value sent to the device is masked with it.
const WordMask uint16 = 0x1FFF

// AlarmMask selects the leak alarm bits (1 and 2).
const AlarmMask uint16 = 0b110

// ---- VALVE BITS ----

// MaskValve1 is set while valve 1 is open.
const MaskValve1 uint16 = 0x100

// MaskValve2 is set while valve 2 is open.
const MaskValve2 uint16 = 0x200

// ---- CONFIGURATION ATTRIBUTES ----

const (
	AttrKeyboardLocked            = "keyboard_locked"
	AttrPessimisticWirelessSensor = "pessimistic_wireless_sensor"
	AttrValveTwoGroups            = "two_valve_groups"
	AttrWirelessPairing           = "wireless_pairing"
	AttrFloorWashing              = "floor_washing"
)

const (
	MaskKeyboardLocked            uint16 = 0x1000
	MaskPessimisticWirelessSensor uint16 = 0x800
	MaskValveTwoGroups            uint16 = 0x400
	MaskWirelessPairing           uint16 = 0x080
	MaskFloorWashing              uint16 = 0x001
)

// attributeMasks is ordered the way attributes are presented.
var attributeMasks = []struct {
	name string
	mask uint16
}{
	{AttrKeyboardLocked, MaskKeyboardLocked},
	{AttrPessimisticWirelessSensor, MaskPessimisticWirelessSensor},
	{AttrValveTwoGroups, MaskValveTwoGroups},
	{AttrWirelessPairing, MaskWirelessPairing},
	{AttrFloorWashing, MaskFloorWashing},
}

// AttributeNames returns the configuration attribute names in presentation order.
func AttributeNames() []string {
	out := make([]string, 0, len(attributeMasks))
	for _, a := range attributeMasks {
		out = append(out, a.name)
	}
	return out
}

// AttributeMask resolves an attribute name to its bit mask.
func AttributeMask(name string) (uint16, bool) {
	for _, a := range attributeMasks {
		if a.name == name {
			return a.mask, true
		}
	}
	return 0, false
}
