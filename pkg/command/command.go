// Package command builds control-command frames for an authenticated
// session.
//
// Commands live in frame group 0x03. The frame subtype selects a domain
// (bike, sound, ride) and the 3-byte payload is commandID | param | value:
//
//	81 00 03 01 00 A0 01   unlock
//	81 00 03 01 00 67 02   power level 2
//	81 00 03 02 00 A0 01   bell ding
//	81 00 03 03 01 A0 00   boost off
//
// The set of actions is closed: each logical action has a constructor, and
// parameterized constructors validate their argument before any bytes are
// produced. Dispatch by free-form command string is the CLI's concern, not
// this package's.
package command

import (
	"errors"
	"fmt"

	"github.com/openmoof/moof-go/pkg/wire"
)

// ErrInvalidParameter indicates a command argument outside its valid range.
var ErrInvalidParameter = errors.New("invalid parameter")

// Domain subtypes within the command group.
const (
	domainBike  byte = 0x01 // lock, alarm, sounds, power level, lights
	domainSound byte = 0x02 // bell, horn
	domainRide  byte = 0x03 // power, boost
)

// Parameter bytes within a domain.
const (
	paramToggle     byte = 0xA0
	paramPlaySound  byte = 0x21
	paramPowerLevel byte = 0x67
	paramLightMode  byte = 0x6B
)

// MaxPowerLevel is the highest motor assist level (0 = off).
const MaxPowerLevel = 4

// LightMode selects the bike's lighting behavior.
type LightMode byte

const (
	LightOff  LightMode = 0x00
	LightOn   LightMode = 0x01
	LightAuto LightMode = 0x03
)

// String returns the light mode name.
func (m LightMode) String() string {
	switch m {
	case LightOff:
		return "off"
	case LightOn:
		return "on"
	case LightAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseLightMode parses a light mode name as used on the CLI.
func ParseLightMode(s string) (LightMode, error) {
	switch s {
	case "off":
		return LightOff, nil
	case "on":
		return LightOn, nil
	case "auto":
		return LightAuto, nil
	default:
		return 0, fmt.Errorf("%w: light mode %q (want off, on or auto)", ErrInvalidParameter, s)
	}
}

// Command is a validated control command, ready to be framed under a
// session's pinned header.
type Command struct {
	// Name is the logical action name, for logging.
	Name string

	subtype byte
	id      byte
	param   byte
	value   byte
}

// Payload returns the 3-byte command payload.
func (c *Command) Payload() []byte {
	return []byte{c.id, c.param, c.value}
}

// Frame serializes the command under the given session header.
func (c *Command) Frame(header byte) []byte {
	return wire.Encode(header, wire.GroupCommand, c.subtype, c.Payload())
}

func bikeToggle(name string, id, value byte) *Command {
	return &Command{Name: name, subtype: domainBike, id: id, param: paramToggle, value: value}
}

// Lock engages the kick lock.
func Lock() *Command { return bikeToggle("lock", 0x00, 0x00) }

// Unlock releases the kick lock.
func Unlock() *Command { return bikeToggle("unlock", 0x00, 0x01) }

// ArmAlarm enables the alarm.
func ArmAlarm() *Command { return bikeToggle("arm alarm", 0x01, 0x01) }

// DisarmAlarm disables the alarm.
func DisarmAlarm() *Command { return bikeToggle("disarm alarm", 0x01, 0x00) }

// TriggerAlarm sounds the alarm immediately.
func TriggerAlarm() *Command { return bikeToggle("trigger alarm", 0x02, 0x01) }

// PlaySound plays one of the bike's feedback sounds (1 or 2).
func PlaySound(id int) (*Command, error) {
	if id < 1 || id > 2 {
		return nil, fmt.Errorf("%w: sound %d (want 1 or 2)", ErrInvalidParameter, id)
	}
	return &Command{Name: fmt.Sprintf("sound %d", id), subtype: domainBike, id: 0x00, param: paramPlaySound, value: byte(id)}, nil
}

// BellSingle plays a single bell ding.
func BellSingle() *Command {
	return &Command{Name: "bell", subtype: domainSound, id: 0x00, param: paramToggle, value: 0x01}
}

// BellDouble plays a double bell ding.
func BellDouble() *Command {
	return &Command{Name: "bell double", subtype: domainSound, id: 0x00, param: paramToggle, value: 0x02}
}

// Horn plays the horn sound.
func Horn() *Command {
	return &Command{Name: "horn", subtype: domainSound, id: 0x01, param: paramToggle, value: 0x01}
}

// PowerOn powers the bike on.
func PowerOn() *Command {
	return &Command{Name: "power on", subtype: domainRide, id: 0x00, param: paramToggle, value: 0x01}
}

// PowerOff powers the bike off.
func PowerOff() *Command {
	return &Command{Name: "power off", subtype: domainRide, id: 0x00, param: paramToggle, value: 0x00}
}

// BoostOn enables boost mode.
func BoostOn() *Command {
	return &Command{Name: "boost on", subtype: domainRide, id: 0x01, param: paramToggle, value: 0x01}
}

// BoostOff disables boost mode.
func BoostOff() *Command {
	return &Command{Name: "boost off", subtype: domainRide, id: 0x01, param: paramToggle, value: 0x00}
}

// SetPowerLevel sets the motor assist level, 0 (off) through MaxPowerLevel.
func SetPowerLevel(level int) (*Command, error) {
	if level < 0 || level > MaxPowerLevel {
		return nil, fmt.Errorf("%w: power level %d (want 0-%d)", ErrInvalidParameter, level, MaxPowerLevel)
	}
	return &Command{Name: fmt.Sprintf("power level %d", level), subtype: domainBike, id: 0x00, param: paramPowerLevel, value: byte(level)}, nil
}

// SetLightMode sets the lighting behavior.
func SetLightMode(mode LightMode) (*Command, error) {
	switch mode {
	case LightOff, LightOn, LightAuto:
	default:
		return nil, fmt.Errorf("%w: light mode 0x%02X", ErrInvalidParameter, byte(mode))
	}
	return &Command{Name: "lights " + mode.String(), subtype: domainBike, id: 0x00, param: paramLightMode, value: byte(mode)}, nil
}
