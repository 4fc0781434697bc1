package telenode

import (
	"math"
	"strconv"
)

// Reading is the per-cycle measurement snapshot.
type Reading struct {
	DeviceID       int
	TemperatureC   float32
	BatteryVoltage float32
	BatteryLevel   float32
	Sequence       uint32
}

// Message is the serialized form of a Reading. It carries no terminator.
type Message []byte

func (m Message) String() string {
	return string(m)
}

// Profile fixes the number of decimals of the battery fields on the wire.
// Temperature is always sent with 2 decimals.
type Profile struct {
	// BatteryDecimals is 2 or 3.
	BatteryDecimals int
	// LevelDecimals is 0 (integer percentage) or 1.
	LevelDecimals int
}

var (
	// ProfileASK matches the 433 MHz broadcast receivers.
	ProfileASK = Profile{BatteryDecimals: 2, LevelDecimals: 0}

	// ProfileTransceiver matches the serial transceiver gateways.
	ProfileTransceiver = Profile{BatteryDecimals: 3, LevelDecimals: 1}
)

const temperatureDecimals = 2

func (p Profile) valid() bool {
	return (p.BatteryDecimals == 2 || p.BatteryDecimals == 3) &&
		(p.LevelDecimals == 0 || p.LevelDecimals == 1)
}

// Encoder serializes readings into the structured-text record
// {"id":..,"temp":..,"bat":..,"lvl":..,"cnt":..}.
type Encoder struct {
	Profile Profile
	buf     [96]byte
}

// Encode returns the record for r. The same Reading always produces the
// same bytes.
func (e *Encoder) Encode(r Reading) Message {
	b := e.buf[:0]
	b = append(b, `{"id":`...)
	b = strconv.AppendInt(b, int64(r.DeviceID), 10)
	b = append(b, `,"temp":`...)
	b = appendFixed(b, r.TemperatureC, temperatureDecimals)
	b = append(b, `,"bat":`...)
	b = appendFixed(b, r.BatteryVoltage, e.Profile.BatteryDecimals)
	b = append(b, `,"lvl":`...)
	b = appendFixed(b, r.BatteryLevel, e.Profile.LevelDecimals)
	b = append(b, `,"cnt":`...)
	b = strconv.AppendUint(b, uint64(r.Sequence), 10)
	b = append(b, '}')

	m := make(Message, len(b))
	copy(m, b)
	return m
}

// appendFixed rounds v half away from zero to decimals places and appends the
// shortest text that parses back to the rounded value, so 21.30 is written
// as 21.3 and 22.00 as 22. Scaling happens in float32, so 3.135 becomes
// 313.5 and rounds up.
func appendFixed(b []byte, v float32, decimals int) []byte {
	scale := math.Pow10(decimals)
	r := math.Round(float64(v*float32(scale))) / scale
	if r == 0 {
		r = 0 // no "-0"
	}
	if decimals == 0 {
		return strconv.AppendInt(b, int64(r), 10)
	}
	return strconv.AppendFloat(b, r, 'f', -1, 64)
}
