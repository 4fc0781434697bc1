package telenode

import (
	"io"
	"time"
)

// Level represents the logical level of a pin (Low or High).
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Pull represents the internal pull-up/down resistor state.
type Pull uint8

const (
	PullNoChange Pull = iota
	PullFloat
	PullDown
	PullUp
)

// Pin represents a generic GPIO pin.
type Pin interface {
	// Out sets the pin as output with the given level.
	Out(l Level) error
	// In sets the pin as input with the given pull mode.
	In(pull Pull) error
	// Read returns the current level of the pin.
	Read() Level
}

// ADC represents a single analog input channel.
type ADC interface {
	// Get returns one raw conversion. The full-scale count is platform
	// specific (65535 for TinyGo's scaled readings).
	Get() uint16
}

// Serial represents a byte-oriented secondary serial channel (UART).
type Serial interface {
	io.Writer
	// Buffered returns the number of received bytes waiting to be read.
	Buffered() int
	// Read reads up to len(p) buffered bytes.
	Read(p []byte) (int, error)
}

// Thermometer is the external temperature probe driver.
// TempCByIndex returns DeviceDisconnectedC when the probe at index is
// missing or the bus reported an error.
type Thermometer interface {
	RequestTemperatures()
	TempCByIndex(index int) float32
}

// Clock provides the wall-clock waits used for bit timing and the
// transceiver handshake.
type Clock interface {
	Sleep(d time.Duration)
}

// Sleeper is the platform's low-power suspension primitive.
// PowerDown blocks for d and cannot be interrupted.
type Sleeper interface {
	PowerDown(d time.Duration)
}
