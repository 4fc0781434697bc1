package telenode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrPayloadTooLong = errors.New("payload too long for link")
	ErrClosed         = errors.New("link closed")
)

type LevelConfig struct {
	// VMin is the voltage reported as 0%.
	// Defaults to 3.2 (empty Li-ion cell) if not provided.
	VMin float32
	// VMax is the voltage reported as 100%.
	// Defaults to 4.2 if not provided.
	VMax float32
}

type Config struct {
	// DeviceID identifies this node in every record.
	DeviceID int
	// CounterBits is the storage width of the sequence counter, which
	// wraps to 0 after 2^CounterBits-1.
	// Range: 1 to 32.
	// Defaults to 16 if not provided.
	CounterBits uint8
	// ProbeIndex selects the probe on the temperature bus.
	ProbeIndex int
	Battery    BatteryConfig
	Level      LevelConfig
	// Profile sets the wire precision of the battery fields.
	// Defaults to ProfileASK if not provided.
	Profile Profile
	Sleep   SleepConfig
}

// Hardware bundles the collaborators a node samples and transmits through.
type Hardware struct {
	Probe      Thermometer
	BatteryADC ADC
	Radio      RadioLink
}

// readingBuilder owns the only state that survives between cycles.
type readingBuilder struct {
	deviceID int
	counter  uint32
	mask     uint32
}

func (b *readingBuilder) next(tempC, volts, level float32) Reading {
	r := Reading{
		DeviceID:       b.deviceID,
		TemperatureC:   tempC,
		BatteryVoltage: volts,
		BatteryLevel:   level,
		Sequence:       b.counter,
	}
	b.counter = (b.counter + 1) & b.mask
	return r
}

// Node runs the sample, encode, transmit, sleep cycle.
// A Node is not safe for concurrent use.
type Node struct {
	config  Config
	thermo  *TemperatureReader
	battery *VoltageSampler
	encoder Encoder
	radio   RadioLink
	sleep   *SleepScheduler
	builder readingBuilder
}

// New validates the configuration and assembles a node from hw.
func New(c Config, hw Hardware) (*Node, error) {
	if c.CounterBits == 0 {
		c.CounterBits = 16
	}
	if c.CounterBits > 32 {
		return nil, fmt.Errorf("counter width must be between 1 and 32 bits: %w", ErrInvalidConfig)
	}
	if c.Level.VMin == 0 && c.Level.VMax == 0 {
		c.Level = LevelConfig{VMin: 3.2, VMax: 4.2}
	}
	if c.Level.VMax <= c.Level.VMin {
		return nil, fmt.Errorf("VMax must be above VMin: %w", ErrInvalidConfig)
	}
	if c.Profile == (Profile{}) {
		c.Profile = ProfileASK
	}
	if !c.Profile.valid() {
		return nil, fmt.Errorf("unsupported encoding profile: %w", ErrInvalidConfig)
	}
	if hw.Probe == nil {
		return nil, fmt.Errorf("temperature probe not configured: %w", ErrInvalidConfig)
	}
	if hw.Radio == nil {
		return nil, fmt.Errorf("radio link not configured: %w", ErrInvalidConfig)
	}

	battery, err := NewVoltageSampler(hw.BatteryADC, c.Battery)
	if err != nil {
		return nil, err
	}
	sleep, err := NewSleepScheduler(c.Sleep)
	if err != nil {
		return nil, err
	}

	return &Node{
		config:  c,
		thermo:  NewTemperatureReader(hw.Probe, c.ProbeIndex),
		battery: battery,
		encoder: Encoder{Profile: c.Profile},
		radio:   hw.Radio,
		sleep:   sleep,
		builder: readingBuilder{
			deviceID: c.DeviceID,
			mask:     uint32(uint64(1)<<c.CounterBits - 1),
		},
	}, nil
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(ID=%d, Radio=%v, Battery=%.2f-%.2fV, Profile=%d/%d)",
		n.config.DeviceID,
		n.radio,
		n.config.Level.VMin,
		n.config.Level.VMax,
		n.config.Profile.BatteryDecimals,
		n.config.Profile.LevelDecimals,
	)
}

// Cycle runs one iteration and returns the Reading it sent. It always
// completes: a faulted probe shows up as DeviceDisconnectedC in the record
// and a failed transmission is only logged before the node sleeps.
func (n *Node) Cycle() Reading {
	tempC := n.thermo.Read()
	volts := n.battery.Read()
	level := Percent(volts, n.config.Level.VMin, n.config.Level.VMax)

	r := n.builder.next(tempC, volts, level)
	msg := n.encoder.Encode(r)

	globalLogger.Debug("Sending " + msg.String())
	if err := n.radio.Transmit(msg); err != nil {
		globalLogger.Warn("Transmit failed: " + err.Error())
	}

	n.sleep.Execute(n.sleep.Plan())
	return r
}

// Run repeats Cycle until ctx is done. Firmware passes
// context.Background() and never returns.
func (n *Node) Run(ctx context.Context) error {
	globalLogger.Info("Node " + strconv.Itoa(n.config.DeviceID) + " started.")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n.Cycle()
	}
}
