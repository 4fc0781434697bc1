//go:build !tinygo

package telenode

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/devices/v3/ds18b20"
	"periph.io/x/host/v3"
)

// realPin wraps a gpio.PinIO to satisfy the Pin interface.
type realPin struct {
	gpio.PinIO
}

func (p *realPin) Out(l Level) error {
	if l == High {
		return p.PinIO.Out(gpio.High)
	}
	return p.PinIO.Out(gpio.Low)
}

func (p *realPin) In(pull Pull) error {
	var pPull gpio.Pull
	switch pull {
	case PullFloat:
		pPull = gpio.Float
	case PullDown:
		pPull = gpio.PullDown
	case PullUp:
		pPull = gpio.PullUp
	default:
		pPull = gpio.PullNoChange
	}
	return p.PinIO.In(pPull, gpio.NoEdge)
}

func (p *realPin) Read() Level {
	if p.PinIO.Read() == gpio.High {
		return High
	}
	return Low
}

// periphADC scales an analog.PinADC reading to the 16-bit range used by
// BatteryConfig.FullScale.
type periphADC struct {
	pin analog.PinADC
	max int32
}

func (a *periphADC) Get() uint16 {
	s, err := a.pin.Read()
	if err != nil {
		globalLogger.Warn("ADC read failed: " + err.Error())
		return 0
	}
	if s.Raw <= 0 {
		return 0
	}
	if s.Raw >= a.max {
		return 0xffff
	}
	return uint16(int64(s.Raw) * 0xffff / int64(a.max))
}

// periphThermometer reads DS18B20 probes on a 1-wire bus.
type periphThermometer struct {
	bus        onewire.Bus
	probes     []*ds18b20.Dev
	resolution int
}

func (t *periphThermometer) RequestTemperatures() {
	if err := ds18b20.ConvertAll(t.bus, t.resolution); err != nil {
		globalLogger.Warn("DS18B20 conversion failed: " + err.Error())
	}
}

func (t *periphThermometer) TempCByIndex(index int) float32 {
	if index < 0 || index >= len(t.probes) {
		return DeviceDisconnectedC
	}
	temp, err := t.probes[index].LastTemp()
	if err != nil {
		return DeviceDisconnectedC
	}
	return celsius(temp)
}

// celsius converts in float64 so every 1/16 °C DS18B20 step survives the
// narrowing to float32 exactly.
func celsius(t physic.Temperature) float32 {
	return float32(float64(t-physic.ZeroCelsius) / float64(physic.Celsius))
}

// ttySerial adapts a serial port to the Buffered/Read contract by polling
// the port with a short read timeout.
type ttySerial struct {
	port    serial.Port
	pending []byte
	buf     [64]byte
}

func (s *ttySerial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *ttySerial) Buffered() int {
	n, err := s.port.Read(s.buf[:])
	if err == nil && n > 0 {
		s.pending = append(s.pending, s.buf[:n]...)
	}
	return len(s.pending)
}

func (s *ttySerial) Read(p []byte) (int, error) {
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *ttySerial) Close() error {
	return s.port.Close()
}

// HostConfig holds the Linux/periph.io wiring of a node.
type HostConfig struct {
	// OneWireBus is the 1-wire bus name. Empty picks the first bus.
	OneWireBus string
	// ProbeResolution is the DS18B20 resolution in bits (9 to 12).
	// Defaults to 12 if not provided.
	ProbeResolution int
	// I2CBus is the bus of the ADS1115 battery ADC. Empty picks the first bus.
	I2CBus string
	// ADCChannel is the ADS1115 input wired to the battery divider.
	ADCChannel ads1x15.Channel
	// ADCMaxVoltage is the full-scale range requested from the ADS1115.
	// Defaults to 4.096V if not provided.
	ADCMaxVoltage physic.ElectricPotential
	// SerialPort is the tty of the transceiver (e.g. "/dev/ttyS0").
	SerialPort string
	// SerialBaud defaults to 9600 if not provided.
	SerialBaud int
}

func initHost() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph.io host: %w", err)
	}
	return nil
}

// HostPin opens a GPIO by name (e.g. "GPIO17").
func HostPin(name string) (Pin, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to open pin %s", name)
	}
	return &realPin{PinIO: p}, nil
}

// NewHostProbe searches the 1-wire bus for DS18B20 probes. A bus without
// probes is not an error: every reading will be DeviceDisconnectedC.
func NewHostProbe(c HostConfig) (Thermometer, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	if c.ProbeResolution == 0 {
		c.ProbeResolution = 12
	}
	bus, err := onewirereg.Open(c.OneWireBus)
	if err != nil {
		return nil, fmt.Errorf("failed to open 1-wire bus: %w", err)
	}
	addrs, err := bus.Search(false)
	if err != nil {
		globalLogger.Warn("1-wire search failed: " + err.Error())
	}

	t := &periphThermometer{bus: bus, resolution: c.ProbeResolution}
	for _, addr := range addrs {
		if addr&0xff != 0x28 { // DS18B20 family code
			continue
		}
		dev, err := ds18b20.New(bus, addr, c.ProbeResolution)
		if err != nil {
			globalLogger.Warn("Skipping probe: " + err.Error())
			continue
		}
		t.probes = append(t.probes, dev)
	}
	globalLogger.Info(fmt.Sprintf("Found %d DS18B20 probe(s).", len(t.probes)))
	return t, nil
}

// NewHostBatteryADC opens an ADS1115 channel for battery sensing.
// Pair it with BatteryConfig.ReferenceVoltage equal to ADCMaxVoltage.
func NewHostBatteryADC(c HostConfig) (ADC, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	if c.ADCMaxVoltage == 0 {
		c.ADCMaxVoltage = 4096 * physic.MilliVolt
	}
	bus, err := i2creg.Open(c.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}
	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize ADS1115: %w", err)
	}
	pin, err := adc.PinForChannel(c.ADCChannel, c.ADCMaxVoltage, 8*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to open ADS1115 channel: %w", err)
	}
	_, hi := pin.Range()
	if hi.Raw <= 0 {
		hi.Raw = 0x7fff
	}
	return &periphADC{pin: pin, max: hi.Raw}, nil
}

// OpenHostSerial opens the transceiver tty at 8N1.
func OpenHostSerial(c HostConfig) (Serial, error) {
	if c.SerialBaud == 0 {
		c.SerialBaud = 9600
	}
	port, err := serial.Open(c.SerialPort, &serial.Mode{
		BaudRate: c.SerialBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", c.SerialPort, err)
	}
	if err := port.SetReadTimeout(time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set serial read timeout: %w", err)
	}
	return &ttySerial{port: port}, nil
}
