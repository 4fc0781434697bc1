//go:build tinygo

package telenode

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/ds18b20"
	"tinygo.org/x/drivers/onewire"
)

// DS18B20 worst-case conversion time at 12-bit resolution.
const probeConversionTime = 750 * time.Millisecond

// tinygoPin wraps a machine.Pin to satisfy the Pin interface.
type tinygoPin struct {
	pin machine.Pin
}

func (p *tinygoPin) Out(l Level) error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pin.Set(bool(l))
	return nil
}

func (p *tinygoPin) In(pull Pull) error {
	var mPull machine.PinMode
	switch pull {
	case PullUp:
		mPull = machine.PinInputPullup
	case PullDown:
		mPull = machine.PinInputPulldown
	default:
		mPull = machine.PinInput
	}
	p.pin.Configure(machine.PinConfig{Mode: mPull})
	return nil
}

func (p *tinygoPin) Read() Level {
	return Level(p.pin.Get())
}

// tinygoThermometer reads DS18B20 probes found on a 1-wire pin.
type tinygoThermometer struct {
	sensor ds18b20.Device
	roms   [][]uint8
}

func (t *tinygoThermometer) RequestTemperatures() {
	t.sensor.RequestTemperature(nil) // skip ROM: all probes convert
	time.Sleep(probeConversionTime)
}

func (t *tinygoThermometer) TempCByIndex(index int) float32 {
	if index < 0 || index >= len(t.roms) {
		return DeviceDisconnectedC
	}
	milli, err := t.sensor.ReadTemperature(t.roms[index])
	if err != nil {
		return DeviceDisconnectedC
	}
	return float32(milli) / 1000
}

// TinyGoPin wraps a machine pin.
func TinyGoPin(p machine.Pin) Pin {
	return &tinygoPin{pin: p}
}

// TinyGoADC configures p as an analog input. machine.ADC already
// satisfies the ADC interface.
func TinyGoADC(p machine.Pin) ADC {
	machine.InitADC()
	adc := machine.ADC{Pin: p}
	adc.Configure(machine.ADCConfig{})
	return adc
}

// NewTinyGoProbe searches the 1-wire bus on p for probes. A bus without
// probes is not an error: every reading will be DeviceDisconnectedC.
func NewTinyGoProbe(p machine.Pin) Thermometer {
	ow := onewire.New(p)
	ow.Configure(onewire.Config{})

	roms, err := ow.Search(onewire.SEARCH_ROM)
	if err != nil {
		globalLogger.Warn("1-wire search failed: " + err.Error())
	}
	return &tinygoThermometer{
		sensor: ds18b20.New(ow),
		roms:   roms,
	}
}
