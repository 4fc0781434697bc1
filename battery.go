package telenode

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

type BatteryConfig struct {
	// ReferenceVoltage is the ADC reference in volts (1.1 for an AVR
	// internal reference, 3.3 for an RP2040 VREF).
	ReferenceVoltage float32
	// DividerRatio is R2/(R1+R2) of the battery sense divider.
	DividerRatio float32
	// Calibration is a linear correction applied to the computed voltage.
	// Defaults to 1 if not provided.
	Calibration float32
	// FullScale is the raw count that corresponds to ReferenceVoltage.
	// Defaults to 65535 (TinyGo scales every ADC to 16 bits).
	FullScale uint16
	// Iterations is the number of averaged reads after the discarded one.
	// Defaults to 4.
	Iterations int
}

// VoltageSampler reads and calibrates the node's own battery voltage.
type VoltageSampler struct {
	adc    ADC
	config BatteryConfig
}

// NewVoltageSampler validates c and returns a sampler reading from adc.
func NewVoltageSampler(adc ADC, c BatteryConfig) (*VoltageSampler, error) {
	if adc == nil {
		return nil, fmt.Errorf("battery ADC not configured: %w", ErrInvalidConfig)
	}
	if c.Calibration == 0 {
		c.Calibration = 1
	}
	if c.FullScale == 0 {
		c.FullScale = math.MaxUint16
	}
	if c.Iterations <= 0 {
		c.Iterations = 4
	}
	if !positiveFinite(c.ReferenceVoltage) {
		return nil, fmt.Errorf("reference voltage must be positive: %w", ErrInvalidConfig)
	}
	if !positiveFinite(c.DividerRatio) {
		return nil, fmt.Errorf("divider ratio must be positive: %w", ErrInvalidConfig)
	}
	if !positiveFinite(c.Calibration) {
		return nil, fmt.Errorf("calibration factor must be positive: %w", ErrInvalidConfig)
	}
	return &VoltageSampler{adc: adc, config: c}, nil
}

// Sample discards one settling read, averages the next iterations reads and
// converts the mean to calibrated volts. It performs iterations+1 reads.
// A non-positive iterations falls back to a single averaged read.
func (s *VoltageSampler) Sample(iterations int) float32 {
	if iterations <= 0 {
		iterations = 1
	}
	s.adc.Get() // first conversion after mux switch is unreliable

	var sum uint32
	for i := 0; i < iterations; i++ {
		sum += uint32(s.adc.Get())
	}
	avg := float32(sum) / float32(iterations)

	volts := avg / float32(s.config.FullScale) * s.config.ReferenceVoltage / s.config.DividerRatio
	return volts * s.config.Calibration
}

// Read samples with the configured iteration count.
func (s *VoltageSampler) Read() float32 {
	return s.Sample(s.config.Iterations)
}

// Percent maps voltage linearly onto [vmin, vmax] as a percentage.
// The result is capped at 100; below vmin it goes negative.
func Percent(voltage, vmin, vmax float32) float32 {
	if voltage >= vmax {
		return 100
	}
	level := (voltage - vmin) * 100 / (vmax - vmin)
	return Min(level, 100)
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func positiveFinite(v float32) bool {
	f := float64(v)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
