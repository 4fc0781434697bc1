//go:build !tinygo

package telenode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/physic"
)

// Every DS18B20 step from -55 °C to 125 °C is a multiple of 1/16 °C and
// must reach the encoder as the exact float32.
func TestCelsiusDS18B20Steps(t *testing.T) {
	e := Encoder{Profile: ProfileASK}
	for raw := -880; raw <= 2000; raw++ {
		temp := physic.ZeroCelsius + physic.Temperature(raw)*physic.Celsius/16
		want := float32(raw) / 16

		got := celsius(temp)
		if !assert.Equal(t, want, got, "raw %d", raw) {
			continue
		}
		assert.Equal(t, e.Encode(Reading{TemperatureC: want}), e.Encode(Reading{TemperatureC: got}))
	}
}

func TestCelsiusEncodesHalfStepUp(t *testing.T) {
	temp := physic.ZeroCelsius + physic.Temperature(-870)*physic.Celsius/16
	e := Encoder{Profile: ProfileASK}
	msg := e.Encode(Reading{TemperatureC: celsius(temp)})

	assert.Contains(t, msg.String(), `"temp":-54.38,`)
}
