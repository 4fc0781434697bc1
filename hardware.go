package telenode

import (
	"time"
)

// SystemClock is the Clock backed by time.Sleep.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// SleeperFunc adapts a plain function to the Sleeper interface so a board
// package can hand over its own deep-sleep routine.
type SleeperFunc func(d time.Duration)

func (f SleeperFunc) PowerDown(d time.Duration) {
	f(d)
}

// IdleSleeper suspends with time.Sleep. On TinyGo targets the scheduler
// parks the core in its wait-for-interrupt state while sleeping.
var IdleSleeper Sleeper = SleeperFunc(time.Sleep)

// StaticPin is a Pin fixed at one level. Boards without a mode selector
// wire it into SleepConfig.ModePin.
type StaticPin Level

func (p StaticPin) Out(Level) error { return nil }
func (p StaticPin) In(Pull) error   { return nil }
func (p StaticPin) Read() Level     { return Level(p) }
