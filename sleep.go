package telenode

import (
	"fmt"
	"strconv"
	"time"
)

// StepDuration is one quantized low-power step.
const StepDuration = 8 * time.Second

// SleepPlan is the number of low-power steps to take before the next cycle.
type SleepPlan struct {
	Steps int
}

// Duration is the total suspension time of the plan.
func (p SleepPlan) Duration() time.Duration {
	return time.Duration(p.Steps) * StepDuration
}

type SleepConfig struct {
	// ModePin selects the sleep length: High sleeps LongSteps, Low sleeps
	// a single step for bench observation.
	// Defaults to StaticPin(High) if not provided.
	ModePin Pin
	// Sleeper is the platform low-power primitive.
	// Defaults to IdleSleeper if not provided.
	Sleeper Sleeper
	// LongSteps is the multiplier used in deployment.
	// Defaults to 8 (64s) if not provided.
	LongSteps int
}

// SleepScheduler is the only caller of the platform sleep primitive.
type SleepScheduler struct {
	config SleepConfig
}

// NewSleepScheduler applies defaults and configures the mode pin as a
// pulled-up input, so an unjumpered board runs the long sleep.
func NewSleepScheduler(c SleepConfig) (*SleepScheduler, error) {
	if c.ModePin == nil {
		c.ModePin = StaticPin(High)
	}
	if c.Sleeper == nil {
		c.Sleeper = IdleSleeper
	}
	if c.LongSteps == 0 {
		c.LongSteps = 8
	}
	if c.LongSteps < 0 {
		return nil, fmt.Errorf("long sleep multiplier must be positive: %w", ErrInvalidConfig)
	}
	if err := c.ModePin.In(PullUp); err != nil {
		return nil, fmt.Errorf("failed to configure sleep mode pin: %w", err)
	}
	return &SleepScheduler{config: c}, nil
}

// Plan reads the mode pin and picks the number of steps.
func (s *SleepScheduler) Plan() SleepPlan {
	if s.config.ModePin.Read() == High {
		return SleepPlan{Steps: s.config.LongSteps}
	}
	return SleepPlan{Steps: 1}
}

// Execute blocks for the whole plan, one PowerDown per step.
func (s *SleepScheduler) Execute(p SleepPlan) {
	globalLogger.Debug("Sleeping " + strconv.Itoa(p.Steps) + " x 8s")
	for i := 0; i < p.Steps; i++ {
		s.config.Sleeper.PowerDown(StepDuration)
	}
}
