// Package feeder implements the ball feeder subsystem: pneumatic arms
// raised and lowered by a solenoid, and two counter-rotating pickup
// motors that pull the ball in or push it out.
package feeder

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/hardware"
	"github.com/TechnoJays/robot2014/internal/stopwatch"
	"github.com/TechnoJays/robot2014/internal/subsystem"
	"github.com/TechnoJays/robot2014/internal/util"
)

// Hardware bundles the feeder's devices. Any device may be nil.
type Hardware struct {
	LeftArm     hardware.MotorController
	RightArm    hardware.MotorController
	ArmSolenoid hardware.Solenoid

	// Clock overrides the wall clock for the movement timer.
	Clock stopwatch.Clock
}

// Feeder feeds balls to the catapult. It satisfies subsystem.Feeder.
type Feeder struct {
	cfg    config.FeederConfig
	hw     Hardware
	logger zerolog.Logger

	armsEnabled     bool
	solenoidEnabled bool
	movementTimer   *stopwatch.Stopwatch
	state           subsystem.ProgramState
}

// New builds a Feeder from its configuration and hardware.
func New(cfg config.FeederConfig, hw Hardware, logger zerolog.Logger) *Feeder {
	clock := hw.Clock
	if clock == nil {
		clock = time.Now
	}
	f := &Feeder{
		cfg:             cfg,
		hw:              hw,
		logger:          logger.With().Str("subsystem", "feeder").Logger(),
		armsEnabled:     hw.LeftArm != nil && hw.RightArm != nil,
		solenoidEnabled: hw.ArmSolenoid != nil,
		movementTimer:   stopwatch.NewWithClock(clock),
		state:           subsystem.StateDisabled,
	}
	f.logger.Info().
		Bool("arms", f.armsEnabled).
		Bool("solenoid", f.solenoidEnabled).
		Msg("Feeder initialized")
	return f
}

// SetState stores the competition mode and clears the movement timer.
func (f *Feeder) SetState(state subsystem.ProgramState) {
	f.state = state
	f.movementTimer.Stop()
}

// ResetAndStartTimer restarts the timer for time-based feeding.
func (f *Feeder) ResetAndStartTimer() {
	f.movementTimer.Stop()
	f.movementTimer.Start()
}

// SetPosition raises or lowers the feeder arms.
func (f *Feeder) SetPosition(dir subsystem.Direction) {
	if !f.solenoidEnabled {
		return
	}
	switch dir {
	case subsystem.DirectionUp:
		f.hw.ArmSolenoid.Set(false)
	case subsystem.DirectionDown:
		f.hw.ArmSolenoid.Set(true)
	}
}

// Feed runs the pickup motors in or out at speed. The two arms spin in
// opposite rotational directions to move the ball the same way.
func (f *Feeder) Feed(dir subsystem.Direction, speed float64) {
	if !f.armsEnabled {
		return
	}
	switch dir {
	case subsystem.DirectionIn:
		f.hw.RightArm.Set(f.cfg.Clockwise * speed)
		f.hw.LeftArm.Set(f.cfg.CounterClockwise * speed)
	case subsystem.DirectionOut:
		f.hw.RightArm.Set(f.cfg.CounterClockwise * speed)
		f.hw.LeftArm.Set(f.cfg.Clockwise * speed)
	case subsystem.DirectionStop:
		f.hw.RightArm.Set(0)
		f.hw.LeftArm.Set(0)
	}
}

// FeedTime runs the pickup motors in dir for seconds.
// ResetAndStartTimer must be called before the first tick.
func (f *Feeder) FeedTime(seconds float64, dir subsystem.Direction, speed float64) subsystem.StepResult {
	if !f.armsEnabled {
		return subsystem.Done
	}

	timeLeft := seconds - f.movementTimer.ElapsedSeconds()
	if timeLeft < f.cfg.TimeThreshold || timeLeft < 0 {
		f.Feed(subsystem.DirectionStop, 0)
		f.movementTimer.Stop()
		return subsystem.Done
	}

	ratio := util.SpeedTiers(f.cfg.TimeTiers).Ratio(timeLeft)
	f.Feed(dir, speed*ratio)
	return subsystem.Continuing
}

// Stop stops the pickup motors.
func (f *Feeder) Stop() {
	f.Feed(subsystem.DirectionStop, 0)
}
