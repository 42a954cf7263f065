// Package shooter implements the catapult subsystem. A winch motor pulls
// the catapult arm down against its springs; an encoder tracks the arm
// position and provides soft limits so the winch cannot overdrive the
// mechanism.
package shooter

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/hardware"
	"github.com/TechnoJays/robot2014/internal/stopwatch"
	"github.com/TechnoJays/robot2014/internal/subsystem"
	"github.com/TechnoJays/robot2014/internal/util"
)

// Hardware bundles the catapult's devices. Any device may be nil.
type Hardware struct {
	Winch   hardware.MotorController
	Encoder hardware.Encoder

	// Clock overrides the wall clock for the movement timer.
	Clock stopwatch.Clock
}

// Shooter fires balls with a spring-loaded catapult. It satisfies
// subsystem.Shooter.
type Shooter struct {
	cfg    config.ShooterConfig
	hw     Hardware
	logger zerolog.Logger

	enabled        bool
	encoderEnabled bool
	movementTimer  *stopwatch.Stopwatch
	state          subsystem.ProgramState
	encoderCount   int
	ignoreLimits   bool
}

// New builds a Shooter from its configuration and hardware.
func New(cfg config.ShooterConfig, hw Hardware, logger zerolog.Logger) *Shooter {
	clock := hw.Clock
	if clock == nil {
		clock = time.Now
	}
	s := &Shooter{
		cfg:            cfg,
		hw:             hw,
		logger:         logger.With().Str("subsystem", "shooter").Logger(),
		enabled:        hw.Winch != nil,
		encoderEnabled: hw.Encoder != nil,
		movementTimer:  stopwatch.NewWithClock(clock),
		state:          subsystem.StateDisabled,
	}
	s.logger.Info().
		Bool("enabled", s.enabled).
		Bool("encoder", s.encoderEnabled).
		Msg("Shooter initialized")
	return s
}

// SetState stores the competition mode and clears the movement timer.
func (s *Shooter) SetState(state subsystem.ProgramState) {
	s.state = state
	s.movementTimer.Stop()
}

// ReadSensors stores the current encoder count.
func (s *Shooter) ReadSensors() {
	if s.encoderEnabled {
		s.encoderCount = s.hw.Encoder.Count()
	}
}

// ResetSensors zeroes the encoder. Called with the catapult at rest in
// its fired position.
func (s *Shooter) ResetSensors() {
	if s.encoderEnabled {
		s.hw.Encoder.Reset()
		s.encoderCount = 0
	}
}

// ResetAndStartTimer restarts the timer for time-based movement.
func (s *Shooter) ResetAndStartTimer() {
	s.movementTimer.Stop()
	s.movementTimer.Start()
}

// IgnoreLimits disables the encoder soft limits. Used during shooter
// setup when the arm starts away from its zero position.
func (s *Shooter) IgnoreLimits(ignore bool) {
	s.ignoreLimits = ignore
}

// EncoderCount returns the last encoder reading.
func (s *Shooter) EncoderCount() int { return s.encoderCount }

// Stop stops the winch motor.
func (s *Shooter) Stop() {
	if s.enabled {
		s.hw.Winch.Set(0)
	}
}

// AutoFire pulls the arm down at a speed derived from powerPercent until
// the encoder reaches the maximum limit, which trips the release and
// fires the ball. Requires the encoder; completes immediately without it.
func (s *Shooter) AutoFire(powerPercent float64) subsystem.StepResult {
	if !s.enabled || !s.encoderEnabled {
		return subsystem.Done
	}

	if s.encoderCount >= s.cfg.EncoderMaxLimit {
		s.hw.Winch.Set(0)
		return subsystem.Done
	}

	s.hw.Winch.Set(s.cfg.DownDirection * s.powerToSpeed(powerPercent))
	return subsystem.Continuing
}

// SetPosition moves the arm to the target encoder count.
func (s *Shooter) SetPosition(target, speed float64) subsystem.StepResult {
	if !s.enabled || !s.encoderEnabled {
		return subsystem.Done
	}

	remaining := target - float64(s.encoderCount)
	if math.Abs(remaining) <= float64(s.cfg.EncoderThreshold) {
		s.hw.Winch.Set(0)
		return subsystem.Done
	}

	// Larger counts are further down.
	direction := s.cfg.UpDirection
	if remaining > 0 {
		direction = s.cfg.DownDirection
	}
	if s.limitReached(direction) {
		s.hw.Winch.Set(0)
		return subsystem.Done
	}

	ratio := util.SpeedTiers(s.cfg.EncoderTiers).Ratio(remaining)
	s.hw.Winch.Set(direction * speed * ratio)
	return subsystem.Continuing
}

// ShootTime moves the arm in dir for seconds. ResetAndStartTimer must be
// called before the first tick.
func (s *Shooter) ShootTime(seconds float64, dir subsystem.Direction, speed float64) subsystem.StepResult {
	if !s.enabled {
		return subsystem.Done
	}

	timeLeft := seconds - s.movementTimer.ElapsedSeconds()
	if timeLeft < s.cfg.TimeThreshold || timeLeft < 0 {
		s.hw.Winch.Set(0)
		s.movementTimer.Stop()
		return subsystem.Done
	}

	direction := s.cfg.UpDirection
	if dir == subsystem.DirectionDown {
		direction = s.cfg.DownDirection
	}
	if s.limitReached(direction) {
		s.hw.Winch.Set(0)
		s.movementTimer.Stop()
		return subsystem.Done
	}

	ratio := util.SpeedTiers(s.cfg.TimeTiers).Ratio(timeLeft)
	s.hw.Winch.Set(direction * speed * ratio)
	return subsystem.Continuing
}

// Move drives the winch directly during teleop, respecting the soft
// limits.
func (s *Shooter) Move(speed float64) {
	if !s.enabled {
		return
	}

	if speed != 0 && s.limitReached(speed) {
		speed = 0
	}
	s.hw.Winch.Set(speed * s.cfg.NormalSpeedRatio)
}

// limitReached reports whether moving in the signed winch direction
// would drive the arm past a soft limit.
func (s *Shooter) limitReached(direction float64) bool {
	if s.ignoreLimits || !s.encoderEnabled {
		return false
	}
	// Down movement grows the count toward the max limit, up movement
	// shrinks it toward the min limit.
	movingDown := direction*s.cfg.DownDirection > 0
	if movingDown && s.cfg.EncoderMaxLimit > 0 && s.encoderCount > s.cfg.EncoderMaxLimit {
		return true
	}
	if !movingDown && s.encoderCount < s.cfg.EncoderMinLimit {
		return true
	}
	return false
}

// powerToSpeed converts a 0..100 power percentage to a motor speed. The
// minimum power speed ensures the winch always overcomes the catapult
// springs.
func (s *Shooter) powerToSpeed(powerPercent float64) float64 {
	if powerPercent == 0 {
		return 0
	}
	speed := powerPercent*s.cfg.PowerAdjustmentRatio + s.cfg.MinPowerSpeed
	return util.Clamp(speed*s.cfg.NormalSpeedRatio, 0, 1)
}
