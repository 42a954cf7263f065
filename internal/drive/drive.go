// Package drive implements the drive train subsystem: manual arcade/tank
// control for teleop and the polled, tick-at-a-time movement operations
// used by the autonomous run loop.
package drive

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/datalog"
	"github.com/TechnoJays/robot2014/internal/hardware"
	"github.com/TechnoJays/robot2014/internal/stopwatch"
	"github.com/TechnoJays/robot2014/internal/subsystem"
	"github.com/TechnoJays/robot2014/internal/util"
)

// Hardware bundles the physical devices the drive train uses. Any device
// may be nil; operations that need a missing device report Done
// immediately so a damaged robot keeps executing its script.
type Hardware struct {
	Left          hardware.MotorController
	Right         hardware.MotorController
	Gyro          hardware.Gyro
	Accelerometer hardware.Accelerometer
	RangeFinder   hardware.RangeFinder

	// Clock overrides the wall clock for the movement timers.
	Clock stopwatch.Clock
}

// Drivetrain drives the robot. It satisfies subsystem.Drive.
type Drivetrain struct {
	cfg    config.DriveConfig
	hw     Hardware
	logger zerolog.Logger
	log    *datalog.Log

	enabled        bool
	gyroEnabled    bool
	accelEnabled   bool
	rangeEnabled   bool
	movementTimer  *stopwatch.Stopwatch
	accelTimer     *stopwatch.Stopwatch
	state          subsystem.ProgramState
	heading        float64
	acceleration   float64
	distance       float64
	rangeFeet      float64
	initialHeading float64
	adjusting      bool
	prevLinear     float64
	prevTurn       float64
}

// New builds a Drivetrain from its configuration and hardware. dlog may
// be nil to disable the sensor trace log.
func New(cfg config.DriveConfig, hw Hardware, logger zerolog.Logger, dlog *datalog.Log) *Drivetrain {
	clock := hw.Clock
	if clock == nil {
		clock = time.Now
	}
	d := &Drivetrain{
		cfg:           cfg,
		hw:            hw,
		logger:        logger.With().Str("subsystem", "drive").Logger(),
		log:           dlog,
		enabled:       hw.Left != nil && hw.Right != nil,
		gyroEnabled:   hw.Gyro != nil,
		accelEnabled:  hw.Accelerometer != nil,
		rangeEnabled:  hw.RangeFinder != nil,
		movementTimer: stopwatch.NewWithClock(clock),
		accelTimer:    stopwatch.NewWithClock(clock),
		state:         subsystem.StateDisabled,
	}
	d.logger.Info().
		Bool("enabled", d.enabled).
		Bool("gyro", d.gyroEnabled).
		Bool("accelerometer", d.accelEnabled).
		Bool("rangeFinder", d.rangeEnabled).
		Msg("Drive train initialized")
	return d
}

// SetState stores the competition mode and clears the movement timers.
func (d *Drivetrain) SetState(state subsystem.ProgramState) {
	d.state = state
	d.movementTimer.Stop()
	if d.accelEnabled {
		d.accelTimer.Stop()
		d.accelTimer.Start()
		d.distance = 0
	}
}

// ReadSensors stores the current gyro heading and range, and integrates
// acceleration into distance traveled.
func (d *Drivetrain) ReadSensors() {
	if d.gyroEnabled {
		d.heading = d.hw.Gyro.Angle()
	}
	if d.rangeEnabled {
		d.rangeFeet = d.hw.RangeFinder.RangeFeet()
	}
	if d.accelEnabled {
		d.acceleration = d.hw.Accelerometer.Acceleration()
		loopTime := d.accelTimer.ElapsedSeconds()
		d.accelTimer.Start()
		d.distance += d.acceleration * loopTime * loopTime
	}
	if d.log != nil {
		d.log.WriteValue("heading", d.heading)
	}
}

// ResetSensors resets the gyro and the integrated distance.
func (d *Drivetrain) ResetSensors() {
	if d.gyroEnabled {
		d.hw.Gyro.Reset()
		d.heading = 0
	}
	if d.accelEnabled {
		d.accelTimer.Start()
		d.distance = 0
	}
}

// ResetAndStartTimer restarts the timer for time-based movement.
func (d *Drivetrain) ResetAndStartTimer() {
	d.movementTimer.Stop()
	d.movementTimer.Start()
}

// Heading returns the last heading read from the gyro, in degrees.
func (d *Drivetrain) Heading() float64 { return d.heading }

// Range returns the last range reading, in feet.
func (d *Drivetrain) Range() float64 { return d.rangeFeet }

// Stop commands zero speed to both sides of the drive train.
func (d *Drivetrain) Stop() {
	if !d.enabled {
		return
	}
	d.arcade(0, 0)
	d.prevLinear = 0
	d.prevTurn = 0
}

// AdjustHeading turns until the robot faces its heading at the start of
// the adjustment plus deltaDeg.
func (d *Drivetrain) AdjustHeading(deltaDeg, speed float64) subsystem.StepResult {
	if !d.enabled || !d.gyroEnabled {
		d.adjusting = false
		return subsystem.Done
	}

	if !d.adjusting {
		d.initialHeading = d.heading
		d.adjusting = true
	}

	remaining := (d.initialHeading + deltaDeg) - d.heading
	if math.Abs(remaining) < d.cfg.HeadingThreshold {
		d.arcade(0, 0)
		d.adjusting = false
		return subsystem.Done
	}

	d.arcade(0, d.turnToward(remaining, speed, util.SpeedTiers(d.cfg.HeadingTiers)))
	return subsystem.Continuing
}

// SetHeading turns until the robot faces the absolute heading deg.
func (d *Drivetrain) SetHeading(deg, speed float64) subsystem.StepResult {
	if !d.enabled || !d.gyroEnabled {
		return subsystem.Done
	}

	remaining := deg - d.heading
	if math.Abs(remaining) < d.cfg.HeadingThreshold {
		d.arcade(0, 0)
		return subsystem.Done
	}

	d.arcade(0, d.turnToward(remaining, speed, util.SpeedTiers(d.cfg.HeadingTiers)))
	return subsystem.Continuing
}

// DriveDistance drives forward or backward until the integrated distance
// traveled is within tolerance of meters. Negative meters drives
// backward.
func (d *Drivetrain) DriveDistance(meters, speed float64) subsystem.StepResult {
	if !d.enabled || !d.accelEnabled {
		return subsystem.Done
	}

	direction := d.cfg.ForwardDirection
	if meters < 0 {
		direction = d.cfg.BackwardDirection
	}

	left := math.Abs(meters) - math.Abs(d.distance)
	if left < d.cfg.DistanceThreshold {
		d.arcade(0, 0)
		return subsystem.Done
	}

	ratio := util.SpeedTiers(d.cfg.DistanceTiers).Ratio(left)
	d.arcade(direction*speed*ratio, 0)
	return subsystem.Continuing
}

// DriveToRange drives until the range finder reads distanceFeet to the
// nearest object.
func (d *Drivetrain) DriveToRange(distanceFeet, speed float64) subsystem.StepResult {
	if !d.enabled || !d.rangeEnabled || distanceFeet < 3.0 {
		return subsystem.Done
	}

	left := d.rangeFeet - distanceFeet
	direction := d.cfg.ForwardDirection
	if left < 0 {
		direction = d.cfg.BackwardDirection
	}

	if math.Abs(left) < d.cfg.DistanceThreshold {
		d.arcade(0, 0)
		return subsystem.Done
	}

	ratio := util.SpeedTiers(d.cfg.DistanceTiers).Ratio(left)
	d.arcade(direction*speed*ratio, 0)
	return subsystem.Continuing
}

// DriveTime drives in dir for seconds. ResetAndStartTimer must be called
// before the first tick.
func (d *Drivetrain) DriveTime(seconds float64, dir subsystem.Direction, speed float64) subsystem.StepResult {
	if !d.enabled {
		return subsystem.Done
	}

	timeLeft := seconds - d.movementTimer.ElapsedSeconds()
	if timeLeft < d.cfg.TimeThreshold || timeLeft < 0 {
		d.arcade(0, 0)
		d.movementTimer.Stop()
		return subsystem.Done
	}

	direction := d.cfg.BackwardDirection
	if dir == subsystem.DirectionForward {
		direction = d.cfg.ForwardDirection
	}

	ratio := util.SpeedTiers(d.cfg.LinearTimeTiers).Ratio(timeLeft)
	d.arcade(direction*speed*ratio, 0)
	return subsystem.Continuing
}

// TurnTime turns in dir for seconds. ResetAndStartTimer must be called
// before the first tick.
func (d *Drivetrain) TurnTime(seconds float64, dir subsystem.Direction, speed float64) subsystem.StepResult {
	if !d.enabled {
		return subsystem.Done
	}

	timeLeft := seconds - d.movementTimer.ElapsedSeconds()
	if timeLeft < d.cfg.TimeThreshold || timeLeft < 0 {
		d.arcade(0, 0)
		d.movementTimer.Stop()
		return subsystem.Done
	}

	direction := d.cfg.RightDirection
	if dir == subsystem.DirectionLeft {
		direction = d.cfg.LeftDirection
	}

	ratio := util.SpeedTiers(d.cfg.TurningTimeTiers).Ratio(timeLeft)
	d.arcade(0, direction*speed*ratio)
	return subsystem.Continuing
}

// Arcade drives with a linear and turning speed from the driver controls.
// Acceleration is smoothed with a per-tick maximum speed change so the
// robot does not tip.
func (d *Drivetrain) Arcade(linear, turn float64, alternate bool) {
	if !d.enabled {
		return
	}

	if alternate {
		linear *= d.cfg.AlternateLinearSpeedRatio
		turn *= d.cfg.AlternateTurningSpeedRatio
	} else {
		linear *= d.cfg.NormalLinearSpeedRatio
		turn *= d.cfg.NormalTurningSpeedRatio
	}

	linear = util.RateLimit(d.prevLinear, linear, d.cfg.MaximumLinearSpeedChange)
	turn = util.RateLimit(d.prevTurn, turn, d.cfg.MaximumTurnSpeedChange)

	d.arcade(linear, turn)
	d.prevLinear = linear
	d.prevTurn = turn
}

// Tank drives each side of the robot from its own control, like tank
// tracks.
func (d *Drivetrain) Tank(left, right float64, alternate bool) {
	if !d.enabled {
		return
	}

	ratio := d.cfg.NormalLinearSpeedRatio
	if alternate {
		ratio = d.cfg.AlternateLinearSpeedRatio
	}
	d.hw.Left.Set(util.Clamp(left*ratio, -1, 1))
	d.hw.Right.Set(util.Clamp(right*ratio, -1, 1))
}

// turnToward returns the signed turn speed for the remaining angle.
func (d *Drivetrain) turnToward(remaining, speed float64, tiers util.SpeedTiers) float64 {
	direction := d.cfg.RightDirection
	if remaining < 0 {
		direction = d.cfg.LeftDirection
	}
	return direction * speed * tiers.Ratio(remaining)
}

// arcade mixes a linear and turn speed onto the left and right motors.
func (d *Drivetrain) arcade(linear, turn float64) {
	d.hw.Left.Set(util.Clamp(linear+turn, -1, 1))
	d.hw.Right.Set(util.Clamp(linear-turn, -1, 1))
}
