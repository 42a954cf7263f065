// Package teleop turns joystick input into subsystem commands. Besides
// direct axis control it runs the tele-auto routines: multi-step driver
// assists (hold-to-shoot, prep-for-feed, truss pass, aim-at-target) that
// advance one step per tick so manual control stays responsive.
package teleop

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/stopwatch"
	"github.com/TechnoJays/robot2014/internal/subsystem"
	"github.com/TechnoJays/robot2014/internal/vision"
)

// Gamepad axis numbering. Axis 1 is the left stick X on the 2014 driver
// station gamepads.
const (
	AxisLeftX = iota + 1
	AxisLeftY
	AxisRightX
	AxisRightY
	AxisDpadX
	AxisDpadY
)

// Gamepad button numbering, starting at 1.
const (
	ButtonX = iota + 1
	ButtonA
	ButtonB
	ButtonY
	ButtonLeftBumper
	ButtonRightBumper
	ButtonLeftTrigger
	ButtonRightTrigger
	ButtonBack
	ButtonStart
)

const gamepadButtons = 10

// DefaultDeadBand is the axis magnitude below which stick input reads
// as zero.
const DefaultDeadBand = 0.05

// Gamepad reads raw driver input. Axis and button numbering starts
// at 1.
type Gamepad interface {
	Axis(axis int) float64
	Button(button int) bool
}

// Pad wraps a Gamepad with a dead band and the previous-tick button
// state needed for press/release edge detection. Callers read buttons
// during the tick and call StoreButtonStates once at the end.
type Pad struct {
	pad      Gamepad
	deadBand float64
	previous [gamepadButtons + 1]bool
}

// NewPad wraps g. A zero deadBand falls back to DefaultDeadBand.
func NewPad(g Gamepad, deadBand float64) *Pad {
	if deadBand == 0 {
		deadBand = DefaultDeadBand
	}
	return &Pad{pad: g, deadBand: deadBand}
}

// Axis reads an axis value with the dead band applied.
func (p *Pad) Axis(axis int) float64 {
	if p.pad == nil {
		return 0
	}
	v := p.pad.Axis(axis)
	if math.Abs(v) < p.deadBand {
		return 0
	}
	return v
}

// Pressed reports whether the button is currently held.
func (p *Pad) Pressed(button int) bool {
	if p.pad == nil || button < 1 || button > gamepadButtons {
		return false
	}
	return p.pad.Button(button)
}

// Changed reports whether the button state differs from the last
// stored state.
func (p *Pad) Changed(button int) bool {
	if button < 1 || button > gamepadButtons {
		return false
	}
	return p.Pressed(button) != p.previous[button]
}

// PressedEdge reports a press since the last store.
func (p *Pad) PressedEdge(button int) bool {
	return p.Pressed(button) && p.Changed(button)
}

// ReleasedEdge reports a release since the last store.
func (p *Pad) ReleasedEdge(button int) bool {
	return !p.Pressed(button) && p.Changed(button)
}

// StoreButtonStates snapshots the current state of every button for
// the next tick's edge detection.
func (p *Pad) StoreButtonStates() {
	for i := 1; i <= gamepadButtons; i++ {
		p.previous[i] = p.Pressed(i)
	}
}

// Tele-auto step machines use -1 for idle and 1..n for the active step.
const stepIdle = -1

// Controller runs one teleop tick: driver assists first, then manual
// axis control, then the kill switch, then the button state store.
type Controller struct {
	cfg     config.TeleopConfig
	drive   subsystem.Drive
	feeder  subsystem.Feeder
	shooter subsystem.Shooter
	driver  *Pad
	scoring *Pad
	logger  zerolog.Logger

	holdTimer *stopwatch.Stopwatch

	holdToShootStep  int
	holdToShootPower float64
	powerFactor      float64
	prepForFeedStep  int
	trussPassStep    int
	aimStep          int
	aimTarget        *vision.Target
	shooterSetupStep int

	feederPosition  subsystem.Direction
	swapRatio       float64
	driverAlternate bool
	targets         []vision.Target
}

// New builds a teleop controller. Any subsystem may be nil; routines
// needing it are skipped. A nil pad reads as an idle gamepad and a nil
// clock uses the wall clock.
func New(cfg config.TeleopConfig, drive subsystem.Drive, feeder subsystem.Feeder, shooter subsystem.Shooter, driver, scoring *Pad, clock stopwatch.Clock, logger zerolog.Logger) *Controller {
	if clock == nil {
		clock = time.Now
	}
	if driver == nil {
		driver = NewPad(nil, 0)
	}
	if scoring == nil {
		scoring = NewPad(nil, 0)
	}
	c := &Controller{
		cfg:              cfg,
		drive:            drive,
		feeder:           feeder,
		shooter:          shooter,
		driver:           driver,
		scoring:          scoring,
		logger:           logger,
		holdTimer:        stopwatch.NewWithClock(clock),
		holdToShootStep:  stepIdle,
		prepForFeedStep:  stepIdle,
		trussPassStep:    stepIdle,
		aimStep:          stepIdle,
		shooterSetupStep: stepIdle,
		feederPosition:   subsystem.DirectionUp,
		swapRatio:        1.0,
		powerFactor:      (100.0 - cfg.MinHoldToShootPower) / 100.0,
	}
	return c
}

// SetTargets replaces the vision targets consulted by aim-at-target.
// Called by the host at tick start after draining the vision queue.
func (c *Controller) SetTargets(targets []vision.Target) {
	c.targets = targets
}

// SetFeederPosition records (and applies) the arm position so the
// toggle starts from the right side after a mode change.
func (c *Controller) SetFeederPosition(dir subsystem.Direction) {
	c.feederPosition = dir
	if c.feeder != nil {
		c.feeder.SetPosition(dir)
	}
}

// Abandon cancels every tele-auto routine. Called on mode exit.
func (c *Controller) Abandon() {
	c.holdToShootStep = stepIdle
	c.prepForFeedStep = stepIdle
	c.trussPassStep = stepIdle
	c.aimStep = stepIdle
	c.aimTarget = nil
	c.shooterSetupStep = stepIdle
	c.holdTimer.Stop()
}

// BeginShooterSetup arms the catapult homing sequence. The host steps
// it with ShooterSetup at autonomous entry.
func (c *Controller) BeginShooterSetup() {
	c.shooterSetupStep = 1
}

// ShooterSetup homes the catapult: the arm starts up, so the encoder
// zero is unknown. Limits are ignored while the arm winds all the way
// down on time, then the encoder resets to zero. Returns true when
// finished.
func (c *Controller) ShooterSetup() bool {
	if c.shooter == nil {
		return true
	}
	switch c.shooterSetupStep {
	case 1:
		c.shooter.IgnoreLimits(true)
		c.shooter.ResetAndStartTimer()
		c.shooterSetupStep = 2
		return false
	case 2:
		if c.shooter.ShootTime(c.cfg.ShooterSetupSeconds, subsystem.DirectionDown, c.cfg.ShooterSetupSpeed).IsDone() {
			c.shooterSetupStep = 3
		}
		return false
	case 3:
		c.shooter.ResetSensors()
		c.shooter.IgnoreLimits(false)
		c.shooterSetupStep = stepIdle
	}
	return true
}

// Tick runs one teleop control pass.
func (c *Controller) Tick() {
	c.performTeleAuto()

	c.checkAlternateSpeed()
	c.checkIgnoreLimits()
	c.checkSwapRequest()
	c.checkTeleAutoRequests()

	c.controlDrive()
	c.controlShooter()
	c.controlFeeder()

	c.checkTeleAutoKill()

	c.driver.StoreButtonStates()
	c.scoring.StoreButtonStates()
}

// checkTeleAutoRequests starts driver-assist routines from button
// edges.
func (c *Controller) checkTeleAutoRequests() {
	// Hold the scoring right trigger to shoot; longer hold, more power.
	if c.scoring.Changed(ButtonRightTrigger) && c.shooter != nil {
		if c.scoring.Pressed(ButtonRightTrigger) {
			c.holdTimer.Start()
			c.holdToShootStep = 1
		} else {
			c.holdTimer.Stop()
			duration := c.holdTimer.ElapsedSeconds()
			requested := duration / c.cfg.MaxHoldToShootTime * 100.0
			power := requested*c.powerFactor + c.cfg.MinHoldToShootPower
			if power > 100.0 {
				power = 100.0
			}
			c.holdToShootPower = power
			c.shooter.ResetAndStartTimer()
			c.holdToShootStep = 2
		}
	}
	// Scoring Y prepares to pick up a ball.
	if c.scoring.PressedEdge(ButtonY) {
		c.prepForFeedStep = 1
	}
	// Driver Y aims at the current vision target.
	if c.driver.PressedEdge(ButtonY) && c.drive != nil {
		c.drive.ResetSensors()
		c.aimStep = 1
		c.aimTarget = nil
	}
	// Scoring left bumper passes the ball over the truss.
	if c.scoring.PressedEdge(ButtonLeftBumper) {
		c.trussPassStep = 1
	}
}

func (c *Controller) performTeleAuto() {
	// Hold to shoot: settle the arm briefly, then fire at the power
	// accumulated while the trigger was held.
	switch c.holdToShootStep {
	case 2:
		if c.shooter != nil {
			c.logger.Info().Float64("power", c.holdToShootPower).Msg("Hold-to-shoot firing")
			if c.shooter.ShootTime(0.1, subsystem.DirectionDown, 1.0).IsDone() {
				c.holdToShootStep = 3
			}
		}
	case 3:
		if c.shooter != nil && c.shooter.AutoFire(c.holdToShootPower).IsDone() {
			c.holdToShootStep = stepIdle
		}
	}

	// Prep for feed: arms down, then catapult to the feed position.
	switch c.prepForFeedStep {
	case 1:
		if c.feeder != nil {
			c.feederPosition = subsystem.DirectionDown
			c.feeder.SetPosition(c.feederPosition)
		}
		c.prepForFeedStep = 2
	case 2:
		if c.shooter != nil && c.shooter.SetPosition(c.cfg.CatapultFeedPosition, 1.0).IsDone() {
			c.prepForFeedStep = stepIdle
		}
	}

	// Truss pass: a partial catapult release.
	if c.trussPassStep != stepIdle {
		if c.shooter != nil && c.shooter.SetPosition(c.cfg.TrussPassPosition, 1.0).IsDone() {
			c.trussPassStep = stepIdle
		}
	}

	if c.aimStep != stepIdle {
		c.aimAtTarget()
	}
}

// aimAtTarget drives to the optimum shooting range, brakes, then turns
// to face the latched target. The vision angle points at the goal's
// outside edge, so the heading adjustment carries a per-side offset.
func (c *Controller) aimAtTarget() {
	if c.drive == nil {
		c.aimStep = stepIdle
		return
	}
	if c.aimTarget == nil {
		if len(c.targets) == 0 {
			c.aimStep = stepIdle
			return
		}
		t := c.targets[0]
		c.aimTarget = &t
	}

	switch c.aimStep {
	case 1:
		distanceLeft := c.aimTarget.Distance - c.cfg.OptimumShootingRange
		if math.Abs(distanceLeft) < 0.5 {
			c.drive.Arcade(0.0, 0.0, false)
			c.drive.ResetAndStartTimer()
			c.aimStep = 2
			return
		}
		speed := 0.3
		if distanceLeft > 0 {
			speed = -0.3
		}
		c.drive.Arcade(speed, 0.0, false)
	case 2:
		// Brake by driving backward briefly.
		if c.drive.DriveTime(0.1, subsystem.DirectionBackward, 0.5).IsDone() {
			c.drive.ResetSensors()
			c.aimStep = 3
		}
	case 3:
		adjustment := c.aimTarget.Angle
		switch c.aimTarget.Side {
		case vision.SideLeft:
			adjustment += c.cfg.ShootingAngleOffset
		case vision.SideRight:
			adjustment -= c.cfg.ShootingAngleOffset
		default:
			c.aimStep = stepIdle
			c.aimTarget = nil
			return
		}
		if c.drive.AdjustHeading(adjustment, 0.3).IsDone() {
			c.aimStep = stepIdle
			c.aimTarget = nil
		}
	}
}

// checkAlternateSpeed holds the driver left bumper for the alternate
// drive ratio.
func (c *Controller) checkAlternateSpeed() {
	c.driverAlternate = c.driver.Pressed(ButtonLeftBumper)
}

// checkIgnoreLimits holds the scoring start button to override the
// catapult encoder soft limits.
func (c *Controller) checkIgnoreLimits() {
	if c.shooter != nil {
		c.shooter.IgnoreLimits(c.scoring.Pressed(ButtonStart))
	}
}

// checkSwapRequest toggles forward/reverse on a driver right trigger
// press.
func (c *Controller) checkSwapRequest() {
	if c.driver.PressedEdge(ButtonRightTrigger) {
		c.swapRatio *= -1.0
		if c.swapRatio > 0 {
			c.logger.Info().Msg("Controls normal")
		} else {
			c.logger.Info().Msg("Controls swapped")
		}
	}
}

func (c *Controller) controlDrive() {
	if c.drive == nil {
		return
	}
	linear := c.driver.Axis(AxisLeftY)
	turn := c.driver.Axis(AxisRightX)
	if linear != 0.0 || turn != 0.0 {
		c.drive.Arcade(linear*c.swapRatio, turn, c.driverAlternate)
		return
	}
	// Keep the motor safety fed without fighting the aim routine.
	if c.aimStep == stepIdle {
		c.drive.Arcade(0.0, 0.0, false)
	}
}

func (c *Controller) controlShooter() {
	if c.shooter == nil {
		return
	}
	speed := c.scoring.Axis(AxisLeftY)
	if speed != 0.0 {
		c.shooter.Move(speed)
		// Manual input overrides any catapult routine.
		c.holdToShootStep = stepIdle
		c.prepForFeedStep = stepIdle
		c.trussPassStep = stepIdle
		return
	}
	if c.holdToShootStep == stepIdle && c.prepForFeedStep == stepIdle &&
		c.trussPassStep == stepIdle {
		c.shooter.Move(0.0)
	}
}

func (c *Controller) controlFeeder() {
	if c.feeder == nil {
		return
	}
	// Scoring right bumper toggles the feeder arms.
	if c.scoring.PressedEdge(ButtonRightBumper) {
		if c.feederPosition == subsystem.DirectionUp {
			c.feederPosition = subsystem.DirectionDown
		} else {
			c.feederPosition = subsystem.DirectionUp
		}
		c.feeder.SetPosition(c.feederPosition)
		c.prepForFeedStep = stepIdle
	}
	speed := c.scoring.Axis(AxisRightY)
	if speed != 0.0 {
		dir := subsystem.DirectionOut
		if speed > 0 {
			dir = subsystem.DirectionIn
		}
		c.feeder.Feed(dir, math.Abs(speed))
		return
	}
	c.feeder.Feed(subsystem.DirectionStop, 0.0)
}

// checkTeleAutoKill holds the scoring back button to cancel every
// catapult routine.
func (c *Controller) checkTeleAutoKill() {
	if c.scoring.Pressed(ButtonBack) {
		c.holdToShootStep = stepIdle
		c.prepForFeedStep = stepIdle
		c.trussPassStep = stepIdle
		c.aimStep = stepIdle
		c.aimTarget = nil
	}
}
