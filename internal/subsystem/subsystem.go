// Package subsystem defines the capability interfaces and shared enums for
// the robot's actuator subsystems. The autonomous run loop and teleop
// controller depend only on these interfaces, never on concrete hardware.
package subsystem

// ProgramState enumerates the competition modes provided by the field.
type ProgramState int

const (
	StateDisabled ProgramState = iota + 1
	StateAutonomous
	StateTeleop
)

// String returns the lowercase mode name.
func (s ProgramState) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateAutonomous:
		return "autonomous"
	case StateTeleop:
		return "teleop"
	default:
		return "unknown"
	}
}

// Direction enumerates movement directions from the perspective of the
// center of the robot facing the front.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
	DirectionForward
	DirectionBackward
	DirectionUp
	DirectionDown
	DirectionIn
	DirectionOut
	DirectionStop
)

var directionNames = map[string]Direction{
	"left":     DirectionLeft,
	"right":    DirectionRight,
	"forward":  DirectionForward,
	"backward": DirectionBackward,
	"up":       DirectionUp,
	"down":     DirectionDown,
	"in":       DirectionIn,
	"out":      DirectionOut,
	"stop":     DirectionStop,
}

// ParseDirection resolves a lowercase direction token from a script
// parameter. Unknown tokens return DirectionNone and false.
func ParseDirection(token string) (Direction, bool) {
	d, ok := directionNames[token]
	return d, ok
}

// String returns the lowercase token for the direction.
func (d Direction) String() string {
	for name, dir := range directionNames {
		if dir == d {
			return name
		}
	}
	return "none"
}

// StepResult is the per-tick completion signal returned by every
// autonomous subsystem operation. Operations are polled once per control
// loop tick and must be safe to call repeatedly with the same arguments
// until they report Done.
type StepResult bool

const (
	// Continuing means the operation needs more ticks.
	Continuing StepResult = false
	// Done means the operation completed this tick and issued its own
	// stop command to the actuator.
	Done StepResult = true
)

// IsDone reports whether the operation has completed.
func (r StepResult) IsDone() bool { return bool(r) }

// Drive is the drive train capability consumed by the autonomous run
// loop and the teleop controller.
type Drive interface {
	// Autonomous step operations. Each returns Done on the tick the
	// target is reached, after commanding the motors to stop.
	AdjustHeading(deltaDeg, speed float64) StepResult
	DriveDistance(meters, speed float64) StepResult
	DriveTime(seconds float64, dir Direction, speed float64) StepResult
	SetHeading(deg, speed float64) StepResult
	TurnTime(seconds float64, dir Direction, speed float64) StepResult

	// ResetAndStartTimer restarts the internal movement timer. Called on
	// the first tick of every time-bounded command.
	ResetAndStartTimer()

	// Teleop control.
	Arcade(linear, turn float64, alternate bool)
	Tank(left, right float64, alternate bool)

	// Stop commands zero speed to all drive motors.
	Stop()

	ReadSensors()
	ResetSensors()
	SetState(ProgramState)

	Heading() float64
	Range() float64
}

// Feeder is the ball feeder capability.
type Feeder interface {
	// SetPosition raises or lowers the feeder arms. Completes within one
	// tick; the solenoid holds the position afterwards.
	SetPosition(dir Direction)

	Feed(dir Direction, speed float64)
	FeedTime(seconds float64, dir Direction, speed float64) StepResult
	ResetAndStartTimer()

	Stop()
	SetState(ProgramState)
}

// Shooter is the catapult capability.
type Shooter interface {
	AutoFire(powerPercent float64) StepResult
	SetPosition(target, speed float64) StepResult
	ShootTime(seconds float64, dir Direction, speed float64) StepResult
	ResetAndStartTimer()

	// Move drives the catapult winch directly during teleop.
	Move(speed float64)

	// IgnoreLimits disables the encoder soft limits, used during shooter
	// setup when the arm starts away from its zero position.
	IgnoreLimits(ignore bool)

	Stop()
	ReadSensors()
	ResetSensors()
	SetState(ProgramState)
}
