// Package hardware defines the interfaces the subsystems use to reach
// motor controllers and sensors. The physical drivers live outside this
// module; the subsystems accept these interfaces so the control logic
// can be exercised against fakes.
package hardware

// MotorController commands a single motor. Speed is -1.0 to 1.0.
type MotorController interface {
	Set(speed float64)
}

// Gyro reports the robot heading.
type Gyro interface {
	// Angle returns the accumulated heading in degrees.
	Angle() float64
	Reset()
}

// Accelerometer reports acceleration along one configured axis.
type Accelerometer interface {
	Acceleration() float64
}

// Encoder counts rotations of the catapult arm shaft.
type Encoder interface {
	Count() int
	Reset()
}

// Solenoid actuates a pneumatic piston. True extends, false retracts.
type Solenoid interface {
	Set(extended bool)
}

// RangeFinder reports the distance to the nearest object ahead.
type RangeFinder interface {
	// RangeFeet returns the filtered range in feet.
	RangeFeet() float64
}

// NoopMotor is a MotorController that discards commands. Used when a
// motor channel is not configured so callers never hold a nil.
type NoopMotor struct{}

func (NoopMotor) Set(float64) {}
