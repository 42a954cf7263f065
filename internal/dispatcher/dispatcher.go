// Package dispatcher resolves autonomous script verbs to subsystem
// operations. Resolution is a fixed table from verb to owning subsystem,
// required arity, and invocation; unknown verbs, wrong arity, and absent
// subsystems all complete trivially so a script never stalls the robot.
package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/TechnoJays/robot2014/internal/script"
	"github.com/TechnoJays/robot2014/internal/subsystem"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Waiter is the do-nothing subsystem behind the wait verb. The robot
// core provides it so waiting shares the same timer contract as real
// movement.
type Waiter interface {
	Wait(seconds float64) subsystem.StepResult
	ResetAndStartTimer()
}

// Subsystems bundles the dispatch targets. Any may be nil; verbs bound
// to a missing target complete trivially.
type Subsystems struct {
	Drive   subsystem.Drive
	Feeder  subsystem.Feeder
	Shooter subsystem.Shooter
	Waiter  Waiter
}

type target int

const (
	targetDrive target = iota
	targetFeeder
	targetShooter
	targetWaiter
)

type operation struct {
	target target
	arity  int
	timed  bool
	invoke func(s Subsystems, p []script.Param) (subsystem.StepResult, bool)
}

// verbs is the static dispatch table. The invoke functions return a
// second false when a parameter has the wrong type, which is treated the
// same as an arity mismatch.
var verbs = map[string]operation{
	"wait": {targetWaiter, 1, true,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			seconds, ok := num(p[0])
			if !ok {
				return subsystem.Done, false
			}
			return s.Waiter.Wait(seconds), true
		}},
	"adjustheading": {targetDrive, 2, false,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			delta, ok1 := num(p[0])
			speed, ok2 := num(p[1])
			if !ok1 || !ok2 {
				return subsystem.Done, false
			}
			return s.Drive.AdjustHeading(delta, speed), true
		}},
	"drivedistance": {targetDrive, 2, false,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			meters, ok1 := num(p[0])
			speed, ok2 := num(p[1])
			if !ok1 || !ok2 {
				return subsystem.Done, false
			}
			return s.Drive.DriveDistance(meters, speed), true
		}},
	"drivetime": {targetDrive, 3, true,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			seconds, ok1 := num(p[0])
			d, ok2 := dir(p[1])
			speed, ok3 := num(p[2])
			if !ok1 || !ok2 || !ok3 {
				return subsystem.Done, false
			}
			return s.Drive.DriveTime(seconds, d, speed), true
		}},
	"setheading": {targetDrive, 2, false,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			deg, ok1 := num(p[0])
			speed, ok2 := num(p[1])
			if !ok1 || !ok2 {
				return subsystem.Done, false
			}
			return s.Drive.SetHeading(deg, speed), true
		}},
	"turntime": {targetDrive, 3, true,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			seconds, ok1 := num(p[0])
			d, ok2 := dir(p[1])
			speed, ok3 := num(p[2])
			if !ok1 || !ok2 || !ok3 {
				return subsystem.Done, false
			}
			return s.Drive.TurnTime(seconds, d, speed), true
		}},
	"setfeederposition": {targetFeeder, 1, false,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			d, ok := dir(p[0])
			if !ok {
				return subsystem.Done, false
			}
			s.Feeder.SetPosition(d)
			return subsystem.Done, true
		}},
	"feedtime": {targetFeeder, 3, true,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			seconds, ok1 := num(p[0])
			d, ok2 := dir(p[1])
			speed, ok3 := num(p[2])
			if !ok1 || !ok2 || !ok3 {
				return subsystem.Done, false
			}
			return s.Feeder.FeedTime(seconds, d, speed), true
		}},
	"auto_fire": {targetShooter, 1, false,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			power, ok := num(p[0])
			if !ok {
				return subsystem.Done, false
			}
			return s.Shooter.AutoFire(power), true
		}},
	"setshooter": {targetShooter, 2, false,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			pos, ok1 := num(p[0])
			speed, ok2 := num(p[1])
			if !ok1 || !ok2 {
				return subsystem.Done, false
			}
			return s.Shooter.SetPosition(pos, speed), true
		}},
	"shoottime": {targetShooter, 3, true,
		func(s Subsystems, p []script.Param) (subsystem.StepResult, bool) {
			seconds, ok1 := num(p[0])
			d, ok2 := dir(p[1])
			speed, ok3 := num(p[2])
			if !ok1 || !ok2 || !ok3 {
				return subsystem.Done, false
			}
			return s.Shooter.ShootTime(seconds, d, speed), true
		}},
}

func num(p script.Param) (float64, bool) {
	return p.Number, p.Numeric
}

func dir(p script.Param) (subsystem.Direction, bool) {
	if p.Numeric {
		return subsystem.DirectionNone, false
	}
	return subsystem.ParseDirection(p.Text)
}

// Dispatcher routes script commands to subsystem operations.
type Dispatcher struct {
	subsystems Subsystems
	logger     Logger

	executed metric.Int64Counter
	failed   metric.Int64Counter
}

// New creates a Dispatcher over the given subsystems.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(subsystems Subsystems, logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		subsystems: subsystems,
		logger:     logger,
	}

	m := meter()

	var err error
	d.executed, err = m.Int64Counter(
		"dispatcher.commands.executed",
		metric.WithDescription("Total command invocations dispatched to a subsystem"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating executed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.commands.failed",
		metric.WithDescription("Total commands skipped as trivially complete"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return d, nil
}

// Resolvable reports whether verb is in the dispatch table.
func (d *Dispatcher) Resolvable(verb string) bool {
	_, ok := verbs[verb]
	return ok
}

// TimeBounded reports whether verb requires its subsystem timer to be
// reset on the first tick of the command.
func (d *Dispatcher) TimeBounded(verb string) bool {
	op, ok := verbs[verb]
	return ok && op.timed
}

// StartTimer resets and starts the movement timer of the subsystem that
// owns verb. Called by the run loop on the first tick of a time-bounded
// command.
func (d *Dispatcher) StartTimer(verb string) {
	op, ok := verbs[verb]
	if !ok || !d.available(op.target) {
		return
	}
	switch op.target {
	case targetDrive:
		d.subsystems.Drive.ResetAndStartTimer()
	case targetFeeder:
		d.subsystems.Feeder.ResetAndStartTimer()
	case targetShooter:
		d.subsystems.Shooter.ResetAndStartTimer()
	case targetWaiter:
		d.subsystems.Waiter.ResetAndStartTimer()
	}
}

// Execute invokes the operation for cmd and returns its per-tick result.
// Unknown verbs, arity or type mismatches, and missing subsystems return
// Done so the sequence keeps advancing.
func (d *Dispatcher) Execute(cmd script.Command) subsystem.StepResult {
	op, ok := verbs[cmd.Verb]
	if !ok {
		d.skip(cmd.Verb, "unknown verb")
		return subsystem.Done
	}
	if len(cmd.Params) != op.arity {
		d.skip(cmd.Verb, "arity mismatch")
		return subsystem.Done
	}
	if !d.available(op.target) {
		d.skip(cmd.Verb, "subsystem unavailable")
		return subsystem.Done
	}

	result, ok := op.invoke(d.subsystems, cmd.Params)
	if !ok {
		d.skip(cmd.Verb, "bad parameter")
		return subsystem.Done
	}

	d.executed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("verb", cmd.Verb)))
	return result
}

func (d *Dispatcher) available(t target) bool {
	switch t {
	case targetDrive:
		return d.subsystems.Drive != nil
	case targetFeeder:
		return d.subsystems.Feeder != nil
	case targetShooter:
		return d.subsystems.Shooter != nil
	case targetWaiter:
		return d.subsystems.Waiter != nil
	default:
		return false
	}
}

func (d *Dispatcher) skip(verb, reason string) {
	d.logger.Error("command skipped", "verb", verb, "reason", reason)
	d.failed.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("verb", verb),
		attribute.String("reason", reason),
	))
}
