package robot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/stopwatch"
	"github.com/TechnoJays/robot2014/internal/subsystem"
)

// Program is the mode-dispatched control surface the host drives. The
// host calls the matching OnXEnter once on each mode change and one
// OnXTick per control period. Satisfied by Core.
type Program interface {
	OnDisabledEnter()
	OnDisabledTick()
	OnAutonomousEnter()
	OnAutonomousTick()
	OnTeleopEnter()
	OnTeleopTick()
}

// ModeSource reports the competition mode selected by the field control
// system.
type ModeSource interface {
	Mode() subsystem.ProgramState
}

// Watchdog is the external motor safety watchdog. It must be fed every
// tick while the robot is enabled or the hardware cuts motor power.
type Watchdog interface {
	Feed()
}

// DefaultTickPeriod is the control period used when the configuration
// does not set one.
const DefaultTickPeriod = 10 * time.Millisecond

// Host runs the control loop: one mode check, one program tick, one
// watchdog feed, then sleep out the remainder of the period.
type Host struct {
	program  Program
	source   ModeSource
	watchdog Watchdog
	period   time.Duration
	logger   zerolog.Logger

	clock stopwatch.Clock
	sleep func(time.Duration)
	mode  subsystem.ProgramState
}

// NewHost builds the host loop. watchdog may be nil. A non-positive
// tickPeriodMs falls back to DefaultTickPeriod.
func NewHost(program Program, source ModeSource, watchdog Watchdog, tickPeriodMs int, logger zerolog.Logger) *Host {
	period := time.Duration(tickPeriodMs) * time.Millisecond
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &Host{
		program:  program,
		source:   source,
		watchdog: watchdog,
		period:   period,
		logger:   logger.With().Str("component", "host").Logger(),
		clock:    time.Now,
		sleep:    time.Sleep,
	}
}

// Run drives the control loop until ctx is canceled. On cancellation
// the program is put into disabled mode before returning so the
// actuators end up safe.
func (h *Host) Run(ctx context.Context) {
	h.logger.Info().Dur("period", h.period).Msg("Control loop started")
	for {
		select {
		case <-ctx.Done():
			if h.mode != subsystem.StateDisabled {
				h.enter(subsystem.StateDisabled)
				h.mode = subsystem.StateDisabled
			}
			h.logger.Info().Msg("Control loop stopped")
			return
		default:
		}
		h.step()
	}
}

// step runs one control period: mode transition, tick, watchdog, sleep.
func (h *Host) step() {
	start := h.clock()

	mode := h.source.Mode()
	switch mode {
	case subsystem.StateAutonomous, subsystem.StateTeleop:
	default:
		mode = subsystem.StateDisabled
	}

	if mode != h.mode {
		h.logger.Info().Str("from", h.mode.String()).Str("to", mode.String()).
			Msg("Mode change")
		h.enter(mode)
		h.mode = mode
	}
	h.tick(mode)

	if mode != subsystem.StateDisabled && h.watchdog != nil {
		h.watchdog.Feed()
	}

	if remaining := h.period - h.clock().Sub(start); remaining > 0 {
		h.sleep(remaining)
	}
}

func (h *Host) enter(mode subsystem.ProgramState) {
	switch mode {
	case subsystem.StateAutonomous:
		h.program.OnAutonomousEnter()
	case subsystem.StateTeleop:
		h.program.OnTeleopEnter()
	default:
		h.program.OnDisabledEnter()
	}
}

func (h *Host) tick(mode subsystem.ProgramState) {
	switch mode {
	case subsystem.StateAutonomous:
		h.program.OnAutonomousTick()
	case subsystem.StateTeleop:
		h.program.OnTeleopTick()
	default:
		h.program.OnDisabledTick()
	}
}
