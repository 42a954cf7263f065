// Package robot wires the subsystems, the autonomous engine, and the
// teleop controller into the mode-dispatched control core, and provides
// the host loop that drives it at the control period.
package robot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/TechnoJays/robot2014/internal/autonomous"
	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/dispatcher"
	"github.com/TechnoJays/robot2014/internal/logging"
	"github.com/TechnoJays/robot2014/internal/model"
	"github.com/TechnoJays/robot2014/internal/script"
	"github.com/TechnoJays/robot2014/internal/stopwatch"
	"github.com/TechnoJays/robot2014/internal/storage"
	"github.com/TechnoJays/robot2014/internal/subsystem"
	"github.com/TechnoJays/robot2014/internal/telemetry"
	"github.com/TechnoJays/robot2014/internal/teleop"
	"github.com/TechnoJays/robot2014/internal/vision"
)

// telemetryEveryTicks spaces the run-history telemetry rows roughly one
// second apart at the 10ms control period. The influx stream still gets
// every tick.
const telemetryEveryTicks = 100

// TargetSource is the vision link consumed at tick start. Satisfied by
// vision.Server.
type TargetSource interface {
	Latest() ([]vision.Target, bool)
}

// Deps bundles the collaborators the core is built over. Any of them
// may be nil; the corresponding feature is skipped.
type Deps struct {
	Drive   subsystem.Drive
	Feeder  subsystem.Feeder
	Shooter subsystem.Shooter
	Driver  *teleop.Pad
	Scoring *teleop.Pad

	Vision    TargetSource
	Store     storage.Backend
	Telemetry *telemetry.Manager

	// Clock overrides the wall clock for the wait verb timer and the
	// tick duration samples.
	Clock stopwatch.Clock
}

// Core owns the per-mode robot behavior. The host calls exactly one
// OnXEnter when the field changes mode and one OnXTick per control
// period; Core is not safe for concurrent use.
type Core struct {
	cfg    *config.Config
	logger zerolog.Logger
	clock  stopwatch.Clock

	drive   subsystem.Drive
	feeder  subsystem.Feeder
	shooter subsystem.Shooter
	driver  *teleop.Pad
	scoring *teleop.Pad

	engine     *autonomous.Engine
	controller *teleop.Controller
	vision     TargetSource
	store      storage.Backend
	telemetry  *telemetry.Manager

	waitTimer *stopwatch.Stopwatch

	catalog   []string
	selection int

	scriptPath  string
	settingUp   bool
	sessionOpen bool
	tickCount   int
}

// New builds the control core: the dispatcher and autonomous engine
// over the subsystems, the teleop controller over the gamepads, and the
// core itself as the wait-verb owner.
func New(cfg *config.Config, deps Deps, logger zerolog.Logger) (*Core, error) {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	c := &Core{
		cfg:       cfg,
		logger:    logger.With().Str("component", "robot").Logger(),
		clock:     clock,
		drive:     deps.Drive,
		feeder:    deps.Feeder,
		shooter:   deps.Shooter,
		driver:    deps.Driver,
		scoring:   deps.Scoring,
		vision:    deps.Vision,
		store:     deps.Store,
		telemetry: deps.Telemetry,
		waitTimer: stopwatch.NewWithClock(clock),
	}

	subsystems := dispatcher.Subsystems{
		Drive:   deps.Drive,
		Feeder:  deps.Feeder,
		Shooter: deps.Shooter,
		Waiter:  c,
	}
	d, err := dispatcher.New(subsystems, logging.NewDispatcherLogger(logger))
	if err != nil {
		return nil, err
	}

	c.engine = autonomous.New(d, subsystems, logger)
	c.engine.SetObserver(c.recordCommand)
	c.controller = teleop.New(cfg.Teleop, deps.Drive, deps.Feeder, deps.Shooter,
		deps.Driver, deps.Scoring, clock, logger)

	return c, nil
}

// Wait is the do-nothing command behind the wait verb. It shares the
// timer contract of the movement operations: ResetAndStartTimer on the
// first tick, Done once the requested time has elapsed to within the
// configured threshold.
func (c *Core) Wait(seconds float64) subsystem.StepResult {
	timeLeft := seconds - c.waitTimer.ElapsedSeconds()
	if timeLeft < c.cfg.WaitTimeThreshold {
		c.waitTimer.Stop()
		return subsystem.Done
	}
	return subsystem.Continuing
}

// ResetAndStartTimer restarts the wait timer.
func (c *Core) ResetAndStartTimer() {
	c.waitTimer.Start()
}

// Selection returns the catalog and the index of the script armed for
// the next autonomous session.
func (c *Core) Selection() ([]string, int) {
	return c.catalog, c.selection
}

// OnDisabledEnter abandons any active session, raises the feeder arms,
// and refreshes the script catalog for selection.
func (c *Core) OnDisabledEnter() {
	c.endSession(false)
	c.engine.Abandon()
	c.controller.Abandon()
	c.setState(subsystem.StateDisabled)
	c.controller.SetFeederPosition(subsystem.DirectionUp)

	c.catalog = script.Catalog(c.cfg.ScriptsDir)
	if c.selection >= len(c.catalog) {
		c.selection = 0
	}
	c.logger.Info().Int("scripts", len(c.catalog)).
		Str("selected", c.selectedScript()).Msg("Robot disabled")
}

// OnDisabledTick keeps the actuators idle and rotates the script
// selection on a driver start press-and-release.
func (c *Core) OnDisabledTick() {
	if c.driver != nil {
		if c.driver.ReleasedEdge(teleop.ButtonStart) && len(c.catalog) > 0 {
			c.selection = (c.selection + 1) % len(c.catalog)
			c.logger.Info().Str("script", c.catalog[c.selection]).
				Msg("Autonomous script selected")
		}
		c.driver.StoreButtonStates()
	}

	if c.drive != nil {
		c.drive.Arcade(0.0, 0.0, false)
	}
	if c.feeder != nil {
		c.feeder.Feed(subsystem.DirectionStop, 0.0)
	}
	if c.shooter != nil {
		c.shooter.Move(0.0)
	}
}

// OnAutonomousEnter loads the selected script, opens the run-history
// session, and arms the catapult homing sequence. The script does not
// advance until homing completes.
func (c *Core) OnAutonomousEnter() {
	c.setState(subsystem.StateAutonomous)
	if c.drive != nil {
		c.drive.ResetSensors()
	}

	c.scriptPath = c.selectedScript()
	scr := script.Load(c.scriptPath, c.logger)

	if c.store != nil {
		if err := c.store.StartSession(c.scriptPath, scr.Len()); err != nil {
			c.logger.Warn().Err(err).Msg("Error starting run-history session")
		} else {
			c.sessionOpen = true
		}
	}

	c.controller.BeginShooterSetup()
	c.settingUp = true
	c.tickCount = 0
	c.engine.Start(scr)
}

// OnAutonomousTick runs catapult homing until it completes, then one
// engine tick per period. The session closes as completed on the tick
// the script finishes.
func (c *Core) OnAutonomousTick() {
	start := c.clock()
	c.readSensors()
	c.drainVision()

	if c.settingUp {
		if c.controller.ShooterSetup() {
			c.settingUp = false
		}
	} else {
		c.engine.Tick()
		if c.engine.State() == autonomous.StateFinished && c.sessionOpen {
			c.endSession(true)
		}
	}

	c.tickCount++
	c.sampleTelemetry(subsystem.StateAutonomous, c.clock().Sub(start))
}

// OnTeleopEnter abandons any autonomous session still running; its
// session closes as incomplete.
func (c *Core) OnTeleopEnter() {
	c.engine.Abandon()
	c.endSession(false)
	c.controller.Abandon()
	c.setState(subsystem.StateTeleop)
}

// OnTeleopTick runs one teleop control pass.
func (c *Core) OnTeleopTick() {
	start := c.clock()
	c.readSensors()
	c.drainVision()

	c.controller.Tick()

	c.tickCount++
	c.sampleTelemetry(subsystem.StateTeleop, c.clock().Sub(start))
}

func (c *Core) selectedScript() string {
	if c.selection < 0 || c.selection >= len(c.catalog) {
		return ""
	}
	return c.catalog[c.selection]
}

func (c *Core) setState(state subsystem.ProgramState) {
	if c.drive != nil {
		c.drive.SetState(state)
	}
	if c.feeder != nil {
		c.feeder.SetState(state)
	}
	if c.shooter != nil {
		c.shooter.SetState(state)
	}
}

func (c *Core) readSensors() {
	if c.drive != nil {
		c.drive.ReadSensors()
	}
	if c.shooter != nil {
		c.shooter.ReadSensors()
	}
}

// drainVision pulls the freshest target frame, if any arrived since the
// last tick, into the teleop controller.
func (c *Core) drainVision() {
	if c.vision == nil {
		return
	}
	if targets, ok := c.vision.Latest(); ok {
		c.controller.SetTargets(targets)
	}
}

// endSession closes the run-history session once. engine.Abandon must
// run first on the incomplete path so the partial command is recorded
// into the still-open session.
func (c *Core) endSession(completed bool) {
	if c.store == nil || !c.sessionOpen {
		return
	}
	if err := c.store.EndSession(completed); err != nil {
		c.logger.Warn().Err(err).Msg("Error ending run-history session")
	}
	c.sessionOpen = false
}

// recordCommand is the autonomous engine observer: every command that
// finishes (or is abandoned mid-flight) lands in the run history and
// the telemetry stream.
func (c *Core) recordCommand(sequence int, cmd script.Command, ticks int, completed bool) {
	if c.store != nil && c.sessionOpen {
		params := make([]string, 0, len(cmd.Params))
		for _, p := range cmd.Params {
			params = append(params, p.String())
		}
		raw, err := json.Marshal(params)
		if err != nil {
			raw = []byte("[]")
		}
		rec := &model.CommandRecord{
			Sequence:   sequence,
			Verb:       cmd.Verb,
			Parameters: datatypes.JSON(raw),
			Ticks:      ticks,
			Completed:  completed,
		}
		if err := c.store.RecordCommand(rec); err != nil {
			c.logger.Warn().Err(err).Str("verb", cmd.Verb).Msg("Error recording command")
		}
	}
	if c.telemetry != nil {
		err := c.telemetry.WriteCommand(context.Background(), c.scriptPath, cmd.Verb, ticks, completed)
		if err != nil {
			c.logger.Debug().Err(err).Msg("Error writing command telemetry")
		}
	}
}

func (c *Core) sampleTelemetry(mode subsystem.ProgramState, tickDuration time.Duration) {
	sample := model.TelemetrySample{
		Time:       c.clock(),
		TickMicros: tickDuration.Microseconds(),
	}
	if c.drive != nil {
		sample.Heading = c.drive.Heading()
		sample.RangeFeet = c.drive.Range()
	}
	if c.shooter != nil {
		if counter, ok := c.shooter.(interface{ EncoderCount() int }); ok {
			sample.EncoderCount = float64(counter.EncoderCount())
		}
	}

	if c.telemetry != nil {
		if err := c.telemetry.WriteTick(context.Background(), mode.String(), sample); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing tick telemetry")
		}
	}
	if c.store != nil && c.sessionOpen && c.tickCount%telemetryEveryTicks == 1 {
		if err := c.store.RecordTelemetry(&sample); err != nil {
			c.logger.Warn().Err(err).Msg("Error recording telemetry sample")
		}
	}
}
