// Command robot2014 is the robot program entry point: it loads the
// configuration, sets up logging and run-history storage, wires the
// subsystems into the control core, and runs the host loop until the
// process is signaled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/datalog"
	"github.com/TechnoJays/robot2014/internal/drive"
	"github.com/TechnoJays/robot2014/internal/feeder"
	"github.com/TechnoJays/robot2014/internal/hardware"
	"github.com/TechnoJays/robot2014/internal/logging"
	"github.com/TechnoJays/robot2014/internal/robot"
	"github.com/TechnoJays/robot2014/internal/shooter"
	"github.com/TechnoJays/robot2014/internal/storage"
	"github.com/TechnoJays/robot2014/internal/storage/memory"
	"github.com/TechnoJays/robot2014/internal/subsystem"
	"github.com/TechnoJays/robot2014/internal/telemetry"
	"github.com/TechnoJays/robot2014/internal/teleop"
	"github.com/TechnoJays/robot2014/internal/vision"
)

func main() {
	configDir := flag.String("config", ".", "directory containing robot.cfg.json")
	benchModeName := flag.String("mode", "teleop",
		"session mode when no field control is attached: disabled, autonomous, or teleop")
	flag.Parse()

	if err := run(*configDir, *benchModeName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir, benchModeName string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	sessionStart := time.Now()
	logger := setupLogging(cfg, sessionStart)
	logger.Info().Str("config", configDir).Msg("Robot starting")

	// Per-subsystem sensor trace, kept apart from the session log so it
	// can be pulled off the robot and graphed after a match.
	var driveTrace *datalog.Log
	if trace, err := datalog.Open(logging.LogFilePath(cfg.LogsDir, "drivetrain", sessionStart)); err != nil {
		logger.Warn().Err(err).Msg("Drive trace log unavailable")
	} else {
		driveTrace = trace
		defer driveTrace.Close()
	}

	// The physical wpilib drivers live outside this module; motor
	// channels default to no-ops and sensors to absent so the control
	// logic runs anywhere.
	drivetrain := drive.New(cfg.Drive, drive.Hardware{
		Left:  hardware.NoopMotor{},
		Right: hardware.NoopMotor{},
	}, logger, driveTrace)
	ballFeeder := feeder.New(cfg.Feeder, feeder.Hardware{
		LeftArm:  hardware.NoopMotor{},
		RightArm: hardware.NoopMotor{},
	}, logger)
	catapult := shooter.New(cfg.Shooter, shooter.Hardware{
		Winch: hardware.NoopMotor{},
	}, logger)

	store, err := storage.NewBackend(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("error selecting storage backend: %w", err)
	}
	if err := store.Init(); err != nil {
		// Run history must never keep the robot off the field.
		logger.Warn().Err(err).Msg("Storage unavailable, keeping run history in memory")
		store = memory.New()
	}
	defer store.Close()

	var metrics *telemetry.Manager
	if cfg.Influx.Enabled {
		m := telemetry.NewManager(cfg.Influx, logger)
		if err := m.Connect(); err != nil {
			logger.Warn().Err(err).Msg("Telemetry unavailable")
		} else {
			metrics = m
			defer metrics.Close()
		}
	}

	var targets robot.TargetSource
	if cfg.Vision.Enabled {
		server := vision.NewServer(cfg.Vision.Address, logger)
		if err := server.Start(); err != nil {
			logger.Warn().Err(err).Msg("Vision server unavailable")
		} else {
			targets = server
			defer server.Close()
		}
	}

	core, err := robot.New(cfg, robot.Deps{
		Drive:     drivetrain,
		Feeder:    ballFeeder,
		Shooter:   catapult,
		Driver:    teleop.NewPad(nil, 0),
		Scoring:   teleop.NewPad(nil, 0),
		Vision:    targets,
		Store:     store,
		Telemetry: metrics,
	}, logger)
	if err != nil {
		return fmt.Errorf("error building control core: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := robot.NewHost(core, benchMode{parseMode(benchModeName)}, nil, cfg.TickPeriodMs, logger)
	host.Run(ctx)

	logger.Info().Msg("Robot stopped")
	return nil
}

func setupLogging(cfg *config.Config, sessionStart time.Time) zerolog.Logger {
	graylogAddr := ""
	if cfg.Graylog.Enabled {
		graylogAddr = cfg.Graylog.Address
	}

	if err := os.MkdirAll(cfg.LogsDir, 0755); err != nil {
		return logging.Setup(nil, cfg.LogLevel, graylogAddr)
	}
	logFile, err := os.Create(logging.LogFilePath(cfg.LogsDir, "robot2014", sessionStart))
	if err != nil {
		return logging.Setup(nil, cfg.LogLevel, graylogAddr)
	}
	return logging.Setup(logFile, cfg.LogLevel, graylogAddr)
}

// benchMode stands in for the field control system when the robot runs
// on blocks: the session mode is fixed at startup.
type benchMode struct {
	mode subsystem.ProgramState
}

func (b benchMode) Mode() subsystem.ProgramState { return b.mode }

func parseMode(name string) subsystem.ProgramState {
	switch name {
	case "autonomous":
		return subsystem.StateAutonomous
	case "teleop":
		return subsystem.StateTeleop
	default:
		return subsystem.StateDisabled
	}
}
