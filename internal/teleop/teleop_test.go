package teleop

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/subsystem"
	"github.com/TechnoJays/robot2014/internal/vision"
)

type fakeGamepad struct {
	axes    map[int]float64
	buttons map[int]bool
}

func newFakeGamepad() *fakeGamepad {
	return &fakeGamepad{axes: map[int]float64{}, buttons: map[int]bool{}}
}

func (g *fakeGamepad) Axis(axis int) float64 { return g.axes[axis] }
func (g *fakeGamepad) Button(button int) bool {
	return g.buttons[button]
}

type arcadeCall struct {
	linear, turn float64
	alternate    bool
}

type fakeDrive struct {
	arcades      []arcadeCall
	tankCalls    int
	driveTimeRes subsystem.StepResult
	adjustRes    subsystem.StepResult
	lastAdjust   float64
	timerResets  int
	sensorResets int
	stops        int
}

func (d *fakeDrive) AdjustHeading(delta, speed float64) subsystem.StepResult {
	d.lastAdjust = delta
	return d.adjustRes
}
func (d *fakeDrive) DriveDistance(meters, speed float64) subsystem.StepResult {
	return subsystem.Done
}
func (d *fakeDrive) DriveTime(seconds float64, dir subsystem.Direction, speed float64) subsystem.StepResult {
	return d.driveTimeRes
}
func (d *fakeDrive) SetHeading(deg, speed float64) subsystem.StepResult { return subsystem.Done }
func (d *fakeDrive) TurnTime(seconds float64, dir subsystem.Direction, speed float64) subsystem.StepResult {
	return subsystem.Done
}
func (d *fakeDrive) ResetAndStartTimer() { d.timerResets++ }
func (d *fakeDrive) Arcade(linear, turn float64, alternate bool) {
	d.arcades = append(d.arcades, arcadeCall{linear, turn, alternate})
}
func (d *fakeDrive) Tank(left, right float64, alternate bool) { d.tankCalls++ }
func (d *fakeDrive) Stop()                                    { d.stops++ }
func (d *fakeDrive) ReadSensors()                             {}
func (d *fakeDrive) ResetSensors()                            { d.sensorResets++ }
func (d *fakeDrive) SetState(subsystem.ProgramState)          {}
func (d *fakeDrive) Heading() float64                         { return 0 }
func (d *fakeDrive) Range() float64                           { return 0 }

type fakeFeeder struct {
	positions []subsystem.Direction
	lastDir   subsystem.Direction
	lastSpeed float64
	feeds     int
}

func (f *fakeFeeder) SetPosition(dir subsystem.Direction) {
	f.positions = append(f.positions, dir)
}
func (f *fakeFeeder) Feed(dir subsystem.Direction, speed float64) {
	f.lastDir = dir
	f.lastSpeed = speed
	f.feeds++
}
func (f *fakeFeeder) FeedTime(seconds float64, dir subsystem.Direction, speed float64) subsystem.StepResult {
	return subsystem.Done
}
func (f *fakeFeeder) ResetAndStartTimer()             {}
func (f *fakeFeeder) Stop()                           {}
func (f *fakeFeeder) SetState(subsystem.ProgramState) {}

type fakeShooter struct {
	autoFireRes    subsystem.StepResult
	autoFirePowers []float64
	setPosRes      subsystem.StepResult
	setPosTargets  []float64
	shootTimeRes   subsystem.StepResult
	shootTimes     int
	moves          []float64
	ignoreLimits   []bool
	timerResets    int
	sensorResets   int
}

func (s *fakeShooter) AutoFire(power float64) subsystem.StepResult {
	s.autoFirePowers = append(s.autoFirePowers, power)
	return s.autoFireRes
}
func (s *fakeShooter) SetPosition(target, speed float64) subsystem.StepResult {
	s.setPosTargets = append(s.setPosTargets, target)
	return s.setPosRes
}
func (s *fakeShooter) ShootTime(seconds float64, dir subsystem.Direction, speed float64) subsystem.StepResult {
	s.shootTimes++
	return s.shootTimeRes
}
func (s *fakeShooter) ResetAndStartTimer()             { s.timerResets++ }
func (s *fakeShooter) Move(speed float64)              { s.moves = append(s.moves, speed) }
func (s *fakeShooter) IgnoreLimits(ignore bool)        { s.ignoreLimits = append(s.ignoreLimits, ignore) }
func (s *fakeShooter) Stop()                           {}
func (s *fakeShooter) ReadSensors()                    {}
func (s *fakeShooter) ResetSensors()                   { s.sensorResets++ }
func (s *fakeShooter) SetState(subsystem.ProgramState) {}

type harness struct {
	controller *Controller
	drive      *fakeDrive
	feeder     *fakeFeeder
	shooter    *fakeShooter
	driverPad  *fakeGamepad
	scoringPad *fakeGamepad
	now        time.Time
}

func (h *harness) clock() time.Time { return h.now }

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

func testTeleopConfig() config.TeleopConfig {
	return config.TeleopConfig{
		MaxHoldToShootTime:   1.5,
		MinHoldToShootPower:  50.0,
		CatapultFeedPosition: 0.0,
		TrussPassPosition:    250.0,
		OptimumShootingRange: 10.0,
		ShootingAngleOffset:  5.0,
		ShooterSetupSeconds:  2.2,
		ShooterSetupSpeed:    0.4,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		drive:      &fakeDrive{driveTimeRes: subsystem.Done, adjustRes: subsystem.Done},
		feeder:     &fakeFeeder{},
		shooter:    &fakeShooter{autoFireRes: subsystem.Done, setPosRes: subsystem.Done, shootTimeRes: subsystem.Done},
		driverPad:  newFakeGamepad(),
		scoringPad: newFakeGamepad(),
		now:        time.Unix(100, 0),
	}
	h.controller = New(testTeleopConfig(), h.drive, h.feeder, h.shooter,
		NewPad(h.driverPad, 0), NewPad(h.scoringPad, 0), h.clock, zerolog.Nop())
	return h
}

func TestController_NilCollaborators(t *testing.T) {
	// A controller built with no hardware and no gamepads must still
	// tick: a missing pad reads as idle, not as a crash.
	c := New(testTeleopConfig(), nil, nil, nil, nil, nil, nil, zerolog.Nop())

	for i := 0; i < 3; i++ {
		c.Tick()
	}

	c.BeginShooterSetup()
	if !c.ShooterSetup() {
		t.Error("expected shooter setup to complete trivially without a shooter")
	}
	c.Abandon()
}

func TestPad_EdgeDetection(t *testing.T) {
	g := newFakeGamepad()
	p := NewPad(g, 0)

	g.buttons[ButtonStart] = true
	if !p.PressedEdge(ButtonStart) {
		t.Error("expected press edge on first press")
	}
	p.StoreButtonStates()
	if p.PressedEdge(ButtonStart) {
		t.Error("expected no edge while held")
	}

	g.buttons[ButtonStart] = false
	if !p.ReleasedEdge(ButtonStart) {
		t.Error("expected release edge")
	}
	p.StoreButtonStates()
	if p.ReleasedEdge(ButtonStart) {
		t.Error("expected no edge after store")
	}
}

func TestPad_DeadBand(t *testing.T) {
	g := newFakeGamepad()
	p := NewPad(g, 0)

	g.axes[AxisLeftY] = 0.04
	if got := p.Axis(AxisLeftY); got != 0 {
		t.Errorf("expected dead band to zero small input, got %v", got)
	}
	g.axes[AxisLeftY] = 0.5
	if got := p.Axis(AxisLeftY); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestPad_NilGamepad(t *testing.T) {
	p := NewPad(nil, 0)
	if p.Axis(AxisLeftY) != 0 || p.Pressed(ButtonA) {
		t.Error("expected inert pad without hardware")
	}
}

func TestHoldToShoot_PowerFromHoldDuration(t *testing.T) {
	h := newHarness(t)

	// Trigger goes down: the hold timer starts.
	h.scoringPad.buttons[ButtonRightTrigger] = true
	h.controller.Tick()

	// Held for half the max time: 50% requested, scaled into the
	// 50..100 band gives 75.
	h.advance(750 * time.Millisecond)
	h.scoringPad.buttons[ButtonRightTrigger] = false
	h.controller.Tick()
	if h.shooter.timerResets != 1 {
		t.Fatalf("expected shooter timer reset on release, got %d", h.shooter.timerResets)
	}

	// Settle step, then fire.
	h.controller.Tick()
	if h.shooter.shootTimes != 1 {
		t.Fatalf("expected settle shoot_time call, got %d", h.shooter.shootTimes)
	}
	h.controller.Tick()
	if len(h.shooter.autoFirePowers) != 1 {
		t.Fatalf("expected one auto fire, got %d", len(h.shooter.autoFirePowers))
	}
	if got := h.shooter.autoFirePowers[0]; math.Abs(got-75.0) > 1e-9 {
		t.Errorf("expected 75%% power, got %v", got)
	}
}

func TestHoldToShoot_PowerClampedAt100(t *testing.T) {
	h := newHarness(t)

	h.scoringPad.buttons[ButtonRightTrigger] = true
	h.controller.Tick()

	h.advance(5 * time.Second)
	h.scoringPad.buttons[ButtonRightTrigger] = false
	h.controller.Tick()
	h.controller.Tick()
	h.controller.Tick()

	if got := h.shooter.autoFirePowers[0]; got != 100.0 {
		t.Errorf("expected clamp at 100%%, got %v", got)
	}
}

func TestPrepForFeed_ArmsDownThenCatapultToFeed(t *testing.T) {
	h := newHarness(t)

	h.scoringPad.buttons[ButtonY] = true
	h.controller.Tick()

	h.controller.Tick()
	if len(h.feeder.positions) != 1 || h.feeder.positions[0] != subsystem.DirectionDown {
		t.Fatalf("expected arms down, got %v", h.feeder.positions)
	}

	h.controller.Tick()
	if len(h.shooter.setPosTargets) != 1 || h.shooter.setPosTargets[0] != 0.0 {
		t.Errorf("expected catapult at feed position, got %v", h.shooter.setPosTargets)
	}
}

func TestTrussPass(t *testing.T) {
	h := newHarness(t)

	h.scoringPad.buttons[ButtonLeftBumper] = true
	h.controller.Tick()

	h.controller.Tick()
	if len(h.shooter.setPosTargets) != 1 || h.shooter.setPosTargets[0] != 250.0 {
		t.Errorf("expected truss pass position, got %v", h.shooter.setPosTargets)
	}
}

func TestTeleAutoKill_CancelsRoutines(t *testing.T) {
	h := newHarness(t)
	h.shooter.setPosRes = subsystem.Continuing

	h.scoringPad.buttons[ButtonLeftBumper] = true
	h.controller.Tick()
	h.scoringPad.buttons[ButtonLeftBumper] = false
	h.controller.Tick()
	if len(h.shooter.setPosTargets) != 1 {
		t.Fatalf("expected the truss pass running, got %v", h.shooter.setPosTargets)
	}

	h.scoringPad.buttons[ButtonBack] = true
	h.controller.Tick()
	h.controller.Tick()
	if len(h.shooter.setPosTargets) != 2 {
		t.Errorf("expected no catapult calls after kill, got %v", h.shooter.setPosTargets)
	}
}

func TestSwapDrivetrain(t *testing.T) {
	h := newHarness(t)

	h.driverPad.buttons[ButtonRightTrigger] = true
	h.driverPad.axes[AxisLeftY] = 0.5
	h.controller.Tick()

	last := h.drive.arcades[len(h.drive.arcades)-1]
	if last.linear != -0.5 {
		t.Errorf("expected swapped forward input, got %v", last.linear)
	}

	// Holding the trigger is not another edge.
	h.controller.Tick()
	last = h.drive.arcades[len(h.drive.arcades)-1]
	if last.linear != -0.5 {
		t.Errorf("expected swap to persist, got %v", last.linear)
	}

	// A second press restores normal controls.
	h.driverPad.buttons[ButtonRightTrigger] = false
	h.controller.Tick()
	h.driverPad.buttons[ButtonRightTrigger] = true
	h.controller.Tick()
	last = h.drive.arcades[len(h.drive.arcades)-1]
	if last.linear != 0.5 {
		t.Errorf("expected normal controls restored, got %v", last.linear)
	}
}

func TestAlternateSpeed_HeldBumper(t *testing.T) {
	h := newHarness(t)

	h.driverPad.buttons[ButtonLeftBumper] = true
	h.driverPad.axes[AxisLeftY] = 0.8
	h.controller.Tick()

	last := h.drive.arcades[len(h.drive.arcades)-1]
	if !last.alternate {
		t.Error("expected alternate speed while bumper held")
	}

	h.driverPad.buttons[ButtonLeftBumper] = false
	h.controller.Tick()
	last = h.drive.arcades[len(h.drive.arcades)-1]
	if last.alternate {
		t.Error("expected normal speed after release")
	}
}

func TestIgnoreLimits_HeldStart(t *testing.T) {
	h := newHarness(t)

	h.scoringPad.buttons[ButtonStart] = true
	h.controller.Tick()
	h.scoringPad.buttons[ButtonStart] = false
	h.controller.Tick()

	if len(h.shooter.ignoreLimits) != 2 ||
		!h.shooter.ignoreLimits[0] || h.shooter.ignoreLimits[1] {
		t.Errorf("expected ignore limits to track the button, got %v", h.shooter.ignoreLimits)
	}
}

func TestFeederToggle(t *testing.T) {
	h := newHarness(t)

	// Arms start up, so the first toggle lowers them.
	h.scoringPad.buttons[ButtonRightBumper] = true
	h.controller.Tick()
	h.scoringPad.buttons[ButtonRightBumper] = false
	h.controller.Tick()
	h.scoringPad.buttons[ButtonRightBumper] = true
	h.controller.Tick()

	if len(h.feeder.positions) != 2 ||
		h.feeder.positions[0] != subsystem.DirectionDown ||
		h.feeder.positions[1] != subsystem.DirectionUp {
		t.Errorf("expected down then up, got %v", h.feeder.positions)
	}
}

func TestFeederManual(t *testing.T) {
	h := newHarness(t)

	h.scoringPad.axes[AxisRightY] = 0.8
	h.controller.Tick()
	if h.feeder.lastDir != subsystem.DirectionIn || h.feeder.lastSpeed != 0.8 {
		t.Errorf("expected feed in at 0.8, got %v %v", h.feeder.lastDir, h.feeder.lastSpeed)
	}

	h.scoringPad.axes[AxisRightY] = -0.6
	h.controller.Tick()
	if h.feeder.lastDir != subsystem.DirectionOut || h.feeder.lastSpeed != 0.6 {
		t.Errorf("expected feed out at 0.6, got %v %v", h.feeder.lastDir, h.feeder.lastSpeed)
	}

	h.scoringPad.axes[AxisRightY] = 0
	h.controller.Tick()
	if h.feeder.lastDir != subsystem.DirectionStop {
		t.Errorf("expected stop with centered stick, got %v", h.feeder.lastDir)
	}
}

func TestShooterManual_OverridesRoutines(t *testing.T) {
	h := newHarness(t)
	h.shooter.setPosRes = subsystem.Continuing

	h.scoringPad.buttons[ButtonLeftBumper] = true
	h.controller.Tick()
	h.scoringPad.buttons[ButtonLeftBumper] = false

	h.scoringPad.axes[AxisLeftY] = 0.5
	h.controller.Tick()
	if len(h.shooter.moves) == 0 || h.shooter.moves[len(h.shooter.moves)-1] != 0.5 {
		t.Fatalf("expected manual winch move, got %v", h.shooter.moves)
	}

	// The truss pass was cancelled by the manual input.
	setPosCalls := len(h.shooter.setPosTargets)
	h.scoringPad.axes[AxisLeftY] = 0
	h.controller.Tick()
	if len(h.shooter.setPosTargets) != setPosCalls {
		t.Error("expected no routine resume after manual override")
	}
}

func TestShooterSetup_Sequence(t *testing.T) {
	h := newHarness(t)
	h.shooter.shootTimeRes = subsystem.Continuing

	h.controller.BeginShooterSetup()

	if h.controller.ShooterSetup() {
		t.Fatal("expected setup still running after arming step")
	}
	if len(h.shooter.ignoreLimits) != 1 || !h.shooter.ignoreLimits[0] {
		t.Fatalf("expected limits ignored, got %v", h.shooter.ignoreLimits)
	}
	if h.shooter.timerResets != 1 {
		t.Fatalf("expected timer reset, got %d", h.shooter.timerResets)
	}

	if h.controller.ShooterSetup() {
		t.Fatal("expected setup still running while arm winds down")
	}

	h.shooter.shootTimeRes = subsystem.Done
	if h.controller.ShooterSetup() {
		t.Fatal("expected one more step after wind-down")
	}
	if !h.controller.ShooterSetup() {
		t.Fatal("expected setup complete")
	}
	if h.shooter.sensorResets != 1 {
		t.Errorf("expected encoder reset, got %d", h.shooter.sensorResets)
	}
	last := h.shooter.ignoreLimits[len(h.shooter.ignoreLimits)-1]
	if last {
		t.Error("expected limits restored")
	}
}

func TestAimAtTarget_Sequence(t *testing.T) {
	h := newHarness(t)
	h.controller.SetTargets([]vision.Target{
		{Side: vision.SideLeft, Angle: -10.0, Distance: 10.2},
	})

	h.driverPad.buttons[ButtonY] = true
	h.controller.Tick()
	if h.drive.sensorResets != 1 {
		t.Fatalf("expected sensor reset on request, got %d", h.drive.sensorResets)
	}
	h.driverPad.buttons[ButtonY] = false

	// Within range tolerance: brake prep.
	h.controller.Tick()
	if h.drive.timerResets != 1 {
		t.Fatalf("expected drive timer reset entering the brake step, got %d", h.drive.timerResets)
	}

	// Brake, then turn with the left-side offset applied.
	h.controller.Tick()
	h.controller.Tick()
	if h.drive.lastAdjust != -5.0 {
		t.Errorf("expected heading adjustment -5.0, got %v", h.drive.lastAdjust)
	}
}

func TestAimAtTarget_DrivesTowardRange(t *testing.T) {
	h := newHarness(t)
	h.controller.SetTargets([]vision.Target{
		{Side: vision.SideRight, Angle: 3.0, Distance: 15.0},
	})

	h.driverPad.buttons[ButtonY] = true
	h.controller.Tick()
	h.driverPad.buttons[ButtonY] = false

	// Too far: drive backward toward the optimum range.
	h.controller.Tick()
	last := h.drive.arcades[len(h.drive.arcades)-1]
	if last.linear != -0.3 || last.turn != 0.0 {
		t.Errorf("expected reverse creep, got %+v", last)
	}
}

func TestAimAtTarget_NoTargets(t *testing.T) {
	h := newHarness(t)

	h.driverPad.buttons[ButtonY] = true
	h.controller.Tick()
	h.driverPad.buttons[ButtonY] = false

	h.controller.Tick()
	if h.drive.timerResets != 0 || h.drive.lastAdjust != 0 {
		t.Error("expected aim to bail without targets")
	}
}

func TestAbandon_CancelsEverything(t *testing.T) {
	h := newHarness(t)
	h.shooter.setPosRes = subsystem.Continuing

	h.scoringPad.buttons[ButtonY] = true
	h.controller.Tick()
	h.controller.Abandon()

	h.scoringPad.buttons[ButtonY] = false
	h.controller.Tick()
	if len(h.feeder.positions) != 0 {
		t.Errorf("expected no routine progress after abandon, got %v", h.feeder.positions)
	}
}
