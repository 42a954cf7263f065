// Package autonomous implements the script execution engine: a
// cooperative state machine polled once per control-loop tick that pulls
// commands from the active script, dispatches them, and advances on each
// command's own completion signal.
package autonomous

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/dispatcher"
	"github.com/TechnoJays/robot2014/internal/script"
)

// Session states.
const (
	StateNotStarted = "not_started"
	StateRunning    = "running"
	StateFinished   = "finished"
)

const (
	eventStart  = "start"
	eventFinish = "finish"
	eventReset  = "reset"
)

// CommandObserver is notified when a command finishes (or is abandoned
// mid-flight), with the ticks it consumed. Used for run-history
// recording.
type CommandObserver func(sequence int, cmd script.Command, ticks int, completed bool)

// Engine executes one autonomous session at a time. It is not safe for
// concurrent use; the control loop is its only caller.
type Engine struct {
	dispatcher *dispatcher.Dispatcher
	subsystems dispatcher.Subsystems
	logger     zerolog.Logger

	machine    *fsm.FSM
	scr        *script.Script
	current    script.Command
	inProgress bool

	observer CommandObserver
	cmdSeq   int
	cmdTicks int
}

// New builds an Engine over the dispatcher and its subsystems.
func New(d *dispatcher.Dispatcher, subsystems dispatcher.Subsystems, logger zerolog.Logger) *Engine {
	e := &Engine{
		dispatcher: d,
		subsystems: subsystems,
		logger:     logger.With().Str("component", "autonomous").Logger(),
	}

	e.machine = fsm.NewFSM(
		StateNotStarted,
		fsm.Events{
			{Name: eventStart, Src: []string{StateNotStarted}, Dst: StateRunning},
			{Name: eventFinish, Src: []string{StateNotStarted, StateRunning}, Dst: StateFinished},
			{Name: eventReset, Src: []string{StateNotStarted, StateRunning, StateFinished}, Dst: StateNotStarted},
		},
		fsm.Callbacks{
			"enter_running": func(ctx context.Context, ev *fsm.Event) {
				e.logger.Info().Str("verb", e.current.Verb).Msg("Script started")
			},
			"enter_finished": func(ctx context.Context, ev *fsm.Event) {
				e.logger.Info().Msg("Script finished")
				e.safetyStop()
			},
		},
	)

	return e
}

// SetObserver registers the run-history observer. A nil observer
// disables notifications.
func (e *Engine) SetObserver(observer CommandObserver) {
	e.observer = observer
}

// State returns the current session state.
func (e *Engine) State() string {
	return e.machine.Current()
}

// Start begins a new session over s, which may be nil or empty; in that
// case the session finishes on its first tick. Any previous session is
// discarded.
func (e *Engine) Start(s *script.Script) {
	e.event(eventReset)
	e.scr = s
	e.inProgress = false
	e.cmdSeq = 0
	e.cmdTicks = 0
	if s != nil {
		s.Reset()
	}

	cmd, ok := e.fetch()
	if !ok {
		e.event(eventFinish)
		return
	}
	e.current = cmd
	e.event(eventStart)
}

// Tick runs one iteration of the run loop. While running it invokes the
// current command; once finished it commands every subsystem to stop,
// every tick, until the mode changes.
func (e *Engine) Tick() {
	switch e.machine.Current() {
	case StateNotStarted:
		// No script was selected for this session.
		e.event(eventFinish)

	case StateRunning:
		e.step()

	case StateFinished:
		e.safetyStop()
	}
}

// Abandon discards the session immediately. The next session must start
// from the first command of a freshly selected script.
func (e *Engine) Abandon() {
	if e.observer != nil && e.machine.Current() == StateRunning && e.cmdTicks > 0 {
		e.observer(e.cmdSeq, e.current, e.cmdTicks, false)
	}
	e.safetyStop()
	e.scr = nil
	e.inProgress = false
	e.cmdTicks = 0
	e.event(eventReset)
}

func (e *Engine) step() {
	if e.dispatcher.TimeBounded(e.current.Verb) && !e.inProgress {
		e.dispatcher.StartTimer(e.current.Verb)
		e.inProgress = true
	}

	e.cmdTicks++
	result := e.dispatcher.Execute(e.current)
	if !result.IsDone() {
		return
	}

	e.logger.Debug().Str("verb", e.current.Verb).Msg("Command complete")
	if e.observer != nil {
		e.observer(e.cmdSeq, e.current, e.cmdTicks, true)
	}
	e.cmdSeq++
	e.cmdTicks = 0
	e.inProgress = false

	cmd, ok := e.fetch()
	if !ok {
		e.event(eventFinish)
		return
	}
	e.current = cmd
}

// fetch pulls the next command, reporting false at a terminal marker or
// an exhausted script.
func (e *Engine) fetch() (script.Command, bool) {
	if e.scr == nil {
		return script.Command{}, false
	}
	cmd, ok := e.scr.NextCommand()
	if !ok || cmd.Verb == script.VerbInvalid || cmd.Verb == script.VerbEnd {
		return script.Command{}, false
	}
	return cmd, true
}

// safetyStop commands every subsystem to an inert state.
func (e *Engine) safetyStop() {
	if e.subsystems.Drive != nil {
		e.subsystems.Drive.Stop()
	}
	if e.subsystems.Feeder != nil {
		e.subsystems.Feeder.Stop()
	}
	if e.subsystems.Shooter != nil {
		e.subsystems.Shooter.Stop()
	}
}

func (e *Engine) event(name string) {
	if err := e.machine.Event(context.Background(), name); err != nil {
		e.logger.Debug().Err(err).Str("event", name).Msg("State transition rejected")
	}
}

