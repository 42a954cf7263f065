package logging

import "github.com/rs/zerolog"

// DispatcherLogger bridges the dispatcher's key-value Logger interface
// onto the session zerolog logger, so verb-skip diagnostics land in the
// same stream as the rest of the robot log.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger wraps logger for use as a dispatcher.Logger.
func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	emit(l.logger.Debug(), msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	emit(l.logger.Info(), msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	emit(l.logger.Error(), msg, keysAndValues)
}

// emit attaches the key-value pairs to the event. Non-string keys and a
// trailing key without a value are dropped rather than logged wrong.
func emit(ev *zerolog.Event, msg string, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ev = ev.Any(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}
