// Package datalog records per-subsystem sensor and parameter traces to
// their own log files, kept separate from the session log so they can be
// pulled off the robot and graphed after a match.
package datalog

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Log writes timestamped lines and parameter values to a single file.
type Log struct {
	file   *os.File
	path   string
	logger zerolog.Logger
}

// Open creates (or truncates) the data log at path.
func Open(path string) (*Log, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error opening data log: %w", err)
	}
	return &Log{
		file:   f,
		path:   path,
		logger: zerolog.New(f).With().Timestamp().Logger(),
	}, nil
}

// WriteLine records a line of text.
func (l *Log) WriteLine(line string) {
	l.logger.Info().Msg(line)
}

// WriteValue records a named parameter reading.
func (l *Log) WriteValue(parameter string, value any) {
	l.logger.Info().Any(parameter, value).Send()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}

// Delete closes the log and removes its file.
func (l *Log) Delete() error {
	l.file.Close()
	return os.Remove(l.path)
}
