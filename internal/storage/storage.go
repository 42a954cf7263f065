// internal/storage/storage.go
package storage

import "github.com/TechnoJays/robot2014/internal/model"

// Backend is the interface all run-history storage implementations must
// satisfy. Writes happen from the control loop, so implementations must
// never block on the network; failures are logged and swallowed by the
// caller.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(scriptPath string, commands int) error
	EndSession(completed bool) error

	// Recording
	RecordCommand(rec *model.CommandRecord) error
	RecordTelemetry(sample *model.TelemetrySample) error
}
