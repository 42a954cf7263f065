// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/TechnoJays/robot2014/internal/model"
)

// SessionRecord groups a session with all its recorded data.
type SessionRecord struct {
	Session  model.Session
	Commands []model.CommandRecord
	Samples  []model.TelemetrySample
}

// Backend stores run history in memory. Used when no database is
// configured, and in tests.
type Backend struct {
	sessions  []*SessionRecord
	current   *SessionRecord
	idCounter uint
	mu        sync.RWMutex
}

// New creates a new memory backend.
func New() *Backend {
	return &Backend{}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session.
func (b *Backend) StartSession(scriptPath string, commands int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	rec := &SessionRecord{
		Session: model.Session{
			StartedAt:  time.Now(),
			ScriptPath: scriptPath,
			Commands:   commands,
		},
	}
	rec.Session.ID = b.idCounter
	b.sessions = append(b.sessions, rec)
	b.current = rec
	return nil
}

// EndSession closes the active session.
func (b *Backend) EndSession(completed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return fmt.Errorf("no active session")
	}
	b.current.Session.FinishedAt = time.Now()
	b.current.Session.Completed = completed
	b.current = nil
	return nil
}

// RecordCommand stores an executed command for the active session.
func (b *Backend) RecordCommand(rec *model.CommandRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return fmt.Errorf("no active session")
	}
	rec.SessionID = b.current.Session.ID
	b.current.Commands = append(b.current.Commands, *rec)
	return nil
}

// RecordTelemetry stores a sensor snapshot for the active session.
func (b *Backend) RecordTelemetry(sample *model.TelemetrySample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return fmt.Errorf("no active session")
	}
	sample.SessionID = b.current.Session.ID
	b.current.Samples = append(b.current.Samples, *sample)
	return nil
}

// Sessions returns a snapshot of everything recorded so far.
func (b *Backend) Sessions() []SessionRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]SessionRecord, 0, len(b.sessions))
	for _, rec := range b.sessions {
		out = append(out, *rec)
	}
	return out
}
