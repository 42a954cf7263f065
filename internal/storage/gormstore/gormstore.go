// Package gormstore persists run history through gorm, backed by
// Postgres when reachable and SQLite otherwise.
package gormstore

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/database"
	"github.com/TechnoJays/robot2014/internal/model"
)

// Backend writes sessions, commands, and telemetry to the database
// owned by its Manager.
type Backend struct {
	manager *database.Manager
	logger  zerolog.Logger
	current *model.Session
}

// New creates a backend for cfg. Init must be called before recording.
func New(cfg config.StorageConfig, logger zerolog.Logger) *Backend {
	return &Backend{
		manager: database.NewManager(cfg, logger),
		logger:  logger,
	}
}

// Init connects and migrates the schema.
func (b *Backend) Init() error {
	if err := b.manager.Connect(); err != nil {
		return fmt.Errorf("error connecting run-history database: %w", err)
	}
	if err := b.manager.Setup(); err != nil {
		return fmt.Errorf("error migrating run-history schema: %w", err)
	}
	return nil
}

// Close flushes the in-memory SQLite database to disk when configured,
// then closes the connection.
func (b *Backend) Close() error {
	if b.manager.ShouldSaveLocal && b.manager.SqliteFilePath != "" {
		if err := b.manager.DumpMemoryToDisk(); err != nil {
			b.logger.Error().Err(err).Msg("Failed to dump run history to disk")
		}
	}
	if b.manager.SqlDB != nil {
		return b.manager.SqlDB.Close()
	}
	return nil
}

// StartSession begins recording a new session.
func (b *Backend) StartSession(scriptPath string, commands int) error {
	session := &model.Session{
		StartedAt:  time.Now(),
		ScriptPath: scriptPath,
		Commands:   commands,
	}
	if err := b.manager.DB.Create(session).Error; err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}
	b.current = session
	return nil
}

// EndSession closes the active session.
func (b *Backend) EndSession(completed bool) error {
	if b.current == nil {
		return fmt.Errorf("no active session")
	}
	b.current.FinishedAt = time.Now()
	b.current.Completed = completed
	err := b.manager.DB.Save(b.current).Error
	b.current = nil
	if err != nil {
		return fmt.Errorf("error closing session: %w", err)
	}
	return nil
}

// RecordCommand stores an executed command for the active session.
func (b *Backend) RecordCommand(rec *model.CommandRecord) error {
	if b.current == nil {
		return fmt.Errorf("no active session")
	}
	rec.SessionID = b.current.ID
	if err := b.manager.DB.Create(rec).Error; err != nil {
		return fmt.Errorf("error recording command: %w", err)
	}
	return nil
}

// RecordTelemetry stores a sensor snapshot for the active session.
func (b *Backend) RecordTelemetry(sample *model.TelemetrySample) error {
	if b.current == nil {
		return fmt.Errorf("no active session")
	}
	sample.SessionID = b.current.ID
	if err := b.manager.DB.Create(sample).Error; err != nil {
		return fmt.Errorf("error recording telemetry: %w", err)
	}
	return nil
}
