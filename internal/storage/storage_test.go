package storage

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/config"
	"github.com/TechnoJays/robot2014/internal/storage/gormstore"
	"github.com/TechnoJays/robot2014/internal/storage/memory"
)

var (
	_ Backend = (*memory.Backend)(nil)
	_ Backend = (*gormstore.Backend)(nil)
)

func TestNewBackend_Memory(t *testing.T) {
	b, err := NewBackend(config.StorageConfig{Type: "memory"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if _, ok := b.(*memory.Backend); !ok {
		t.Errorf("expected memory backend, got %T", b)
	}
}

func TestNewBackend_Sqlite(t *testing.T) {
	b, err := NewBackend(config.StorageConfig{Type: "sqlite"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if _, ok := b.(*gormstore.Backend); !ok {
		t.Errorf("expected gorm backend, got %T", b)
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	if _, err := NewBackend(config.StorageConfig{Type: "papertape"}, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
