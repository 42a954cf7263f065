// internal/storage/memory/memory_test.go
package memory

import (
	"testing"

	"github.com/TechnoJays/robot2014/internal/model"
)

func TestBackend_SessionLifecycle(t *testing.T) {
	b := New()
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := b.StartSession("scripts/center.as", 4); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := b.RecordCommand(&model.CommandRecord{Sequence: 0, Verb: "drivedistance", Ticks: 12, Completed: true}); err != nil {
		t.Fatalf("RecordCommand: %v", err)
	}
	if err := b.RecordTelemetry(&model.TelemetrySample{Heading: 45.0, RangeFeet: 10.5}); err != nil {
		t.Fatalf("RecordTelemetry: %v", err)
	}
	if err := b.EndSession(true); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	sessions := b.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.Session.ScriptPath != "scripts/center.as" || s.Session.Commands != 4 {
		t.Errorf("unexpected session: %+v", s.Session)
	}
	if !s.Session.Completed || s.Session.FinishedAt.IsZero() {
		t.Error("expected session marked completed with finish time")
	}
	if len(s.Commands) != 1 || s.Commands[0].Verb != "drivedistance" {
		t.Errorf("unexpected commands: %+v", s.Commands)
	}
	if s.Commands[0].SessionID != s.Session.ID {
		t.Error("expected command linked to session")
	}
	if len(s.Samples) != 1 || s.Samples[0].Heading != 45.0 {
		t.Errorf("unexpected samples: %+v", s.Samples)
	}
}

func TestBackend_RecordWithoutSession(t *testing.T) {
	b := New()

	if err := b.RecordCommand(&model.CommandRecord{Verb: "wait"}); err == nil {
		t.Error("expected error recording without a session")
	}
	if err := b.RecordTelemetry(&model.TelemetrySample{}); err == nil {
		t.Error("expected error on telemetry without a session")
	}
	if err := b.EndSession(false); err == nil {
		t.Error("expected error ending a session that never started")
	}
}

func TestBackend_MultipleSessions(t *testing.T) {
	b := New()

	b.StartSession("a.as", 1)
	b.EndSession(true)
	b.StartSession("b.as", 2)
	b.RecordCommand(&model.CommandRecord{Verb: "wait"})
	b.EndSession(false)

	sessions := b.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Session.ID == sessions[1].Session.ID {
		t.Error("expected distinct session ids")
	}
	if sessions[1].Commands[0].SessionID != sessions[1].Session.ID {
		t.Error("expected command linked to the second session")
	}
}
