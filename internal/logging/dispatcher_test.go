package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(dl *DispatcherLogger)
		level string
		want  map[string]any
	}{
		{
			name:  "debug with mixed value types",
			log:   func(dl *DispatcherLogger) { dl.Debug("skipping", "verb", "fly", "arity", 2) },
			level: "debug",
			want:  map[string]any{"verb": "fly", "arity": float64(2)},
		},
		{
			name:  "info",
			log:   func(dl *DispatcherLogger) { dl.Info("dispatched", "verb", "wait") },
			level: "info",
			want:  map[string]any{"verb": "wait"},
		},
		{
			name:  "error",
			log:   func(dl *DispatcherLogger) { dl.Error("command skipped", "reason", "arity mismatch") },
			level: "error",
			want:  map[string]any{"reason": "arity mismatch"},
		},
		{
			name:  "no key values",
			log:   func(dl *DispatcherLogger) { dl.Info("bare message") },
			level: "info",
			want:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

			tt.log(dl)

			entry := decodeEntry(t, &buf)
			if entry["level"] != tt.level {
				t.Errorf("expected level %q, got %v", tt.level, entry["level"])
			}
			for key, want := range tt.want {
				if entry[key] != want {
					t.Errorf("expected %s=%v, got %v", key, want, entry[key])
				}
			}
		})
	}
}

func TestDispatcherLogger_DropsDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("partial pairs", "verb", "wait", "dangling")

	entry := decodeEntry(t, &buf)
	if entry["verb"] != "wait" {
		t.Errorf("expected the complete pair kept, got %v", entry)
	}
	if _, ok := entry["dangling"]; ok {
		t.Error("expected the dangling key dropped")
	}
}
