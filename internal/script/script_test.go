package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_RoundTrip(t *testing.T) {
	path := writeScript(t, t.TempDir(), "shoot.as",
		"drivedistance,2.0,0.5\nwait,1.0\nturntime,0.5,left,0.8\nend\n")

	s := Load(path, zerolog.Nop())
	require.Equal(t, 4, s.Len())

	cmd, ok := s.NextCommand()
	require.True(t, ok)
	assert.Equal(t, "drivedistance", cmd.Verb)
	require.Len(t, cmd.Params, 2)
	assert.True(t, cmd.Params[0].Numeric)
	assert.Equal(t, 2.0, cmd.Params[0].Number)
	assert.Equal(t, 0.5, cmd.Params[1].Number)

	cmd, ok = s.NextCommand()
	require.True(t, ok)
	assert.Equal(t, "wait", cmd.Verb)

	cmd, ok = s.NextCommand()
	require.True(t, ok)
	assert.Equal(t, "turntime", cmd.Verb)
	require.Len(t, cmd.Params, 3)
	assert.Equal(t, 0.5, cmd.Params[0].Number)
	assert.False(t, cmd.Params[1].Numeric)
	assert.Equal(t, "left", cmd.Params[1].Text)
	assert.Equal(t, 0.8, cmd.Params[2].Number)

	cmd, ok = s.NextCommand()
	require.True(t, ok)
	assert.Equal(t, "end", cmd.Verb)

	_, ok = s.NextCommand()
	assert.False(t, ok)
}

func TestLoad_MalformedLinesBecomeInvalid(t *testing.T) {
	// A bare quote inside an unquoted field fails tokenization for that
	// line only; surrounding lines must still parse.
	path := writeScript(t, t.TempDir(), "mixed.as",
		"wait,1.0\nfor\"mat,broken\ndrivetime,2.0,forward,0.5\nend\n")

	s := Load(path, zerolog.Nop())
	require.Equal(t, 4, s.Len())

	cmd, _ := s.Command(0)
	assert.Equal(t, "wait", cmd.Verb)
	cmd, _ = s.Command(1)
	assert.Equal(t, VerbInvalid, cmd.Verb)
	assert.Empty(t, cmd.Params)
	cmd, _ = s.Command(2)
	assert.Equal(t, "drivetime", cmd.Verb)
	cmd, _ = s.Command(3)
	assert.Equal(t, VerbEnd, cmd.Verb)
}

func TestLoad_UnterminatedQuoteStaysLineLocal(t *testing.T) {
	// An unterminated quote must spoil only its own line, never the
	// commands after it.
	path := writeScript(t, t.TempDir(), "quote.as",
		"wait,1.0\nwait,\"1.0\ndrivetime,2.0,forward,0.5\nend\n")

	s := Load(path, zerolog.Nop())
	require.Equal(t, 4, s.Len())

	cmd, _ := s.Command(0)
	assert.Equal(t, "wait", cmd.Verb)
	cmd, _ = s.Command(1)
	assert.Equal(t, VerbInvalid, cmd.Verb)
	cmd, _ = s.Command(2)
	assert.Equal(t, "drivetime", cmd.Verb)
	require.Len(t, cmd.Params, 3)
	assert.Equal(t, "forward", cmd.Params[1].Text)
	cmd, _ = s.Command(3)
	assert.Equal(t, VerbEnd, cmd.Verb)
}

func TestLoad_EmptyFieldFailsTheLine(t *testing.T) {
	path := writeScript(t, t.TempDir(), "holes.as",
		"wait,,1.0\ndrivedistance,2.0,0.5\nend\n")

	s := Load(path, zerolog.Nop())
	require.Equal(t, 3, s.Len())

	cmd, _ := s.Command(0)
	assert.Equal(t, VerbInvalid, cmd.Verb)
	cmd, _ = s.Command(1)
	assert.Equal(t, "drivedistance", cmd.Verb)
}

func TestLoad_MissingFile(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "nope.as"), zerolog.Nop())
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())

	_, ok := s.NextCommand()
	assert.False(t, ok)
}

func TestLoad_SkipsEmptyLines(t *testing.T) {
	path := writeScript(t, t.TempDir(), "gaps.as", "wait,1.0\n\n\nend\n")

	s := Load(path, zerolog.Nop())
	assert.Equal(t, 2, s.Len())
}

func TestScript_Reset(t *testing.T) {
	path := writeScript(t, t.TempDir(), "loop.as", "wait,1.0\nend\n")

	s := Load(path, zerolog.Nop())
	cmd, _ := s.NextCommand()
	assert.Equal(t, "wait", cmd.Verb)

	s.Reset()
	cmd, _ = s.NextCommand()
	assert.Equal(t, "wait", cmd.Verb)
}

func TestCatalog_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "b_two.as", "end\n")
	writeScript(t, dir, "a_one.as", "end\n")
	writeScript(t, dir, "notes.txt", "not a script\n")

	paths := Catalog(dir)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a_one.as"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b_two.as"), paths[1])
}

func TestCatalog_MissingDir(t *testing.T) {
	assert.Empty(t, Catalog(filepath.Join(t.TempDir(), "absent")))
}
