// Package script reads autonomous sequence files. A script file is plain
// text, one command per line, comma separated: the first field is the verb
// and the remaining fields are parameters (numbers or direction tokens).
package script

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Extension is the filename suffix of autonomous script files.
const Extension = ".as"

// Verbs with reserved meaning to the run loop: both terminate the
// sequence. Malformed lines parse to VerbInvalid rather than failing
// the file.
const (
	VerbInvalid = "invalid"
	VerbEnd     = "end"
)

// Param is one command parameter, either a number or a bare token such
// as a direction name.
type Param struct {
	Text    string
	Number  float64
	Numeric bool
}

func (p Param) String() string {
	if p.Numeric {
		return strconv.FormatFloat(p.Number, 'g', -1, 64)
	}
	return p.Text
}

// Command is one autonomous instruction: a verb and its parameters.
// Commands are immutable once parsed.
type Command struct {
	Verb   string
	Params []Param
}

// Script is an ordered command sequence parsed from one file. It keeps a
// cursor so the run loop can pull commands one at a time.
type Script struct {
	commands []Command
	next     int
}

// Len reports the number of parsed commands.
func (s *Script) Len() int {
	return len(s.commands)
}

// Command returns the command at index i.
func (s *Script) Command(i int) (Command, bool) {
	if i < 0 || i >= len(s.commands) {
		return Command{}, false
	}
	return s.commands[i], true
}

// NextCommand returns the next command in sequence, or false when the
// script is exhausted.
func (s *Script) NextCommand() (Command, bool) {
	if s.next >= len(s.commands) {
		return Command{}, false
	}
	cmd := s.commands[s.next]
	s.next++
	return cmd, true
}

// Reset rewinds the cursor to the first command.
func (s *Script) Reset() {
	s.next = 0
}

// Catalog lists the script files in dir, sorted by filename so that
// index-based selection is stable across runs. Returned entries are full
// paths. A missing or unreadable directory yields an empty catalog.
func Catalog(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths
}

// Load parses the script file at path. Loading fails softly: a missing or
// unreadable file yields an empty script, and a line that cannot be
// tokenized becomes a VerbInvalid command in place. Lines are tokenized
// independently, so one bad line never swallows the rest of the file.
func Load(path string, logger zerolog.Logger) *Script {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Script not found")
		return &Script{}
	}
	defer f.Close()

	s := &Script{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, ok := parseLine(line)
		if !ok {
			logger.Warn().Str("path", path).Str("line", line).Msg("Malformed script line")
			s.commands = append(s.commands, Command{Verb: VerbInvalid})
			continue
		}
		s.commands = append(s.commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Error reading script")
	}

	logger.Debug().Str("path", path).Int("commands", s.Len()).Msg("Script loaded")
	return s
}

// parseLine splits one command line on commas. Empty fields and quote
// characters fail the line; quoting has no meaning in script files and
// usually marks an editing accident.
func parseLine(line string) (Command, bool) {
	cmd := Command{}
	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		if field == "" || strings.Contains(field, `"`) {
			return Command{}, false
		}
		if cmd.Verb == "" {
			cmd.Verb = field
			continue
		}
		if n, err := strconv.ParseFloat(field, 64); err == nil {
			cmd.Params = append(cmd.Params, Param{Number: n, Numeric: true})
		} else {
			cmd.Params = append(cmd.Params, Param{Text: field})
		}
	}
	return cmd, true
}
