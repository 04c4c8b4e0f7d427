// Package parser implements the build diagnostic parser.
//
// The parser consumes the raw stderr of a build command line by line and assembles
// the lines it recognises into [diagnostic.Record]s. Four kinds of line are recognised,
// in the format used by gcc (and compatible compilers):
//
//	foo.c: In function 'main':              <- header, announces file and function
//	foo.c:3:5: error: 'x' undeclared        <- location, starts (or extends) a record
//	    3 |     printf(x);                  <- quoted source, the offending line
//	      |            ^                    <- annotation, carets and hints
//	  +++ |+#include <stdio.h>              <- annotation, a fix-it hint
//
// Anything else (summary lines, linker chatter, notes in other formats) is simply
// skipped, malformed input is never an error. The only failure mode of the parser
// itself is a bad configuration, in which case [New] returns an error wrapping
// [ErrConfiguration].
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"go.followtheprocess.codes/bless/internal/diagnostic"
)

// ErrConfiguration is returned when the parser's pattern set cannot be built.
var ErrConfiguration = errors.New("invalid parser configuration")

// pathPattern matches the file path portion of a header or location line, up
// to the extension. Anything but a ':' goes, and it may not start with a space.
const pathPattern = `[^:\s][^:]*?`

// DefaultExtensions are the source file extensions recognised when none are configured.
var DefaultExtensions = []string{"c", "h"} //nolint:gochecknoglobals // Effectively a constant

// validExtension is what a configured file extension may contain.
var validExtension = regexp.MustCompile(`^[A-Za-z0-9_+]+$`)

// Option is a functional option for configuring a [Parser].
type Option func(*config) error

// config holds the parser configuration built up from options.
type config struct {
	dir        string
	extensions []string
}

// Extensions sets the source file extensions (without the leading '.') the
// parser recognises in header and location lines, replacing the defaults.
func Extensions(extensions ...string) Option {
	return func(c *config) error {
		if len(extensions) == 0 {
			return errors.New("at least one file extension is required")
		}

		for _, ext := range extensions {
			if !validExtension.MatchString(ext) {
				return fmt.Errorf("bad file extension %q, must match %s", ext, validExtension)
			}
		}

		c.extensions = extensions

		return nil
	}
}

// Dir sets the directory the build ran in, relative paths in the diagnostics are
// resolved against it. By default paths are kept exactly as reported.
func Dir(dir string) Option {
	return func(c *config) error {
		c.dir = dir
		return nil
	}
}

// Parser is the build diagnostic parser.
//
// A Parser holds only its compiled patterns, all parse state is local to a call
// to [Parser.Parse], so one Parser may be reused for any number of streams.
type Parser struct {
	header     *regexp.Regexp // file.c: context
	location   *regexp.Regexp // file.c:line:col: message
	quoted     *regexp.Regexp // <spaces><number> | source
	annotation *regexp.Regexp // <spaces><non number, e.g. +++> | annotation
	dir        string         // Directory relative paths are resolved against
}

// New builds and returns a new [Parser].
func New(options ...Option) (*Parser, error) {
	cfg := &config{extensions: DefaultExtensions}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}

	quotedExts := make([]string, 0, len(cfg.extensions))
	for _, ext := range cfg.extensions {
		quotedExts = append(quotedExts, regexp.QuoteMeta(ext))
	}

	file := pathPattern + `\.(?:` + strings.Join(quotedExts, "|") + `)`

	patterns := map[string]string{
		"header":     `^(` + file + `): (.*)$`,
		"location":   `^(` + file + `):(\d+):(\d+):\s?(.*)$`,
		"quoted":     `^ *\d+ \|(.*)$`,
		"annotation": `^ *[^\w|]+ \|(.*)$`,
	}

	compiled := make(map[string]*regexp.Regexp, len(patterns))

	for name, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: could not compile %s pattern: %w", ErrConfiguration, name, err)
		}

		compiled[name] = re
	}

	return &Parser{
		header:     compiled["header"],
		location:   compiled["location"],
		quoted:     compiled["quoted"],
		annotation: compiled["annotation"],
		dir:        cfg.dir,
	}, nil
}

// state is the carried state threaded through each line of a single parse.
type state struct {
	store    *diagnostic.Store  // Store being built
	current  *diagnostic.Record // Record the most recent location line referred to
	file     string             // File announced by the last header line
	function string             // Function announced by the last header line
	newCode  bool               // Whether the next quoted line is the current record's source
}

// Parse reads r to completion and returns the records it describes.
//
// Lines may be arbitrarily long. A stream with no recognisable diagnostics
// results in an empty store and a nil error, the only errors returned are
// those from reading r.
func (p *Parser) Parse(r io.Reader) (*diagnostic.Store, error) {
	if p == nil {
		return nil, errors.New("Parse called on nil parser")
	}

	st := &state{store: diagnostic.NewStore()}
	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			p.parseLine(st, strings.TrimRight(line, "\r\n"))
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return st.store, fmt.Errorf("could not read diagnostic stream: %w", err)
		}
	}

	return st.store, nil
}

// parseLine handles a single line of input, updating st.
func (p *Parser) parseLine(st *state, line string) {
	line = ansi.Strip(line)

	if match := p.header.FindStringSubmatch(line); match != nil {
		st.file = p.resolve(match[1])
		st.function = match[2]
	}

	if match := p.location.FindStringSubmatch(line); match != nil {
		p.parseLocation(st, match)
	}

	if st.current == nil {
		// Nothing to attach source or annotations to
		return
	}

	switch {
	case p.quoted.MatchString(line):
		text := trimPipe(p.quoted.FindStringSubmatch(line)[1])
		if st.newCode {
			st.current.SetSource(text)
			st.newCode = false
		} else {
			st.current.Help = append(st.current.Help, text)
		}
	case p.annotation.MatchString(line):
		text := trimPipe(p.annotation.FindStringSubmatch(line)[1])
		st.current.Help = append(st.current.Help, text)
	}
}

// parseLocation handles a line that matched the location pattern, either
// merging it into an existing record or creating a new one.
func (p *Parser) parseLocation(st *state, match []string) {
	file := p.resolve(match[1])
	message := match[4]

	line, err := strconv.Atoi(match[2])
	if err != nil {
		// Only possible on overflow, not a line number we can do anything with
		return
	}

	column, err := strconv.Atoi(match[3])
	if err != nil {
		column = 0
	}

	if existing, ok := st.store.Lookup(file, line); ok {
		existing.Messages = append(existing.Messages, message)
		st.current = existing
		st.newCode = !existing.HasSource

		return
	}

	function := ""
	if st.file == file {
		function = st.function
	}

	record := diagnostic.New(
		st.store.Len()+1,
		function,
		diagnostic.Position{File: file, Line: line, Column: column},
		message,
	)

	st.store.Add(record)
	st.current = record
	st.newCode = true
}

// resolve returns the path of file as seen from the current directory.
func (p *Parser) resolve(file string) string {
	if p.dir == "" || filepath.IsAbs(file) {
		return file
	}

	return filepath.Join(p.dir, file)
}

// trimPipe removes the single separating space the compiler puts after the '|'.
func trimPipe(text string) string {
	return strings.TrimPrefix(text, " ")
}
