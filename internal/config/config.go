// Package config handles the optional bless.toml project configuration file.
//
// Everything in the file has a sensible default and anything given on the command
// line takes precedence, so a project only needs one to save typing its build
// command or to teach bless about unusual file extensions.
//
//	[build]
//	command = "make -k"
//	shell = "bash"
//	dir = "src"
//
//	[parser]
//	extensions = ["c", "h", "cc", "hh"]
//
//	[patch]
//	suffix = ".bless~"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"go.followtheprocess.codes/bless/internal/build"
	"go.followtheprocess.codes/bless/internal/diagnostic/parser"
	"go.followtheprocess.codes/bless/internal/patch"
)

// FileName is the name of the config file looked for in the current directory.
const FileName = "bless.toml"

// Config is the complete bless configuration.
type Config struct {
	Parser Parser `toml:"parser"`
	Build  Build  `toml:"build"`
	Patch  Patch  `toml:"patch"`
}

// Build configures how the build command is run.
type Build struct {
	Command string `toml:"command"` // Build command used when none is given on the command line
	Shell   string `toml:"shell"`   // Shell the command is run with
	Dir     string `toml:"dir"`     // Directory the command is run in, empty for the current one
}

// Parser configures the diagnostic parser.
type Parser struct {
	Extensions []string `toml:"extensions"` // Source file extensions, without the '.'
}

// Patch configures the patch writer.
type Patch struct {
	Suffix string `toml:"suffix"` // Temporary file suffix
}

// Default returns the default [Config].
func Default() Config {
	return Config{
		Build: Build{
			Shell: build.DefaultShell,
		},
		Parser: Parser{
			Extensions: slices.Clone(parser.DefaultExtensions),
		},
		Patch: Patch{
			Suffix: patch.DefaultSuffix,
		},
	}
}

// Load reads the config file at path, anything not set in the file keeps
// its default.
//
// If path is empty, [FileName] in the current directory is used if there is one,
// otherwise the defaults are returned. An explicitly given path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	cfg := Default()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}

		return Config{}, fmt.Errorf("could not load config from %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}

		return Config{}, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config in %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports whether the Config is valid, returning a non-nil
// error if it's not.
func (c Config) Validate() error {
	switch {
	case len(c.Parser.Extensions) == 0:
		return errors.New("parser.extensions cannot be empty")
	case strings.TrimSpace(c.Build.Shell) == "":
		return errors.New("build.shell cannot be empty")
	case c.Patch.Suffix == "":
		return errors.New("patch.suffix cannot be empty")
	case strings.ContainsRune(c.Patch.Suffix, os.PathSeparator) || strings.ContainsRune(c.Patch.Suffix, '/'):
		return fmt.Errorf("patch.suffix %q cannot contain a path separator", c.Patch.Suffix)
	default:
		return nil
	}
}
