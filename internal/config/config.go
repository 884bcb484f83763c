// Package config loads mdb settings: built-in defaults, then an optional
// CUE file, then environment variables. Command-line flags are applied
// last by the caller.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabase = "MDB_DATABASE"
	EnvBaseDir  = "MDB_BASE_DIR"
)

// FileName is the config file looked up under the base directory.
const FileName = ".mdb/config.cue"

//go:embed schema.cue
var schemaSource string

// Config holds every setting the commands read.
type Config struct {
	Database   string   `json:"database"`
	BaseDir    string   `json:"base_dir"`
	Extensions []string `json:"extensions"`
	Limit      int      `json:"limit"`
	Format     string   `json:"format"`
	Fields     string   `json:"fields"`
	Addr       string   `json:"addr"`
	Dialect    string   `json:"dialect"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:   ".mdb/mdb.db",
		BaseDir:    ".",
		Extensions: []string{".md"},
		Limit:      1000,
		Format:     "table",
		Fields:     "file.path, file.mtime",
		Addr:       ":8080",
		Dialect:    "sqlite",
	}
}

// Parse validates src against the config schema and returns the result
// with defaults filled in. filename is used in error messages.
func Parse(src []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("config: compiling schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	file := ctx.CompileBytes(src, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return Config{}, fmt.Errorf("config: %s", cueerrors.Details(err, nil))
	}

	val := def.Unify(file)
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("config: %s", cueerrors.Details(err, nil))
	}

	var cfg Config
	if err := val.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", filename, err)
	}
	return cfg, nil
}

// Load reads the config file at path. An empty path looks for FileName
// under baseDir and falls back to Default when it does not exist; an
// explicit path must exist. Environment overrides are applied to the
// result.
func Load(path, baseDir string) (Config, error) {
	explicit := path != ""
	if !explicit {
		if baseDir == "" {
			baseDir = "."
		}
		path = filepath.Join(baseDir, FileName)
	}

	src, err := os.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		src = nil
	default:
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := Parse(src, path)
	if err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := getenv(EnvBaseDir); v != "" {
		c.BaseDir = v
	}
}
