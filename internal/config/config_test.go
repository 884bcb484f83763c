package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyIsDefault(t *testing.T) {
	cfg, err := Parse(nil, "empty.cue")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Overrides(t *testing.T) {
	src := `
database: "notes.db"
limit: 50
format: "json"
extensions: [".md", ".markdown"]
`
	cfg, err := Parse([]byte(src), "config.cue")
	require.NoError(t, err)
	assert.Equal(t, "notes.db", cfg.Database)
	assert.Equal(t, 50, cfg.Limit)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Extensions)
	assert.Equal(t, "file.path, file.mtime", cfg.Fields)
	assert.Equal(t, "sqlite", cfg.Dialect)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown format":  `format: "xml"`,
		"negative limit":  `limit: -1`,
		"unknown field":   `colour: "red"`,
		"bad extension":   `extensions: ["md"]`,
		"empty database":  `database: ""`,
		"unknown dialect": `dialect: "oracle"`,
		"syntax error":    `limit: [`,
		"wrong type":      `limit: "ten"`,
	}
	for name, src := range cases {
		_, err := Parse([]byte(src), "config.cue")
		assert.Error(t, err, name)
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv(EnvDatabase, "")
	t.Setenv(EnvBaseDir, "")
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"), "")
	assert.Error(t, err)
}

func TestLoad_FileUnderBaseDir(t *testing.T) {
	t.Setenv(EnvDatabase, "")
	t.Setenv(EnvBaseDir, "")
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".mdb"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`addr: ":9000"`), 0o644))

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdb.cue")
	require.NoError(t, os.WriteFile(path, []byte(`database: "file.db"`), 0o644))
	t.Setenv(EnvDatabase, "env.db")
	t.Setenv(EnvBaseDir, "/notes")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, "/notes", cfg.BaseDir)
}

func TestApplyEnv_EmptyKeepsValues(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(func(string) string { return "" })
	assert.Equal(t, Default(), cfg)
}
