package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/mdb/internal/config"
)

func subcommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find([]string{name})
	require.NoError(t, err)
	require.Equal(t, name, cmd.Name())
	return cmd
}

func TestQueryFlagDefaults(t *testing.T) {
	q := subcommand(t, newRootCmd(), "query")
	assert.Equal(t, "file.path, file.mtime", q.Flags().Lookup("output-fields").DefValue)
	assert.Equal(t, "table", q.Flags().Lookup("output-format").DefValue)
	assert.Equal(t, "1000", q.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "f", q.Flags().Lookup("output-fields").Shorthand)
	assert.Equal(t, "o", q.Flags().Lookup("output-format").Shorthand)
}

func TestQueryFlagParsing(t *testing.T) {
	cases := []struct {
		args  []string
		flag  string
		value string
	}{
		{[]string{"-q", "file.name == 'test'", "-f", "*"}, "output-fields", "*"},
		{[]string{"-q", "file.name == 'test'", "--output-fields", "file.name"}, "output-fields", "file.name"},
		{[]string{"-q", "file.name == 'test'", "-o", "json"}, "output-format", "json"},
		{[]string{"-q", "file.name == 'test'", "-l", "5"}, "limit", "5"},
	}
	for _, tc := range cases {
		q := subcommand(t, newRootCmd(), "query")
		require.NoError(t, q.ParseFlags(tc.args))
		assert.Equal(t, tc.value, q.Flags().Lookup(tc.flag).Value.String(), strings.Join(tc.args, " "))
	}
}

func TestGlobalFlags(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "d", root.PersistentFlags().Lookup("database").Shorthand)
	assert.Equal(t, "b", root.PersistentFlags().Lookup("base-dir").Shorthand)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	idx := subcommand(t, root, "index")
	assert.Equal(t, "f", idx.Flags().Lookup("force").Shorthand)
	assert.Equal(t, "v", idx.Flags().Lookup("verbose").Shorthand)

	for _, name := range []string{"watch", "repl", "serve"} {
		subcommand(t, root, name)
	}
}

// workspace creates a notes directory and a database path outside it.
func workspace(t *testing.T) (notes, db string) {
	t.Helper()
	t.Setenv(config.EnvDatabase, "")
	t.Setenv(config.EnvBaseDir, "")

	root := t.TempDir()
	notes = filepath.Join(root, "notes")
	require.NoError(t, os.MkdirAll(filepath.Join(notes, "sub"), 0o755))
	write := func(rel, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(notes, rel), []byte(content), 0o644))
	}
	write("alpha.md", "---\nstatus: draft\n---\n# Alpha\n\n#go links to [[beta]]\n")
	write("sub/beta.md", "# Beta\n\n#rust\n")
	write("ignored.txt", "#go\n")
	return notes, filepath.Join(root, "db", "mdb.db")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestIndexAndQuery(t *testing.T) {
	notes, db := workspace(t)

	out, err := run(t, "", "-d", db, "-b", notes, "index")
	require.NoError(t, err)
	assert.Equal(t, "Indexed 2 files\n", out)

	out, err = run(t, "", "-d", db, "-b", notes, "index")
	require.NoError(t, err)
	assert.Equal(t, "Indexed 0 files\n", out)

	out, err = run(t, "", "-d", db, "-b", notes, "index", "--force", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed: ")
	assert.Contains(t, out, "Indexed 2 files\n")
	assert.Contains(t, out, "2 scanned, 0 unchanged, 0 removed")

	out, err = run(t, "", "-d", db, "query", "-q", "has(note.tags, 'go')", "-o", "json", "-f", "file.name, status, note.backlinks")
	require.NoError(t, err)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "alpha", rows[0]["file.name"])
	assert.Equal(t, "draft", rows[0]["status"])

	out, err = run(t, "", "-d", db, "query", "-q", "file.name == 'beta'", "-f", "note.backlinks", "-o", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "note.backlinks: [")
	assert.Contains(t, out, "alpha.md")

	out, err = run(t, "", "-d", db, "query", "-q", "file.name == 'nothing'")
	require.NoError(t, err)
	assert.Equal(t, "No results found.\n", out)
}

func TestIndex_NamedFiles(t *testing.T) {
	notes, db := workspace(t)
	alpha := filepath.Join(notes, "alpha.md")

	out, err := run(t, "", "-d", db, "-b", notes, "index", "-v", alpha)
	require.NoError(t, err)
	assert.Equal(t, "Indexed: "+alpha+"\nIndexed 1 files\n", out)

	out, err = run(t, "", "-d", db, "query", "-q", "file.size > 0", "--count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = run(t, "", "-d", db, "-b", notes, "index", filepath.Join(notes, "missing.md"))
	assert.Error(t, err)
}

func TestQuery_Count(t *testing.T) {
	notes, db := workspace(t)
	_, err := run(t, "", "-d", db, "-b", notes, "index")
	require.NoError(t, err)

	out, err := run(t, "", "-d", db, "query", "-q", "file.size > 0", "--count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestQuery_SQL(t *testing.T) {
	t.Setenv(config.EnvDatabase, "")
	t.Setenv(config.EnvBaseDir, "")
	dir := t.TempDir()

	out, err := run(t, "", "-b", dir, "query", "-q", "file.name == 'readme'", "--sql", "-l", "10")
	require.NoError(t, err)
	assert.Equal(t, "SELECT path, mtime FROM documents WHERE name = 'readme' LIMIT 10\n", out)
	_, statErr := os.Stat(filepath.Join(dir, ".mdb"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestQuery_DialectFromConfig(t *testing.T) {
	t.Setenv(config.EnvDatabase, "")
	t.Setenv(config.EnvBaseDir, "")
	cfgPath := filepath.Join(t.TempDir(), "mdb.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`dialect: "duckdb"`), 0o644))

	out, err := run(t, "", "--config", cfgPath, "query", "-q", "has(tags, 'x')", "--sql", "-l", "0")
	require.NoError(t, err)
	assert.Equal(t, "SELECT path, mtime FROM documents WHERE 'x' = ANY(tags)\n", out)

	_, err = run(t, "", "--config", cfgPath, "query", "-q", "has(tags, 'x')")
	assert.ErrorContains(t, err, "duckdb")
}

func TestQuery_Errors(t *testing.T) {
	_, db := workspace(t)

	_, err := run(t, "", "-d", db, "query")
	assert.Error(t, err)

	_, err = run(t, "", "-d", db, "query", "-q", "a == 1", "-o", "xml")
	assert.ErrorContains(t, err, "invalid output format")

	_, err = run(t, "", "-d", db, "query", "-q", "a == 1", "--limit=-3")
	assert.ErrorContains(t, err, "invalid limit")
}

func TestRepl_Piped(t *testing.T) {
	notes, db := workspace(t)
	_, err := run(t, "", "-d", db, "-b", notes, "index")
	require.NoError(t, err)

	input := strings.Join([]string{
		":fields file.name",
		":format list",
		"has(note.tags, 'rust')",
		":quit",
		"file.name == 'alpha'",
	}, "\n")
	out, err := run(t, input, "-d", db, "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "file.name: beta\n---\n")
	assert.NotContains(t, out, "file.name: alpha")
}
