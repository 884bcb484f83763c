package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/mdb/internal/activity"
	"github.com/matthewbaird/mdb/internal/compiler"
	"github.com/matthewbaird/mdb/internal/config"
	"github.com/matthewbaird/mdb/internal/eventbus"
	"github.com/matthewbaird/mdb/internal/render"
	"github.com/matthewbaird/mdb/internal/repl/executor"
	"github.com/matthewbaird/mdb/internal/repl/meta"
	"github.com/matthewbaird/mdb/internal/repl/session"
	"github.com/matthewbaird/mdb/internal/store"
)

const version = "0.1.0"

// app carries the global flags and the resolved configuration shared by
// every subcommand.
type app struct {
	configPath string
	database   string
	baseDir    string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "mdb",
		Short:         "Markdown database CLI - index and query markdown files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.database, "database", "d", "", "path to the SQLite database (default .mdb/mdb.db, env "+config.EnvDatabase+")")
	pf.StringVarP(&a.baseDir, "base-dir", "b", "", "directory to index (default ., env "+config.EnvBaseDir+")")
	pf.StringVar(&a.configPath, "config", "", "config file (default <base-dir>/"+config.FileName+")")

	root.AddCommand(
		newIndexCmd(a),
		newQueryCmd(a),
		newWatchCmd(a),
		newReplCmd(a),
		newServeCmd(a),
	)
	return root
}

// load resolves configuration: defaults, config file, environment, then
// the global flags.
func (a *app) load(cmd *cobra.Command) error {
	lookup := a.baseDir
	if lookup == "" {
		lookup = os.Getenv(config.EnvBaseDir)
	}

	cfg, err := config.Load(a.configPath, lookup)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("database") {
		cfg.Database = a.database
	}
	if flags.Changed("base-dir") {
		cfg.BaseDir = a.baseDir
	}
	a.cfg = cfg
	return nil
}

func (a *app) compiler() (*compiler.Compiler, error) {
	d := compiler.DialectByName(a.cfg.Dialect)
	if d == nil {
		return nil, fmt.Errorf("unknown dialect %q", a.cfg.Dialect)
	}
	return compiler.New(d), nil
}

// executable rejects dialects the bundled SQLite store cannot run.
func (a *app) executable() error {
	if d := compiler.DialectByName(a.cfg.Dialect); d != compiler.SQLite {
		return fmt.Errorf("dialect %q can only be used to print SQL; the document store is SQLite", a.cfg.Dialect)
	}
	return nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

func (a *app) executor(st *store.Store) (*executor.Executor, error) {
	c, err := a.compiler()
	if err != nil {
		return nil, err
	}
	return executor.New(st, c), nil
}

// settings are the query defaults for REPL sessions and the HTTP API.
func (a *app) settings() session.Settings {
	return session.Settings{
		Format: render.ParseMode(a.cfg.Format),
		Fields: a.cfg.Fields,
		Limit:  a.cfg.Limit,
	}
}

func (a *app) info() meta.Info {
	return meta.Info{
		Database: a.cfg.Database,
		BaseDir:  a.cfg.BaseDir,
	}
}

// historyPath places the REPL history next to the database.
func (a *app) historyPath() string {
	return filepath.Join(filepath.Dir(a.cfg.Database), "history")
}

// startBus starts an event bus feeding an activity feed. When logEvents
// is set, events are also logged.
func startBus(ctx context.Context, logEvents, verbose bool) (*eventbus.Bus, *activity.Feed) {
	bus := eventbus.New(0)
	feed := activity.NewFeed(0)
	bus.Subscribe("activity", feed)
	if logEvents {
		bus.Subscribe("log", eventbus.NewLogConsumer(verbose))
	}
	bus.Start(ctx)
	return bus, feed
}
