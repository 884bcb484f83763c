package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/mdb/internal/indexer"
	"github.com/matthewbaird/mdb/internal/repl"
	"github.com/matthewbaird/mdb/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API and the websocket REPL over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.executable(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Addr
			}

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			bus, feed := startBus(ctx, true, false)
			defer bus.Stop()

			exec, err := a.executor(st)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Run(gctx, server.Config{
					Addr:      addr,
					Executor:  exec,
					Documents: st,
					REPL:      repl.New(exec, a.settings(), a.info()),
					Activity:  feed,
					Defaults:  a.settings(),
				})
			})

			if watch {
				g.Go(func() error {
					return watchDir(gctx, indexer.New(st, bus), a.cfg.BaseDir, indexer.Options{
						Extensions: a.cfg.Extensions,
						Prune:      true,
					})
				})
			}
			return g.Wait()
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "listen address")
	f.BoolVar(&watch, "watch", false, "index the base directory and keep it up to date while serving")
	return cmd
}

func watchDir(ctx context.Context, ix *indexer.Indexer, dir string, opts indexer.Options) error {
	stats, err := ix.Index(ctx, dir, opts)
	if err != nil {
		return err
	}
	log.Printf("serve: indexed %d files under %s", stats.Indexed, dir)
	return ix.Watch(ctx, dir, opts)
}
