package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/mdb/internal/indexer"
)

func newWatchCmd(a *app) *cobra.Command {
	var opts indexer.Options

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Index the base directory, then re-index files as they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			bus, _ := startBus(ctx, true, opts.Verbose)
			defer bus.Stop()

			opts.Extensions = a.cfg.Extensions
			opts.Output = cmd.OutOrStdout()
			ix := indexer.New(st, bus)

			stats, err := ix.Index(ctx, a.cfg.BaseDir, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files, watching %s (Ctrl-C to stop)\n", stats.Indexed, a.cfg.BaseDir)

			return ix.Watch(ctx, a.cfg.BaseDir, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "print each indexed file")
	f.BoolVar(&opts.Prune, "prune", true, "remove documents whose file no longer exists on startup")
	f.DurationVar(&opts.Debounce, "debounce", 0, "settle time before applying changes (default 250ms)")
	return cmd
}
