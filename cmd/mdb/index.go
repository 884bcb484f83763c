package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/mdb/internal/indexer"
)

func newIndexCmd(a *app) *cobra.Command {
	var opts indexer.Options

	cmd := &cobra.Command{
		Use:   "index [file...]",
		Short: "Index markdown files under the base directory, or only the named files",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			bus, _ := startBus(ctx, opts.Verbose, false)
			defer bus.Stop()

			out := cmd.OutOrStdout()
			opts.Extensions = a.cfg.Extensions
			opts.Output = out

			ix := indexer.New(st, bus)
			if len(args) > 0 {
				docs, err := ix.IndexFiles(ctx, args...)
				if err != nil {
					return err
				}
				if opts.Verbose {
					for _, d := range docs {
						fmt.Fprintf(out, "Indexed: %s\n", d.Path)
					}
				}
				fmt.Fprintf(out, "Indexed %d files\n", len(docs))
				return nil
			}

			stats, err := ix.Index(ctx, a.cfg.BaseDir, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Indexed %d files\n", stats.Indexed)
			if opts.Verbose {
				fmt.Fprintf(out, "%d scanned, %d unchanged, %d removed, %s read\n",
					stats.Scanned, stats.Skipped, stats.Removed, humanize.Bytes(uint64(stats.Bytes)))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.Force, "force", "f", false, "re-index files even if unchanged")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "print each indexed file")
	f.BoolVar(&opts.Prune, "prune", false, "remove documents whose file no longer exists")
	return cmd
}
