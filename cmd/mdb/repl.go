package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/mdb/internal/repl"
	"github.com/matthewbaird/mdb/internal/repl/console"
)

func newReplCmd(a *app) *cobra.Command {
	var historyPath string
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive filter shell",
		Long: `Start an interactive filter shell.

Lines are filter expressions; lines starting with ':' are commands such as
:help, :format, :fields, :limit, :sql and :schema. When standard input is
not a terminal, lines are read from it without prompting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.executable(); err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			exec, err := a.executor(st)
			if err != nil {
				return err
			}
			comps := repl.New(exec, a.settings(), a.info())
			sess := comps.Sessions.Create()

			var c *console.Console
			fd := os.Stdin.Fd()
			if cmd.InOrStdin() == os.Stdin && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
				if noHistory {
					historyPath = ""
				} else if historyPath == "" {
					historyPath = a.historyPath()
				}
				c = console.NewInteractive(comps.Shell, sess, comps.Autocomplete, historyPath)
			} else {
				c = console.NewNonInteractive(comps.Shell, sess, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return c.Run(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&historyPath, "history", "", "history file (default next to the database)")
	f.BoolVar(&noHistory, "no-history", false, "do not read or write a history file")
	return cmd
}
