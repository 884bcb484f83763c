package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/mdb/internal/render"
	"github.com/matthewbaird/mdb/internal/repl/executor"
)

type queryFlags struct {
	query   string
	format  string
	fields  string
	limit   int
	sqlOnly bool
	count   bool
}

func newQueryCmd(a *app) *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query indexed documents with a filter expression",
		Example: `  mdb query -q "has(note.tags, 'go') and file.mtime > 1700000000"
  mdb query -q "status == 'draft'" -o json -f "file.path, note.title"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if !flags.Changed("output-format") {
				qf.format = a.cfg.Format
			}
			if !flags.Changed("output-fields") {
				qf.fields = a.cfg.Fields
			}
			if !flags.Changed("limit") {
				qf.limit = a.cfg.Limit
			}
			return runQuery(cmd, a, qf)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&qf.query, "query", "q", "", "filter expression")
	f.StringVarP(&qf.format, "output-format", "o", "table", "output format: "+strings.Join(render.Modes(), ", "))
	f.StringVarP(&qf.fields, "output-fields", "f", executor.DefaultFields, `comma-separated fields, or "*" for all columns`)
	f.IntVarP(&qf.limit, "limit", "l", executor.DefaultLimit, "maximum number of rows, 0 for no limit")
	f.BoolVar(&qf.sqlOnly, "sql", false, "print the compiled SQL instead of running it")
	f.BoolVar(&qf.count, "count", false, "print the number of matching documents")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func runQuery(cmd *cobra.Command, a *app, qf queryFlags) error {
	format := strings.ToLower(qf.format)
	if !slices.Contains(render.Modes(), format) {
		return fmt.Errorf("invalid output format %q (want one of %s)", qf.format, strings.Join(render.Modes(), ", "))
	}
	if qf.limit < 0 {
		return fmt.Errorf("invalid limit %d", qf.limit)
	}

	out := cmd.OutOrStdout()
	req := executor.Request{Filter: qf.query, Fields: qf.fields, Limit: qf.limit}

	if qf.sqlOnly {
		c, err := a.compiler()
		if err != nil {
			return err
		}
		plan, err := executor.New(nil, c).Plan(req)
		if err != nil {
			return err
		}
		sql := plan.SQL
		if qf.limit > 0 {
			sql = fmt.Sprintf("%s LIMIT %d", sql, qf.limit)
		}
		fmt.Fprintln(out, sql)
		return nil
	}

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

	if qf.count {
		n, err := exec.Count(ctx, qf.query)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
		return nil
	}

	res, err := exec.Run(ctx, req)
	if err != nil {
		return err
	}
	return render.Write(out, res.Rows, render.ParseMode(format), res.Columns)
}
