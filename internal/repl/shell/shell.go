// Package shell evaluates REPL input lines: meta-commands go to the meta
// handler, everything else is run as a filter with the session settings.
package shell

import (
	"context"
	"strings"

	"github.com/matthewbaird/mdb/internal/repl/executor"
	"github.com/matthewbaird/mdb/internal/repl/meta"
	"github.com/matthewbaird/mdb/internal/repl/session"
)

// Output is the result of one input line. Exactly one of Meta and Query is
// set for a non-empty line.
type Output struct {
	Meta  *meta.Result
	Query *executor.Result
}

// Text renders the output for a terminal.
func (o *Output) Text(sess *session.Session) string {
	switch {
	case o.Meta != nil:
		return o.Meta.Output
	case o.Query != nil:
		return o.Query.Render(sess.Settings().Format)
	default:
		return ""
	}
}

// Shell evaluates input lines.
type Shell struct {
	exec *executor.Executor
	meta *meta.Handler
}

// New creates a Shell.
func New(exec *executor.Executor, metaHandler *meta.Handler) *Shell {
	return &Shell{exec: exec, meta: metaHandler}
}

// Eval runs line in sess and records it in the session history. Blank
// lines return an empty Output.
func (s *Shell) Eval(ctx context.Context, sess *session.Session, line string) (*Output, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return &Output{}, nil
	}
	sess.AddHistory(line)

	if cmd, rest, ok := meta.Parse(line); ok {
		res, err := s.meta.Execute(ctx, sess, cmd, rest)
		if err != nil {
			return nil, err
		}
		return &Output{Meta: res}, nil
	}

	st := sess.Settings()
	res, err := s.exec.Run(ctx, executor.Request{
		Filter: line,
		Fields: st.Fields,
		Limit:  st.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Query: res}, nil
}
