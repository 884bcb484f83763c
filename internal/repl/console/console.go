// Package console runs the REPL in a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/matthewbaird/mdb/internal/repl/autocomplete"
	"github.com/matthewbaird/mdb/internal/repl/session"
	"github.com/matthewbaird/mdb/internal/repl/shell"
)

const (
	prompt      = "mdb> "
	clearScreen = "\033[H\033[2J"
)

// prompter reads one input line at a time.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// Console reads lines, evaluates them and prints the output.
type Console struct {
	shell  *shell.Shell
	sess   *session.Session
	out    io.Writer
	input  prompter
	banner bool
}

// NewInteractive returns a Console with line editing, completion and a
// history file. An empty historyPath disables history persistence.
func NewInteractive(sh *shell.Shell, sess *session.Session, ac *autocomplete.Engine, historyPath string) *Console {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(text string) []string {
		return Completions(ac, text)
	})

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			if _, err := line.ReadHistory(f); err != nil {
				log.Printf("console: reading history: %v", err)
			}
			f.Close()
		}
	}

	return &Console{
		shell:  sh,
		sess:   sess,
		out:    os.Stdout,
		input:  &interactive{line: line, historyPath: historyPath},
		banner: true,
	}
}

// NewNonInteractive returns a Console that reads lines from in without
// prompting. Useful when input is piped from a file or another program.
func NewNonInteractive(sh *shell.Shell, sess *session.Session, in io.Reader, out io.Writer) *Console {
	return &Console{
		shell: sh,
		sess:  sess,
		out:   out,
		input: &noninteractive{input: bufio.NewReader(in)},
	}
}

// Run evaluates input until end of input, :quit, or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	defer c.input.Close()

	if c.banner {
		fmt.Fprintln(c.out, "mdb filter REPL. Type :help for help, :quit to exit.")
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		text, err := c.input.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if strings.TrimSpace(text) == "" {
				return nil
			}
		} else if err != nil {
			return fmt.Errorf("console: read: %w", err)
		}

		if strings.TrimSpace(text) != "" {
			c.input.AppendHistory(text)
		}

		out, evalErr := c.shell.Eval(ctx, c.sess, text)
		switch {
		case evalErr != nil:
			fmt.Fprintf(c.out, "error: %v\n", evalErr)
		case out.Meta != nil && out.Meta.Quit:
			return nil
		case out.Meta != nil && out.Meta.Clear:
			fmt.Fprint(c.out, clearScreen)
		default:
			if s := out.Text(c.sess); s != "" {
				fmt.Fprint(c.out, s)
				if !strings.HasSuffix(s, "\n") {
					fmt.Fprintln(c.out)
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// Completions expands the word before the end of text using the engine,
// returning whole candidate lines as liner expects.
func Completions(ac *autocomplete.Engine, text string) []string {
	items := ac.Complete(text, len(text))
	start := strings.LastIndexAny(text, " \t(,") + 1
	head := text[:start]

	out := make([]string, 0, len(items))
	for _, it := range items {
		word := it.Label
		if it.InsertText != "" {
			word = it.InsertText
		}
		out = append(out, head+word)
	}
	return out
}

type interactive struct {
	line        *liner.State
	historyPath string
}

func (i *interactive) Prompt(p string) (string, error) {
	return i.line.Prompt(p)
}

func (i *interactive) AppendHistory(line string) {
	i.line.AppendHistory(line)
}

func (i *interactive) Close() error {
	if i.historyPath != "" {
		if f, err := os.Create(i.historyPath); err == nil {
			if _, err := i.line.WriteHistory(f); err != nil {
				log.Printf("console: writing history: %v", err)
			}
			f.Close()
		}
	}
	return i.line.Close()
}

type noninteractive struct {
	input *bufio.Reader
}

func (n *noninteractive) Prompt(string) (string, error) {
	s, err := n.input.ReadString('\n')
	return strings.TrimRight(s, "\r\n"), err
}

func (n *noninteractive) AppendHistory(string) {}

func (n *noninteractive) Close() error { return nil }
