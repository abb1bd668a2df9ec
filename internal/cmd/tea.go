package cmd

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/stateful/workshop/internal/term"
)

type program struct {
	*tea.Program
	out io.Writer
}

// Run quits right away when the output is not a terminal so that
// commands do not hang in pipelines.
func (p *program) Run() (tea.Model, error) {
	if f, ok := p.out.(*os.File); ok && !term.IsTerminal(f) {
		go p.Quit()
	}
	return p.Program.Run()
}

func newProgram(cmd *cobra.Command, model tea.Model, opts ...tea.ProgramOption) *program {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts = append(
		[]tea.ProgramOption{
			tea.WithOutput(out),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithContext(ctx),
		},
		opts...,
	)
	return &program{
		Program: tea.NewProgram(model, opts...),
		out:     out,
	}
}
