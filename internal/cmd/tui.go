package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/log"
	"github.com/stateful/workshop/internal/term"
	"github.com/stateful/workshop/internal/tui"
	"github.com/stateful/workshop/pkg/workshop"
	"github.com/stateful/workshop/pkg/workshop/rewrite"
)

// unavailableGenerator keeps the view usable without a configured
// rewrite service; AI actions fail with the configuration error.
type unavailableGenerator struct {
	err error
}

func (g unavailableGenerator) Generate(context.Context, string) (string, error) {
	return "", g.err
}

func tuiCmd() *cobra.Command {
	var (
		write bool
		flat  bool
	)

	cmd := cobra.Command{
		Use:   "tui <file>",
		Short: "Edit a text file block by block in the terminal.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if f, ok := cmd.OutOrStdout().(*os.File); !ok || !term.IsTerminal(f) {
				return errors.New("tui requires a terminal")
			}
			if name == stdinName {
				return errors.New("tui reads keys from stdin, pass a file instead")
			}
			if write && !writable(name) {
				return errors.Errorf("cannot write back to %q", name)
			}

			text, err := readDocument(cmd, name)
			if err != nil {
				return err
			}

			builder, err := newBuilder(name)
			if err != nil {
				return err
			}

			logger := log.Get().Named("tui")

			var gen workshop.Generator
			if err := builder.Invoke(func(g rewrite.Generator) { gen = g }); err != nil {
				logger.Info("rewrite service unavailable", zap.Error(err))
				gen = unavailableGenerator{err: err}
			}

			var p *program

			session := workshop.NewSession(
				text,
				workshop.WithLogger(logger),
				workshop.WithContentSink(func(text string) {
					// The sink runs inside Update, which must not
					// wait for the program loop.
					go p.Send(tui.ContentMsg{Text: text})
				}),
			)
			defer session.Close()

			dispatcher := workshop.NewDispatcher(session, gen, logger)

			var opts []tui.WorkshopOption
			if flat {
				opts = append(opts, tui.WithFlatView())
			}

			model := tui.NewModel(
				tui.NewWorkshopModel(cmd.Context(), session, dispatcher, opts...),
				tui.FrameKeyMap,
				tui.DefaultStyles,
			)

			p = newProgram(cmd, model, tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return errors.WithStack(err)
			}

			frame, ok := final.(tui.Model)
			if !ok {
				return nil
			}
			workshopModel, ok := frame.Child.(tui.WorkshopModel)
			if !ok || !workshopModel.Changed() {
				return nil
			}

			result := session.Text()

			switch {
			case write:
				return writeDocument(name, result)
			case writable(name):
				answer, err := confirmWrite(cmd, name)
				if err != nil {
					return err
				}
				switch answer {
				case tui.WriteAccepted:
					return writeDocument(name, result)
				case tui.WriteDeclined:
					return nil
				}
				// Without an answer the text goes to stdout so that
				// nothing is lost.
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
				return errors.WithStack(err)
			default:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), result)
				return errors.WithStack(err)
			}
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write changes back to the file on exit.")
	cmd.Flags().BoolVar(&flat, "flat", false, "Start in the flat text view.")

	return &cmd
}

func confirmWrite(cmd *cobra.Command, name string) (tui.WriteAnswer, error) {
	model := tui.NewConfirmWriteModel(
		name,
		tui.MinimalKeyMap,
		tui.DefaultStyles,
	)
	final, err := newProgram(cmd, model).Run()
	if err != nil {
		return tui.WriteAborted, errors.WithStack(err)
	}
	return final.(tui.ConfirmWriteModel).Answer(), nil
}
