package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/workshop/pkg/workshop"
)

func fmtCmd() *cobra.Command {
	var write bool

	cmd := cobra.Command{
		Use:   "fmt <file>",
		Short: "Normalize paragraph spacing of a text file.",
		Long: `Normalize paragraph spacing of a text file.

Paragraphs are separated by exactly one blank line and trimmed.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			text, err := readDocument(cmd, name)
			if err != nil {
				return err
			}

			result := workshop.NewStore(text).Text()

			if write {
				return writeDocument(name, result)
			}

			_, err = cmd.OutOrStdout().Write([]byte(result + "\n"))
			return errors.Wrap(err, "failed to write result")
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file.")

	return &cmd
}
