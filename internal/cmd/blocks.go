package cmd

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cli/go-gh/v2/pkg/jsonpretty"
	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/workshop/internal/term"
	"github.com/stateful/workshop/pkg/workshop"
)

func blocksCmd() *cobra.Command {
	var (
		format    string
		sentences bool
	)

	cmd := cobra.Command{
		Use:     "blocks <file>",
		Aliases: []string{"ls"},
		Short:   "List paragraph blocks and, optionally, their sentences.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			session := workshop.NewSession(text)
			defer session.Close()

			if sentences {
				for _, p := range session.Snapshot().Paragraphs {
					session.Expand(p.ID)
				}
			}

			var blocks []workshop.Block
			for _, p := range session.Snapshot().Paragraphs {
				blocks = append(blocks, p.Block)
				blocks = append(blocks, p.Sentences...)
			}

			switch format {
			case "json":
				return renderBlocksAsJSON(cmd, blocks)
			case "table":
				return renderBlocksAsTable(cmd, blocks)
			default:
				return errors.Errorf("invalid format: %s", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json).")
	cmd.Flags().BoolVar(&sentences, "sentences", false, "Include sentence blocks.")

	return &cmd
}

func renderBlocksAsTable(cmd *cobra.Command, blocks []workshop.Block) error {
	t := term.FromIO(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	table := tableprinter.New(t.Out(), t.IsTTY(), term.Width(t))

	table.AddField(strings.ToUpper("ID"))
	table.AddField(strings.ToUpper("Kind"))
	table.AddField(strings.ToUpper("Words"))
	table.AddField(strings.ToUpper("Content"))
	table.EndRow()

	for _, b := range blocks {
		table.AddField(b.ID)
		table.AddField(string(b.Kind))
		table.AddField(strconv.Itoa(len(strings.Fields(b.Content))))
		table.AddField(b.Content)
		table.EndRow()
	}

	return errors.WithStack(table.Render())
}

func renderBlocksAsJSON(cmd *cobra.Command, blocks []workshop.Block) error {
	if blocks == nil {
		blocks = []workshop.Block{}
	}
	raw, err := json.Marshal(blocks)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(
		jsonpretty.Format(cmd.OutOrStdout(), bytes.NewReader(raw), "  ", false),
	)
}
