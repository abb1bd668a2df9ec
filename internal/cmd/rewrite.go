package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/batch"
	"github.com/stateful/workshop/internal/config"
	"github.com/stateful/workshop/internal/log"
	"github.com/stateful/workshop/internal/term"
	"github.com/stateful/workshop/internal/tui"
	"github.com/stateful/workshop/internal/tui/prompt"
	"github.com/stateful/workshop/pkg/workshop"
	"github.com/stateful/workshop/pkg/workshop/rewrite"
)

func rewriteCmd() *cobra.Command {
	var (
		actionName  string
		instruction string
		blockGlobs  []string
		conditions  []string
		level       string
		dryRun      bool
		write       bool
	)

	cmd := cobra.Command{
		Use:   "rewrite <file>",
		Short: "Rewrite blocks with an AI action.",
		Long: `Rewrite blocks with an AI action.

Blocks are selected by id, with glob patterns like "block-*", and by
filter conditions evaluated against each block. Use "-" to read from stdin.`,
		Example: `  workshop rewrite essay.txt --action shorten --block block-2
  workshop rewrite essay.txt --action other --instruction "Use British spelling" --filter "words > 40"
  workshop rewrite essay.txt --action refine --level sentence --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			action, err := workshop.ParseAction(actionName)
			if err != nil {
				return err
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

			var cfg *config.Config
			if err := builder.Invoke(func(c *config.Config) { cfg = c }); err != nil {
				return err
			}

			logger := log.Get().Named("rewrite")

			if action.IsCustom() && strings.TrimSpace(instruction) == "" && name != stdinName && term.IsTerminal(os.Stdin) {
				instruction, err = promptInstruction(cmd)
				if err != nil {
					return err
				}
			}
			if _, err := action.Instruction(instruction); err != nil {
				return err
			}

			var opts []workshop.SessionOption
			opts = append(opts, workshop.WithLogger(logger))
			if write && !dryRun {
				// Results are saved as they arrive.
				opts = append(opts, workshop.WithContentSink(func(text string) {
					if err := writeDocument(name, text); err != nil {
						logger.Error("failed to save document", zap.Error(err))
					}
				}))
			}

			session := workshop.NewSession(text, opts...)
			defer session.Close()

			lvl := batch.Level(level)
			switch lvl {
			case batch.LevelParagraph:
			case batch.LevelSentence:
				for _, p := range session.Snapshot().Paragraphs {
					session.Expand(p.ID)
				}
			default:
				return errors.Errorf("invalid level: %s", level)
			}

			filters := append([]*config.Filter(nil), cfg.Filters...)
			for _, c := range conditions {
				filters = append(filters, &config.Filter{Type: config.FilterTypeBlock, Condition: c})
			}

			view := session.Snapshot()

			ids, err := matchBlockIDs(view, lvl, blockGlobs)
			if err != nil {
				return err
			}

			blocks, err := batch.Select(view, lvl, ids, filters)
			if err != nil {
				return err
			}
			if len(blocks) == 0 {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "no blocks selected")
				return nil
			}

			if dryRun {
				return printPrompts(cmd, blocks, action, instruction)
			}

			var gen rewrite.Generator
			if err := builder.Invoke(func(g rewrite.Generator) { gen = g }); err != nil {
				return err
			}

			dispatcher := workshop.NewDispatcher(session, gen, logger)
			result, runErr := batch.Run(cmd.Context(), dispatcher, blocks, action, instruction, cfg.Rewrite.Concurrency, logger)

			if lvl == batch.LevelSentence {
				for _, id := range rewrittenParents(blocks, result.Applied) {
					session.Fold(id)
				}
			}

			if !write {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), session.Text()); err != nil {
					return errors.Wrap(err, "failed to write result")
				}
			}

			errOut := cmd.ErrOrStderr()
			_, _ = fmt.Fprintf(
				errOut,
				"%s %d, %s %d\n",
				colorize(errOut, "rewritten", "green"), len(result.Applied),
				colorize(errOut, "skipped", "white+d"), len(result.Skipped),
			)

			return runErr
		},
	}

	cmd.Flags().StringVarP(&actionName, "action", "a", "", "Action to apply (reword, refine, shorten, expand, summarize, other).")
	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "Instruction for the \"other\" action.")
	cmd.Flags().StringArrayVarP(&blockGlobs, "block", "b", nil, "Block id or glob pattern. Can be repeated.")
	cmd.Flags().StringArrayVar(&conditions, "filter", nil, "Filter condition evaluated against each block. Can be repeated.")
	cmd.Flags().StringVar(&level, "level", string(batch.LevelParagraph), "Block level (paragraph, sentence).")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print prompts instead of calling the rewrite service.")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file.")
	_ = cmd.MarkFlagRequired("action")

	return &cmd
}

// matchBlockIDs expands glob patterns into block ids in document order.
// Every pattern must match at least one block.
func matchBlockIDs(view workshop.View, level batch.Level, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	candidates := batch.Candidates(view, level)

	var ids []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid block pattern %q", pattern)
		}

		matched := false
		for _, c := range candidates {
			if !g.Match(c.Block.ID) {
				continue
			}
			matched = true
			if !seen[c.Block.ID] {
				seen[c.Block.ID] = true
				ids = append(ids, c.Block.ID)
			}
		}
		if !matched {
			return nil, errors.Wrapf(batch.ErrUnknownBlock, "no block matches %q", pattern)
		}
	}

	return ids, nil
}

// rewrittenParents returns the paragraphs owning the applied sentence
// blocks, in the order the blocks were selected. Only these are folded,
// as folding re-joins the sentence split of the whole paragraph.
func rewrittenParents(blocks []workshop.Block, applied []string) []string {
	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		done[id] = true
	}

	var parents []string
	seen := make(map[string]bool)
	for _, b := range blocks {
		if !done[b.ID] || b.ParentID == "" || seen[b.ParentID] {
			continue
		}
		seen[b.ParentID] = true
		parents = append(parents, b.ParentID)
	}
	return parents
}

func printPrompts(cmd *cobra.Command, blocks []workshop.Block, action workshop.Action, instruction string) error {
	out := cmd.OutOrStdout()
	for _, b := range blocks {
		p, err := workshop.BuildPrompt(action, instruction, b.Content)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\n", colorize(out, b.ID, "white+d"), p); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func promptInstruction(cmd *cobra.Command) (string, error) {
	model := tui.NewStandaloneInputModel(
		prompt.InputParams{
			Label:       "Instruction:",
			PlaceHolder: "Describe the change",
			CharLimit:   500,
		},
		tui.MinimalKeyMap,
		tui.DefaultStyles,
	)

	final, err := newProgram(cmd, model).Run()
	if err != nil {
		return "", errors.WithStack(err)
	}

	value, ok := final.(tui.StandaloneInputModel).Value()
	if !ok {
		return "", errors.New("cancelled")
	}
	return value, nil
}
