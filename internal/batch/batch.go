// Package batch applies a rewrite action to many blocks of a workshop
// session at once.
package batch

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/workshop/internal/config"
	"github.com/stateful/workshop/pkg/workshop"
)

type Level string

const (
	LevelParagraph Level = "paragraph"
	LevelSentence  Level = "sentence"
)

var ErrUnknownBlock = errors.New("unknown block")

// Candidate is a block together with the facts filters are evaluated on.
type Candidate struct {
	Block     workshop.Block
	Index     int
	Sentences int
	Expanded  bool
}

func (c Candidate) env() config.FilterBlockEnv {
	return config.FilterBlockEnv{
		ID:        c.Block.ID,
		Index:     c.Index,
		Kind:      string(c.Block.Kind),
		Content:   c.Block.Content,
		Words:     len(strings.Fields(c.Block.Content)),
		Sentences: c.Sentences,
		Expanded:  c.Expanded,
	}
}

// Candidates lists the blocks of view at the given level in document
// order. Sentences are listed only for expanded paragraphs.
func Candidates(view workshop.View, level Level) []Candidate {
	var result []Candidate
	for i, p := range view.Paragraphs {
		if level == LevelSentence {
			for j, s := range p.Sentences {
				result = append(result, Candidate{Block: s, Index: j, Sentences: 1, Expanded: p.Expanded})
			}
			continue
		}
		result = append(result, Candidate{
			Block:     p.Block,
			Index:     i,
			Sentences: len(workshop.SegmentSentences(p.ID, p.Content)),
			Expanded:  p.Expanded,
		})
	}
	return result
}

// DocumentEnv describes the whole view for document filters.
func DocumentEnv(view workshop.View) config.FilterDocumentEnv {
	env := config.FilterDocumentEnv{Paragraphs: len(view.Paragraphs)}
	for _, p := range view.Paragraphs {
		env.Words += len(strings.Fields(p.Content))
		env.Characters += len([]rune(p.Content))
	}
	return env
}

// Select narrows candidates to the requested ids, when any are given,
// and to those satisfying all filters.
func Select(view workshop.View, level Level, ids []string, filters []*config.Filter) ([]workshop.Block, error) {
	docEnv := DocumentEnv(view)
	for _, f := range filters {
		if f.Type != config.FilterTypeDocument {
			continue
		}
		ok, err := f.Evaluate(docEnv)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}

	candidates := Candidates(view, level)

	if len(ids) > 0 {
		byID := make(map[string]Candidate, len(candidates))
		for _, c := range candidates {
			byID[c.Block.ID] = c
		}

		var picked []Candidate
		for _, id := range ids {
			c, ok := byID[id]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownBlock, "%q", id)
			}
			picked = append(picked, c)
		}
		candidates = picked
	}

	var result []workshop.Block

outer:
	for _, c := range candidates {
		for _, f := range filters {
			if f.Type != config.FilterTypeBlock {
				continue
			}
			ok, err := f.Evaluate(c.env())
			if err != nil {
				return nil, err
			}
			if !ok {
				continue outer
			}
		}
		result = append(result, c.Block)
	}

	return result, nil
}

type Result struct {
	Applied []string
	Skipped []string
}

// Run dispatches action for every block with at most concurrency
// rewrites in flight. Every block is attempted; failures are combined
// into the returned error.
func Run(
	ctx context.Context,
	dispatcher *workshop.Dispatcher,
	blocks []workshop.Block,
	action workshop.Action,
	custom string,
	concurrency int,
	logger *zap.Logger,
) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}

	type outcome struct {
		applied bool
		err     error
	}

	outcomes := make([]outcome, len(blocks))

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, block := range blocks {
		i, block := i, block
		g.Go(func() error {
			applied, err := dispatcher.Dispatch(ctx, block.ID, action, custom)
			outcomes[i] = outcome{applied: applied, err: err}
			return nil
		})
	}

	_ = g.Wait()

	var (
		result Result
		errs   error
	)
	for i, o := range outcomes {
		id := blocks[i].ID
		switch {
		case o.err != nil:
			errs = multierr.Append(errs, errors.Wrapf(o.err, "block %s", id))
		case o.applied:
			result.Applied = append(result.Applied, id)
		default:
			result.Skipped = append(result.Skipped, id)
		}
	}

	logger.Info(
		"batch rewrite finished",
		zap.String("action", string(action)),
		zap.Int("applied", len(result.Applied)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(multierr.Errors(errs))),
	)

	return result, errs
}
