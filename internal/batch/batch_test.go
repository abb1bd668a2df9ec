package batch

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/stateful/workshop/internal/config"
	"github.com/stateful/workshop/pkg/workshop"
)

const document = "Short one.\n\nThis paragraph has a few more words. It also has two sentences.\n\nPlease fail here."

type upperGenerator struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (g *upperGenerator) Generate(_ context.Context, prompt string) (string, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		cur := g.maxInFlight.Load()
		if n <= cur || g.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	_, content, _ := strings.Cut(prompt, ": ")
	content = strings.Trim(content, `"`)
	if strings.Contains(content, "fail") {
		return "", errors.New("service unavailable")
	}
	return strings.ToUpper(content), nil
}

func newFilter(t *testing.T, typ, condition string) *config.Filter {
	t.Helper()
	return &config.Filter{Type: typ, Condition: condition}
}

func TestSelect(t *testing.T) {
	session := workshop.NewSession(document)
	view := session.Snapshot()

	t.Run("All", func(t *testing.T) {
		blocks, err := Select(view, LevelParagraph, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"block-0", "block-1", "block-2"}, ids(blocks))
	})

	t.Run("ByID", func(t *testing.T) {
		blocks, err := Select(view, LevelParagraph, []string{"block-2", "block-0"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"block-2", "block-0"}, ids(blocks))
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, err := Select(view, LevelParagraph, []string{"block-9"}, nil)
		assert.True(t, errors.Is(err, ErrUnknownBlock))
	})

	t.Run("BlockFilter", func(t *testing.T) {
		blocks, err := Select(view, LevelParagraph, nil, []*config.Filter{
			newFilter(t, config.FilterTypeBlock, "sentences > 1"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"block-1"}, ids(blocks))
	})

	t.Run("DocumentFilter", func(t *testing.T) {
		blocks, err := Select(view, LevelParagraph, nil, []*config.Filter{
			newFilter(t, config.FilterTypeDocument, "paragraphs > 5"),
		})
		require.NoError(t, err)
		assert.Empty(t, blocks)
	})

	t.Run("FilterError", func(t *testing.T) {
		_, err := Select(view, LevelParagraph, nil, []*config.Filter{
			newFilter(t, config.FilterTypeBlock, "nope > 1"),
		})
		assert.Error(t, err)
	})

	t.Run("Sentences", func(t *testing.T) {
		require.True(t, session.Expand("block-1"))
		blocks, err := Select(session.Snapshot(), LevelSentence, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"block-1-sentence-0", "block-1-sentence-1"}, ids(blocks))
	})
}

func TestRun(t *testing.T) {
	var (
		mu     sync.Mutex
		pushes []string
	)
	session := workshop.NewSession(document, workshop.WithContentSink(func(text string) {
		mu.Lock()
		defer mu.Unlock()
		pushes = append(pushes, text)
	}))
	gen := &upperGenerator{}
	dispatcher := workshop.NewDispatcher(session, gen, nil)

	blocks, err := Select(session.Snapshot(), LevelParagraph, nil, nil)
	require.NoError(t, err)

	result, err := Run(context.Background(), dispatcher, blocks, workshop.ActionReword, "", 2, nil)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "block-2")

	assert.Equal(t, []string{"block-0", "block-1"}, result.Applied)
	assert.Empty(t, result.Skipped)
	assert.LessOrEqual(t, gen.maxInFlight.Load(), int32(2))

	expected := "SHORT ONE.\n\nTHIS PARAGRAPH HAS A FEW MORE WORDS. IT ALSO HAS TWO SENTENCES.\n\nPlease fail here."
	assert.Equal(t, expected, session.Text())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, pushes)
	assert.Equal(t, expected, pushes[len(pushes)-1])

	// No block stays busy after the batch.
	assert.Empty(t, dispatcher.Busy())
}

func TestRun_SkipsVanishedBlocks(t *testing.T) {
	session := workshop.NewSession("One.\n\nTwo.")
	dispatcher := workshop.NewDispatcher(session, &upperGenerator{}, nil)

	blocks := []workshop.Block{{ID: "block-7", Kind: workshop.ParagraphKind}}
	result, err := Run(context.Background(), dispatcher, blocks, workshop.ActionShorten, "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"block-7"}, result.Skipped)
}

func ids(blocks []workshop.Block) []string {
	result := make([]string, 0, len(blocks))
	for _, b := range blocks {
		result = append(result, b.ID)
	}
	return result
}
