package workshop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(blocks []Block) []string {
	result := make([]string, 0, len(blocks))
	for _, b := range blocks {
		result = append(result, b.ID)
	}
	return result
}

func TestStore_RoundTrip(t *testing.T) {
	texts := []string{
		"",
		"Single paragraph.",
		"  Padded.  \n\n\n\nSpaced out.\n",
		"One\nstill one\n\nTwo\n\nThree",
	}

	for _, text := range texts {
		first := NewStore(text).Text()
		second := NewStore(first).Text()
		assert.Equal(t, first, second, "not idempotent for %q", text)
	}

	assert.Equal(t, "Padded.\n\nSpaced out.", NewStore(texts[2]).Text())
}

func TestStore_Reorder(t *testing.T) {
	t.Run("MoveUp", func(t *testing.T) {
		s := NewStore("p0\n\np1\n\np2")
		require.True(t, s.Reorder("block-2", "block-0"))
		assert.Equal(t, []string{"block-2", "block-0", "block-1"}, ids(s.Paragraphs()))
		assert.Equal(t, "p2\n\np0\n\np1", s.Text())
	})

	t.Run("MoveDown", func(t *testing.T) {
		s := NewStore("p0\n\np1\n\np2\n\np3")
		require.True(t, s.Reorder("block-0", "block-2"))
		assert.Equal(t, []string{"block-1", "block-2", "block-0", "block-3"}, ids(s.Paragraphs()))
	})

	t.Run("Self", func(t *testing.T) {
		s := NewStore("p0\n\np1\n\np2")
		assert.False(t, s.Reorder("block-1", "block-1"))
		assert.Equal(t, "p0\n\np1\n\np2", s.Text())
	})

	t.Run("AbsentID", func(t *testing.T) {
		s := NewStore("p0\n\np1\n\np2")
		assert.False(t, s.Reorder("block-9", "block-0"))
		assert.False(t, s.Reorder("block-0", "block-9"))
		assert.Equal(t, "p0\n\np1\n\np2", s.Text())
	})

	t.Run("SentencesAreNotReorderable", func(t *testing.T) {
		s := NewStore("One. Two.\n\np1")
		require.True(t, s.Expand("block-0"))
		assert.False(t, s.Reorder("block-0-sentence-1", "block-0-sentence-0"))
		assert.Equal(t, []string{"One.", "Two."}, contents(s.Sentences("block-0")))
	})

	t.Run("IdentityFollowsBlock", func(t *testing.T) {
		s := NewStore("p0\n\np1\n\np2")
		require.True(t, s.Reorder("block-0", "block-2"))
		require.True(t, s.Edit("block-0", "moved"))
		assert.Equal(t, "p1\n\np2\n\nmoved", s.Text())
	})
}

func TestStore_EditParagraph(t *testing.T) {
	s := NewStore("First.\n\nSecond.")
	require.True(t, s.Edit("block-1", "Changed."))
	assert.Equal(t, "First.\n\nChanged.", s.Text())
}

func TestStore_EditUnknown(t *testing.T) {
	s := NewStore("First.\n\nSecond.")
	assert.False(t, s.Edit("block-7", "nope"))
	assert.False(t, s.Edit("block-0-sentence-0", "nope"))
	assert.Equal(t, "First.\n\nSecond.", s.Text())
}

func TestStore_EditSentence(t *testing.T) {
	s := NewStore("One. Two. Three.\n\nOther paragraph.")
	require.True(t, s.Expand("block-0"))
	before := s.Paragraphs()

	require.True(t, s.Edit("block-0-sentence-1", "Deux."))

	assert.Equal(t, []string{"One.", "Deux.", "Three."}, contents(s.Sentences("block-0")))
	assert.Equal(t, before, s.Paragraphs())
	assert.Equal(t, "One. Two. Three.\n\nOther paragraph.", s.Text())
}

func TestStore_EditExpandedParagraphResplits(t *testing.T) {
	s := NewStore("One. Two.")
	require.True(t, s.Expand("block-0"))
	require.True(t, s.Edit("block-0", "Uno! Dos? Tres"))

	sentences := s.Sentences("block-0")
	assert.Equal(t, []string{"Uno.", "Dos.", "Tres"}, contents(sentences))
	assert.Equal(t, []string{"block-0-sentence-0", "block-0-sentence-1", "block-0-sentence-2"}, ids(sentences))
}

func TestStore_ExpandCollapse(t *testing.T) {
	s := NewStore("One. Two.\n\nThree.")

	assert.False(t, s.IsExpanded("block-0"))
	assert.Nil(t, s.Sentences("block-0"))

	expanded, ok := s.Toggle("block-0")
	require.True(t, ok)
	assert.True(t, expanded)
	assert.Equal(t, []string{"block-0"}, s.Expanded())

	expanded, ok = s.Toggle("block-0")
	require.True(t, ok)
	assert.False(t, expanded)
	assert.Empty(t, s.Expanded())
	assert.Nil(t, s.Sentences("block-0"))

	_, ok = s.Toggle("block-5")
	assert.False(t, ok)
	assert.False(t, s.Expand("block-0-sentence-0"))
	assert.False(t, s.Collapse("missing"))
}

func TestStore_ReexpandUsesCurrentContent(t *testing.T) {
	s := NewStore("Old one. Old two.")
	require.True(t, s.Expand("block-0"))
	require.True(t, s.Edit("block-0-sentence-0", "Edited."))
	require.True(t, s.Collapse("block-0"))

	require.True(t, s.Edit("block-0", "New one! New two! New three!"))
	require.True(t, s.Expand("block-0"))

	assert.Equal(t, []string{"New one.", "New two.", "New three!"}, contents(s.Sentences("block-0")))
}

func TestStore_CollapseDropsSentenceCache(t *testing.T) {
	s := NewStore("One. Two.")
	require.True(t, s.Expand("block-0"))
	require.True(t, s.Collapse("block-0"))

	_, ok := s.Lookup("block-0-sentence-0")
	assert.False(t, ok)
	assert.False(t, s.Edit("block-0-sentence-0", "gone"))
}

func TestStore_Lookup(t *testing.T) {
	s := NewStore("One. Two.\n\nThree.")
	require.True(t, s.Expand("block-0"))

	b, ok := s.Lookup("block-1")
	require.True(t, ok)
	assert.Equal(t, Block{ID: "block-1", Content: "Three.", Kind: ParagraphKind}, b)

	b, ok = s.Lookup("block-0-sentence-1")
	require.True(t, ok)
	assert.Equal(t, Block{ID: "block-0-sentence-1", Content: "Two.", Kind: SentenceKind, ParentID: "block-0"}, b)
}

func TestStore_Fold(t *testing.T) {
	s := NewStore("One. Two. Three.\n\nOther.")
	assert.False(t, s.Fold("block-0"))

	require.True(t, s.Expand("block-0"))
	require.True(t, s.Edit("block-0-sentence-1", "Deux!"))
	require.True(t, s.Fold("block-0"))

	assert.Equal(t, "One. Deux! Three.\n\nOther.", s.Text())
	assert.True(t, s.IsExpanded("block-0"))
	assert.Equal(t, []string{"One.", "Deux.", "Three."}, contents(s.Sentences("block-0")))
}
