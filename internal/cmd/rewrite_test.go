package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/workshop/internal/batch"
	"github.com/stateful/workshop/pkg/workshop"
)

const testDocument = "Hello world. How are you?\n\nSecond paragraph is longer than the first one.\n"

func TestMatchBlockIDs(t *testing.T) {
	session := workshop.NewSession("One. Two.\n\nThree.\n\nFour. Five.")
	defer session.Close()

	view := session.Snapshot()

	t.Run("NoPatterns", func(t *testing.T) {
		ids, err := matchBlockIDs(view, batch.LevelParagraph, nil)
		require.NoError(t, err)
		assert.Nil(t, ids)
	})

	t.Run("DocumentOrder", func(t *testing.T) {
		ids, err := matchBlockIDs(view, batch.LevelParagraph, []string{"block-2", "block-*"})
		require.NoError(t, err)
		assert.Equal(t, []string{"block-2", "block-0", "block-1"}, ids)
	})

	t.Run("NoMatch", func(t *testing.T) {
		_, err := matchBlockIDs(view, batch.LevelParagraph, []string{"block-7"})
		assert.True(t, errors.Is(err, batch.ErrUnknownBlock))
	})

	t.Run("Sentences", func(t *testing.T) {
		session.Expand("block-2")
		ids, err := matchBlockIDs(session.Snapshot(), batch.LevelSentence, []string{"block-2-*"})
		require.NoError(t, err)
		assert.Equal(t, []string{"block-2-sentence-0", "block-2-sentence-1"}, ids)
	})
}

func TestIsText(t *testing.T) {
	assert.True(t, isText([]byte("plain words")))
	assert.True(t, isText([]byte("# Heading\n\nSome *markdown*.")))
	assert.True(t, isText(nil))
	assert.False(t, isText([]byte("%PDF-1.4\n1 0 obj\n")))
	assert.False(t, isText([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}))
}

func TestWriteDocument(t *testing.T) {
	name := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(name, []byte("old"), 0o600))

	require.NoError(t, writeDocument(name, "new"))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	info, err := os.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Error(t, writeDocument(stdinName, "x"))
	assert.Error(t, writeDocument("https://example.com/doc.txt", "x"))
}

func TestRewrittenParents(t *testing.T) {
	blocks := []workshop.Block{
		{ID: "block-1-sentence-0", ParentID: "block-1", Kind: workshop.SentenceKind},
		{ID: "block-0-sentence-0", ParentID: "block-0", Kind: workshop.SentenceKind},
		{ID: "block-0-sentence-1", ParentID: "block-0", Kind: workshop.SentenceKind},
		{ID: "block-2-sentence-0", ParentID: "block-2", Kind: workshop.SentenceKind},
		{ID: "block-3", Kind: workshop.ParagraphKind},
	}

	parents := rewrittenParents(blocks, []string{"block-0-sentence-1", "block-1-sentence-0", "block-0-sentence-0", "block-3"})
	assert.Equal(t, []string{"block-1", "block-0"}, parents)

	assert.Empty(t, rewrittenParents(blocks, nil))
}

func runRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := Root()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func newChatServer(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + reply + `"}}]}`))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("WORKSHOP_PROVIDER", "openai")
	t.Setenv("WORKSHOP_BASE_URL", srv.URL)
	t.Setenv("WORKSHOP_API_KEY_ENV", "TEST_WORKSHOP_KEY")
	t.Setenv("TEST_WORKSHOP_KEY", "test-key")

	return srv, &calls
}

func TestRewriteCmd(t *testing.T) {
	t.Run("Stdout", func(t *testing.T) {
		_, calls := newChatServer(t, "Short second.")

		name := filepath.Join(t.TempDir(), "doc.txt")
		require.NoError(t, os.WriteFile(name, []byte(testDocument), 0o644))

		stdout, stderr, err := runRoot(t, "", "rewrite", "-a", "shorten", "-b", "block-1", name)
		require.NoError(t, err)
		assert.Equal(t, "Hello world. How are you?\n\nShort second.\n", stdout)
		assert.Contains(t, stderr, "rewritten 1, skipped 0")
		assert.EqualValues(t, 1, calls.Load())

		data, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, testDocument, string(data))
	})

	t.Run("Write", func(t *testing.T) {
		newChatServer(t, "Hi.")

		name := filepath.Join(t.TempDir(), "doc.txt")
		require.NoError(t, os.WriteFile(name, []byte(testDocument), 0o644))

		stdout, _, err := runRoot(t, "", "rewrite", "-a", "refine", "--level", "sentence", "-b", "block-0-sentence-0", "--write", name)
		require.NoError(t, err)
		assert.Empty(t, stdout)

		data, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, "Hi. How are you?\n\nSecond paragraph is longer than the first one.\n", string(data))
	})

	t.Run("SentenceLeavesOtherParagraphs", func(t *testing.T) {
		newChatServer(t, "Fine.")

		const doc = "Hi! How are you?\n\nPi is 3.14 roughly! Or so.\n"

		name := filepath.Join(t.TempDir(), "doc.txt")
		require.NoError(t, os.WriteFile(name, []byte(doc), 0o644))

		stdout, _, err := runRoot(t, "", "rewrite", "-a", "refine", "--level", "sentence", "-b", "block-0-sentence-1", name)
		require.NoError(t, err)
		assert.Equal(t, "Hi. Fine.\n\nPi is 3.14 roughly! Or so.\n", stdout)

		_, _, err = runRoot(t, "", "rewrite", "-a", "refine", "--level", "sentence", "-b", "block-0-sentence-1", "--write", name)
		require.NoError(t, err)

		data, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, "Hi. Fine.\n\nPi is 3.14 roughly! Or so.\n", string(data))
	})

	t.Run("Stdin", func(t *testing.T) {
		newChatServer(t, "Everything.")

		stdout, _, err := runRoot(t, testDocument, "rewrite", "-a", "other", "-i", "Say everything", "--filter", "index == 0", "-")
		require.NoError(t, err)
		assert.Equal(t, "Everything.\n\nSecond paragraph is longer than the first one.\n", stdout)
	})

	t.Run("MissingKey", func(t *testing.T) {
		t.Setenv("WORKSHOP_API_KEY_ENV", "TEST_WORKSHOP_UNSET_KEY")

		_, _, err := runRoot(t, testDocument, "rewrite", "-a", "shorten", "-")
		assert.ErrorContains(t, err, "TEST_WORKSHOP_UNSET_KEY")
	})
}

func TestFmtCmd(t *testing.T) {
	stdout, _, err := runRoot(t, "  One.  \n\n\n\nTwo.", "fmt", "-")
	require.NoError(t, err)
	assert.Equal(t, "One.\n\nTwo.\n", stdout)

	_, _, err = runRoot(t, "", "fmt", "--write", "-")
	assert.Error(t, err)
}
