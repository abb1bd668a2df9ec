package config

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewLoader(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewLoader("", "yaml", fstest.MapFS{})
	}, "config name is not set")
}

func TestLoader_RootConfig(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		loader := NewLoader("workshop", "yaml", fstest.MapFS{}, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.ErrorIs(t, err, ErrRootConfigNotFound)
		require.Nil(t, result)
	})

	t.Run("with root config", func(t *testing.T) {
		t.Parallel()

		data := []byte("version: v1alpha1\n")
		fsys := fstest.MapFS{
			"workshop.yaml": {Data: data},
		}
		loader := NewLoader("workshop", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.NoError(t, err)
		require.Equal(t, data, result)
	})
}

func TestLoader_FindConfigChain(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		loader := NewLoader("workshop", "yaml", fstest.MapFS{}, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.FindConfigChain("")
		require.NoError(t, err)
		require.Nil(t, result)
	})

	fsys := fstest.MapFS{
		"workshop.yaml":             {Data: []byte("path:workshop.yaml")},
		"essays/workshop.yaml":      {Data: []byte("path:essays/workshop.yaml")},
		"essays/2024/workshop.yaml": {Data: []byte("path:essays/2024/workshop.yaml")},
		"essays/2024/draft.txt":     {Data: []byte("Hello.")},
		"notes/workshop.yaml":       {Data: []byte("path:notes/workshop.yaml")},
		"plain/draft.txt":           {Data: []byte("Hello.")},
	}
	loader := NewLoader("workshop", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))

	t.Run("root config", func(t *testing.T) {
		result, err := loader.FindConfigChain("")
		require.NoError(t, err)
		require.Equal(t, [][]byte{[]byte("path:workshop.yaml")}, result)
	})

	t.Run("nested config for a document", func(t *testing.T) {
		result, err := loader.FindConfigChain("essays/2024/draft.txt")
		require.NoError(t, err)
		require.Equal(
			t,
			[][]byte{
				[]byte("path:workshop.yaml"),
				[]byte("path:essays/workshop.yaml"),
				[]byte("path:essays/2024/workshop.yaml"),
			},
			result,
		)
	})

	t.Run("directory without nested config", func(t *testing.T) {
		result, err := loader.FindConfigChain("plain")
		require.NoError(t, err)
		require.Equal(t, [][]byte{[]byte("path:workshop.yaml")}, result)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := loader.FindConfigChain("missing/draft.txt")
		require.Error(t, err)
	})
}
