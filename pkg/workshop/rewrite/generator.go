// Package rewrite holds the text generation backends that produce
// replacement content for workshop blocks.
package rewrite

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultTimeout     = 90 * time.Second
)

var (
	ErrMissingAPIKey = errors.New("api key is required")
	ErrEmptyResult   = errors.New("generator returned no text")
)

// Generator turns a prompt into replacement text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration

	// CacheSize enables memoization of results by prompt when positive.
	CacheSize int

	// Trace receives dumps of HTTP requests and responses when set.
	// Only the OpenAI backend honors it.
	Trace io.Writer
}

// NewGenerator creates a generator for the configured provider.
// Gemini is used when no provider is set.
func NewGenerator(ctx context.Context, opts Options, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.WithStack(ErrMissingAPIKey)
	}

	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderGemini
	}

	var (
		gen Generator
		err error
	)

	switch provider {
	case ProviderGemini:
		gen, err = NewGemini(ctx, opts.APIKey, opts.Model)
	case ProviderOpenAI:
		gen = NewOpenAI(opts)
	default:
		return nil, errors.Errorf("unsupported rewrite provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("created rewrite generator", zap.String("provider", provider), zap.Int("cacheSize", opts.CacheSize))

	if opts.CacheSize > 0 {
		gen = NewCached(gen, opts.CacheSize)
	}
	return gen, nil
}

// cleanOutput strips the wrapping that models tend to add around
// a plain-text answer: code fences and a single pair of quotes.
func cleanOutput(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if i := strings.IndexByte(text, '\n'); i >= 0 && !strings.ContainsAny(text[:i], " \t") {
			// Drop the info string, like "markdown" or "text".
			text = text[i+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		inner := text[1 : len(text)-1]
		if !strings.Contains(inner, `"`) {
			text = strings.TrimSpace(inner)
		}
	}

	return text
}
