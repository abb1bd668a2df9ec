package rewrite

import (
	"context"

	"github.com/stateful/workshop/internal/lru"
)

type cachedResult struct {
	prompt string
	text   string
}

func (r cachedResult) Identifier() string { return r.prompt }

// Cached memoizes successful results of another generator by prompt.
// Failures are not cached.
type Cached struct {
	next  Generator
	cache *lru.Cache[cachedResult]
}

func NewCached(next Generator, size int) *Cached {
	return &Cached{
		next:  next,
		cache: lru.NewCache[cachedResult](size),
	}
}

func (c *Cached) Generate(ctx context.Context, prompt string) (string, error) {
	if r, ok := c.cache.GetByID(prompt); ok {
		return r.text, nil
	}

	text, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.cache.Add(cachedResult{prompt: prompt, text: text})
	return text, nil
}
