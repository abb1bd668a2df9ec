package workshop

import (
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/ulid"
)

var ErrSessionClosed = errors.New("workshop session closed")

// ContentSink receives the serialized text after every internal mutation.
type ContentSink func(text string)

type SessionOption func(*Session)

func WithContentSink(sink ContentSink) SessionOption {
	return func(s *Session) {
		s.sink = sink
	}
}

func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session keeps a Store consistent with an external text buffer.
//
// Authority goes to whoever wrote last. Text coming from outside
// replaces the store wholesale unless it equals the store's own
// serialization. Mutations made through the session patch the store in
// place and push the new serialization to the sink.
//
// Session is safe for concurrent use. Every mutation runs to completion
// under a single lock.
type Session struct {
	id     string
	logger *zap.Logger
	sink   ContentSink

	mu      sync.Mutex
	store   *Store
	closed  bool
	version uint64

	pushMu     sync.Mutex
	lastPushed uint64
}

func NewSession(text string, opts ...SessionOption) *Session {
	s := &Session{
		id: ulid.GenerateID(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("session", s.id))

	s.store = s.build(text)

	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) build(text string) *Store {
	if !utf8.ValidString(text) {
		s.logger.Warn("malformed text, starting with an empty workshop view", zap.Int("size", len(text)))
	}
	store := NewStore(text)
	s.logger.Debug("built store", zap.Int("paragraphs", store.Len()))
	return store
}

// SetText reconciles the session with text observed outside. The store
// is rebuilt, and all expansion state dropped, only if text differs
// from the current serialization. It reports whether a rebuild happened.
func (s *Session) SetText(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || text == s.store.Text() {
		return false
	}

	s.store = s.build(text)
	s.version++
	return true
}

// Text returns the current serialization of the store.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Text()
}

func (s *Session) Lookup(id string) (Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Lookup(id)
}

// Edit updates the content of a paragraph or a cached sentence.
// Unknown ids are ignored.
func (s *Session) Edit(id, content string) bool {
	return s.mutate(func(store *Store) bool {
		return store.Edit(id, content)
	}, true)
}

func (s *Session) Reorder(movedID, targetID string) bool {
	return s.mutate(func(store *Store) bool {
		return store.Reorder(movedID, targetID)
	}, true)
}

func (s *Session) Fold(paragraphID string) bool {
	return s.mutate(func(store *Store) bool {
		return store.Fold(paragraphID)
	}, true)
}

func (s *Session) Expand(paragraphID string) bool {
	return s.mutate(func(store *Store) bool {
		return store.Expand(paragraphID)
	}, false)
}

func (s *Session) Collapse(paragraphID string) bool {
	return s.mutate(func(store *Store) bool {
		return store.Collapse(paragraphID)
	}, false)
}

// Toggle is the click on a paragraph: collapsed paragraphs are split
// into sentences, expanded ones collapse.
func (s *Session) Toggle(paragraphID string) (expanded, ok bool) {
	s.mutate(func(store *Store) bool {
		expanded, ok = store.Toggle(paragraphID)
		return ok
	}, false)
	return expanded, ok
}

// Close tears the session down. Later mutations, including rewrite
// results still in flight, are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// applyRewrite stores a rewrite result, provided the target still holds
// the content the rewrite was computed from.
func (s *Session) applyRewrite(id, source, result string) (bool, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false, ErrSessionClosed
	}

	return s.mutate(func(store *Store) bool {
		b, ok := store.Lookup(id)
		if !ok {
			s.logger.Debug("rewrite target is gone", zap.String("block", id))
			return false
		}
		if b.Content != source {
			s.logger.Info("discarding stale rewrite", zap.String("block", id))
			return false
		}
		return store.Edit(id, result)
	}, true), nil
}

func (s *Session) mutate(fn func(*Store) bool, push bool) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	var before string
	if push {
		before = s.store.Text()
	}
	changed := fn(s.store)
	if !changed || !push {
		s.mu.Unlock()
		return changed
	}
	text := s.store.Text()
	if text == before {
		// Sentence edits live in the cache until folded.
		s.mu.Unlock()
		return true
	}
	s.version++
	version := s.version
	s.mu.Unlock()

	s.push(version, text)
	return true
}

// push delivers text to the sink outside of the state lock, so the sink
// may call back into the session. Only the latest version is delivered.
func (s *Session) push(version uint64, text string) {
	if s.sink == nil {
		return
	}

	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	s.mu.Lock()
	current := s.version
	s.mu.Unlock()

	if version <= s.lastPushed || version != current {
		return
	}
	s.lastPushed = version
	s.sink(text)
}

type View struct {
	SessionID  string
	Paragraphs []ParagraphView
}

type ParagraphView struct {
	Block
	Expanded  bool
	Sentences []Block
}

// Snapshot returns a render-ready copy of the hierarchy.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{SessionID: s.id}
	for _, p := range s.store.Paragraphs() {
		view.Paragraphs = append(view.Paragraphs, ParagraphView{
			Block:     p,
			Expanded:  s.store.IsExpanded(p.ID),
			Sentences: s.store.Sentences(p.ID),
		})
	}
	return view
}
