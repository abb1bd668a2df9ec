package workshop

import "strings"

// Store is the hierarchical state of a document in the workshop view.
//
// Blocks live in an arena keyed by id. Structure is kept separately as
// ordered id lists: one for the top-level paragraphs and one per
// expanded paragraph for its sentences. Blocks never point at each
// other, so moving or dropping a list never leaves dangling children.
type Store struct {
	arena     map[string]*Block
	order     []string
	sentences map[string][]string
}

// NewStore segments text into paragraphs. Nothing is expanded.
func NewStore(text string) *Store {
	s := &Store{
		arena:     make(map[string]*Block),
		sentences: make(map[string][]string),
	}
	for _, b := range SegmentParagraphs(text) {
		b := b
		s.arena[b.ID] = &b
		s.order = append(s.order, b.ID)
	}
	return s
}

// Text serializes the top-level paragraphs back into linear text.
func (s *Store) Text() string {
	contents := make([]string, 0, len(s.order))
	for _, id := range s.order {
		contents = append(contents, s.arena[id].Content)
	}
	return JoinParagraphs(contents)
}

func (s *Store) Len() int { return len(s.order) }

func (s *Store) Paragraphs() []Block {
	result := make([]Block, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, *s.arena[id])
	}
	return result
}

// Sentences returns the sentence blocks of an expanded paragraph.
// It returns nil for collapsed or unknown paragraphs.
func (s *Store) Sentences(paragraphID string) []Block {
	ids, ok := s.sentences[paragraphID]
	if !ok {
		return nil
	}
	result := make([]Block, 0, len(ids))
	for _, id := range ids {
		result = append(result, *s.arena[id])
	}
	return result
}

func (s *Store) IsExpanded(paragraphID string) bool {
	_, ok := s.sentences[paragraphID]
	return ok
}

// Expanded returns ids of expanded paragraphs in document order.
func (s *Store) Expanded() []string {
	var result []string
	for _, id := range s.order {
		if s.IsExpanded(id) {
			result = append(result, id)
		}
	}
	return result
}

// Lookup resolves id against the top-level list first and then against
// every cached sentence list.
func (s *Store) Lookup(id string) (Block, bool) {
	if b := s.resolve(id); b != nil {
		return *b, true
	}
	return Block{}, false
}

func (s *Store) resolve(id string) *Block {
	if s.indexOf(id) >= 0 {
		return s.arena[id]
	}
	for _, parentID := range s.order {
		for _, sid := range s.sentences[parentID] {
			if sid == id {
				return s.arena[sid]
			}
		}
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, pid := range s.order {
		if pid == id {
			return i
		}
	}
	return -1
}

// Edit replaces the content of the block with the given id. Editing an
// expanded paragraph re-derives its sentences from the new content.
// It reports false, leaving the store untouched, if id is unknown.
func (s *Store) Edit(id, content string) bool {
	b := s.resolve(id)
	if b == nil {
		return false
	}
	b.Content = content
	if b.IsParagraph() && s.IsExpanded(id) {
		s.split(id)
	}
	return true
}

// Expand derives a fresh sentence list for the paragraph. Expanding an
// already expanded paragraph is a no-op.
func (s *Store) Expand(paragraphID string) bool {
	if s.indexOf(paragraphID) < 0 {
		return false
	}
	if !s.IsExpanded(paragraphID) {
		s.split(paragraphID)
	}
	return true
}

// Collapse drops the cached sentences of the paragraph.
func (s *Store) Collapse(paragraphID string) bool {
	if s.indexOf(paragraphID) < 0 {
		return false
	}
	s.dropSentences(paragraphID)
	return true
}

// Toggle expands a collapsed paragraph or collapses an expanded one.
// The returned expanded state is meaningful only when ok is true.
func (s *Store) Toggle(paragraphID string) (expanded, ok bool) {
	if s.indexOf(paragraphID) < 0 {
		return false, false
	}
	if s.IsExpanded(paragraphID) {
		s.dropSentences(paragraphID)
		return false, true
	}
	s.split(paragraphID)
	return true, true
}

// Fold writes the sentences of an expanded paragraph back into the
// paragraph, joined by single spaces, and splits it again.
func (s *Store) Fold(paragraphID string) bool {
	ids, ok := s.sentences[paragraphID]
	if !ok {
		return false
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if c := strings.TrimSpace(s.arena[id].Content); c != "" {
			parts = append(parts, c)
		}
	}
	s.arena[paragraphID].Content = strings.Join(parts, " ")
	s.split(paragraphID)
	return true
}

// Reorder moves a top-level block to the position held by target,
// shifting the blocks in between by one. Blocks keep their ids.
func (s *Store) Reorder(movedID, targetID string) bool {
	if movedID == targetID {
		return false
	}
	from, to := s.indexOf(movedID), s.indexOf(targetID)
	if from < 0 || to < 0 {
		return false
	}
	s.order = moveItem(s.order, from, to)
	return true
}

func (s *Store) split(paragraphID string) {
	s.dropSentences(paragraphID)

	sentences := SegmentSentences(paragraphID, s.arena[paragraphID].Content)
	ids := make([]string, 0, len(sentences))
	for _, b := range sentences {
		b := b
		s.arena[b.ID] = &b
		ids = append(ids, b.ID)
	}
	s.sentences[paragraphID] = ids
}

func (s *Store) dropSentences(paragraphID string) {
	for _, id := range s.sentences[paragraphID] {
		delete(s.arena, id)
	}
	delete(s.sentences, paragraphID)
}

func moveItem(items []string, from, to int) []string {
	item := items[from]
	result := make([]string, 0, len(items))
	result = append(result, items[:from]...)
	result = append(result, items[from+1:]...)
	result = append(result[:to], append([]string{item}, result[to:]...)...)
	return result
}
