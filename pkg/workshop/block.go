package workshop

import "fmt"

type BlockKind string

const (
	ParagraphKind BlockKind = "paragraph"
	SentenceKind  BlockKind = "sentence"
)

func (k BlockKind) IsValid() bool {
	return k == ParagraphKind || k == SentenceKind
}

// Block is a unit of content in the hierarchy. ParentID is set
// only for sentences and refers to the owning paragraph.
type Block struct {
	ID       string    `json:"id"`
	Content  string    `json:"content"`
	Kind     BlockKind `json:"kind"`
	ParentID string    `json:"parentId,omitempty"`
}

func (b Block) IsParagraph() bool { return b.Kind == ParagraphKind }

func (b Block) IsSentence() bool { return b.Kind == SentenceKind }

func paragraphID(index int) string {
	return fmt.Sprintf("block-%d", index)
}

func sentenceID(parentID string, index int) string {
	return fmt.Sprintf("%s-sentence-%d", parentID, index)
}
