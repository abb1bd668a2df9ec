package workshop

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ParagraphDelimiter separates paragraphs in the linear text.
const ParagraphDelimiter = "\n\n"

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// SegmentParagraphs splits text into paragraph blocks on blank lines.
// Pieces are trimmed and empty ones are dropped. Ids are positional.
// Invalid UTF-8 yields an empty list.
func SegmentParagraphs(text string) []Block {
	if !utf8.ValidString(text) {
		return nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	var result []Block
	for _, piece := range strings.Split(text, ParagraphDelimiter) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		result = append(result, Block{
			ID:      paragraphID(len(result)),
			Content: piece,
			Kind:    ParagraphKind,
		})
	}
	return result
}

// SegmentSentences splits a paragraph into sentence blocks on runs of
// ".", "!" and "?". Every sentence but the last is normalised to end
// with a single ".", the last one keeps whatever terminator it had.
//
// This is a punctuation heuristic. Abbreviations, decimals and quoted
// punctuation are split like any other terminator.
func SegmentSentences(parentID, text string) []Block {
	if !utf8.ValidString(text) {
		return nil
	}

	type piece struct {
		text       string
		terminator string
	}

	var pieces []piece
	start := 0
	for _, loc := range sentenceTerminators.FindAllStringIndex(text, -1) {
		pieces = append(pieces, piece{
			text:       strings.TrimSpace(text[start:loc[0]]),
			terminator: text[loc[0]:loc[1]],
		})
		start = loc[1]
	}
	pieces = append(pieces, piece{text: strings.TrimSpace(text[start:])})

	kept := pieces[:0]
	for _, p := range pieces {
		if p.text != "" {
			kept = append(kept, p)
		}
	}

	result := make([]Block, 0, len(kept))
	for i, p := range kept {
		content := p.text + "."
		if i == len(kept)-1 {
			content = p.text + p.terminator
		}
		result = append(result, Block{
			ID:       sentenceID(parentID, i),
			Content:  content,
			Kind:     SentenceKind,
			ParentID: parentID,
		})
	}
	return result
}

// JoinParagraphs is the inverse of SegmentParagraphs for its own output.
func JoinParagraphs(contents []string) string {
	return strings.Join(contents, ParagraphDelimiter)
}
