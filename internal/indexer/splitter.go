package indexer

import (
	"strings"
	"unicode/utf8"
)

// markdownSeparators are tried in order; the first one present in the text is
// used, and pieces still too large recurse with the remaining separators.
var markdownSeparators = []string{
	"\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
	"```\n\n", "\n\n***\n\n", "\n\n---\n\n", "\n\n___\n\n",
	"\n\n", "\n", " ", "",
}

// TextSplitter is a recursive, structure-aware splitter. Lengths are measured
// in characters (runes). Separators are dropped at chunk boundaries and chunks
// are whitespace-trimmed.
type TextSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewMarkdownSplitter returns a splitter using markdown heading, rule, fence,
// paragraph, line, and word boundaries.
func NewMarkdownSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &TextSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   markdownSeparators,
	}
}

// Split returns the chunks of text in original order.
func (s *TextSplitter) Split(text string) []string {
	return s.split(text, s.separators)
}

func (s *TextSplitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitOn(text, separator) {
		if length(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if rest == nil {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge packs small pieces into chunks of at most chunkSize, carrying up to
// chunkOverlap characters of trailing pieces into the next chunk.
func (s *TextSplitter) merge(pieces []string, separator string) []string {
	sepLen := length(separator)
	var (
		chunks  []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := length(p)
		if total+n+len(current)*sepLen > s.chunkSize && len(current) > 0 {
			if doc := join(current, separator); doc != "" {
				chunks = append(chunks, doc)
			}
			for total > s.chunkOverlap || (total+n+len(current)*sepLen > s.chunkSize && total > 0) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := join(current, separator); doc != "" {
		chunks = append(chunks, doc)
	}
	return chunks
}

func splitOn(text, separator string) []string {
	var parts []string
	if separator == "" {
		parts = make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(text, separator)
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func join(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
