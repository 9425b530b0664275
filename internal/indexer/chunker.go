package indexer

import (
	"path/filepath"
	"strings"

	"github.com/hyperjump/kbase/internal/models"
)

// Chunking defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultMarkdownExtensions are split with the markdown splitter; everything
// else becomes a single chunk.
var DefaultMarkdownExtensions = []string{".md", ".markdown"}

// Chunker is the chunking policy, dispatched on file extension.
type Chunker struct {
	splitter     *TextSplitter
	markdownExts []string
}

// NewChunker creates a chunker with the given size and overlap (in characters).
// A nil markdownExts uses DefaultMarkdownExtensions.
func NewChunker(chunkSize, chunkOverlap int, markdownExts []string) *Chunker {
	if markdownExts == nil {
		markdownExts = DefaultMarkdownExtensions
	}
	return &Chunker{
		splitter:     NewMarkdownSplitter(chunkSize, chunkOverlap),
		markdownExts: markdownExts,
	}
}

// Chunk splits content from sourcePath. Empty content yields no chunks, and so
// does whitespace-only markdown. Other files are kept verbatim as one chunk.
func (c *Chunker) Chunk(content, sourcePath string) []*models.Chunk {
	if content == "" {
		return nil
	}
	if !extensionAllowed(filepath.Ext(sourcePath), c.markdownExts) {
		return []*models.Chunk{{
			Text:     content,
			Metadata: map[string]interface{}{models.MetaSource: sourcePath},
		}}
	}

	if strings.TrimSpace(content) == "" {
		return nil
	}
	pieces := c.splitter.Split(content)
	chunks := make([]*models.Chunk, 0, len(pieces))
	searchFrom := 0
	line := 1
	for _, piece := range pieces {
		from := line
		if at := strings.Index(content[searchFrom:], piece); at >= 0 {
			at += searchFrom
			from = 1 + strings.Count(content[:at], "\n")
			searchFrom = at + 1
		}
		to := from + strings.Count(piece, "\n")
		line = to
		chunks = append(chunks, &models.Chunk{
			Text: piece,
			Metadata: map[string]interface{}{
				models.MetaSource: sourcePath,
				models.MetaLoc: map[string]interface{}{
					"lines": map[string]interface{}{"from": from, "to": to},
				},
			},
		})
	}
	return chunks
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
