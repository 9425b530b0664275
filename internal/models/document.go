// Package models defines core data structures for chunks, queries, and search results.
package models

// Metadata keys attached to every chunk.
const (
	// MetaSource is the absolute path of the document a chunk came from.
	MetaSource = "source"
	// MetaLoc holds the 1-based line range of a markdown chunk: {"lines": {"from": n, "to": m}}.
	MetaLoc = "loc"
)

// Chunk is the unit of text that is embedded and stored in the vector index.
type Chunk struct {
	Text     string                 `json:"pageContent"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Source returns the source path recorded in the chunk metadata, or "".
func (c *Chunk) Source() string {
	if c.Metadata == nil {
		return ""
	}
	s, _ := c.Metadata[MetaSource].(string)
	return s
}
