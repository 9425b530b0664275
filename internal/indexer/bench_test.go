package indexer

import (
	"strings"
	"testing"
)

func BenchmarkChunker_Markdown(b *testing.B) {
	section := "## Section\n\nLorem ipsum dolor sit amet, consectetur adipiscing elit. " +
		"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.\n\n"
	content := "# Handbook\n\n" + strings.Repeat(section, 200)
	c := NewChunker(DefaultChunkSize, DefaultChunkOverlap, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Chunk(content, "/kb/handbook.md")
	}
}
