// Package cli renders retrieval results, index reports and status for people and programs.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/kbase/internal/indexer"
	"github.com/hyperjump/kbase/internal/models"
	"github.com/hyperjump/kbase/internal/search"
	"github.com/hyperjump/kbase/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputMarkdown is the markdown served to MCP clients.
	OutputMarkdown OutputFormat = "markdown"
)

// Disclaimer is appended to every markdown result set.
const Disclaimer = "> **Disclaimer:** The provided results might not all be relevant. Please cross-check the relevance of the information."

// NoResults replaces the result list when nothing passed the threshold.
const NoResults = "_No similar results found._"

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON, OutputMarkdown:
		return f, nil
	case "md":
		return OutputMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json, markdown)", s)
	}
}

// WriteSearchResults writes the response to w in the given format. Unknown formats fall back to text.
func WriteSearchResults(w io.Writer, response *models.RetrieveResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputMarkdown:
		_, err := io.WriteString(w, FormatMarkdown(response.Results)+"\n")
		return err
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

// FormatMarkdown renders results as a "Semantic Search Results" markdown section.
func FormatMarkdown(results []*models.SearchResult) string {
	var b strings.Builder
	b.WriteString("## Semantic Search Results\n\n")
	if len(results) == 0 {
		b.WriteString(NoResults)
	}
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "**Result %d:**\n\n", i+1)
		fmt.Fprintf(&b, "**Score:** %.2f\n\n", r.Score)
		b.WriteString(strings.TrimSpace(r.Chunk.Text))
		b.WriteString("\n\n**Source:**\n```json\n")
		b.WriteString(metadataJSON(r.Chunk.Metadata))
		b.WriteString("\n```")
	}
	b.WriteString("\n\n")
	b.WriteString(Disclaimer)
	return b.String()
}

func metadataJSON(meta map[string]interface{}) string {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func writeSearchResultsText(w io.Writer, response *models.RetrieveResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", result.Rank, result.Score)
		if src := result.Chunk.Source(); src != "" {
			fmt.Fprintf(w, "Source: %s\n", src)
		}
		fmt.Fprintf(w, "\n%s\n\n", search.Highlight(strings.TrimSpace(result.Chunk.Text), 200))
	}
}

// WriteReport writes an index update report.
func WriteReport(w io.Writer, report *indexer.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Knowledge bases: %s\n", strings.Join(report.KnowledgeBases, ", "))
	fmt.Fprintf(w, "Files: %d observed, %d unchanged, %d indexed, %d empty, %d skipped\n",
		report.Observed, report.Unchanged, report.Processed, report.Empty, len(report.Skipped))
	fmt.Fprintf(w, "Chunks added: %d\n", report.ChunksAdded)
	if report.Rebuilt {
		fmt.Fprintln(w, "Index was rebuilt from all documents")
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", s.Path, utils.Truncate(s.Reason, 160))
	}
	fmt.Fprintf(w, "Took %s\n", report.Duration.Round(time.Millisecond))
	return nil
}

// WriteStatus writes the index status.
func WriteStatus(w io.Writer, st *search.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Root:            %s\n", st.Root)
	fmt.Fprintf(w, "Knowledge bases: %d (%s)\n", len(st.KnowledgeBases), strings.Join(st.KnowledgeBases, ", "))
	fmt.Fprintf(w, "Index path:      %s\n", st.IndexPath)
	fmt.Fprintf(w, "Model:           %s\n", st.Model)
	fmt.Fprintf(w, "Ready:           %t\n", st.Ready)
	fmt.Fprintf(w, "Chunks:          %d\n", st.Chunks)
	fmt.Fprintf(w, "Index size:      %s\n", FormatBytes(st.IndexBytes))
	fmt.Fprintf(w, "Ledger size:     %s\n", FormatBytes(st.LedgerBytes))
	return nil
}

// WriteKnowledgeBases writes knowledge base names, one per line or as a JSON array.
func WriteKnowledgeBases(w io.Writer, names []string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, names)
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
