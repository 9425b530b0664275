package search

import "testing"

func TestHighlight(t *testing.T) {
	tests := []struct {
		content string
		maxLen  int
		want    string
	}{
		{"short", 10, "short"},
		{"long text here", 4, "long..."},
		{"x", 0, "x"},
		{"日本語のテキスト", 3, "日本語..."},
	}
	for _, tt := range tests {
		if got := Highlight(tt.content, tt.maxLen); got != tt.want {
			t.Errorf("Highlight(%q, %d) = %q, want %q", tt.content, tt.maxLen, got, tt.want)
		}
	}
}
