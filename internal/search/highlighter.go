package search

import "unicode/utf8"

// Highlight truncates content to maxLen characters, appending "..." when cut.
func Highlight(content string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(content) <= maxLen {
		return content
	}
	return string([]rune(content)[:maxLen]) + "..."
}
