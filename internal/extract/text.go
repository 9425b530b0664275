package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/lu4p/cat"
)

// decodeText returns content verbatim, replacing invalid UTF-8 sequences.
func decodeText(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), "\ufffd")
}

// decodeWithCat handles ODT and RTF.
func decodeWithCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
