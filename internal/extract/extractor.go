// Package extract decodes source document bytes into the text that the chunking
// policy splits. Plain text formats pass through (UTF-8 repaired); office and PDF
// formats are unpacked. Digests are never computed over decoded text.
package extract

import (
	"fmt"
	"strings"
)

type decodeFunc func(content []byte) (string, error)

// Extractor dispatches on file extension.
type Extractor struct {
	decoders map[string]decodeFunc
}

// NewExtractor returns an Extractor with all built-in decoders registered.
// Unregistered extensions decode as UTF-8 text.
func NewExtractor() *Extractor {
	return &Extractor{decoders: map[string]decodeFunc{
		".pdf":  decodePDF,
		".docx": decodeDOCX,
		".pptx": decodePPTX,
		".xlsx": decodeXLSX,
		".odp":  decodeODP,
		".ods":  decodeODS,
		".odt":  decodeWithCat,
		".rtf":  decodeWithCat,
	}}
}

// Decode returns the text of content. ext is the file extension with leading dot,
// compared case-insensitively.
func (e *Extractor) Decode(content []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	dec, ok := e.decoders[ext]
	if !ok {
		return decodeText(content), nil
	}
	text, err := dec(content)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", ext, err)
	}
	return text, nil
}

// Binary reports whether ext has a dedicated (non plain text) decoder.
func (e *Extractor) Binary(ext string) bool {
	_, ok := e.decoders[strings.ToLower(ext)]
	return ok
}
