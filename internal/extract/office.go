package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

const (
	docxDefaultPart  = "word/document.xml"
	docxContentTypes = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	pptxSlidePrefix  = "ppt/slides/slide"
	odfContentPart   = "content.xml"
)

var (
	wordText  = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	slideText = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	odfPara   = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odfSpan   = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odfHead   = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)

	// The main document part may be declared with attributes in either order.
	docxOverride = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"[^>]+PartName="([^"]+)"`),
	}
)

func openZip(content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a zip: %w", err)
	}
	return zr, nil
}

// readPart returns the bytes of the named zip entry, or nil when absent.
func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// collect appends the first capture group of every match, space separated.
func collect(b *strings.Builder, xml string, patterns ...*regexp.Regexp) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(xml, -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(m[1]))
		}
	}
}

func docxMainPart(zr *zip.Reader) string {
	types, err := readPart(zr, docxContentTypes)
	if err != nil || types == nil {
		return docxDefaultPart
	}
	for _, re := range docxOverride {
		if m := re.FindSubmatch(types); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultPart
}

func decodeDOCX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	part := docxMainPart(zr)
	xml, err := readPart(zr, part)
	if err != nil {
		return "", err
	}
	if xml == nil {
		return "", fmt.Errorf("%s not found", part)
	}
	var b strings.Builder
	collect(&b, string(xml), wordText)
	return strings.TrimSpace(b.String()), nil
}

func decodePPTX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	var slides []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, pptxSlidePrefix) && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f.Name)
		}
	}
	sort.Strings(slides)
	var b strings.Builder
	for _, name := range slides {
		xml, err := readPart(zr, name)
		if err != nil {
			return "", err
		}
		collect(&b, string(xml), slideText)
	}
	return strings.TrimSpace(b.String()), nil
}

func decodeODF(content []byte, patterns ...*regexp.Regexp) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	xml, err := readPart(zr, odfContentPart)
	if err != nil {
		return "", err
	}
	if xml == nil {
		return "", fmt.Errorf("%s not found", odfContentPart)
	}
	var b strings.Builder
	collect(&b, string(xml), patterns...)
	return strings.TrimSpace(b.String()), nil
}

func decodeODP(content []byte) (string, error) {
	return decodeODF(content, odfPara, odfSpan, odfHead)
}

func decodeODS(content []byte) (string, error) {
	return decodeODF(content, odfPara, odfSpan)
}
