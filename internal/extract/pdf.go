package extract

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

var (
	// standalonePageNumber matches lines holding only a page number.
	standalonePageNumber = regexp.MustCompile(`^\s*\d+\s*$`)
	// hyphenatedLineEnd matches a word broken across lines.
	hyphenatedLineEnd = regexp.MustCompile(`\p{L}-$`)
)

// PDFExtractor handles PDF files. Text is read page by page; page-number
// lines are dropped and hyphenated line breaks rejoined.
type PDFExtractor struct{}

func (e *PDFExtractor) Extract(r io.Reader, filename string) (*Text, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader, err := pdflib.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("extract: open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("extract: pdf %s has no extractable text", filename)
	}

	lines := strings.Split(normalize(strings.Join(pages, "\n")), "\n")
	return &Text{Title: titleFromName(filename), Body: strings.Join(CleanPDFLines(lines), "\n")}, nil
}

// CleanPDFLines removes page-number lines and rejoins words hyphenated
// across line breaks.
func CleanPDFLines(lines []string) []string {
	var out []string
	for _, line := range lines {
		if standalonePageNumber.MatchString(line) {
			continue
		}
		if n := len(out); n > 0 && hyphenatedLineEnd.MatchString(out[n-1]) {
			next := strings.TrimLeft(line, " \t")
			if next != "" && !strings.ContainsAny(next[:1], "0123456789") {
				out[n-1] = strings.TrimSuffix(out[n-1], "-") + next
				continue
			}
		}
		out = append(out, line)
	}
	return out
}
