package extract

import (
	"io"
)

// TextExtractor handles plain text files. The content is kept as is apart
// from encoding cleanup.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) (*Text, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Text{Title: titleFromName(filename), Body: normalize(string(src))}, nil
}
