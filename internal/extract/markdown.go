package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles Markdown files using goldmark. Markup is
// dropped; the first level-one heading becomes the title.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, filename string) (*Text, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	src = []byte(normalize(string(src)))

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	out := &Text{Title: titleFromName(filename)}
	titled := false

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 && !titled {
			if t := strings.TrimSpace(inlineText(h, src)); t != "" {
				out.Title = t
				titled = true
			}
		}
		blocks = append(blocks, blockLines(n, src)...)
	}
	out.Body = joinLines(blocks)
	return out, nil
}

// blockLines returns the text lines of a block. Paragraph soft breaks are
// kept as line breaks so the parser sees the original line structure.
func blockLines(n ast.Node, src []byte) []string {
	switch n.Kind() {
	case ast.KindHeading, ast.KindParagraph, ast.KindTextBlock:
		return strings.Split(inlineText(n, src), "\n")
	case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
		var out []string
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			out = append(out, string(seg.Value(src)))
		}
		return out
	case ast.KindThematicBreak:
		return nil
	case ast.KindList:
		if list := n.(*ast.List); list.IsOrdered() {
			return orderedListLines(list, src)
		}
	}
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, blockLines(c, src)...)
	}
	return out
}

// orderedListLines keeps the item numbers of an ordered list, which
// goldmark moves out of the text, so numbered paragraphs survive.
func orderedListLines(list *ast.List, src []byte) []string {
	var out []string
	num := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		lines := blockLines(item, src)
		if len(lines) > 0 {
			lines[0] = fmt.Sprintf("%d%c %s", num, list.Marker, lines[0])
		}
		out = append(out, lines...)
		num++
	}
	return out
}

// inlineText concatenates the text of inline children of n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
