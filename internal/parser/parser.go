package parser

import (
	"strconv"
	"strings"

	"github.com/starford/lectern/internal/models"
)

// Counts summarises a parse.
type Counts struct {
	Total      int `json:"total"`
	Structural int `json:"structural"`
	Citable    int `json:"citable"`
}

// Result holds the output of parsing a document. Nodes carry no ids; ids
// are assigned by Canonicalize.
type Result struct {
	Nodes  []models.Node
	Counts Counts
}

type state int

const (
	scanning state = iota
	accumulating
)

// synthesizesNumbers reports whether unnumbered text opens a paragraph with
// a generated number. For other source types such text is dropped when no
// paragraph is open.
func synthesizesNumbers(st models.SourceType) bool {
	return st == models.SourcePatristic || st == models.SourceGeneric
}

// machine is the line-oriented parser state.
type machine struct {
	sourceType models.SourceType
	state      state
	open       *models.CitableNode
	body       strings.Builder
	lastNumber int
	out        Result
}

// Parse classifies rawText line by line. It is pure: the same input always
// yields the same nodes.
func Parse(rawText string, sourceType models.SourceType) Result {
	m := &machine{sourceType: sourceType}
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, frag := range SplitCompound(line) {
			m.step(frag)
		}
	}
	m.flush()
	if m.out.Nodes == nil {
		m.out.Nodes = []models.Node{}
	}
	return m.out
}

func (m *machine) step(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}

	if level, content, ok := Classify(fragment); ok {
		m.flush()
		m.emit(&models.StructuralNode{Content: content, Level: level})
		return
	}

	if pn, ok := ExtractNumber(fragment, m.sourceType); ok {
		m.flush()
		m.openParagraph(pn.Number, pn.DisplayNumber, pn.Body)
		return
	}

	if m.state == accumulating {
		if m.body.Len() > 0 {
			m.body.WriteByte(' ')
		}
		m.body.WriteString(fragment)
		return
	}

	if synthesizesNumbers(m.sourceType) {
		n := m.lastNumber + 1
		m.openParagraph(n, strconv.Itoa(n), fragment)
	}
}

func (m *machine) openParagraph(number int, display, body string) {
	m.open = &models.CitableNode{Number: number, DisplayNumber: display}
	m.body.Reset()
	m.body.WriteString(body)
	m.lastNumber = number
	m.state = accumulating
}

// flush emits the open paragraph, if any, and returns to scanning.
func (m *machine) flush() {
	if m.state != accumulating {
		return
	}
	m.open.Content = m.body.String()
	m.emit(m.open)
	m.open = nil
	m.body.Reset()
	m.state = scanning
}

func (m *machine) emit(n models.Node) {
	m.out.Nodes = append(m.out.Nodes, n)
	m.out.Counts.Total++
	switch n.(type) {
	case *models.StructuralNode:
		m.out.Counts.Structural++
	case *models.CitableNode:
		m.out.Counts.Citable++
	}
}

// CountNodes recomputes the summary counts for nodes.
func CountNodes(nodes []models.Node) Counts {
	var c Counts
	for _, n := range nodes {
		c.Total++
		switch n.(type) {
		case *models.StructuralNode:
			c.Structural++
		case *models.CitableNode:
			c.Citable++
		}
	}
	return c
}
