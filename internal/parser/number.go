package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/lectern/internal/models"
)

// Catechism paragraphs are numbered 1 through 2865.
const (
	CatechismMinParagraph = 1
	CatechismMaxParagraph = 2865
)

// numberRule describes how paragraph numbers look for one source type.
// A zero max means no upper bound.
type numberRule struct {
	pattern *regexp.Regexp
	min     int
	max     int
}

var (
	fourDigitNumber  = regexp.MustCompile(`^(\d{1,4})\.?\s+(\S.*)$`)
	threeDigitNumber = regexp.MustCompile(`^(\d{1,3})\.?\s+(\S.*)$`)
)

// numberRules has no entry for scripture: verses are addressed by
// book:chapter:verse elsewhere.
var numberRules = map[models.SourceType]numberRule{
	models.SourceCatechism: {pattern: fourDigitNumber, min: CatechismMinParagraph, max: CatechismMaxParagraph},
	models.SourcePatristic: {pattern: threeDigitNumber},
	models.SourceTreatise:  {pattern: threeDigitNumber},
	models.SourceGeneric:   {pattern: threeDigitNumber},
}

// ParagraphNumber is a number found at the start of a line.
type ParagraphNumber struct {
	Number        int
	DisplayNumber string
	Body          string
}

// ExtractNumber reports whether line opens a numbered paragraph for
// sourceType, splitting the number from the body.
func ExtractNumber(line string, sourceType models.SourceType) (ParagraphNumber, bool) {
	rule, ok := numberRules[sourceType]
	if !ok {
		return ParagraphNumber{}, false
	}
	m := rule.pattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return ParagraphNumber{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return ParagraphNumber{}, false
	}
	if n < rule.min || (rule.max > 0 && n > rule.max) {
		return ParagraphNumber{}, false
	}
	return ParagraphNumber{Number: n, DisplayNumber: m[1], Body: strings.TrimSpace(m[2])}, true
}
