// Package parser turns plain document text into structural and citable nodes.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/lectern/internal/models"
)

const (
	ordinalWords = `ONE|TWO|THREE|FOUR|FIVE|SIX|SEVEN|EIGHT|NINE|TEN|FIRST|SECOND|THIRD|FOURTH|FIFTH|SIXTH|SEVENTH|EIGHTH|NINTH|TENTH`
	romanNumeral = `[IVXLCDM]+`
)

// structuralRule tags lines matching pattern with level.
type structuralRule struct {
	name    string
	pattern *regexp.Regexp
	level   models.Level
}

// structuralRules is evaluated in order; the first match wins, so more
// specific rules come first and the all-caps fallback comes last.
var structuralRules = []structuralRule{
	{"in-brief", regexp.MustCompile(`^IN BRIEF$`), models.LevelBrief},
	{"part", regexp.MustCompile(`^PART\s+(?:` + ordinalWords + `|` + romanNumeral + `)\b`), models.LevelPart},
	{"book", regexp.MustCompile(`^BOOK\s+(?:` + ordinalWords + `|` + romanNumeral + `)\b`), models.LevelBook},
	{"article", regexp.MustCompile(`^ARTICLE\s+\d+\b`), models.LevelArticle},
	{"section", regexp.MustCompile(`^SECTION\s+(?:` + ordinalWords + `|\d+)\b`), models.LevelSection},
	{"chapter", regexp.MustCompile(`^(?:Chapter\s+` + romanNumeral + `|CHAPTER\s+(?:\d+|` + romanNumeral + `))\b`), models.LevelChapter},
	{"roman", regexp.MustCompile(`^` + romanNumeral + `\.\s+\S`), models.LevelRoman},
	{"preface", regexp.MustCompile(`^(?:PREFACE|GREETING|INTRODUCTION|PROLOGUE|EPILOGUE)$`), models.LevelPreface},
	// All-caps heading: starts with a capital, no lowercase, at least 3 capitals.
	{"all-caps", regexp.MustCompile(`^\p{Lu}\P{Ll}*(?:\p{Lu}\P{Ll}*){2,}$`), models.LevelSection},
}

// Classify reports whether line is a structural element and at what level.
// The returned content is the trimmed line.
func Classify(line string) (models.Level, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", "", false
	}
	for _, r := range structuralRules {
		if r.pattern.MatchString(trimmed) {
			return r.level, trimmed, true
		}
	}
	return "", "", false
}
