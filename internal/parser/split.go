package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// separatorPatterns match a whitespace run followed by a marker that should
// start its own logical line. The split happens where the marker begins.
var separatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s+IN BRIEF\b`),
	regexp.MustCompile(`\s+[IVXLCDM]+\.\s+\p{Lu}`),
	regexp.MustCompile(`\s+ARTICLE\s+\d+\b`),
}

// SplitCompound breaks a physical line into logical lines where several
// structural markers were run together, a common artifact of PDF text.
// Fragments keep their left-to-right order and empty fragments are dropped.
// If splitting would change the non-whitespace content, the line is
// returned unsplit.
func SplitCompound(line string) []string {
	var cuts []int
	for _, re := range separatorPatterns {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			cut := loc[0] + strings.IndexFunc(line[loc[0]:loc[1]], func(r rune) bool { return !unicode.IsSpace(r) })
			if cut > loc[0] {
				cuts = append(cuts, cut)
			}
		}
	}
	if len(cuts) == 0 {
		return []string{line}
	}
	sort.Ints(cuts)

	var out []string
	prev := 0
	for _, c := range cuts {
		if c <= prev {
			continue
		}
		if frag := strings.TrimSpace(line[prev:c]); frag != "" {
			out = append(out, frag)
		}
		prev = c
	}
	if frag := strings.TrimSpace(line[prev:]); frag != "" {
		out = append(out, frag)
	}

	if stripSpace(strings.Join(out, "")) != stripSpace(line) {
		return []string{line}
	}
	return out
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
