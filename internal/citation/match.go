package citation

import (
	"sort"

	"github.com/starford/lectern/internal/models"
)

// FindMatches compiles aliases with DefaultLimits and scans text. See
// AliasSet.FindMatches.
func FindMatches(text string, aliases []models.CitationAlias) ([]models.CitationMatch, []PatternWarning) {
	set := Compile(aliases, DefaultLimits)
	return set.FindMatches(text), set.Warnings()
}

// FindMatches returns every accepted, non-overlapping match in text ordered
// by position. Aliases are tried highest priority first and a candidate is
// accepted only if its [start, end) span intersects no accepted match, so a
// contested span always goes to the higher-priority alias.
func (s *AliasSet) FindMatches(text string) []models.CitationMatch {
	var accepted []models.CitationMatch
	for _, ca := range s.aliases {
		for _, loc := range ca.re.FindAllStringSubmatchIndex(text, s.limits.MaxMatchesPerAlias) {
			start, end := loc[0], loc[1]
			if start == end || overlapsAny(accepted, start, end) {
				continue
			}
			ref, ok := extractReference(ca, text, loc)
			if !ok {
				continue
			}
			accepted = append(accepted, models.CitationMatch{
				Text:      text[start:end],
				Start:     start,
				End:       end,
				Alias:     ca.alias,
				Reference: ref,
				RangeEnd:  namedGroup(ca, text, loc, "end"),
			})
		}
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })
	return accepted
}

func overlapsAny(accepted []models.CitationMatch, start, end int) bool {
	for _, m := range accepted {
		if m.Overlaps(start, end) {
			return true
		}
	}
	return false
}
