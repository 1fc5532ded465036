package citation

import (
	"strings"

	"github.com/starford/lectern/internal/models"
)

// reservedGroups are named groups with a fixed meaning that never take part
// in positional reference extraction.
var reservedGroups = map[string]bool{"end": true}

// group returns capture i, or "" when it did not participate.
func group(text string, loc []int, i int) string {
	if 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return ""
	}
	return text[loc[2*i]:loc[2*i+1]]
}

func namedGroup(ca compiledAlias, text string, loc []int, name string) string {
	for i, n := range ca.names {
		if n == name {
			return group(text, loc, i)
		}
	}
	return ""
}

// positional returns the non-reserved capture groups in order.
func positional(ca compiledAlias, text string, loc []int) []string {
	var out []string
	for i := 1; i < len(ca.names); i++ {
		if reservedGroups[ca.names[i]] {
			continue
		}
		out = append(out, group(text, loc, i))
	}
	return out
}

// extractReference turns one match into a reference string according to
// the alias number extractor. ok is false when the match carries no usable
// reference.
func extractReference(ca compiledAlias, text string, loc []int) (string, bool) {
	groups := positional(ca, text, loc)
	var ref string

	switch ca.alias.Extractor {
	case models.ExtractSection:
		if len(groups) < 2 {
			ref = firstOr(groups, text[loc[0]:loc[1]])
			break
		}
		var parts []string
		for _, g := range groups[1:] {
			if g != "" {
				parts = append(parts, g)
			}
		}
		ref = strings.Join(parts, ".")

	case models.ExtractChapterVerse:
		chapter := namedGroup(ca, text, loc, "chapter")
		verse := namedGroup(ca, text, loc, "verse")
		if chapter == "" && len(groups) > 0 {
			chapter = groups[0]
		}
		if verse == "" && len(groups) > 1 {
			verse = groups[1]
		}
		ref = chapter
		if verse != "" {
			ref = chapter + "." + verse
		}

	case models.ExtractCustom:
		idx := ca.alias.CustomGroupIndex
		if idx <= 0 {
			idx = 1
		}
		if idx >= len(ca.names) {
			return "", false
		}
		ref = group(text, loc, idx)

	default:
		if num := namedGroup(ca, text, loc, "num"); num != "" {
			ref = num
		} else {
			ref = firstOr(groups, text[loc[0]:loc[1]])
		}
	}

	ref = strings.TrimSpace(ref)
	return ref, ref != ""
}

func firstOr(groups []string, fallback string) string {
	if len(groups) > 0 && groups[0] != "" {
		return groups[0]
	}
	return fallback
}
