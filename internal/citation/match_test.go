package citation

import (
	"strings"
	"testing"

	"github.com/starford/lectern/internal/models"
)

func alias(id, prefix, pattern string, priority int) models.CitationAlias {
	return models.CitationAlias{
		ID:         id,
		DocumentID: "doc-" + id,
		Prefix:     prefix,
		Pattern:    pattern,
		Extractor:  models.ExtractParagraph,
		Priority:   priority,
	}
}

func TestFindMatchesPriorityWins(t *testing.T) {
	// Lower priority alias declared first so declaration order cannot win.
	aliases := []models.CitationAlias{
		alias("b", "X", `(\d+)`, 1),
		alias("a", "CCC", `CCC (\d+)`, 10),
	}
	matches, warnings := FindMatches("see CCC 17 today", aliases)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %+v", len(matches), matches)
	}
	m := matches[0]
	if m.Alias.Prefix != "CCC" || m.Text != "CCC 17" || m.Reference != "17" {
		t.Errorf("match = %+v", m)
	}
	if m.Start != 4 || m.End != 10 {
		t.Errorf("span = [%d,%d), want [4,10)", m.Start, m.End)
	}
}

func TestFindMatchesEqualPriorityKeepsDeclarationOrder(t *testing.T) {
	aliases := []models.CitationAlias{
		alias("first", "A", `CCC (\d+)`, 5),
		alias("second", "B", `CCC (\d+)`, 5),
	}
	matches, _ := FindMatches("CCC 1", aliases)
	if len(matches) != 1 || matches[0].Alias.ID != "first" {
		t.Fatalf("matches = %+v, want alias first", matches)
	}
}

func TestFindMatchesNonOverlapping(t *testing.T) {
	aliases := []models.CitationAlias{
		alias("a", "CCC", `CCC (\d+)`, 3),
		alias("b", "n", `(\d+)`, 2),
		alias("c", "word", `[A-Z]{3} \d`, 1),
	}
	text := "CCC 17, CCC 2558 and also 42 then ABC 9"
	matches, _ := FindMatches(text, aliases)
	for i := range matches {
		for j := i + 1; j < len(matches); j++ {
			if matches[i].Overlaps(matches[j].Start, matches[j].End) {
				t.Errorf("matches %d and %d overlap: %+v %+v", i, j, matches[i], matches[j])
			}
		}
		if i > 0 && matches[i-1].Start > matches[i].Start {
			t.Errorf("matches not ordered by position")
		}
		if text[matches[i].Start:matches[i].End] != matches[i].Text {
			t.Errorf("match text %q does not match span", matches[i].Text)
		}
	}
	var refs []string
	for _, m := range matches {
		refs = append(refs, m.Alias.Prefix+":"+m.Reference)
	}
	got := strings.Join(refs, ",")
	want := "CCC:17,CCC:2558,n:42,n:9"
	if got != want {
		t.Errorf("refs = %s, want %s", got, want)
	}
}

func TestFindMatchesAdjacentSpansDoNotOverlap(t *testing.T) {
	aliases := []models.CitationAlias{
		alias("a", "A", `A(\d)`, 2),
		alias("b", "B", `B(\d)`, 1),
	}
	matches, _ := FindMatches("A1B2", aliases)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
}

func TestFindMatchesInvalidPatternSkipped(t *testing.T) {
	aliases := []models.CitationAlias{
		alias("bad", "Bad", `CCC (\d+`, 100),
		alias("good", "CCC", `CCC (\d+)`, 1),
	}
	matches, warnings := FindMatches("CCC 5", aliases)
	if len(matches) != 1 || matches[0].Alias.ID != "good" {
		t.Fatalf("matches = %+v", matches)
	}
	if len(warnings) != 1 || warnings[0].AliasID != "bad" {
		t.Fatalf("warnings = %+v", warnings)
	}
}

func TestFindMatchesPatternTooLong(t *testing.T) {
	long := alias("long", "L", strings.Repeat("a", 20), 1)
	set := Compile([]models.CitationAlias{long}, Limits{MaxPatternLength: 10})
	if set.Len() != 0 {
		t.Fatalf("long pattern should be rejected")
	}
	if len(set.Warnings()) != 1 {
		t.Fatalf("warnings = %+v", set.Warnings())
	}
}

func TestFindMatchesPerAliasCap(t *testing.T) {
	set := Compile([]models.CitationAlias{alias("a", "n", `(\d)`, 1)}, Limits{MaxMatchesPerAlias: 3})
	matches := set.FindMatches("1 2 3 4 5")
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
}

func TestFindMatchesEmptyMatchIgnored(t *testing.T) {
	matches, _ := FindMatches("abc", []models.CitationAlias{alias("a", "e", `x*`, 1)})
	if len(matches) != 0 {
		t.Fatalf("empty matches accepted: %+v", matches)
	}
}

func TestFindMatchesPathologicalPatternStaysLinear(t *testing.T) {
	text := strings.Repeat("a", 5000) + "!"
	matches, warnings := FindMatches(text, []models.CitationAlias{alias("a", "p", `(a+)+$`, 1)})
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if len(matches) != 0 {
		t.Fatalf("got %d matches, want 0", len(matches))
	}
}

func TestExtractors(t *testing.T) {
	cases := []struct {
		name    string
		alias   models.CitationAlias
		text    string
		wantRef string
		wantEnd string
	}{
		{
			name:    "paragraph named group",
			alias:   models.CitationAlias{Pattern: `(CCC) (?P<num>\d+)`, Extractor: models.ExtractParagraph},
			text:    "CCC 27",
			wantRef: "27",
		},
		{
			name:    "paragraph range",
			alias:   models.CitationAlias{Pattern: `CCC (\d+)-(?P<end>\d+)`, Extractor: models.ExtractParagraph},
			text:    "CCC 17-19",
			wantRef: "17",
			wantEnd: "19",
		},
		{
			name:    "section",
			alias:   models.CitationAlias{Pattern: `(ST) ([IVX]+)-(\d+)-(\d+)`, Extractor: models.ExtractSection},
			text:    "ST I-2-3",
			wantRef: "I.2.3",
		},
		{
			name:    "chapter verse positional",
			alias:   models.CitationAlias{Pattern: `Jn (\d+):(\d+)`, Extractor: models.ExtractChapterVerse},
			text:    "Jn 3:16",
			wantRef: "3.16",
		},
		{
			name:    "chapter verse named",
			alias:   models.CitationAlias{Pattern: `(?P<verse>\d+) of (?P<chapter>\d+)`, Extractor: models.ExtractChapterVerse},
			text:    "16 of 3",
			wantRef: "3.16",
		},
		{
			name:    "custom group",
			alias:   models.CitationAlias{Pattern: `(DV) (\w+) (\d+)`, Extractor: models.ExtractCustom, CustomGroupIndex: 3},
			text:    "DV para 4",
			wantRef: "4",
		},
		{
			name:    "custom default group",
			alias:   models.CitationAlias{Pattern: `LG (\d+)`, Extractor: models.ExtractCustom},
			text:    "LG 8",
			wantRef: "8",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.alias.Prefix = "P"
			matches, warnings := FindMatches(tc.text, []models.CitationAlias{tc.alias})
			if len(warnings) != 0 {
				t.Fatalf("warnings: %v", warnings)
			}
			if len(matches) != 1 {
				t.Fatalf("got %d matches, want 1", len(matches))
			}
			if matches[0].Reference != tc.wantRef {
				t.Errorf("reference = %q, want %q", matches[0].Reference, tc.wantRef)
			}
			if matches[0].RangeEnd != tc.wantEnd {
				t.Errorf("range end = %q, want %q", matches[0].RangeEnd, tc.wantEnd)
			}
		})
	}
}

func TestCustomGroupOutOfRange(t *testing.T) {
	a := models.CitationAlias{Pattern: `LG (\d+)`, Extractor: models.ExtractCustom, CustomGroupIndex: 4}
	matches, _ := FindMatches("LG 8", []models.CitationAlias{a})
	if len(matches) != 0 {
		t.Fatalf("matches = %+v, want none", matches)
	}
}

func TestValidatePattern(t *testing.T) {
	if err := ValidatePattern(`CCC (\d+)`, Limits{}); err != nil {
		t.Errorf("valid pattern rejected: %v", err)
	}
	if err := ValidatePattern(`(`, Limits{}); err == nil {
		t.Error("invalid pattern accepted")
	}
	if err := ValidatePattern("", Limits{}); err == nil {
		t.Error("empty pattern accepted")
	}
}
