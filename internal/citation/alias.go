// Package citation detects alias-based citations in free text and resolves
// them to documents and paragraphs.
package citation

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/starford/lectern/internal/models"
)

// Limits bound the cost of evaluating user-authored patterns. Patterns run
// on Go's RE2 engine, which is linear in the input, so the remaining knobs
// cap pattern size and the number of hits examined per alias per scan.
type Limits struct {
	MaxPatternLength   int
	MaxMatchesPerAlias int
}

// DefaultLimits are used when a zero Limits is supplied.
var DefaultLimits = Limits{MaxPatternLength: 512, MaxMatchesPerAlias: 1000}

func (l Limits) withDefaults() Limits {
	if l.MaxPatternLength <= 0 {
		l.MaxPatternLength = DefaultLimits.MaxPatternLength
	}
	if l.MaxMatchesPerAlias <= 0 {
		l.MaxMatchesPerAlias = DefaultLimits.MaxMatchesPerAlias
	}
	return l
}

// PatternWarning reports an alias that was skipped during a scan.
type PatternWarning struct {
	AliasID string `json:"alias_id"`
	Prefix  string `json:"prefix"`
	Pattern string `json:"pattern"`
	Message string `json:"message"`
}

func (w PatternWarning) String() string {
	return fmt.Sprintf("alias %q: %s", w.Prefix, w.Message)
}

type compiledAlias struct {
	alias models.CitationAlias
	re    *regexp.Regexp
	names []string
}

// AliasSet is a compiled, priority-ordered set of aliases that can be reused
// across scans.
type AliasSet struct {
	aliases  []compiledAlias
	warnings []PatternWarning
	limits   Limits
}

// Compile validates and compiles aliases. Aliases whose pattern is too long
// or does not compile are left out and reported as warnings. The result is
// ordered by priority, highest first, ties kept in declaration order.
func Compile(aliases []models.CitationAlias, limits Limits) *AliasSet {
	set := &AliasSet{limits: limits.withDefaults()}
	for _, a := range aliases {
		if len(a.Pattern) > set.limits.MaxPatternLength {
			set.warnings = append(set.warnings, warn(a, fmt.Sprintf("pattern longer than %d bytes", set.limits.MaxPatternLength)))
			continue
		}
		if a.Pattern == "" {
			set.warnings = append(set.warnings, warn(a, "empty pattern"))
			continue
		}
		re, err := regexp.Compile(a.Pattern)
		if err != nil {
			set.warnings = append(set.warnings, warn(a, err.Error()))
			continue
		}
		set.aliases = append(set.aliases, compiledAlias{alias: a, re: re, names: re.SubexpNames()})
	}
	sort.SliceStable(set.aliases, func(i, j int) bool {
		return set.aliases[i].alias.Priority > set.aliases[j].alias.Priority
	})
	return set
}

func warn(a models.CitationAlias, msg string) PatternWarning {
	return PatternWarning{AliasID: a.ID, Prefix: a.Prefix, Pattern: a.Pattern, Message: msg}
}

// Warnings lists the aliases skipped at compile time.
func (s *AliasSet) Warnings() []PatternWarning {
	return s.warnings
}

// Len is the number of usable aliases.
func (s *AliasSet) Len() int {
	return len(s.aliases)
}

// ValidatePattern reports whether pattern would be accepted by Compile.
func ValidatePattern(pattern string, limits Limits) error {
	limits = limits.withDefaults()
	if pattern == "" {
		return fmt.Errorf("pattern is empty")
	}
	if len(pattern) > limits.MaxPatternLength {
		return fmt.Errorf("pattern longer than %d bytes", limits.MaxPatternLength)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return err
	}
	return nil
}
