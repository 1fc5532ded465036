// Package models defines the domain types for Lectern.
package models

import "fmt"

// SourceType is the closed category of an imported document. It controls
// which paragraph-numbering rules the parser applies.
type SourceType string

const (
	SourceCatechism SourceType = "catechism"
	SourceScripture SourceType = "scripture"
	SourcePatristic SourceType = "patristic"
	SourceTreatise  SourceType = "treatise"
	SourceGeneric   SourceType = "generic"
)

// SourceTypes lists every valid source type.
var SourceTypes = []SourceType{SourceCatechism, SourceScripture, SourcePatristic, SourceTreatise, SourceGeneric}

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	for _, v := range SourceTypes {
		if s == v {
			return true
		}
	}
	return false
}

// ParseSourceType converts a raw string into a SourceType.
func ParseSourceType(raw string) (SourceType, error) {
	s := SourceType(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown source type %q", raw)
	}
	return s, nil
}

// Level is the kind of a structural (heading) node.
type Level string

const (
	LevelBook       Level = "book"
	LevelPart       Level = "part"
	LevelSection    Level = "section"
	LevelArticle    Level = "article"
	LevelChapter    Level = "chapter"
	LevelRoman      Level = "roman"
	LevelSubsection Level = "subsection"
	LevelBrief      Level = "brief"
	LevelPreface    Level = "preface"
	LevelHeading    Level = "heading"
)

// Levels lists every valid structural level.
var Levels = []Level{
	LevelBook, LevelPart, LevelSection, LevelArticle, LevelChapter,
	LevelRoman, LevelSubsection, LevelBrief, LevelPreface, LevelHeading,
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	for _, v := range Levels {
		if l == v {
			return true
		}
	}
	return false
}

// Alignment is the display alignment of a structural node.
type Alignment string

const (
	AlignCenter Alignment = "center"
	AlignLeft   Alignment = "left"
)

// Alignment returns the display alignment for l.
func (l Level) Alignment() Alignment {
	switch l {
	case LevelBook, LevelPart, LevelSection, LevelArticle, LevelChapter:
		return AlignCenter
	default:
		return AlignLeft
	}
}
