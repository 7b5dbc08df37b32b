package wikitext

import (
	"fmt"
	"strings"
)

// MinLevel is the shallowest heading level a section can have ("== x ==").
const MinLevel = 2

// Section is one heading-delimited region. Sections are reported as a flat
// list in document order; hierarchy is implied by Level.
type Section struct {
	Name  string
	Level int
	// Span runs from the heading line to the next heading of level <= Level,
	// or to the end of text. Deeper subsections are included.
	Span Span
	// Own runs from the heading line to the next recognized heading of any
	// level. Own spans of all sections tile the text after the preamble.
	Own   Span
	Index int
}

// Text returns the section's full source text, subsections included.
func (s Section) Text(src string) string { return s.Span.Text(src) }

// Heading formats a heading line for name at level, without a newline.
func Heading(name string, level int) string {
	eq := strings.Repeat("=", level)
	return eq + " " + name + " " + eq
}

// ParseSections indexes the headings of text from level 2 through maxLevel.
// Heading lines deeper than maxLevel stay part of the enclosing section.
// A text without headings yields no sections; everything before the first
// heading is preamble and belongs to no section.
func ParseSections(text string, maxLevel int) []Section {
	if maxLevel < MinLevel {
		maxLevel = MinLevel
	}
	var out []Section
	for off := 0; off < len(text); {
		end := strings.IndexByte(text[off:], '\n')
		next := len(text)
		if end >= 0 {
			next = off + end + 1
		}
		if name, level, ok := parseHeading(text[off:next], maxLevel); ok {
			if n := len(out); n > 0 {
				out[n-1].Own.End = off
			}
			out = append(out, Section{
				Name:  name,
				Level: level,
				Span:  Span{Start: off},
				Own:   Span{Start: off},
				Index: len(out),
			})
		}
		off = next
	}
	if len(out) == 0 {
		return nil
	}
	out[len(out)-1].Own.End = len(text)

	// A section ends where the next heading at its level or shallower begins.
	for i := range out {
		out[i].Span.End = len(text)
		for j := i + 1; j < len(out); j++ {
			if out[j].Level <= out[i].Level {
				out[i].Span.End = out[j].Span.Start
				break
			}
		}
	}
	return out
}

// Preamble returns the span of text before the first section.
func Preamble(text string, sections []Section) Span {
	if len(sections) == 0 {
		return Span{Start: 0, End: len(text)}
	}
	return Span{Start: 0, End: sections[0].Span.Start}
}

// parseHeading recognizes "== name ==" lines. The leading and trailing "="
// runs must have the same length, between 2 and maxLevel.
func parseHeading(line string, maxLevel int) (string, int, bool) {
	s := strings.TrimSpace(line)
	lead := len(s) - len(strings.TrimLeft(s, "="))
	if lead < MinLevel || lead > maxLevel || lead == len(s) {
		return "", 0, false
	}
	trail := len(s) - len(strings.TrimRight(s, "="))
	if trail != lead {
		return "", 0, false
	}
	name := strings.TrimSpace(s[lead : len(s)-trail])
	if name == "" {
		return "", 0, false
	}
	return name, lead, true
}

// Match selects among sections sharing a name and level.
type Match int

const (
	MatchFirst Match = iota
	MatchLast
	// MatchUnique fails with ErrDuplicate when more than one section matches.
	MatchUnique
)

// FindSection returns the section with the given name and level. Level 0
// matches any level.
func FindSection(sections []Section, name string, level int, m Match) (Section, error) {
	found := -1
	for i, s := range sections {
		if s.Name != name || (level != 0 && s.Level != level) {
			continue
		}
		switch m {
		case MatchFirst:
			return s, nil
		case MatchUnique:
			if found >= 0 {
				return Section{}, fmt.Errorf("%w: section %q level %d at %d and %d", ErrDuplicate, name, level, found, i)
			}
		}
		found = i
	}
	if found < 0 {
		return Section{}, ErrNotFound
	}
	return sections[found], nil
}

// Children returns the sections nested directly or indirectly under
// sections[i], in order.
func Children(sections []Section, i int) []Section {
	if i < 0 || i >= len(sections) {
		return nil
	}
	var out []Section
	for j := i + 1; j < len(sections) && sections[j].Level > sections[i].Level; j++ {
		out = append(out, sections[j])
	}
	return out
}

// AppendToSection inserts s at the end of sec's full span.
func AppendToSection(text string, sec Section, s string) (string, error) {
	return InsertAt(text, sec.Span.End, s)
}
