package wikitext

import (
	"fmt"
	"strings"
)

// Occurrence selects which textual occurrence of a prefix to use.
type Occurrence int

const (
	First Occurrence = iota
	Last
)

func (o Occurrence) String() string {
	if o == Last {
		return "last"
	}
	return "first"
}

// Template is one balanced {{...}} invocation.
type Template struct {
	// Name is the literal text between "{{" and the first top-level "|".
	Name string
	// Span covers "{{" through the matching "}}" inclusive.
	Span Span
	// Params are the raw top-level "|"-separated segments after the name.
	Params []string
}

// Raw returns the full invocation text.
func (t Template) Raw(src string) string { return t.Span.Text(src) }

// TemplateError carries the offset of a template that could not be closed.
type TemplateError struct {
	Prefix string
	Offset int
	Err    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("wikitext: template %q at offset %d: %v", e.Prefix, e.Offset, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// FindTemplate locates the first or last literal occurrence of prefix and
// returns the balanced template starting at the "{{" nearest that
// occurrence. prefix normally begins with "{{", e.g. "{{Project:Foo/template".
// ErrNotFound means the prefix does not occur; a *TemplateError wrapping
// ErrUnterminated means it occurs but never closes.
func FindTemplate(text, prefix string, occ Occurrence) (Template, error) {
	if prefix == "" {
		return Template{}, ErrNotFound
	}
	var at int
	if occ == Last {
		at = strings.LastIndex(text, prefix)
	} else {
		at = strings.Index(text, prefix)
	}
	if at < 0 {
		return Template{}, ErrNotFound
	}
	return templateAt(text, prefix, at)
}

// CountPrefix reports how many times prefix occurs in text.
func CountPrefix(text, prefix string) int {
	if prefix == "" {
		return 0
	}
	return strings.Count(text, prefix)
}

func templateAt(text, prefix string, at int) (Template, error) {
	open := at
	if !strings.HasPrefix(prefix, TemplatePair.Open) {
		// A bare name: use the nearest "{{" before it.
		open = strings.LastIndex(text[:at], TemplatePair.Open)
		if open < 0 {
			return Template{}, ErrNotFound
		}
	}
	sp, err := TemplatePair.Match(text, open)
	if err != nil {
		return Template{}, &TemplateError{Prefix: prefix, Offset: open, Err: ErrUnterminated}
	}
	if sp.End <= at {
		return Template{}, ErrNotFound
	}
	return parseTemplate(text, sp), nil
}

func parseTemplate(text string, sp Span) Template {
	inner := text[sp.Start+len(TemplatePair.Open) : sp.End-len(TemplatePair.Close)]
	parts := Split(inner, "|", TemplatePair, LinkPair)
	return Template{Name: parts[0], Span: sp, Params: parts[1:]}
}
