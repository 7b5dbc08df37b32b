// Package wikitext locates and rewrites bounded regions of wiki markup:
// balanced template invocations, heading-delimited sections, and
// delimiter-separated lists that must not be broken inside nested brackets.
//
// Every function here is pure. Offsets are byte offsets into the source
// string; callers edit by producing a new string from the old one.
package wikitext

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that the searched template or section does not occur.
	ErrNotFound = errors.New("wikitext: not found")
	// ErrUnterminated reports an opening token whose depth never returns to zero.
	ErrUnterminated = errors.New("wikitext: unterminated bracket")
	// ErrDuplicate reports more than one match where exactly one was required.
	ErrDuplicate = errors.New("wikitext: duplicate match")
)

// Span is a half-open byte range [Start, End) into a source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Text returns the slice of src covered by s.
func (s Span) Text(src string) string { return src[s.Start:s.End] }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

func (s Span) valid(src string) bool {
	return 0 <= s.Start && s.Start <= s.End && s.End <= len(src)
}

// Replace returns src with the region covered by sp replaced by repl.
func Replace(src string, sp Span, repl string) (string, error) {
	if !sp.valid(src) {
		return "", fmt.Errorf("wikitext: span %s out of range for text of length %d", sp, len(src))
	}
	return src[:sp.Start] + repl + src[sp.End:], nil
}

// InsertAt returns src with s inserted at byte offset off.
func InsertAt(src string, off int, s string) (string, error) {
	return Replace(src, Span{Start: off, End: off}, s)
}
