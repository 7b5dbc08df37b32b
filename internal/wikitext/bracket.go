package wikitext

import "strings"

// Pair is an open/close token pair such as "{{"/"}}". Tokens may be
// multi-character; a consumed token is never re-scanned byte by byte.
type Pair struct {
	Open  string
	Close string
}

var (
	TemplatePair = Pair{Open: "{{", Close: "}}"}
	LinkPair     = Pair{Open: "[[", Close: "]]"}
	TablePair    = Pair{Open: "{|", Close: "|}"}
)

// DefaultContexts are the bracket kinds that suppress delimiters in Split.
var DefaultContexts = []Pair{TemplatePair, LinkPair, TablePair}

// step looks at text[i:] with the current depth and reports how many bytes
// form a token there (0 when none) and the depth change it causes.
// At depth 0 only the open token is meaningful. Inside a span the close
// token wins when both could start at i.
func (p Pair) step(text string, i, depth int) (n, delta int) {
	rest := text[i:]
	if depth > 0 && p.Close != "" && strings.HasPrefix(rest, p.Close) {
		return len(p.Close), -1
	}
	if p.Open != "" && strings.HasPrefix(rest, p.Open) {
		return len(p.Open), +1
	}
	return 0, 0
}

// Match scans text from start and returns the span from the first opening
// token through its balanced closing token. Close tokens seen before the
// first opening are ignored. ErrUnterminated is returned when the text ends
// with depth above zero, and ErrNotFound when no opening token occurs.
func (p Pair) Match(text string, start int) (Span, error) {
	if start < 0 || start > len(text) {
		return Span{}, ErrNotFound
	}
	depth := 0
	begin := -1
	for i := start; i < len(text); {
		n, delta := p.step(text, i, depth)
		if n == 0 {
			i++
			continue
		}
		if depth == 0 && delta > 0 {
			begin = i
		}
		depth += delta
		i += n
		if depth == 0 && begin >= 0 {
			return Span{Start: begin, End: i}, nil
		}
	}
	if begin < 0 {
		return Span{}, ErrNotFound
	}
	return Span{}, ErrUnterminated
}

// Spans returns every top-level balanced span in text, in order. Scanning
// stops at the first unterminated opening, which is reported with the spans
// found before it.
func (p Pair) Spans(text string) ([]Span, error) {
	var out []Span
	for off := 0; off < len(text); {
		sp, err := p.Match(text, off)
		if err == ErrNotFound {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, sp)
		off = sp.End
	}
	return out, nil
}
