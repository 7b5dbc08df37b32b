package wikitext

import "strings"

// Split cuts text on delim, except where delim falls inside any of the
// given bracket contexts. Open and close tokens are copied into the current
// segment verbatim. An unmatched close token is copied the same way and
// never drives a depth below zero. The final segment is always emitted,
// even when empty, so the result has at least one element.
func Split(text, delim string, contexts ...Pair) []string {
	if delim == "" {
		return []string{text}
	}
	depth := make([]int, len(contexts))
	inside := func() bool {
		for _, d := range depth {
			if d > 0 {
				return true
			}
		}
		return false
	}

	var out []string
	var cur strings.Builder
	for i := 0; i < len(text); {
		if n := stepContexts(contexts, depth, text, i); n > 0 {
			cur.WriteString(text[i : i+n])
			i += n
			continue
		}
		if !inside() && strings.HasPrefix(text[i:], delim) {
			out = append(out, cur.String())
			cur.Reset()
			i += len(delim)
			continue
		}
		cur.WriteByte(text[i])
		i++
	}
	return append(out, cur.String())
}

// stepContexts consumes at most one token at text[i:]. Close tokens of open
// contexts are tried before any open token. Outside every context a stray
// close token is still consumed whole, leaving depths at zero, so that its
// characters cannot be taken for a delimiter.
func stepContexts(contexts []Pair, depth []int, text string, i int) int {
	open := false
	for k, p := range contexts {
		if depth[k] == 0 {
			continue
		}
		open = true
		if n, delta := p.step(text, i, depth[k]); delta < 0 {
			depth[k]--
			return n
		}
	}
	for k, p := range contexts {
		if n, delta := p.step(text, i, 0); delta > 0 {
			depth[k]++
			return n
		}
	}
	if open {
		return 0
	}
	for _, p := range contexts {
		if p.Close != "" && strings.HasPrefix(text[i:], p.Close) {
			return len(p.Close)
		}
	}
	return 0
}
