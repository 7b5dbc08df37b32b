package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		delim    string
		contexts []Pair
		want     []string
	}{
		{"link context", "a|[[b|c]]|d", "|", []Pair{LinkPair}, []string{"a", "[[b|c]]", "d"}},
		{"nested templates", "{{B}}|{{C|{{D}}}}", "|", []Pair{TemplatePair, LinkPair}, []string{"{{B}}", "{{C|{{D}}}}"}},
		{"no contexts", "a|[[b|c]]", "|", nil, []string{"a", "[[b", "c]]"}},
		{"empty text", "", "|", DefaultContexts, []string{""}},
		{"trailing delimiter", "a|", "|", DefaultContexts, []string{"a", ""}},
		{"leading delimiter", "|a", "|", DefaultContexts, []string{"", "a"}},
		{"stray close", "a]]|b", "|", []Pair{LinkPair}, []string{"a]]", "b"}},
		{"stray table close", "a|}b", "|", DefaultContexts, []string{"a|}b"}},
		{"pipe before close inside template", "{{x|}}|y", "|", DefaultContexts, []string{"{{x|}}", "y"}},
		{"table context", "x;{| a;b |};y", ";", DefaultContexts, []string{"x", "{| a;b |}", "y"}},
		{"multi-char delimiter", "a, b, [[c, d]]", ", ", DefaultContexts, []string{"a", "b", "[[c, d]]"}},
		{"unterminated context swallows rest", "a|{{b|c", "|", DefaultContexts, []string{"a", "{{b|c"}},
		{"mixed kinds", "[[x|{{y|z}}]]|w", "|", DefaultContexts, []string{"[[x|{{y|z}}]]", "w"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Split(tc.text, tc.delim, tc.contexts...))
		})
	}
}

func TestSplit_EmptyDelimiter(t *testing.T) {
	assert.Equal(t, []string{"abc"}, Split("abc", ""))
}
