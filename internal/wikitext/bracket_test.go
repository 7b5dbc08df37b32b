package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairMatch_Nested(t *testing.T) {
	text := "x {{A|{{B}}|{{C|{{D}}}}}} y"
	sp, err := TemplatePair.Match(text, 0)
	require.NoError(t, err)
	assert.Equal(t, "{{A|{{B}}|{{C|{{D}}}}}}", sp.Text(text))
}

func TestPairMatch_StartsAtOffset(t *testing.T) {
	text := "{{a}} {{b|{{c}}}}"
	sp, err := TemplatePair.Match(text, 1)
	require.NoError(t, err)
	assert.Equal(t, Span{Start: 6, End: 17}, sp)
}

func TestPairMatch_Unterminated(t *testing.T) {
	_, err := TemplatePair.Match("{{A|no closing", 0)
	assert.ErrorIs(t, err, ErrUnterminated)

	_, err = TemplatePair.Match("{{A|{{B}}", 0)
	assert.ErrorIs(t, err, ErrUnterminated)
}

func TestPairMatch_NoOpen(t *testing.T) {
	_, err := TemplatePair.Match("plain }} text", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = TemplatePair.Match("abc", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPairMatch_StrayCloseBeforeOpen(t *testing.T) {
	text := "}} {{x}}"
	sp, err := TemplatePair.Match(text, 0)
	require.NoError(t, err)
	assert.Equal(t, "{{x}}", sp.Text(text))
}

func TestPairMatch_TokensNotRescanned(t *testing.T) {
	// "{{{" must be read as "{{" + "{", not as two overlapping opens.
	text := "{{{x}}"
	sp, err := TemplatePair.Match(text, 0)
	require.NoError(t, err)
	assert.Equal(t, Span{Start: 0, End: 6}, sp)
}

func TestPairMatch_SymmetricTokens(t *testing.T) {
	quote := Pair{Open: "''", Close: "''"}
	text := "a ''b'' c"
	sp, err := quote.Match(text, 0)
	require.NoError(t, err)
	assert.Equal(t, "''b''", sp.Text(text))
}

func TestPairMatch_MultibyteText(t *testing.T) {
	text := "前置き{{利用者:X|値=日本語}}後"
	sp, err := TemplatePair.Match(text, 0)
	require.NoError(t, err)
	assert.Equal(t, "{{利用者:X|値=日本語}}", sp.Text(text))
}

func TestPairSpans(t *testing.T) {
	text := "[[a]] and [[b|[[c]]]] then [[d"
	spans, err := LinkPair.Spans(text)
	assert.ErrorIs(t, err, ErrUnterminated)
	require.Len(t, spans, 2)
	assert.Equal(t, "[[a]]", spans[0].Text(text))
	assert.Equal(t, "[[b|[[c]]]]", spans[1].Text(text))

	spans, err = LinkPair.Spans("no links")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestReplaceAndInsert(t *testing.T) {
	got, err := Replace("hello world", Span{Start: 6, End: 11}, "there")
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)

	got, err = InsertAt("ac", 1, "b")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = Replace("abc", Span{Start: 2, End: 9}, "")
	assert.Error(t, err)
}

func TestEscape(t *testing.T) {
	lit := `a.b*c+d?e^f$g{h}i(j)k|l[m]n\o`
	esc := Escape(lit)
	for _, c := range []string{`\.`, `\*`, `\+`, `\?`, `\^`, `\$`, `\{`, `\}`, `\(`, `\)`, `\|`, `\[`, `\]`, `\\`} {
		assert.Contains(t, esc, c)
	}
}
