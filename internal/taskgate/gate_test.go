package taskgate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikibot/internal/mediawiki"
	"wikibot/internal/wikitext"
)

const prefix = "{{User:Bot/tasks/template"

type pageReader struct {
	page mediawiki.Page
	err  error
}

func (r pageReader) Read(context.Context, string) (mediawiki.Page, error) { return r.page, r.err }

func TestParseFlag(t *testing.T) {
	text := prefix + "\n| nnId1 = 1 \n|NNID3=0|nnId4 = on hold\n}}"
	tests := []struct {
		id    string
		want  string
		found bool
	}{
		{"nnId1", "1", true},
		{"nnid3", "0", true},
		{"nnId4", "on hold", true},
		{"nnId2", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFlag(text, tt.id)
		assert.Equal(t, tt.found, ok, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}

func TestParseFlag_EscapesTaskID(t *testing.T) {
	_, ok := ParseFlag("| nnIdX = 1", "nnId.")
	assert.False(t, ok)
	v, ok := ParseFlag("| a.b = 1", "a.b")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestGateCheck(t *testing.T) {
	ctx := context.Background()
	page := func(text string) pageReader {
		return pageReader{page: mediawiki.Page{Exists: true, Text: text}}
	}

	g := &Gate{Reader: page("| nnId1 = 1"), Page: "P"}
	assert.NoError(t, g.Check(ctx, "nnId1"))

	g = &Gate{Reader: page("| nnId1 = 0"), Page: "P"}
	err := g.Check(ctx, "nnId1")
	require.ErrorIs(t, err, ErrDisabled)
	var de *DisabledError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "0", de.Value)

	g = &Gate{Reader: page("| nnId1 = 1"), Page: "P"}
	assert.ErrorIs(t, g.Check(ctx, "nnId9"), ErrFlagUnavailable)

	g = &Gate{Reader: pageReader{err: errors.New("boom")}, Page: "P"}
	assert.ErrorIs(t, g.Check(ctx, "nnId1"), ErrFlagUnavailable)

	g = &Gate{Reader: pageReader{page: mediawiki.Page{Exists: false}}, Page: "P"}
	assert.ErrorIs(t, g.Check(ctx, "nnId1"), ErrFlagUnavailable)
}

func TestGateCheck_LastBlockDecides(t *testing.T) {
	ctx := context.Background()
	text := prefix + "\n| nnId3 = 1\n| nnId1 = 1\n}}\n" + prefix + "\n| nnId3 = 0\n}}"
	g := &Gate{Reader: pageReader{page: mediawiki.Page{Exists: true, Text: text}}, Page: "P", Prefix: prefix}

	assert.ErrorIs(t, g.Check(ctx, "nnId3"), ErrDisabled)
	// Entries only present in older blocks no longer count.
	assert.ErrorIs(t, g.Check(ctx, "nnId1"), ErrFlagUnavailable)
}

func TestGateCheck_NoBlockReadsWholePage(t *testing.T) {
	g := &Gate{Reader: pageReader{page: mediawiki.Page{Exists: true, Text: "| nnId1 = 1"}}, Page: "P", Prefix: prefix}
	assert.NoError(t, g.Check(context.Background(), "nnId1"))
}

func TestGateCheck_UnterminatedLastBlock(t *testing.T) {
	text := prefix + "\n| nnId1 = 1\n}}\n" + prefix + "\n| nnId1 = 1\n"
	g := &Gate{Reader: pageReader{page: mediawiki.Page{Exists: true, Text: text}}, Page: "P", Prefix: prefix}
	err := g.Check(context.Background(), "nnId1")
	assert.ErrorIs(t, err, ErrFlagUnavailable)
	assert.False(t, errors.Is(err, ErrDisabled))
}

func TestCompact(t *testing.T) {
	first := prefix + "|nnId1=0}}"
	last := prefix + "|nnId1=1|note={{tl|x}}}}"
	text := "intro\n" + first + "\n" + last + "\ntrailer"

	got, err := Compact(text, prefix)
	require.NoError(t, err)
	assert.Equal(t, last, got)

	_, err = Compact(first, prefix)
	assert.ErrorIs(t, err, ErrNothingToCompact)

	_, err = Compact(first+"\n"+prefix+"|nnId1=1", prefix)
	assert.ErrorIs(t, err, wikitext.ErrUnterminated)
}

func TestCompactTransform(t *testing.T) {
	fn := CompactTransform(prefix)
	_, err := fn(prefix + "}}")
	assert.ErrorIs(t, err, mediawiki.ErrSkipEdit)

	out, err := fn(prefix + "|a=1}}" + prefix + "|a=2}}")
	require.NoError(t, err)
	assert.Equal(t, prefix+"|a=2}}", out)
}
