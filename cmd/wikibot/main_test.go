package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikibot/internal/archive"
)

func TestFirstPositive(t *testing.T) {
	assert.Equal(t, 3, firstPositive(0, -1, 3, 4))
	assert.Equal(t, 0, firstPositive())
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"pagemake"},
		{"highrevs"},
		{"sandbox-clean"},
		{"tasks", "status"},
		{"tasks", "compact"},
		{"runs"},
		{"reports"},
	} {
		cmd, rest, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	assert.NotNil(t, highRevsCmd.Flags().Lookup("min"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("dry-run"))
}


func TestShowReports(t *testing.T) {
	ctx := context.Background()
	store := archive.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "run-1", "highrevs.wiki", []byte("{| class=\"wikitable\"\n|}")))
	require.NoError(t, store.Put(ctx, "run-1", "highrevs.json", []byte("[]")))

	var out bytes.Buffer
	require.NoError(t, showReports(ctx, &out, store, "run-1", ""))
	assert.Equal(t, "highrevs.json\nhighrevs.wiki\n", out.String())

	out.Reset()
	require.NoError(t, showReports(ctx, &out, store, "run-1", "highrevs.json"))
	assert.Equal(t, "[]", out.String())

	assert.ErrorContains(t, showReports(ctx, &out, store, "run-1", "missing.wiki"), `no report "missing.wiki"`)
	assert.ErrorContains(t, showReports(ctx, &out, store, "run-2", ""), "no reports archived for run run-2")
}
