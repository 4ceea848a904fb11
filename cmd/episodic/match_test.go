package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/episodic/internal/catalog"
	"github.com/vmunix/episodic/internal/match"
)

func TestRankEpisodes(t *testing.T) {
	eps := []catalog.Episode{
		{ID: "e1", Title: "Pilot"},
		{ID: "e2", Title: "Ozymandias"},
		{ID: "e3", Title: "Granite State"},
	}

	matches := rankEpisodes("ozymandia", eps)

	require.Len(t, matches, 1)
	assert.Equal(t, "e2", matches[0].Episode.ID)
	assert.NotEqual(t, match.ConfidenceNone, matches[0].Confidence)
}

func TestRankEpisodes_NoMatch(t *testing.T) {
	eps := []catalog.Episode{{ID: "e1", Title: "Pilot"}}

	assert.Empty(t, rankEpisodes("zzzzzzzz", eps))
	assert.Empty(t, rankEpisodes("  ...  ", eps))
	assert.Empty(t, rankEpisodes("pilot", nil))
}
