package main

import (
	"github.com/vmunix/episodic/internal/catalog"
	"github.com/vmunix/episodic/internal/match"
)

type episodeMatch struct {
	Episode    catalog.Episode  `json:"episode"`
	Score      float64          `json:"score"`
	Confidence match.Confidence `json:"confidence"`
}

// rankEpisodes scores loaded episode titles against query, best first.
func rankEpisodes(query string, episodes []catalog.Episode) []episodeMatch {
	titles := make([]string, len(episodes))
	for i, ep := range episodes {
		titles[i] = ep.Title
	}

	var matches []episodeMatch
	for _, r := range match.Rank(query, titles) {
		matches = append(matches, episodeMatch{Episode: episodes[r.Index], Score: r.Score, Confidence: r.Confidence})
	}
	return matches
}
