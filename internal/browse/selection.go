package browse

import (
	"slices"

	"github.com/vmunix/episodic/internal/catalog"
)

// ResolveSeason picks the initial active season from a sorted season list.
// A hint naming an available season wins; numeric hints match by value, so
// "02" selects season 2. Otherwise the first season is chosen. ok is false
// when there are no seasons.
func ResolveSeason(seasons []catalog.SeasonID, hint string) (catalog.SeasonID, bool) {
	if len(seasons) == 0 {
		return "", false
	}
	if h := catalog.ParseSeasonID(hint); h != "" && slices.Contains(seasons, h) {
		return h, true
	}
	return seasons[0], true
}
