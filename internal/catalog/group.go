package catalog

import (
	"log/slog"
	"sort"
)

// SeasonGroup is one season of a grouped episode listing.
type SeasonGroup struct {
	SeasonNumber int       `json:"seasonNumber"`
	Episodes     []Episode `json:"episodes"`
	EpisodeCount int       `json:"episodeCount"`
}

// GroupBySeason bins a flat episode payload by season number. Records with an
// unresolvable or non-positive season number, or without an id, are dropped;
// dropped season numbers are logged so upstream shape drift stays visible.
// Groups are ordered by season number and keep upstream order within a season.
func GroupBySeason(raw any, log *slog.Logger) []SeasonGroup {
	if log == nil {
		log = slog.Default()
	}

	bySeason := make(map[int][]Episode)
	var unresolved, missingID int

	for i, rec := range EpisodeList(raw) {
		sn, ok := SeasonNumber(rec)
		if !ok || sn <= 0 {
			unresolved++
			log.Warn("episode season number unresolved, dropping",
				"index", i, "id", idChain.or(rec, ""), "resolved", ok, "season", sn)
			continue
		}

		ep := NormalizeEpisode(rec)
		if ep.ID == "" {
			missingID++
			continue
		}
		bySeason[sn] = append(bySeason[sn], ep)
	}

	groups := make([]SeasonGroup, 0, len(bySeason))
	for sn, eps := range bySeason {
		groups = append(groups, SeasonGroup{SeasonNumber: sn, Episodes: eps, EpisodeCount: len(eps)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].SeasonNumber < groups[j].SeasonNumber })

	if unresolved > 0 || missingID > 0 {
		log.Debug("grouped episodes", "seasons", len(groups), "unresolved_season", unresolved, "missing_id", missingID)
	}
	return groups
}
