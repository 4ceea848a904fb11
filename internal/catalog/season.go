package catalog

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// SeasonID identifies a season. Numeric ids are stored in canonical decimal
// form ("2", not "02" or "2.0"); anything else is an opaque label.
type SeasonID string

// ParseSeasonID canonicalizes s. Numeric strings are reformatted so that ids
// coming from numbers and from strings compare equal.
func ParseSeasonID(s string) SeasonID {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return SeasonIDFromNumber(f)
	}
	return SeasonID(s)
}

// SeasonIDFromNumber formats a season number as a SeasonID.
func SeasonIDFromNumber(f float64) SeasonID {
	return SeasonID(strconv.FormatFloat(f, 'f', -1, 64))
}

// Number reports the numeric value of the id, if it has one.
func (s SeasonID) Number() (float64, bool) {
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (s SeasonID) String() string { return string(s) }

// SortSeasons orders numeric ids ascending, followed by non-numeric ids in
// their original order.
func SortSeasons(ids []SeasonID) {
	slices.SortStableFunc(ids, func(a, b SeasonID) int {
		an, aok := a.Number()
		bn, bok := b.Number()
		switch {
		case aok && bok:
			return cmp.Compare(an, bn)
		case aok:
			return -1
		case bok:
			return 1
		default:
			return 0
		}
	})
}

var seasonObjectChain = chain[float64]{
	number("seasonNumber"),
	number("season"),
	func(raw any) (float64, bool) {
		n, ok := numericString("season")(raw)
		return float64(n), ok
	},
	number("index"),
}

var seasonLabelChain = chain[string]{
	identifier("seasonId"),
	text("season"),
}

// NormalizeSeasonList extracts the ordered, de-duplicated season ids from a
// season index payload. The payload may be a bare list, an envelope holding a
// list, or an object with a "seasons" list; entries may be numbers, strings or
// objects.
func NormalizeSeasonList(raw any) []SeasonID {
	data := Results(raw)

	var items []any
	switch v := data.(type) {
	case []any:
		items = v
	case map[string]any:
		items, _ = lookupList(v, "seasons")
	}

	ids := make([]SeasonID, 0, len(items))
	seen := make(map[SeasonID]bool, len(items))
	for _, item := range items {
		id, ok := seasonIDOf(item)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	SortSeasons(ids)
	return ids
}

func seasonIDOf(item any) (SeasonID, bool) {
	switch v := item.(type) {
	case string:
		id := ParseSeasonID(v)
		return id, id != ""
	case map[string]any:
		if f, ok := seasonObjectChain.resolve(v); ok {
			return SeasonIDFromNumber(f), true
		}
		if s, ok := seasonLabelChain.resolve(v); ok {
			return ParseSeasonID(s), true
		}
		return "", false
	default:
		if f, ok := toFloat(v); ok {
			return SeasonIDFromNumber(f), true
		}
		return "", false
	}
}
