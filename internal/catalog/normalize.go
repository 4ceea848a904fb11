package catalog

// Field precedence tables. Each chain is evaluated left to right and the first
// alias that resolves wins.
var (
	episodeNumberChain = chain[int]{
		integer("episodeNumber"),
		integer("episode"),
		integer("index"),
	}

	seasonNumberChain = chain[int]{
		integer("seasonNumber"),
		integer("season"),
		numericString("season"),
		integer("seasonIndex"),
	}

	airDateChain = chain[string]{
		structuredDate("releaseDate"),
		structuredDate("airDate"),
		text("releaseDate"),
		text("airDate"),
	}

	runtimeChain = chain[int]{
		minutes("runtimeMinutes"),
		seconds("runtimeSeconds"),
		minutes("runtime", "minutes"),
		seconds("runtime", "seconds"),
		minutes("runtime"),
	}

	episodeTitleChain = chain[string]{
		text("titleText", "text"),
		text("title"),
		text("title", "title"),
		text("primaryTitle"),
		text("originalTitle"),
		text("name"),
	}

	episodeImageChain = chain[string]{
		text("primaryImage", "url"),
		text("image"),
		text("poster"),
	}

	plotChain = chain[string]{
		text("plot"),
		text("plot", "plotText", "plainText"),
		text("summary"),
		text("description"),
	}

	scoreChain = chain[float64]{
		number("rating"),
		number("ratingsSummary", "aggregateRating"),
		number("rating", "aggregateRating"),
		number("rating", "value"),
	}

	voteCountChain = chain[int]{
		integer("voteCount"),
		integer("ratingsSummary", "voteCount"),
		integer("rating", "voteCount"),
	}

	titleTextChain = chain[string]{
		text("primaryTitle"),
		text("titleText", "text"),
	}

	titleImageChain = chain[string]{
		text("primaryImage", "url"),
		text("image"),
	}

	yearChain = chain[int]{
		integer("startYear"),
		integer("releaseYear", "year"),
		integer("releaseYear"),
	}

	idChain = chain[string]{identifier("id")}
)

// NormalizeEpisode maps one raw upstream episode record to an Episode.
// It never fails; unresolvable fields keep their documented defaults.
func NormalizeEpisode(raw any) Episode {
	return Episode{
		ID:             idChain.or(raw, ""),
		SeasonNumber:   seasonNumberChain.or(raw, 0),
		EpisodeNumber:  episodeNumberChain.or(raw, 0),
		Title:          episodeTitleChain.or(raw, Untitled),
		ImageURL:       episodeImageChain.or(raw, ""),
		AirDate:        airDateChain.or(raw, ""),
		RuntimeMinutes: runtimeChain.ptr(raw),
		Plot:           plotChain.or(raw, ""),
		Rating:         normalizeRating(raw),
	}
}

// NormalizeTitle maps one raw upstream title detail record to a Title.
func NormalizeTitle(raw any) Title {
	return Title{
		ID:             idChain.or(raw, ""),
		DisplayTitle:   titleTextChain.or(raw, Untitled),
		ImageURL:       titleImageChain.or(raw, PlaceholderImage),
		Year:           yearChain.ptr(raw),
		RuntimeMinutes: runtimeChain.ptr(raw),
		Rating:         normalizeRating(raw),
		Plot:           plotChain.or(raw, ""),
		Genres:         stringList(raw, "genres"),
		Directors:      names(raw, "directors"),
		Writers:        names(raw, "writers"),
		Stars:          names(raw, "stars"),
	}
}

// SeasonNumber resolves only the season number of a raw episode record.
func SeasonNumber(raw any) (int, bool) {
	return seasonNumberChain.resolve(raw)
}

func normalizeRating(raw any) *Rating {
	score, ok := scoreChain.resolve(raw)
	if !ok {
		return nil
	}
	return &Rating{Score: score, VoteCount: voteCountChain.or(raw, 0)}
}

// Results unwraps the list or record carried under one of the envelope keys
// the upstream uses. The payload itself is returned when none is present.
func Results(raw any) any {
	for _, key := range []string{"results", "titles", "data", "items"} {
		if v, ok := lookup(raw, key); ok {
			return v
		}
	}
	return raw
}

// EpisodeList returns the raw episode records of an episodes page.
func EpisodeList(raw any) []any {
	if list, ok := lookupList(raw, "episodes"); ok {
		return list
	}
	for _, key := range []string{"results", "data", "items", "item"} {
		if list, ok := lookupList(raw, key); ok {
			return list
		}
	}
	if list, ok := raw.([]any); ok {
		return list
	}
	return nil
}

var nextPageTokenChain = chain[string]{
	text("nextPageToken"),
	text("pageToken"),
	text("data", "nextPageToken"),
	text("episodes", "nextPageToken"),
	text("pageInfo", "nextPageToken"),
}

// NextPageToken returns the opaque cursor of the next page, or "" when the
// response carries none.
func NextPageToken(raw any) string {
	return nextPageTokenChain.or(raw, "")
}

func lookupList(raw any, path ...string) ([]any, bool) {
	v, ok := lookup(raw, path...)
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}
