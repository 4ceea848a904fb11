// Package catalog holds the canonical title/season/episode records and the
// normalizers that build them from loosely shaped upstream JSON.
package catalog

// PlaceholderImage is used for titles that carry no artwork.
const PlaceholderImage = "https://placehold.co/300x450?text=No+Image+Found&font=roboto"

// Untitled is the display title used when no title alias resolves.
const Untitled = "Untitled"

// Rating is an aggregate user rating.
type Rating struct {
	Score     float64 `json:"score"`
	VoteCount int     `json:"voteCount,omitempty"`
}

// Title is the canonical title detail record.
type Title struct {
	ID             string   `json:"id"`
	DisplayTitle   string   `json:"displayTitle"`
	ImageURL       string   `json:"imageUrl"`
	Year           *int     `json:"year,omitempty"`
	RuntimeMinutes *int     `json:"runtimeMinutes,omitempty"`
	Rating         *Rating  `json:"rating,omitempty"`
	Plot           string   `json:"plot,omitempty"`
	Genres         []string `json:"genres"`
	Directors      []string `json:"directors"`
	Writers        []string `json:"writers"`
	Stars          []string `json:"stars"`
}

// Episode is the canonical episode record. ID is the uniqueness key within
// a season. SeasonNumber and EpisodeNumber are 0 when unresolved.
type Episode struct {
	ID             string  `json:"id"`
	SeasonNumber   int     `json:"seasonNumber,omitempty"`
	EpisodeNumber  int     `json:"episodeNumber"`
	Title          string  `json:"title"`
	ImageURL       string  `json:"image,omitempty"`
	AirDate        string  `json:"airDate,omitempty"` // YYYY-MM-DD when structured
	RuntimeMinutes *int    `json:"runtimeMinutes,omitempty"`
	Plot           string  `json:"plot,omitempty"`
	Rating         *Rating `json:"rating,omitempty"`
}
