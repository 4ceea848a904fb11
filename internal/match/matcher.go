package match

import (
	"regexp"
	"sort"

	"github.com/hbollon/go-edlib"
)

// numberRegex extracts sequence numbers from titles (e.g., "2", "3")
var numberRegex = regexp.MustCompile(`\b(\d+)\b`)

// Confidence represents the confidence level of a title match.
type Confidence int

const (
	ConfidenceNone   Confidence = iota // Score < 0.70
	ConfidenceLow                      // Score >= 0.70
	ConfidenceMedium                   // Score >= 0.85
	ConfidenceHigh                     // Score >= 0.95
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// MarshalText renders the confidence by name in JSON output.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Result is one scored candidate.
type Result struct {
	Index      int        `json:"index"`      // position in the candidate list
	Title      string     `json:"title"`      // the candidate as given
	Score      float64    `json:"score"`      // Jaro-Winkler similarity (0.0-1.0) after number adjustment
	Confidence Confidence `json:"confidence"` // level based on score
}

// Score compares query with candidate. Jaro-Winkler favors shared prefixes;
// matching sequence numbers earn a bonus and mismatched ones a penalty.
func Score(query, candidate string) float64 {
	q, c := CleanTitle(query), CleanTitle(candidate)
	if q == "" || c == "" {
		return 0
	}
	score := float64(edlib.JaroWinklerSimilarity(q, c))
	return adjustScoreForNumbers(score, extractNumbers(q), extractNumbers(c))
}

// Rank scores every candidate against query and returns those with at least
// low confidence, best first. Ties keep candidate order.
func Rank(query string, candidates []string) []Result {
	var results []Result
	for i, candidate := range candidates {
		score := Score(query, candidate)
		conf := confidenceFor(score)
		if conf == ConfidenceNone {
			continue
		}
		results = append(results, Result{Index: i, Title: candidate, Score: score, Confidence: conf})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

func confidenceFor(score float64) Confidence {
	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// extractNumbers returns all numeric sequences from a normalized title.
func extractNumbers(title string) []string {
	return numberRegex.FindAllString(title, -1)
}

// adjustScoreForNumbers modifies the similarity score based on sequence number matching.
// When the query has numbers:
// - Matching numbers get a bonus
// - Mismatched numbers get a penalty
// - Missing numbers in candidate also get a penalty
func adjustScoreForNumbers(score float64, queryNums, candidateNums []string) float64 {
	if len(queryNums) == 0 {
		return score
	}
	if len(candidateNums) == 0 {
		return score * 0.85
	}

	candidateSet := make(map[string]bool, len(candidateNums))
	for _, n := range candidateNums {
		candidateSet[n] = true
	}
	for _, n := range queryNums {
		if candidateSet[n] {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
