package main

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vmunix/episodic/internal/catalog"
)

var printer = message.NewPrinter(language.English)

// formatVotes groups digits, e.g. 2345678 -> "2,345,678".
func formatVotes(n int) string {
	return printer.Sprintf("%d", n)
}

func formatRating(r *catalog.Rating) string {
	if r == nil {
		return ""
	}
	if r.VoteCount > 0 {
		return fmt.Sprintf("%.1f (%s votes)", r.Score, formatVotes(r.VoteCount))
	}
	return fmt.Sprintf("%.1f", r.Score)
}

func formatRuntime(minutes *int) string {
	if minutes == nil || *minutes <= 0 {
		return ""
	}
	h, m := *minutes/60, *minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

func formatYear(year *int) string {
	if year == nil {
		return ""
	}
	return fmt.Sprintf(" (%d)", *year)
}

// episodeLine renders one episode row; empty columns are skipped.
func episodeLine(ep catalog.Episode) string {
	cols := []string{fmt.Sprintf("E%-3d", ep.EpisodeNumber), ep.Title}
	if ep.AirDate != "" {
		cols = append(cols, ep.AirDate)
	}
	if rt := formatRuntime(ep.RuntimeMinutes); rt != "" {
		cols = append(cols, rt)
	}
	if ep.Rating != nil {
		cols = append(cols, fmt.Sprintf("%.1f", ep.Rating.Score))
	}
	return strings.Join(cols, "  ")
}
