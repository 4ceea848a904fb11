package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/episodic/internal/browse"
	"github.com/vmunix/episodic/internal/catalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List popular titles",
	Long: `List titles sorted by popularity, paging through the upstream listing.

Examples:
  episodic list
  episodic list --type tvMiniSeries --pages 3`,
	Args: cobra.NoArgs,
	RunE: runListCmd,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringSlice("type", []string{"tvSeries"}, "Title types (tvSeries, tvMiniSeries, movie, ...)")
	listCmd.Flags().Int("pages", 1, "Pages to load")
}

var titleTypes = map[string]string{
	"tvseries":     "TV_SERIES",
	"tvminiseries": "TV_MINI_SERIES",
	"movie":        "MOVIE",
	"tvmovie":      "TV_MOVIE",
	"tvspecial":    "TV_SPECIAL",
	"short":        "SHORT",
}

// upstreamTypes maps camel-case type names to the upstream enum; unknown
// names pass through upper-cased.
func upstreamTypes(names []string) []string {
	types := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if t, ok := titleTypes[strings.ToLower(n)]; ok {
			types = append(types, t)
			continue
		}
		types = append(types, strings.ToUpper(n))
	}
	return types
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closer := newLogger(cfg)
	defer func() { _ = closer.Close() }()

	names, _ := cmd.Flags().GetStringSlice("type")
	pages, _ := cmd.Flags().GetInt("pages")

	titles, err := listTitles(cmd.Context(), newUpstream(cfg, log), upstreamTypes(names), pages)
	if err != nil && len(titles) == 0 {
		return fmt.Errorf("list: %w", err)
	}

	if jsonOutput {
		if perr := printJSON(cmd.OutOrStdout(), titles); perr != nil {
			return perr
		}
	} else {
		renderTitles(cmd.OutOrStdout(), titles)
	}
	return err
}

// listTitles loads up to pages pages. Titles loaded before a failing page are
// returned with the error.
func listTitles(ctx context.Context, lister browse.TitleLister, types []string, pages int) ([]catalog.Title, error) {
	p := browse.NewPager(browse.TitlePages(lister, types), browse.TitleKey)
	for i := 0; i < max(pages, 1); i++ {
		if i > 0 && !p.HasMore() {
			break
		}
		if _, err := p.Next(ctx); err != nil {
			return p.Items(), err
		}
	}
	return p.Items(), nil
}

func renderTitles(w io.Writer, titles []catalog.Title) {
	for _, t := range titles {
		line := fmt.Sprintf("%-11s %s%s", t.ID, t.DisplayTitle, formatYear(t.Year))
		if t.Rating != nil {
			line += fmt.Sprintf("  %.1f", t.Rating.Score)
		}
		fmt.Fprintln(w, line)
	}
}
