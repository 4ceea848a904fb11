package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/episodic/internal/browse"
	"github.com/vmunix/episodic/internal/catalog"
	"github.com/vmunix/episodic/internal/events"
	"github.com/vmunix/episodic/internal/nav"
)

var showCmd = &cobra.Command{
	Use:   "show <title-id|location>",
	Short: "Show a title, its seasons and the episodes of one season",
	Long: `Load a title's detail, then its season index, then the episodes of the
active season. The active season is --season, the season of the location,
or the first season.

Examples:
  episodic show tt0903747
  episodic show tt0903747 --season 3 --pages 2
  episodic show '/titles/tt0903747?season=2'
  episodic show tt0903747 --match "ozymandias"`,
	Args: cobra.ExactArgs(1),
	RunE: runShowCmd,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().String("season", "", "Season to open")
	showCmd.Flags().Int("pages", 1, "Episode pages to load for the active season")
	showCmd.Flags().String("match", "", "Rank loaded episodes by title similarity")
	showCmd.Flags().Bool("trace", false, "Print browse events to stderr")
}

type showOptions struct {
	Location string
	Season   string
	Pages    int
	Match    string
	PageSize int
}

type showResult struct {
	Title        *catalog.Title     `json:"title,omitempty"`
	Seasons      []catalog.SeasonID `json:"seasons"`
	ActiveSeason catalog.SeasonID   `json:"activeSeason,omitempty"`
	Episodes     []catalog.Episode  `json:"episodes"`
	HasMore      bool               `json:"hasMore"`
	Matches      []episodeMatch     `json:"matches,omitempty"`
	Phase        browse.Phase       `json:"phase"`
	Location     string             `json:"location"`
	History      []string           `json:"history"`
	Error        string             `json:"error,omitempty"`
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closer := newLogger(cfg)
	defer func() { _ = closer.Close() }()

	opts := showOptions{Location: args[0], PageSize: cfg.Upstream.PageSize}
	opts.Season, _ = cmd.Flags().GetString("season")
	opts.Pages, _ = cmd.Flags().GetInt("pages")
	opts.Match, _ = cmd.Flags().GetString("match")

	var trace io.Writer
	if on, _ := cmd.Flags().GetBool("trace"); on {
		trace = cmd.ErrOrStderr()
	}

	res, err := browseTitle(cmd.Context(), newUpstream(cfg, log), opts, log, trace)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, res); err != nil {
			return err
		}
	} else {
		renderShow(out, res)
	}
	if res.Error != "" {
		return fmt.Errorf("%s: %s", res.Phase, res.Error)
	}
	return nil
}

// browseTitle drives a Browser through one title: open, settle, then load up
// to opts.Pages pages of the active season. The location follows the season
// selection through the event bus.
func browseTitle(ctx context.Context, up browse.Upstream, opts showOptions, log *slog.Logger, trace io.Writer) (*showResult, error) {
	loc, err := nav.Parse(opts.Location)
	if err != nil {
		return nil, err
	}
	hint := loc.Season()
	if opts.Season != "" {
		hint = opts.Season
	}

	bus := events.NewBus(log)
	defer bus.Close()
	var g errgroup.Group

	selections := bus.Subscribe(events.EventSeasonSelected, 16)
	subs := []<-chan events.Event{selections}
	g.Go(func() error {
		loc.Follow(context.Background(), selections)
		return nil
	})
	if trace != nil {
		traced := bus.SubscribeEntity(events.EntityTitle, loc.TitleID(), 64)
		subs = append(subs, traced)
		g.Go(func() error {
			for e := range traced {
				printEvent(trace, e)
			}
			return nil
		})
	}

	b := browse.NewBrowser(up,
		browse.WithPageSize(opts.PageSize),
		browse.WithEvents(bus),
		browse.WithLogger(log),
	)
	stop := context.AfterFunc(ctx, b.Close)
	defer stop()

	if err := b.Open(loc.TitleID(), hint); err != nil {
		return nil, err
	}
	b.Wait()

	for i := 1; i < opts.Pages; i++ {
		if e, ok := b.Snapshot().Active(); !ok || !e.HasMore || e.Err != "" {
			break
		}
		if err := b.LoadMore(); err != nil {
			break
		}
		b.Wait()
	}

	snap := b.Snapshot()
	b.Close()
	// Consumers drain what was buffered, then stop.
	for _, ch := range subs {
		bus.Unsubscribe(ch)
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &showResult{
		Title:        snap.Detail.Title,
		Seasons:      snap.SeasonIndex.Seasons,
		ActiveSeason: snap.ActiveSeason,
		Phase:        snap.Phase(),
		Location:     loc.String(),
		History:      loc.History(),
	}
	if res.Seasons == nil {
		res.Seasons = []catalog.SeasonID{}
	}
	if e, ok := snap.Active(); ok {
		res.Episodes = e.Items
		res.HasMore = e.HasMore
		res.Error = e.Err
	}
	if res.Episodes == nil {
		res.Episodes = []catalog.Episode{}
	}
	switch {
	case snap.Detail.Err != "":
		res.Error = snap.Detail.Err
	case snap.SeasonIndex.Err != "":
		res.Error = snap.SeasonIndex.Err
	}
	if opts.Match != "" {
		res.Matches = rankEpisodes(opts.Match, res.Episodes)
	}
	return res, nil
}

func renderShow(w io.Writer, r *showResult) {
	if r.Title != nil {
		fmt.Fprintf(w, "%s%s  %s\n", r.Title.DisplayTitle, formatYear(r.Title.Year), r.Title.ID)
		if rating := formatRating(r.Title.Rating); rating != "" {
			fmt.Fprintf(w, "Rating:  %s\n", rating)
		}
		if rt := formatRuntime(r.Title.RuntimeMinutes); rt != "" {
			fmt.Fprintf(w, "Runtime: %s\n", rt)
		}
		if len(r.Title.Genres) > 0 {
			fmt.Fprintf(w, "Genres:  %s\n", strings.Join(r.Title.Genres, ", "))
		}
		if r.Title.Plot != "" {
			fmt.Fprintf(w, "\n%s\n", r.Title.Plot)
		}
	}

	switch r.Phase {
	case browse.PhaseDetailLoading, browse.PhaseDetailFailed, browse.PhaseStart:
		return
	case browse.PhaseSeasonIndexFailed:
		fmt.Fprintln(w, "\nSeasons unavailable")
		return
	case browse.PhaseNoSeasons:
		fmt.Fprintln(w, "\nNo seasons")
		return
	}

	ids := make([]string, len(r.Seasons))
	for i, s := range r.Seasons {
		ids[i] = string(s)
	}
	fmt.Fprintf(w, "\nSeasons: %s\n", strings.Join(ids, " "))

	if r.ActiveSeason == "" {
		return
	}
	more := ""
	if r.HasMore {
		more = ", more available"
	}
	fmt.Fprintf(w, "\nSeason %s  (%d episodes%s)\n", r.ActiveSeason, len(r.Episodes), more)
	for _, ep := range r.Episodes {
		fmt.Fprintf(w, "  %s\n", episodeLine(ep))
	}

	if len(r.Matches) > 0 {
		fmt.Fprintln(w, "\nMatches:")
		for _, m := range r.Matches {
			fmt.Fprintf(w, "  %.2f %-6s  %s\n", m.Score, m.Confidence, episodeLine(m.Episode))
		}
	}
	fmt.Fprintf(w, "\nLocation: %s\n", r.Location)
}

func printEvent(w io.Writer, e events.Event) {
	switch ev := e.(type) {
	case *events.SeasonSelected:
		initial := ""
		if ev.Initial {
			initial = " (initial)"
		}
		fmt.Fprintf(w, "%s season=%s%s\n", ev.EventType(), ev.Season, initial)
	case *events.ScopeChanged:
		line := fmt.Sprintf("%s %s %s", ev.EventType(), ev.Scope, ev.Status)
		if ev.Season != "" {
			line += " season=" + ev.Season
		}
		if ev.Error != "" {
			line += " error=" + ev.Error
		}
		fmt.Fprintln(w, line)
	default:
		fmt.Fprintln(w, e.EventType())
	}
}
