package browse

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vmunix/episodic/internal/catalog"
	"github.com/vmunix/episodic/internal/events"
	"github.com/vmunix/episodic/internal/fetch"
	"github.com/vmunix/episodic/pkg/imdbapi"
)

// Phase is the position of a title navigation in the load sequence.
type Phase string

const (
	PhaseStart              Phase = "start"
	PhaseDetailLoading      Phase = "detail_loading"
	PhaseDetailFailed       Phase = "detail_failed"
	PhaseSeasonIndexLoading Phase = "season_index_loading"
	PhaseSeasonIndexFailed  Phase = "season_index_failed"
	PhaseSelectionPending   Phase = "selection_pending"
	PhaseNoSeasons          Phase = "no_seasons"
	PhaseActiveSeasonChosen Phase = "active_season_chosen"
	PhaseEpisodesLoading    Phase = "episodes_loading"
	PhaseEpisodesReady      Phase = "episodes_ready"
	PhaseEpisodesFailed     Phase = "episodes_failed"
)

// Snapshot is a consistent, read-only copy of a Browser's state.
type Snapshot struct {
	TitleID      string
	Detail       DetailState
	SeasonIndex  SeasonIndexState
	ActiveSeason catalog.SeasonID // "" until one is chosen
	Seasons      map[catalog.SeasonID]SeasonEntry
}

// Active returns the entry of the active season.
func (s Snapshot) Active() (SeasonEntry, bool) {
	if s.ActiveSeason == "" {
		return SeasonEntry{}, false
	}
	e, ok := s.Seasons[s.ActiveSeason]
	return e, ok
}

// Phase derives the sequencer position from the snapshot.
func (s Snapshot) Phase() Phase {
	switch {
	case s.TitleID == "":
		return PhaseStart
	case s.Detail.Status == StatusFailed:
		return PhaseDetailFailed
	case s.Detail.Status != StatusReady:
		return PhaseDetailLoading
	case s.SeasonIndex.Status == StatusFailed:
		return PhaseSeasonIndexFailed
	case s.SeasonIndex.Status != StatusReady:
		return PhaseSeasonIndexLoading
	case len(s.SeasonIndex.Seasons) == 0:
		return PhaseNoSeasons
	case s.ActiveSeason == "":
		return PhaseSelectionPending
	}

	e, _ := s.Active()
	switch e.Status() {
	case StatusLoading:
		return PhaseEpisodesLoading
	case StatusFailed:
		return PhaseEpisodesFailed
	case StatusReady:
		return PhaseEpisodesReady
	default:
		return PhaseActiveSeasonChosen
	}
}

// Option configures a Browser.
type Option func(*Browser)

// WithPageSize sets the episodes page size.
func WithPageSize(n int) Option {
	return func(b *Browser) {
		b.pageSize = n
	}
}

// WithEvents publishes SeasonSelected and ScopeChanged events on bus.
func WithEvents(bus *events.Bus) Option {
	return func(b *Browser) {
		b.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Browser) {
		b.log = log
	}
}

// Browser sequences the loads of one title at a time: detail, then the season
// index, then the initial season choice, then episodes of the active season
// only. Triggers return immediately and run their I/O in the background; use
// Snapshot to observe state and Wait to drain background work.
type Browser struct {
	cache    *Cache
	bus      *events.Bus
	log      *slog.Logger
	pageSize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	titleID string
	hint    string
	active  catalog.SeasonID
	closed  bool
}

// NewBrowser creates a Browser reading from up.
func NewBrowser(up Upstream, opts ...Option) *Browser {
	b := &Browser{pageSize: imdbapi.DefaultPageSize}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	b.log = b.log.With("component", "browse")
	b.cache = NewCache(up, b.bus, b.log, b.pageSize)
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return b
}

// Open navigates to titleID. Everything loaded or loading for the previous
// title is discarded before the first request for titleID is issued. hint is
// the season requested by navigation state, if any.
func (b *Browser) Open(titleID, hint string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.titleID = titleID
	b.hint = hint
	b.active = ""
	b.cache.Reset(titleID)

	b.log.Debug("opening title", "title_id", titleID, "hint", hint)
	b.spawn(func(ctx context.Context) {
		b.runDetail(ctx, titleID)
	})
	return nil
}

// SelectSeason makes id the active season. The previous season's in-flight
// request is cancelled, and the first page of id is loaded if it was never
// fetched and is not loading.
func (b *Browser) SelectSeason(id string) error {
	season := catalog.ParseSeasonID(id)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if _, ok := b.cache.Season(season); !ok {
		return ErrUnknownSeason
	}
	if season == b.active {
		return nil
	}

	prev := b.active
	if prev != "" && b.cache.CancelSeason(b.titleID, prev) {
		b.log.Debug("cancelled load of previous season", "title_id", b.titleID, "season", prev)
	}
	b.activateLocked(season, prev, false)
	return nil
}

// LoadMore requests the next page of the active season. It does nothing while
// a page is loading or when the season has no more pages.
func (b *Browser) LoadMore() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.active == "" {
		return ErrNoActiveSeason
	}

	titleID, season := b.titleID, b.active
	b.spawn(func(ctx context.Context) {
		_, _ = b.cache.loadEpisodes(ctx, titleID, season, nextPage)
	})
	return nil
}

// RetryDetail reloads the title detail, continuing to the season index when
// that scope has not loaded yet.
func (b *Browser) RetryDetail() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.titleID == "" {
		return ErrNotReady
	}
	if b.cache.Detail().Status == StatusLoading {
		return nil
	}

	titleID := b.titleID
	b.spawn(func(ctx context.Context) {
		b.runDetail(ctx, titleID)
	})
	return nil
}

// RetrySeasonIndex reloads the season index. Detail is left untouched.
func (b *Browser) RetrySeasonIndex() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.titleID == "" || b.cache.Detail().Status != StatusReady {
		return ErrNotReady
	}
	if b.cache.SeasonIndex().Status == StatusLoading {
		return nil
	}

	titleID := b.titleID
	b.spawn(func(ctx context.Context) {
		b.runSeasonIndex(ctx, titleID)
	})
	return nil
}

// RetrySeasonEpisodes re-requests the cursor that failed for season, keeping
// the items already loaded. A season never fetched restarts at the first page.
func (b *Browser) RetrySeasonEpisodes(id string) error {
	season := catalog.ParseSeasonID(id)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if _, ok := b.cache.Season(season); !ok {
		return ErrUnknownSeason
	}

	titleID := b.titleID
	b.spawn(func(ctx context.Context) {
		_, _ = b.cache.loadEpisodes(ctx, titleID, season, retryPage)
	})
	return nil
}

// Snapshot returns a consistent copy of the current state.
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.mu.Lock()
	titleID, detail, index, seasons := b.cache.snapshotLocked()
	b.cache.mu.Unlock()

	return Snapshot{
		TitleID:      titleID,
		Detail:       detail,
		SeasonIndex:  index,
		ActiveSeason: b.active,
		Seasons:      seasons,
	}
}

// Wait blocks until all background work started by triggers has finished.
func (b *Browser) Wait() {
	b.wg.Wait()
}

// Close cancels all outstanding requests and refuses further triggers.
func (b *Browser) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.cancel()
	b.cache.Close()
	b.mu.Unlock()

	b.wg.Wait()
	b.log.Debug("browser closed", "title_id", b.titleID)
}

// spawn runs fn in the background. b.mu must be held.
func (b *Browser) spawn(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
}

func (b *Browser) runDetail(ctx context.Context, titleID string) {
	if err := b.cache.LoadDetail(ctx, titleID); err != nil {
		return
	}
	if b.cache.SeasonIndex().Status != StatusIdle {
		return
	}
	b.runSeasonIndex(ctx, titleID)
}

func (b *Browser) runSeasonIndex(ctx context.Context, titleID string) {
	if err := b.cache.LoadSeasonIndex(ctx, titleID); err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// The initial choice is made once; an explicit selection is authoritative.
	if b.closed || b.titleID != titleID || b.active != "" {
		return
	}
	season, ok := ResolveSeason(b.cache.SeasonIndex().Seasons, b.hint)
	if !ok {
		b.log.Debug("title has no seasons", "title_id", titleID)
		return
	}
	b.activateLocked(season, "", true)
}

// activateLocked records season as active, announces it, and starts its first
// page when needed. b.mu must be held.
func (b *Browser) activateLocked(season, prev catalog.SeasonID, initial bool) {
	b.active = season
	if b.bus != nil {
		_ = b.bus.Publish(context.Background(), events.NewSeasonSelected(b.titleID, string(season), string(prev), initial))
	}
	b.log.Debug("season selected", "title_id", b.titleID, "season", season, "initial", initial)

	titleID := b.titleID
	b.spawn(func(ctx context.Context) {
		_, err := b.cache.loadEpisodes(ctx, titleID, season, firstPage)
		if err != nil && !errors.Is(err, fetch.ErrCancelled) {
			b.log.Debug("first page not loaded", "title_id", titleID, "season", season, "error", err)
		}
	})
}
