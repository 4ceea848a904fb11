package browse

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/vmunix/episodic/internal/catalog"
	"github.com/vmunix/episodic/internal/events"
	"github.com/vmunix/episodic/internal/fetch"
	"github.com/vmunix/episodic/pkg/imdbapi"
)

// Status is the state of one cache scope.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// DetailState is the title detail scope. Title survives a failed retry.
type DetailState struct {
	Status Status
	Title  *catalog.Title
	Err    string
}

// SeasonIndexState is the season index scope.
type SeasonIndexState struct {
	Status  Status
	Seasons []catalog.SeasonID
	Err     string
}

// SeasonEntry is the paginated episode list of one season.
type SeasonEntry struct {
	Items       []catalog.Episode
	NextCursor  string
	HasMore     bool
	Loading     bool
	Err         string
	FetchedOnce bool

	pending string // cursor of the request in flight
}

// Status derives the scope state of the entry.
func (e SeasonEntry) Status() Status {
	switch {
	case e.Loading:
		return StatusLoading
	case e.Err != "":
		return StatusFailed
	case e.FetchedOnce:
		return StatusReady
	default:
		return StatusIdle
	}
}

func (e *SeasonEntry) clone() SeasonEntry {
	c := *e
	c.Items = slices.Clone(e.Items)
	c.pending = ""
	return c
}

// Cache holds the three independently loading scopes of one title: detail,
// season index, and one SeasonEntry per season. Loads for a title other than
// the current one are refused, and every commit re-checks the request token
// under the cache lock, so a superseded completion never mutates state.
type Cache struct {
	up       Upstream
	coord    *fetch.Coordinator
	bus      *events.Bus
	log      *slog.Logger
	pageSize int

	mu      sync.Mutex
	titleID string
	detail  DetailState
	index   SeasonIndexState
	seasons map[catalog.SeasonID]*SeasonEntry
}

// NewCache creates an empty cache. bus may be nil.
func NewCache(up Upstream, bus *events.Bus, log *slog.Logger, pageSize int) *Cache {
	if log == nil {
		log = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = imdbapi.DefaultPageSize
	}
	return &Cache{
		up:       up,
		coord:    fetch.NewCoordinator(log),
		bus:      bus,
		log:      log,
		pageSize: pageSize,
		detail:   DetailState{Status: StatusIdle},
		index:    SeasonIndexState{Status: StatusIdle},
		seasons:  make(map[catalog.SeasonID]*SeasonEntry),
	}
}

// Reset makes titleID the current title. Every request of the previous title
// is cancelled and all three scopes return to idle before Reset returns.
func (c *Cache) Reset(titleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.titleID != "" {
		if n := c.coord.SupersedeTitle(c.titleID); n > 0 {
			c.log.Debug("cancelled requests of previous title", "title_id", c.titleID, "cancelled", n)
		}
	}

	c.titleID = titleID
	c.detail = DetailState{Status: StatusIdle}
	c.index = SeasonIndexState{Status: StatusIdle}
	c.seasons = make(map[catalog.SeasonID]*SeasonEntry)

	c.publish(string(fetch.ScopeDetail), "", StatusIdle, "")
	c.publish(string(fetch.ScopeSeasonIndex), "", StatusIdle, "")
}

// LoadDetail fetches and normalizes the title detail.
func (c *Cache) LoadDetail(ctx context.Context, titleID string) error {
	c.mu.Lock()
	if c.titleID != titleID {
		c.mu.Unlock()
		return ErrStaleTitle
	}
	tok := c.coord.Begin(fetch.Key{TitleID: titleID, Scope: fetch.ScopeDetail})
	c.detail.Status = StatusLoading
	c.detail.Err = ""
	c.publish(string(fetch.ScopeDetail), "", StatusLoading, "")
	c.mu.Unlock()

	start := time.Now()
	v, tok, leader, err := c.coord.Issue(ctx, tok, func(ctx context.Context) (any, error) {
		return c.up.Title(ctx, titleID)
	})
	if errors.Is(err, fetch.ErrCancelled) {
		c.log.Debug("detail load cancelled", "title_id", titleID)
		return err
	}
	if !leader {
		return err
	}

	ok := c.commit(tok, titleID, func() {
		if err != nil {
			c.detail.Status = StatusFailed
			c.detail.Err = err.Error()
			c.publish(string(fetch.ScopeDetail), "", StatusFailed, c.detail.Err)
			return
		}
		t := catalog.NormalizeTitle(catalog.Results(v))
		if t.ID == "" {
			t.ID = titleID
		}
		c.detail = DetailState{Status: StatusReady, Title: &t}
		c.publish(string(fetch.ScopeDetail), "", StatusReady, "")
	})
	if !ok {
		return fetch.ErrCancelled
	}
	if err != nil {
		c.log.Warn("detail load failed", "title_id", titleID, "error", err)
		return err
	}

	c.log.Debug("detail loaded", "title_id", titleID, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// LoadSeasonIndex fetches the season list and materializes one empty entry per
// season not already known. A 404 resolves to an empty season list.
func (c *Cache) LoadSeasonIndex(ctx context.Context, titleID string) error {
	c.mu.Lock()
	if c.titleID != titleID {
		c.mu.Unlock()
		return ErrStaleTitle
	}
	tok := c.coord.Begin(fetch.Key{TitleID: titleID, Scope: fetch.ScopeSeasonIndex})
	c.index.Status = StatusLoading
	c.index.Err = ""
	c.publish(string(fetch.ScopeSeasonIndex), "", StatusLoading, "")
	c.mu.Unlock()

	start := time.Now()
	v, tok, leader, err := c.coord.Issue(ctx, tok, func(ctx context.Context) (any, error) {
		return c.up.Seasons(ctx, titleID)
	})
	if errors.Is(err, fetch.ErrCancelled) {
		c.log.Debug("season index load cancelled", "title_id", titleID)
		return err
	}
	if !leader {
		return err
	}

	notFound := errors.Is(err, imdbapi.ErrNotFound)
	if notFound {
		err = nil
	}

	ok := c.commit(tok, titleID, func() {
		if err != nil {
			c.index.Status = StatusFailed
			c.index.Err = err.Error()
			c.publish(string(fetch.ScopeSeasonIndex), "", StatusFailed, c.index.Err)
			return
		}
		seasons := []catalog.SeasonID{}
		if !notFound {
			seasons = catalog.NormalizeSeasonList(v)
		}
		for _, s := range seasons {
			if _, exists := c.seasons[s]; !exists {
				c.seasons[s] = &SeasonEntry{}
			}
		}
		// Seasons a reloaded index no longer lists are dropped unless they
		// already hold episodes or are loading.
		for id, entry := range c.seasons {
			if !entry.FetchedOnce && !entry.Loading && !slices.Contains(seasons, id) {
				delete(c.seasons, id)
			}
		}
		c.index = SeasonIndexState{Status: StatusReady, Seasons: seasons}
		c.publish(string(fetch.ScopeSeasonIndex), "", StatusReady, "")
	})
	if !ok {
		return fetch.ErrCancelled
	}
	if err != nil {
		c.log.Warn("season index load failed", "title_id", titleID, "error", err)
		return err
	}

	c.log.Debug("season index loaded", "title_id", titleID, "not_found", notFound,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// LoadSeasonEpisodes fetches the page at cursor ("" for the first page) and
// appends it to the season's entry. A request for the same season with a
// different cursor supersedes the one in flight; the same cursor joins it.
func (c *Cache) LoadSeasonEpisodes(ctx context.Context, titleID string, season catalog.SeasonID, cursor string) error {
	_, err := c.loadEpisodes(ctx, titleID, season, func(SeasonEntry) (string, bool) {
		return cursor, true
	})
	return err
}

// pageGuard decides, under the cache lock, whether a page load should start
// and at which cursor.
type pageGuard func(e SeasonEntry) (cursor string, ok bool)

// firstPage starts the first page of a season that was never fetched.
func firstPage(e SeasonEntry) (string, bool) {
	return "", !e.FetchedOnce && !e.Loading
}

// nextPage continues pagination.
func nextPage(e SeasonEntry) (string, bool) {
	return e.NextCursor, !e.Loading && e.HasMore
}

// retryPage re-requests the cursor that failed, or the first page.
func retryPage(e SeasonEntry) (string, bool) {
	return e.NextCursor, !e.Loading && (e.Err != "" || !e.FetchedOnce)
}

// loadEpisodes reports started=false when guard declined the load.
func (c *Cache) loadEpisodes(ctx context.Context, titleID string, season catalog.SeasonID, guard pageGuard) (started bool, err error) {
	tok, cursor, started, err := c.beginEpisodes(titleID, season, guard)
	if !started || err != nil {
		return started, err
	}
	return true, c.runEpisodes(ctx, tok, season, cursor)
}

// beginEpisodes marks the season loading and reserves its request under the
// cache lock, so a CancelSeason or Reset that follows invalidates the request
// even before it is issued.
func (c *Cache) beginEpisodes(titleID string, season catalog.SeasonID, guard pageGuard) (tok fetch.Token, cursor string, started bool, err error) {
	key := fetch.Key{TitleID: titleID, Scope: fetch.ScopeEpisodes, Params: string(season)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.titleID != titleID {
		return tok, "", false, ErrStaleTitle
	}
	entry, exists := c.seasons[season]
	if !exists {
		return tok, "", false, ErrUnknownSeason
	}
	cursor, ok := guard(*entry)
	if !ok {
		return tok, "", false, nil
	}
	if entry.Loading && entry.pending != cursor {
		c.coord.Supersede(key)
	}
	tok = c.coord.Begin(key)
	entry.Loading = true
	entry.Err = ""
	entry.pending = cursor
	c.publish(string(fetch.ScopeEpisodes), string(season), StatusLoading, "")
	return tok, cursor, true, nil
}

// runEpisodes issues the request reserved by beginEpisodes and commits the
// page if the reservation is still live.
func (c *Cache) runEpisodes(ctx context.Context, tok fetch.Token, season catalog.SeasonID, cursor string) error {
	titleID := tok.Key().TitleID

	start := time.Now()
	v, tok, leader, err := c.coord.Issue(ctx, tok, func(ctx context.Context) (any, error) {
		return c.up.Episodes(ctx, titleID, imdbapi.EpisodeQuery{
			Season:    string(season),
			PageSize:  c.pageSize,
			PageToken: cursor,
		})
	})
	if errors.Is(err, fetch.ErrCancelled) {
		c.log.Debug("episodes load cancelled", "title_id", titleID, "season", season)
		return err
	}
	if !leader {
		return err
	}

	var page []catalog.Episode
	var next string
	if err == nil {
		page = normalizePage(v, season)
		next = catalog.NextPageToken(v)
	}

	var total int
	ok := c.commit(tok, titleID, func() {
		entry, exists := c.seasons[season]
		if !exists {
			return
		}
		entry.Loading = false
		entry.pending = ""
		if err != nil {
			entry.Err = err.Error()
			c.publish(string(fetch.ScopeEpisodes), string(season), StatusFailed, entry.Err)
			return
		}
		entry.Items = appendNew(entry.Items, page)
		entry.NextCursor = next
		entry.HasMore = next != ""
		entry.FetchedOnce = true
		total = len(entry.Items)
		c.publish(string(fetch.ScopeEpisodes), string(season), StatusReady, "")
	})
	if !ok {
		return fetch.ErrCancelled
	}
	if err != nil {
		c.log.Warn("episodes load failed", "title_id", titleID, "season", season, "cursor", cursor, "error", err)
		return err
	}

	c.log.Debug("episodes page loaded", "title_id", titleID, "season", season,
		"page", len(page), "total", total, "has_more", next != "",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// CancelSeason cancels the episode request in flight for season and clears
// its loading flag. It reports whether a load was cancelled.
func (c *Cache) CancelSeason(titleID string, season catalog.SeasonID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.titleID != titleID {
		return false
	}
	entry, ok := c.seasons[season]
	if !ok || !entry.Loading {
		return false
	}

	c.coord.Supersede(fetch.Key{TitleID: titleID, Scope: fetch.ScopeEpisodes, Params: string(season)})
	entry.Loading = false
	entry.pending = ""
	c.publish(string(fetch.ScopeEpisodes), string(season), entry.Status(), entry.Err)
	return true
}

// TitleID returns the current title.
func (c *Cache) TitleID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.titleID
}

// Detail returns a snapshot of the detail scope.
func (c *Cache) Detail() DetailState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detail
}

// SeasonIndex returns a snapshot of the season index scope.
func (c *Cache) SeasonIndex() SeasonIndexState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.index
	s.Seasons = slices.Clone(s.Seasons)
	return s
}

// Season returns a snapshot of one season's entry.
func (c *Cache) Season(season catalog.SeasonID) (SeasonEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.seasons[season]
	if !ok {
		return SeasonEntry{}, false
	}
	return entry.clone(), true
}

// Close cancels every request and refuses new ones.
func (c *Cache) Close() {
	c.coord.Close()
}

// snapshotLocked copies every scope. c.mu must be held.
func (c *Cache) snapshotLocked() (string, DetailState, SeasonIndexState, map[catalog.SeasonID]SeasonEntry) {
	index := c.index
	index.Seasons = slices.Clone(index.Seasons)
	entries := make(map[catalog.SeasonID]SeasonEntry, len(c.seasons))
	for id, e := range c.seasons {
		entries[id] = e.clone()
	}
	return c.titleID, c.detail, index, entries
}

func (c *Cache) commit(tok fetch.Token, titleID string, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.titleID != titleID || !c.coord.Live(tok) {
		return false
	}
	apply()
	return true
}

// publish emits a ScopeChanged event. Called with c.mu held so events keep
// commit order; Bus.Publish never blocks.
func (c *Cache) publish(scope, season string, status Status, errMsg string) {
	if c.bus == nil {
		return
	}
	_ = c.bus.Publish(context.Background(), events.NewScopeChanged(c.titleID, scope, season, string(status), errMsg))
}

// normalizePage normalizes one episodes page, dropping records without an id.
// Episodes without a season number inherit the requested season's.
func normalizePage(raw any, season catalog.SeasonID) []catalog.Episode {
	fallback := 0
	if n, ok := season.Number(); ok && n > 0 && n == math.Trunc(n) {
		fallback = int(n)
	}

	items := catalog.EpisodeList(raw)
	out := make([]catalog.Episode, 0, len(items))
	for _, item := range items {
		ep := catalog.NormalizeEpisode(item)
		if ep.ID == "" {
			continue
		}
		if ep.SeasonNumber == 0 {
			ep.SeasonNumber = fallback
		}
		out = append(out, ep)
	}
	return out
}

// appendNew appends the episodes of page whose ids are not yet in items.
func appendNew(items, page []catalog.Episode) []catalog.Episode {
	seen := make(map[string]bool, len(items)+len(page))
	for _, ep := range items {
		seen[ep.ID] = true
	}
	for _, ep := range page {
		if seen[ep.ID] {
			continue
		}
		seen[ep.ID] = true
		items = append(items, ep)
	}
	return items
}
