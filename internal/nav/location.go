// Package nav keeps the shareable location of a browse session in sync with
// the active season.
package nav

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/vmunix/episodic/internal/events"
)

const (
	titlesPrefix = "/titles/"
	seasonParam  = "season"
)

// ErrNotTitle is returned when a location does not name a title.
var ErrNotTitle = errors.New("location does not name a title")

// Location is a title location, "/titles/{id}?season={s}". Season changes
// replace the current history entry instead of pushing a new one.
type Location struct {
	mu      sync.Mutex
	titleID string
	query   url.Values
	history []string
}

// ForTitle creates the location of titleID, optionally with a season.
func ForTitle(titleID, season string) *Location {
	l := &Location{titleID: titleID, query: url.Values{}}
	if season != "" {
		l.query.Set(seasonParam, season)
	}
	l.history = []string{l.stringLocked()}
	return l
}

// Parse accepts a bare title id or a "/titles/{id}[?season=...]" path.
func Parse(raw string) (*Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNotTitle
	}
	if !strings.Contains(raw, "/") && !strings.Contains(raw, "?") {
		return ForTitle(raw, ""), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse location: %w", err)
	}
	id, ok := strings.CutPrefix(u.Path, titlesPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("%w: %s", ErrNotTitle, raw)
	}

	l := &Location{titleID: id, query: u.Query()}
	l.history = []string{l.stringLocked()}
	return l, nil
}

// TitleID returns the title of the location.
func (l *Location) TitleID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.titleID
}

// Season returns the season parameter, or "".
func (l *Location) Season() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query.Get(seasonParam)
}

// ReplaceSeason sets the season parameter, or removes it when season is "",
// rewriting the current history entry.
func (l *Location) ReplaceSeason(season string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if season == "" {
		l.query.Del(seasonParam)
	} else {
		l.query.Set(seasonParam, season)
	}
	l.history[len(l.history)-1] = l.stringLocked()
}

// History returns the history entries, oldest first.
func (l *Location) History() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.history)
}

func (l *Location) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stringLocked()
}

func (l *Location) stringLocked() string {
	s := titlesPrefix + url.PathEscape(l.titleID)
	if len(l.query) > 0 {
		s += "?" + l.query.Encode()
	}
	return s
}

// Follow mirrors SeasonSelected events of the location's title until ctx is
// done or ch is closed.
func (l *Location) Follow(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			sel, isSel := e.(*events.SeasonSelected)
			if !isSel || sel.TitleID != l.TitleID() {
				continue
			}
			l.ReplaceSeason(sel.Season)
		}
	}
}
