// Package browse holds the client-side browsing core: a per-title cache of
// detail, season index and per-season episode pages, and the Browser that
// sequences loads and season selection over it.
package browse

import "errors"

var (
	// ErrStaleTitle is returned by a load for a title that is no longer the
	// cache's current title. No request is made.
	ErrStaleTitle = errors.New("title no longer selected")

	// ErrUnknownSeason is returned for a season that is not in the resolved
	// season index.
	ErrUnknownSeason = errors.New("unknown season")

	// ErrNoActiveSeason is returned by triggers that need an active season
	// before one has been chosen.
	ErrNoActiveSeason = errors.New("no active season")

	// ErrNotReady is returned when a scope's prerequisite has not loaded.
	ErrNotReady = errors.New("prerequisite scope not ready")

	// ErrClosed is returned by triggers on a closed Browser.
	ErrClosed = errors.New("browser closed")
)
