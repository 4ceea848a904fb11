package browse

import (
	"context"

	"github.com/vmunix/episodic/pkg/imdbapi"
)

//go:generate mockgen -destination=mocks/mock_upstream.go -package=mocks . Upstream

// Upstream is the catalog API the cache reads from. Payloads are raw decoded
// JSON; the cache normalizes them.
type Upstream interface {
	Title(ctx context.Context, titleID string) (any, error)
	Seasons(ctx context.Context, titleID string) (any, error)
	Episodes(ctx context.Context, titleID string, q imdbapi.EpisodeQuery) (any, error)
}

var _ Upstream = (*imdbapi.Client)(nil)
