package browse

import (
	"context"
	"slices"
	"sync"

	"github.com/vmunix/episodic/internal/catalog"
	"github.com/vmunix/episodic/pkg/imdbapi"
)

// PageFunc fetches the page at cursor ("" for the first page) and returns its
// items and the cursor of the next page ("" when there is none).
type PageFunc[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// Pager accumulates the pages of a cursor-paginated listing, one page at a
// time. A failed page keeps the items loaded so far and is retried from the
// same cursor by the next call to Next.
type Pager[T any] struct {
	fetch PageFunc[T]
	key   func(T) string

	mu      sync.Mutex
	items   []T
	seen    map[string]bool
	cursor  string
	hasMore bool
	loading bool
	err     error
}

// NewPager creates a Pager. key, when non-nil, drops items whose key was
// already loaded.
func NewPager[T any](fetch PageFunc[T], key func(T) string) *Pager[T] {
	return &Pager[T]{
		fetch:   fetch,
		key:     key,
		seen:    make(map[string]bool),
		hasMore: true,
	}
}

// Next loads one more page. It returns the number of items appended; it does
// nothing while another page is loading or after the last page.
func (p *Pager[T]) Next(ctx context.Context) (int, error) {
	p.mu.Lock()
	if p.loading || !p.hasMore {
		p.mu.Unlock()
		return 0, nil
	}
	p.loading = true
	p.err = nil
	cursor := p.cursor
	p.mu.Unlock()

	items, next, err := p.fetch(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.err = err
		return 0, err
	}

	added := 0
	for _, item := range items {
		if p.key != nil {
			k := p.key(item)
			if p.seen[k] {
				continue
			}
			p.seen[k] = true
		}
		p.items = append(p.items, item)
		added++
	}
	p.cursor = next
	p.hasMore = next != ""
	return added, nil
}

// Items returns a copy of the items loaded so far.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.items)
}

// HasMore reports whether another page may exist.
func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Err returns the error of the last page load, if it failed.
func (p *Pager[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// TitleLister is the listing endpoint of the catalog API.
type TitleLister interface {
	Titles(ctx context.Context, q imdbapi.TitleQuery) (any, error)
}

// TitlePages adapts the title listing to a PageFunc. Records without an id are
// dropped.
func TitlePages(up TitleLister, types []string) PageFunc[catalog.Title] {
	return func(ctx context.Context, cursor string) ([]catalog.Title, string, error) {
		raw, err := up.Titles(ctx, imdbapi.TitleQuery{Types: types, PageToken: cursor})
		if err != nil {
			return nil, "", err
		}

		var records []any
		if list, ok := catalog.Results(raw).([]any); ok {
			records = list
		}
		titles := make([]catalog.Title, 0, len(records))
		for _, rec := range records {
			t := catalog.NormalizeTitle(rec)
			if t.ID == "" {
				continue
			}
			titles = append(titles, t)
		}
		return titles, catalog.NextPageToken(raw), nil
	}
}

// TitleKey keys titles by id for Pager de-duplication.
func TitleKey(t catalog.Title) string { return t.ID }
