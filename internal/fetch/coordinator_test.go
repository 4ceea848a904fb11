package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func episodesKey(season string) Key {
	return Key{TitleID: "tt1", Scope: ScopeEpisodes, Params: season}
}

type issueResult struct {
	v      any
	tok    Token
	leader bool
	err    error
}

func issueAsync(c *Coordinator, key Key, fn Fetch) <-chan issueResult {
	out := make(chan issueResult, 1)
	go func() {
		v, tok, leader, err := c.Issue(context.Background(), c.Begin(key), fn)
		out <- issueResult{v, tok, leader, err}
	}()
	return out
}

func inFlight(c *Coordinator, key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flights[key]
	return ok
}

func TestCoordinator_Issue(t *testing.T) {
	c := NewCoordinator(testLogger())

	v, tok, leader, err := c.Issue(context.Background(), c.Begin(episodesKey("1")), func(context.Context) (any, error) {
		return "page", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "page", v)
	assert.True(t, leader)
	assert.True(t, c.Live(tok))
	assert.False(t, inFlight(c, episodesKey("1")))
}

func TestCoordinator_SingleFlight(t *testing.T) {
	c := NewCoordinator(testLogger())
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	fn := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "shared", nil
	}

	first := issueAsync(c, episodesKey("1"), fn)
	<-started
	require.True(t, inFlight(c, episodesKey("1")))
	second := issueAsync(c, episodesKey("1"), fn)

	// Give the follower time to join before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)

	r1, r2 := <-first, <-second
	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Equal(t, "shared", r1.v)
	assert.Equal(t, "shared", r2.v)
	assert.Equal(t, int32(1), calls.Load())
	assert.NotEqual(t, r1.leader, r2.leader, "exactly one caller leads")
}

func TestCoordinator_SupersedeCancelsTransport(t *testing.T) {
	c := NewCoordinator(testLogger())
	started := make(chan struct{})

	res := issueAsync(c, episodesKey("1"), func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started

	assert.True(t, c.Supersede(episodesKey("1")))

	r := <-res
	assert.ErrorIs(t, r.err, ErrCancelled)
	assert.False(t, c.Live(r.tok))
}

func TestCoordinator_SupersededCompletionIsNotLive(t *testing.T) {
	c := NewCoordinator(testLogger())
	release := make(chan struct{})
	started := make(chan struct{})

	// A transport that ignores cancellation and completes anyway.
	res := issueAsync(c, episodesKey("1"), func(context.Context) (any, error) {
		close(started)
		<-release
		return "stale", nil
	})
	<-started
	c.Supersede(episodesKey("1"))
	close(release)

	r := <-res
	assert.ErrorIs(t, r.err, ErrCancelled)
	assert.Nil(t, r.v)
}

func TestCoordinator_NewRequestAfterSupersede(t *testing.T) {
	c := NewCoordinator(testLogger())
	started := make(chan struct{})

	old := issueAsync(c, episodesKey("1"), func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started
	c.Supersede(episodesKey("1"))

	v, tok, leader, err := c.Issue(context.Background(), c.Begin(episodesKey("1")), func(context.Context) (any, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.True(t, leader)
	assert.Equal(t, "fresh", v)
	assert.True(t, c.Live(tok))

	r := <-old
	assert.ErrorIs(t, r.err, ErrCancelled)
	assert.NotEqual(t, r.tok, tok)
}

func TestCoordinator_ScopesAreIndependent(t *testing.T) {
	c := NewCoordinator(testLogger())
	detailKey := Key{TitleID: "tt1", Scope: ScopeDetail}
	started := make(chan struct{})
	release := make(chan struct{})

	detail := issueAsync(c, detailKey, func(context.Context) (any, error) {
		close(started)
		<-release
		return "detail", nil
	})
	<-started

	c.Supersede(episodesKey("1"))
	close(release)

	r := <-detail
	require.NoError(t, r.err)
	assert.Equal(t, "detail", r.v)
	assert.True(t, c.Live(r.tok))
}

func TestCoordinator_SupersedeTitle(t *testing.T) {
	c := NewCoordinator(testLogger())
	var wg sync.WaitGroup
	var cancelled atomic.Int32

	keys := []Key{
		{TitleID: "tt1", Scope: ScopeDetail},
		{TitleID: "tt1", Scope: ScopeSeasonIndex},
		episodesKey("2"),
	}
	other := Key{TitleID: "tt2", Scope: ScopeDetail}

	ready := make(chan struct{}, len(keys)+1)
	block := func(ctx context.Context) (any, error) {
		ready <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	for _, k := range keys {
		wg.Add(1)
		go func(k Key) {
			defer wg.Done()
			if _, _, _, err := c.Issue(context.Background(), c.Begin(k), block); errors.Is(err, ErrCancelled) {
				cancelled.Add(1)
			}
		}(k)
	}
	otherRes := issueAsync(c, other, func(ctx context.Context) (any, error) {
		ready <- struct{}{}
		return "other", nil
	})
	for i := 0; i < len(keys)+1; i++ {
		<-ready
	}

	n := c.SupersedeTitle("tt1")
	wg.Wait()

	assert.Equal(t, 3, n)
	assert.Equal(t, int32(3), cancelled.Load())
	r := <-otherRes
	require.NoError(t, r.err)
	assert.Equal(t, "other", r.v)
}

func TestCoordinator_SupersedeBeforeIssue(t *testing.T) {
	c := NewCoordinator(testLogger())
	var calls atomic.Int32
	fn := func(context.Context) (any, error) {
		calls.Add(1)
		return "stale", nil
	}

	tok := c.Begin(episodesKey("1"))
	require.True(t, c.Live(tok))
	assert.False(t, c.Supersede(episodesKey("1")), "nothing was running yet")
	assert.False(t, c.Live(tok))

	v, _, leader, err := c.Issue(context.Background(), tok, fn)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, v)
	assert.False(t, leader)
	assert.Zero(t, calls.Load(), "a superseded reservation never reaches the transport")
	assert.False(t, inFlight(c, episodesKey("1")))
}

func TestCoordinator_SupersedeTitleBeforeIssue(t *testing.T) {
	c := NewCoordinator(testLogger())
	detail := c.Begin(Key{TitleID: "tt1", Scope: ScopeDetail})
	other := c.Begin(Key{TitleID: "tt2", Scope: ScopeDetail})

	var calls atomic.Int32

	c.SupersedeTitle("tt1")

	_, _, _, err := c.Issue(context.Background(), detail, func(context.Context) (any, error) {
		calls.Add(1)
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, calls.Load())

	v, _, leader, err := c.Issue(context.Background(), other, func(context.Context) (any, error) {
		return "other", nil
	})
	require.NoError(t, err)
	assert.True(t, leader)
	assert.Equal(t, "other", v)
}

func TestCoordinator_ReservationsShareGeneration(t *testing.T) {
	c := NewCoordinator(testLogger())
	first := c.Begin(episodesKey("1"))
	second := c.Begin(episodesKey("1"))
	assert.Equal(t, first, second)

	_, _, leader, err := c.Issue(context.Background(), first, func(context.Context) (any, error) {
		return "page", nil
	})
	require.NoError(t, err)
	assert.True(t, leader)

	third := c.Begin(episodesKey("1"))
	assert.NotEqual(t, first, third, "a landed call does not hand out its generation again")
	assert.False(t, c.Live(first))
}

func TestCoordinator_BeginAfterClose(t *testing.T) {
	c := NewCoordinator(testLogger())
	c.Close()

	assert.False(t, c.Live(c.Begin(episodesKey("1"))))
}

func TestCoordinator_CallerContextCancelled(t *testing.T) {
	c := NewCoordinator(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := c.Issue(ctx, c.Begin(episodesKey("1")), func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCoordinator_ErrorsPassThrough(t *testing.T) {
	c := NewCoordinator(testLogger())
	boom := errors.New("HTTP 500 Internal Server Error")

	_, tok, _, err := c.Issue(context.Background(), c.Begin(episodesKey("1")), func(context.Context) (any, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrCancelled)
	assert.True(t, c.Live(tok))
}

func TestCoordinator_Close(t *testing.T) {
	c := NewCoordinator(testLogger())
	c.Close()

	_, _, _, err := c.Issue(context.Background(), c.Begin(episodesKey("1")), func(context.Context) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrClosed)
}
