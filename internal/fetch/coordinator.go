package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Scope names one independently tracked fetch region.
type Scope string

const (
	ScopeDetail      Scope = "detail"
	ScopeSeasonIndex Scope = "seasons"
	ScopeEpisodes    Scope = "episodes"
)

// Key identifies one logical operation. Params narrows the scope, e.g. the
// season of an episodes fetch.
type Key struct {
	TitleID string
	Scope   Scope
	Params  string
}

func (k Key) String() string {
	return k.TitleID + ":" + string(k.Scope) + ":" + k.Params
}

// Token is the generation a caller reserved with Begin. It stays live until
// the key is superseded.
type Token struct {
	key Key
	gen uint64
}

// Key returns the key the token was issued for.
func (t Token) Key() Key { return t.key }

// Fetch performs the outbound call. It must honor ctx cancellation.
type Fetch func(ctx context.Context) (any, error)

type flight struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Coordinator runs at most one Fetch per Key at a time. Concurrent callers of
// the same key share the in-flight result. Superseding a key cancels its
// transport and invalidates every token issued for it.
type Coordinator struct {
	group singleflight.Group
	log   *slog.Logger

	mu       sync.Mutex
	nextGen  uint64
	live     map[Key]uint64
	reserved map[Key]uint64
	flights  map[Key]*flight
	closed   bool
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		log:      log,
		live:     make(map[Key]uint64),
		reserved: make(map[Key]uint64),
		flights:  make(map[Key]*flight),
	}
}

// Begin reserves a generation for key without starting a call. A token
// reserved while a call for key is pending or running shares that call's
// generation. Superseding key before Issue invalidates the reservation, so a
// caller can reserve under its own lock and issue after releasing it. A token
// reserved on a closed Coordinator is never live.
func (c *Coordinator) Begin(key Key) Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Token{key: key}
	}
	if f, ok := c.flights[key]; ok {
		return Token{key: key, gen: f.gen}
	}
	if gen, ok := c.reserved[key]; ok {
		return Token{key: key, gen: gen}
	}
	c.nextGen++
	c.reserved[key] = c.nextGen
	c.live[key] = c.nextGen
	return Token{key: key, gen: c.nextGen}
}

// Issue runs fn for the key of tok, or joins the call already in flight for
// it. leader reports whether this caller started the call; only the leader
// should commit the result. A token superseded before Issue yields ErrCancelled
// without calling fn, as does a call superseded before it lands.
func (c *Coordinator) Issue(ctx context.Context, tok Token, fn Fetch) (v any, _ Token, leader bool, err error) {
	key := tok.key

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, tok, false, ErrClosed
	}
	if tok.gen == 0 || c.live[key] != tok.gen {
		c.mu.Unlock()
		c.log.Debug("reservation superseded before issue", "key", key.String())
		return nil, tok, false, ErrCancelled
	}

	f, joined := c.flights[key]
	if !joined {
		fctx, cancel := context.WithCancel(ctx)
		f = &flight{gen: tok.gen, ctx: fctx, cancel: cancel}
		c.flights[key] = f
		delete(c.reserved, key)
	}
	leader = !joined

	// DoChan is called under c.mu so that land, which also takes c.mu, cannot
	// retire the flight between the lookup above and the join.
	ch := c.group.DoChan(key.String()+"#"+strconv.FormatUint(f.gen, 10), func() (any, error) {
		defer c.land(key, f)
		return fn(f.ctx)
	})
	c.mu.Unlock()

	if joined {
		c.log.Debug("joined in-flight request", "key", key.String())
	}

	select {
	case <-ctx.Done():
		return nil, tok, leader, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	case res := <-ch:
		if !c.Live(tok) {
			return nil, tok, leader, ErrCancelled
		}
		if res.Err != nil && errors.Is(res.Err, context.Canceled) {
			return nil, tok, leader, fmt.Errorf("%w: %w", ErrCancelled, res.Err)
		}
		return res.Val, tok, leader, res.Err
	}
}

// land retires a finished flight. The token stays live so its owner can still
// commit.
func (c *Coordinator) land(key Key, f *flight) {
	c.mu.Lock()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	c.mu.Unlock()
	f.cancel()
}

// Live reports whether tok has not been superseded.
func (c *Coordinator) Live(tok Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return tok.gen != 0 && c.live[tok.key] == tok.gen
}

// Supersede cancels the call in flight for key, if any, and invalidates every
// token reserved or issued for key. It returns true when a running call was cancelled.
func (c *Coordinator) Supersede(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supersedeLocked(key)
}

// SupersedeTitle supersedes every key of titleID across all scopes.
func (c *Coordinator) SupersedeTitle(titleID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.live {
		if key.TitleID == titleID && c.supersedeLocked(key) {
			n++
		}
	}
	return n
}

// Close supersedes everything and rejects further calls.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.live {
		c.supersedeLocked(key)
	}
	c.closed = true
}

func (c *Coordinator) supersedeLocked(key Key) bool {
	delete(c.live, key)
	delete(c.reserved, key)
	f, ok := c.flights[key]
	if !ok {
		return false
	}
	delete(c.flights, key)
	f.cancel()
	c.log.Debug("superseded request", "key", key.String(), "gen", f.gen)
	return true
}
