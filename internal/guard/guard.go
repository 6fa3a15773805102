// Package guard discards results of superseded asynchronous fetches.
//
// Each logical query (for example "history for property P, scenario S") owns
// one Guard. Every fetch takes a token from Begin; when the fetch resolves,
// its result is applied through Accept only if no newer fetch has been begun
// since. The latest-issued request always wins, regardless of arrival order.
//
// Begin also cancels the context handed to the previous request. That
// cancellation is advisory: a transport that ignores it still cannot apply a
// stale result, because Accept compares tokens.
package guard

import (
	"context"
	"sync"
)

// Token identifies one issued request.
type Token uint64

// Guard is safe for concurrent use.
type Guard struct {
	mu      sync.Mutex
	current Token
	cancel  context.CancelFunc
}

// New creates a Guard with no request in flight.
func New() *Guard {
	return &Guard{}
}

// Begin issues a new token and cancels the previous in-flight request.
// The returned context is derived from ctx and is cancelled when a newer
// request begins, when the guard is invalidated, or once the result is accepted.
func (g *Guard) Begin(ctx context.Context) (Token, context.Context) {
	return g.BeginFunc(ctx, nil)
}

// BeginFunc is Begin, but also runs resolve while the guard is locked and
// right after the new token is issued. Callers read the inputs of the request
// inside resolve, so the latest-issued request is always built from the
// latest inputs even when several callers race to begin. resolve must not
// call back into the guard.
func (g *Guard) BeginFunc(ctx context.Context, resolve func()) (Token, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	reqCtx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	g.current++
	g.cancel = cancel
	if resolve != nil {
		resolve()
	}
	return g.current, reqCtx
}

// Accept runs apply only when token is still the latest issued token.
// Stale results are dropped silently and Accept returns false.
// apply runs while the guard is locked, so no newer request can slip in
// between the check and the state change; apply must not call back into the guard.
func (g *Guard) Accept(token Token, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token != g.current {
		return false
	}
	if apply != nil {
		apply()
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	return true
}

// Update runs fn only when token is current, without completing the request.
// Stores use it to publish "loading" state for a request that may already
// have been superseded by the time it gets here.
func (g *Guard) Update(token Token, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token != g.current {
		return false
	}
	fn()
	return true
}

// Invalidate supersedes any in-flight request without starting a new one.
// Used when inputs become empty and on teardown.
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.current++
}

// IsCurrent reports whether token is the latest issued token.
func (g *Guard) IsCurrent(token Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token == g.current
}

// Latest returns the most recently issued token.
func (g *Guard) Latest() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
