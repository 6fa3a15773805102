package guard

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_LatestIssuedWins(t *testing.T) {
	g := New()
	var applied string

	tokenA, _ := g.Begin(context.Background())
	tokenB, _ := g.Begin(context.Background())

	// B resolves first, then A arrives late
	assert.True(t, g.Accept(tokenB, func() { applied = "B" }))
	assert.False(t, g.Accept(tokenA, func() { applied = "A" }))

	assert.Equal(t, "B", applied)
}

func TestGuard_BeginCancelsPreviousContext(t *testing.T) {
	g := New()

	_, ctxA := g.Begin(context.Background())
	_, ctxB := g.Begin(context.Background())

	require.Error(t, ctxA.Err())
	assert.ErrorIs(t, ctxA.Err(), context.Canceled)
	assert.NoError(t, ctxB.Err())
}

func TestGuard_AcceptReleasesContext(t *testing.T) {
	g := New()

	token, ctx := g.Begin(context.Background())
	require.True(t, g.Accept(token, nil))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestGuard_Invalidate(t *testing.T) {
	g := New()
	called := false

	token, ctx := g.Begin(context.Background())
	g.Invalidate()

	assert.False(t, g.IsCurrent(token))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, g.Accept(token, func() { called = true }))
	assert.False(t, called)
}

func TestGuard_NilContext(t *testing.T) {
	g := New()
	token, ctx := g.Begin(nil)
	require.NotNil(t, ctx)
	assert.True(t, g.IsCurrent(token))
}

func TestGuard_ConcurrentRequests(t *testing.T) {
	g := New()
	const n = 50

	tokens := make([]Token, n)
	for i := 0; i < n; i++ {
		tokens[i], _ = g.Begin(context.Background())
	}

	var (
		mu       sync.Mutex
		accepted []int
		wg       sync.WaitGroup
	)
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.Accept(tokens[i], func() {
				mu.Lock()
				accepted = append(accepted, i)
				mu.Unlock()
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []int{n - 1}, accepted)
	assert.Equal(t, tokens[n-1], g.Latest())
}

func TestGuard_UpdateOnlyWhenCurrent(t *testing.T) {
	g := New()
	var seen []string

	tokenA, _ := g.Begin(context.Background())
	tokenB, ctxB := g.Begin(context.Background())

	assert.False(t, g.Update(tokenA, func() { seen = append(seen, "A") }))
	assert.True(t, g.Update(tokenB, func() { seen = append(seen, "B") }))

	assert.Equal(t, []string{"B"}, seen)
	// Update does not complete the request
	assert.NoError(t, ctxB.Err())
	assert.True(t, g.IsCurrent(tokenB))
}

func TestGuard_BeginFuncResolvesLatestInputs(t *testing.T) {
	g := New()

	var (
		inputMu  sync.Mutex
		input    int
		resolved = make(map[Token]int)
		wg       sync.WaitGroup
	)

	const n = 30
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inputMu.Lock()
			input = i
			inputMu.Unlock()

			var got int
			token, _ := g.BeginFunc(context.Background(), func() {
				inputMu.Lock()
				got = input
				inputMu.Unlock()
			})
			inputMu.Lock()
			resolved[token] = got
			inputMu.Unlock()
		}(i)
	}
	wg.Wait()

	// whichever request was issued last was built from the final input
	assert.Equal(t, input, resolved[g.Latest()])
}

func TestGuard_BeginFuncNilResolve(t *testing.T) {
	g := New()
	token, ctx := g.BeginFunc(context.Background(), nil)
	assert.True(t, g.IsCurrent(token))
	assert.NoError(t, ctx.Err())
}
