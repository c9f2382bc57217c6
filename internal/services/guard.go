package services

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Guard collapses identical in-flight actions into a single upstream call.
// Callers key actions by session so different users never share results.
type Guard struct {
	group singleflight.Group
}

func NewGuard() *Guard {
	return &Guard{}
}

// Do runs fn unless a call with the same key is already running, in which case
// it waits for that call's result. shared is true when the result went to more
// than one caller.
//
// fn receives a context that keeps ctx's values but not its cancellation, so
// one caller giving up does not fail the others; the API client timeout still
// bounds the call. A caller whose own ctx ends stops waiting with ctx.Err().
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (v any, err error, shared bool) {
	detached := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err, res.Shared
	case <-ctx.Done():
		return nil, ctx.Err(), false
	}
}
