package apiclient

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// flightGroup de-duplicates concurrent requests by key. The shared request
// runs detached from any single caller and is cancelled once every waiter
// has given up on it.
type flightGroup struct {
	sf    singleflight.Group
	mu    sync.Mutex
	calls map[string]*flight
}

type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func newFlightGroup() *flightGroup {
	return &flightGroup{calls: make(map[string]*flight)}
}

func (g *flightGroup) do(ctx context.Context, key string, fn func(context.Context) (Response, error)) (Response, error) {
	g.mu.Lock()
	f, ok := g.calls[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		g.calls[key] = f
	}
	f.waiters++
	g.mu.Unlock()

	ch := g.sf.DoChan(key, func() (any, error) {
		defer g.finish(key, f)
		return fn(f.ctx)
	})

	select {
	case res := <-ch:
		g.leave(key, f)
		if res.Err != nil {
			return Response{}, res.Err
		}
		return res.Val.(Response), nil
	case <-ctx.Done():
		g.leave(key, f)
		return Response{}, ctx.Err()
	}
}

// finish runs when the shared request returns, before its result is delivered.
func (g *flightGroup) finish(key string, f *flight) {
	g.mu.Lock()
	if g.calls[key] == f {
		delete(g.calls, key)
	}
	g.mu.Unlock()
}

func (g *flightGroup) leave(key string, f *flight) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if g.calls[key] == f {
		delete(g.calls, key)
		g.sf.Forget(key)
	}
}

func (g *flightGroup) forget(key string) {
	g.sf.Forget(key)
	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
}

func (g *flightGroup) waiters(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.calls[key]; ok {
		return f.waiters
	}
	return 0
}
