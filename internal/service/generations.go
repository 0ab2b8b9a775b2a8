package service

import (
	"context"
	"sync"
)

type activeRun struct {
	gen    uint64
	cancel context.CancelFunc
}

// generations tracks the newest board run per session. Starting a run
// cancels the one it supersedes.
type generations struct {
	mu   sync.Mutex
	next uint64
	runs map[string]activeRun
}

func newGenerations() *generations {
	return &generations{runs: make(map[string]activeRun)}
}

func (g *generations) begin(parent context.Context, sessionID string) (context.Context, uint64, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	if prev, ok := g.runs[sessionID]; ok {
		prev.cancel()
	}
	g.runs[sessionID] = activeRun{gen: g.next, cancel: cancel}
	return ctx, g.next, cancel
}

func (g *generations) current(sessionID string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[sessionID]
	return ok && run.gen == gen
}

func (g *generations) end(sessionID string, gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if run, ok := g.runs[sessionID]; ok && run.gen == gen {
		delete(g.runs, sessionID)
	}
}

// cancel aborts whatever run is in flight for the session.
func (g *generations) cancel(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if run, ok := g.runs[sessionID]; ok {
		run.cancel()
		delete(g.runs, sessionID)
	}
}
