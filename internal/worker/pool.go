package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var ErrPoolStopped = errors.New("worker pool stopped")

type Task func()

// Pool runs tasks on a fixed number of goroutines. It bounds how many
// backend calls are in flight at once across all aggregation runs.
type Pool struct {
	tasks         chan Task
	wg            sync.WaitGroup
	activeWorkers atomic.Int32
	maxWorkers    int
	logger        zerolog.Logger
	mu            sync.RWMutex
	started       bool
	stopped       bool
}

func NewPool(maxWorkers, queueSize int, logger zerolog.Logger) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		tasks:      make(chan Task, queueSize),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info().Int("max_workers", p.maxWorkers).Msg("Worker pool started")
}

// Stop waits for queued tasks to finish. Submit fails afterwards.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}

// Submit blocks until the task is queued, ctx is done or the pool stops.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case p.tasks <- task:
		return nil
	default:
	}

	p.logger.Debug().Int("queue_length", len(p.tasks)).Msg("Worker pool queue is full, waiting")
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	p.activeWorkers.Add(1)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}

		p.activeWorkers.Add(-1)
	}()

	task()
}

func (p *Pool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

func (p *Pool) Stats() map[string]interface{} {
	return map[string]interface{}{
		"active_workers": p.ActiveWorkers(),
		"max_workers":    p.maxWorkers,
		"queue_length":   len(p.tasks),
		"queue_capacity": cap(p.tasks),
	}
}

// Map runs fn for every item on the pool and returns the results in input
// order. It must not be called from inside a pool task. If submitting
// fails, items not yet submitted keep the zero result and the error is
// returned once the submitted ones have finished.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) R) ([]R, error) {
	results := make([]R, len(items))

	var wg sync.WaitGroup
	var submitErr error
	for i := range items {
		i := i
		wg.Add(1)
		err := p.Submit(ctx, func() {
			defer wg.Done()
			results[i] = fn(ctx, items[i])
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}

	wg.Wait()
	return results, submitErr
}
