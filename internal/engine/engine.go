package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/resistanceisuseless/dnscan/internal/report"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 50

// Task is the per-item work a pool executes. It reports its own outcome to
// the sink; nothing is returned to the pool.
type Task func(ctx context.Context, item string)

// Pool runs independent tasks on a fixed number of workers.
type Pool struct {
	workers int
	log     report.Sink
}

// New creates a pool with the given number of workers.
func New(workers int, log report.Sink) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	return &Pool{
		workers: workers,
		log:     log,
	}, nil
}

// Workers returns the configured pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes task once for every item and returns after all of them have
// finished. At most Workers tasks run at the same time. Once ctx is done the
// remaining queued items are dropped.
func (p *Pool) Run(ctx context.Context, items []string, task Task) {
	if len(items) == 0 {
		return
	}

	jobs := make(chan string, len(items))
	for _, item := range items {
		jobs <- item
	}
	close(jobs)

	workers := p.workers
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, task, &wg)
	}
	wg.Wait()
}

func (p *Pool) worker(ctx context.Context, jobs <-chan string, task Task, wg *sync.WaitGroup) {
	defer wg.Done()

	for item := range jobs {
		if ctx.Err() != nil {
			continue
		}
		p.execute(ctx, item, task)
	}
}

// execute runs a single task, containing any panic to that task.
func (p *Pool) execute(ctx context.Context, item string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Unexpected failure while processing %s: %v", item, r)
			p.log.Debug("%s", debug.Stack())
		}
	}()
	task(ctx, item)
}
