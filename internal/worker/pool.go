package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool manages a pool of workers that execute jobs concurrently
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithContext(context.Background(), workers)
}

// NewPoolWithContext creates a pool whose jobs are cancelled with ctx
func NewPoolWithContext(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2),
		results:    make(chan Result, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool for execution.
// Callers submitting more than twice the worker count must drain
// Results concurrently, or use Run.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Wait waits for all jobs to complete and returns the results
func (p *Pool) Wait() []Result {
	p.Close()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Close stops accepting jobs; Results is closed once workers finish
func (p *Pool) Close() {
	close(p.jobQueue)

	go func() {
		p.wg.Wait()
		p.closeResults()
		p.cancelFunc()
	}()
}

// Results exposes the result channel for streaming consumers
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// indexedJob remembers the submission position of a job
type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

func (r *indexedResult) GetError() error {
	return r.result.GetError()
}

func (j *indexedJob) Execute(ctx context.Context) Result {
	return &indexedResult{index: j.index, result: j.job.Execute(ctx)}
}

// Run executes jobs on a fresh pool and returns their results in submission order.
// Jobs that never ran because ctx was cancelled have a nil result.
func Run(ctx context.Context, workers int, jobs []Job) []Result {
	ordered := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return ordered
	}

	pool := NewPoolWithContext(ctx, workers)
	pool.Start()

	go func() {
		for i, job := range jobs {
			pool.Submit(&indexedJob{index: i, job: job})
		}
		pool.Close()
	}()

	for r := range pool.Results() {
		ir := r.(*indexedResult)
		ordered[ir.index] = ir.result
	}

	return ordered
}
