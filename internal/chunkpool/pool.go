package chunkpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"xfollowers/pkg/logger"
	"xfollowers/pkg/supplier"
)

// Job is one detail lookup chunk
type Job struct {
	Index int
	IDs   []string
}

// Result is the outcome of one chunk
type Result struct {
	Job      Job
	Details  []*supplier.UserDetail
	Error    error
	Duration time.Duration
}

// ChunkFetcher resolves the details of one chunk, retrying as it sees fit
type ChunkFetcher interface {
	FetchChunk(ctx context.Context, job Job) ([]*supplier.UserDetail, error)
}

// WorkerPool runs chunk lookups on a fixed number of workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     ChunkFetcher
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers bound to ctx
func NewWorkerPool(ctx context.Context, numWorkers int, fetcher ChunkFetcher, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting chunk worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for in-flight chunks and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Chunk worker pool stopped")
}

// Submit queues a chunk. It fails once the pool's context is done.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		start := time.Now()
		var result Result
		if err := wp.ctx.Err(); err != nil {
			result = Result{Job: job, Error: err}
		} else {
			details, err := wp.fetcher.FetchChunk(wp.ctx, job)
			result = Result{Job: job, Details: details, Error: err, Duration: time.Since(start)}
		}

		wp.logger.DebugWithFields("Worker finished chunk", map[string]interface{}{
			"worker_id": id,
			"chunk":     job.Index,
			"ids":       len(job.IDs),
			"failed":    result.Error != nil,
		})

		// Results are always drained by the caller, so this send cannot block forever.
		wp.resultQueue <- result
	}
}

// Run fetches every job on numWorkers workers and returns the results
// ordered by job index, whatever order they completed in.
func Run(ctx context.Context, numWorkers int, jobs []Job, fetcher ChunkFetcher, log logger.Logger) []Result {
	pool := NewWorkerPool(ctx, numWorkers, fetcher, log)
	pool.Start()

	results := make([]Result, len(jobs))
	position := make(map[int]int, len(jobs))
	for i, job := range jobs {
		position[job.Index] = i
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results[position[result.Job.Index]] = result
		}
	}()

	for i, job := range jobs {
		if err := pool.Submit(job); err != nil {
			for _, rest := range jobs[i:] {
				results[position[rest.Index]] = Result{Job: rest, Error: err}
			}
			break
		}
	}

	pool.Stop()
	wg.Wait()
	return results
}
