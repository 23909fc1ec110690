package concurrent

import (
	"sync"
)

type JobFunc[T any, G any] func(job T) G

// WorkerPool fans a batch of independent jobs out over a fixed number of
// goroutines. Submit all jobs, Close the queue, then drain Results until
// Wait has closed it.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, queueSize int) *WorkerPool[T, G] {
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, queueSize),
		results:    make(chan G, queueSize),
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			for job := range wp.jobQueue {
				wp.results <- jobFunc(job)
			}
		}()
	}
}

func (wp *WorkerPool[T, G]) Submit(job T) {
	wp.jobQueue <- job
}

// Close marks the job queue complete. Call after the last Submit.
func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Wait blocks until every worker drained the queue, then closes Results.
// Run it from its own goroutine when results are consumed concurrently.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) Results() <-chan G {
	return wp.results
}
