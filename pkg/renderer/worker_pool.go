package renderer

import (
	"context"
	"image/color"
	"runtime"
	"sync"
)

// RowTask represents a row rendering task for the worker pool
type RowTask struct {
	Row  int   // Output row, 0 is the top of the image
	Seed int64 // Seed for the row's private random stream
}

// RowResult contains the quantized pixels of a finished row
type RowResult struct {
	Row     int
	Pixels  []color.RGBA
	Samples int
}

// WorkerPool manages parallel row rendering
type WorkerPool struct {
	taskQueue   chan RowTask
	resultQueue chan RowResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual row rendering tasks
type Worker struct {
	ID          int
	raytracer   *Raytracer
	taskQueue   chan RowTask
	resultQueue chan RowResult
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(raytracer *Raytracer, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RowTask, numWorkers*2),
		resultQueue: make(chan RowResult, numWorkers*2),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			raytracer:   raytracer,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Submit feeds tasks to the workers until all are queued or ctx is cancelled,
// then closes the task queue. Once every worker has drained the queue the
// result queue is closed.
func (wp *WorkerPool) Submit(ctx context.Context, tasks []RowTask) {
	go func() {
		defer func() {
			close(wp.taskQueue)
			wp.wg.Wait()
			close(wp.resultQueue)
		}()
		for _, task := range tasks {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case wp.taskQueue <- task:
			}
		}
	}()
}

// Results returns the channel of completed rows, in completion order
func (wp *WorkerPool) Results() <-chan RowResult {
	return wp.resultQueue
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		pixels, samples := w.raytracer.RenderRow(task.Row, task.Seed)
		w.resultQueue <- RowResult{
			Row:     task.Row,
			Pixels:  pixels,
			Samples: samples,
		}
	}
}
