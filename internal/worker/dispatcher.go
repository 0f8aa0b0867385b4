package worker

import (
	"errors"
	"time"

	"babylog/internal/models"
)

// ErrQueueFull is returned by Enqueue when the job queue has no room. The
// HTTP layer maps it to 429.
var ErrQueueFull = errors.New("job queue full")

type DispatcherConfig struct {
	MinWorkers        int
	MaxWorkers        int
	QueueSize         int
	WorkerIdleTimeout time.Duration
}

// Dispatcher feeds queued submissions to the worker pool. The queue is
// bounded on purpose: it is the admission-control seam, and a full queue is
// surfaced to the upload caller instead of piling up unbounded background
// work.
type Dispatcher struct {
	pool     *jobChannelPool
	jobQueue chan Job
	manager  *Manager
}

func NewDispatcher(cfg DispatcherConfig, manager *Manager) *Dispatcher {
	if cfg.MinWorkers <= 0 {
		cfg.MinWorkers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	pool := newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.WorkerIdleTimeout, manager)

	d := &Dispatcher{
		pool:     pool,
		jobQueue: make(chan Job, cfg.QueueSize),
		manager:  manager,
	}

	// Warm up the minimum worker set.
	for i := 0; i < cfg.MinWorkers; i++ {
		d.pool.spawnWorker()
	}

	go d.run()
	return d
}

// Enqueue hands one submission to the background pipeline without blocking.
// The caller gets no signal about the job's eventual outcome.
func (d *Dispatcher) Enqueue(sub models.Submission) error {
	select {
	case d.jobQueue <- Job{Type: Process, Submission: sub}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	for job := range d.jobQueue {
		workerChan := d.pool.acquire()
		debugLog("[dispatcher] assign job for %s to a worker", job.Submission.FilePath)
		workerChan <- job
	}
}
