package worker

// Worker owns one goroutine that takes jobs off its channel and runs the
// submission pipeline. It parks itself in the pool's idle list between jobs
// and exits on a Stop job.
type Worker struct {
	manager    *Manager
	pool       *jobChannelPool
	jobChannel chan Job
}

func newWorker(pool *jobChannelPool, manager *Manager) *Worker {
	return &Worker{
		manager:    manager,
		pool:       pool,
		jobChannel: make(chan Job),
	}
}

func (w *Worker) Start() {
	go func() {
		w.pool.release(w.jobChannel)
		for job := range w.jobChannel {
			if job.Type == Stop {
				w.pool.retire(w.jobChannel)
				return
			}
			w.manager.process(job.Submission)
			w.pool.release(w.jobChannel)
		}
	}()
}
