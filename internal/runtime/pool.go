package runtime

import "sync"

// workerPool runs sequence tasks on a fixed set of goroutines. Batches
// smaller than minTasks, and every batch on a nil or closed pool, run
// inline in submission order.
type workerPool struct {
	jobs     chan poolJob
	minTasks int

	// mu is held for reading while a batch is dispatched and awaited, so
	// Close waits for in-flight batches before closing jobs.
	mu     sync.RWMutex
	closed bool
}

type poolJob struct {
	fn func()
	wg *sync.WaitGroup
}

func newWorkerPool(size, minTasks int) *workerPool {
	if size <= 1 {
		return nil
	}
	if minTasks < 1 {
		minTasks = 1
	}
	p := &workerPool{jobs: make(chan poolJob, size*3), minTasks: minTasks}
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

func (p *workerPool) work() {
	for job := range p.jobs {
		job.fn()
		job.wg.Done()
	}
}

// Run executes tasks and blocks until all have finished. Nil tasks are skipped.
func (p *workerPool) Run(tasks []func()) {
	if p == nil || len(tasks) < p.minTasks {
		runInline(tasks)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		runInline(tasks)
		return
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		if task == nil {
			continue
		}
		wg.Add(1)
		p.jobs <- poolJob{fn: task, wg: &wg}
	}
	wg.Wait()
}

// Close stops the workers once in-flight batches drain. Later batches run
// inline. Close is idempotent and safe on a nil pool.
func (p *workerPool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
}

func runInline(tasks []func()) {
	for _, task := range tasks {
		if task != nil {
			task()
		}
	}
}
