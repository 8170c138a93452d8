// Package parallel provides the background executor that runs asset
// production off the caller's goroutine.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines for background asset work.
//
// Each worker owns a queue and steals from the other queues when its own is
// empty, so one slow decode does not hold up cheap loads queued behind it.
// Submission never blocks: when every queue is full the work item runs on a
// spill goroutine instead.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for workers and spill goroutines.
	wg sync.WaitGroup

	// mu orders submissions against Close. Submitters hold the read lock.
	mu      sync.RWMutex
	running atomic.Bool

	next    atomic.Uint64
	spilled atomic.Uint64
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.workQueues[id]
	for {
		select {
		case fn := <-own:
			fn()
			continue
		default:
		}

		if stolen := p.steal(id); stolen != nil {
			stolen()
			continue
		}

		select {
		case <-p.done:
			p.drainQueue(own)
			return
		case fn := <-own:
			fn()
		}
	}
}

// drainQueue executes all remaining work in a queue.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case fn := <-queue:
			fn()
		default:
			return
		}
	}
}

// steal attempts to take work from another worker's queue.
// Returns nil if no work is available.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case fn := <-p.workQueues[i]:
			return fn
		default:
		}
	}
	return nil
}

// Go schedules fn to run on the pool and returns immediately.
// It reports false, without running fn, if the pool is closed.
func (p *WorkerPool) Go(fn func()) bool {
	if fn == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running.Load() {
		return false
	}

	start := int(p.next.Add(1) % uint64(p.workers))
	for i := range p.workers {
		select {
		case p.workQueues[(start+i)%p.workers] <- fn:
			return true
		default:
		}
	}

	// Every queue is full.
	p.spilled.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
	return true
}

// Close gracefully shuts down the pool.
// It stops accepting new work, waits for all queued and spilled work to
// complete, and then stops all workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork returns the total number of work items currently queued.
// This is an approximation as queues can change while iterating.
func (p *WorkerPool) QueuedWork() int {
	total := 0
	for _, q := range p.workQueues {
		total += len(q)
	}
	return total
}

// Spilled returns how many work items ran on spill goroutines because every
// queue was full.
func (p *WorkerPool) Spilled() uint64 {
	return p.spilled.Load()
}
