// Package workerpool provides a bounded goroutine pool with backpressure.
//
// Notification fan-out runs here so a slow webhook never holds up checkout
// or chat. When all workers are busy, Submit returns ErrPoolFull
// immediately and the caller decides whether to drop or wait.
//
//	pool := workerpool.New("notify", 4)
//	defer pool.Shutdown()
//
//	if err := pool.Submit(send); errors.Is(err, workerpool.ErrPoolFull) {
//	    // drop, or SubmitWait
//	}
package workerpool

import (
	"errors"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/metrics"
)

// ErrPoolFull is returned by Submit when all workers are busy and the task
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

var (
	queued = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mazraa",
		Subsystem: "workerpool",
		Name:      "queued_tasks",
		Help:      "Tasks waiting for a worker, by pool.",
	}, []string{"pool"})

	panics = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mazraa",
		Subsystem: "workerpool",
		Name:      "panics_total",
		Help:      "Tasks that panicked, by pool.",
	}, []string{"pool"})
)

func init() {
	metrics.MustRegister(queued, panics)
}

// Pool is a bounded goroutine pool.
type Pool struct {
	name    string
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	depth   prometheus.Gauge
	panics  prometheus.Counter
}

// New creates a named Pool with size workers and a queue of 2×size.
func New(name string, size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		name:   name,
		tasks:  make(chan func(), size*2),
		depth:  queued.WithLabelValues(name),
		panics: panics.WithLabelValues(name),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Name is the label the pool reports under.
func (p *Pool) Name() string { return p.name }

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		p.depth.Inc()
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait is like Submit but blocks until a slot is available.
func (p *Pool) SubmitWait(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	p.tasks <- task
	p.depth.Inc()
	return nil
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
// It is safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		// Waits for in-progress Submit calls, so nobody sends on a closed channel.
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.depth.Dec()
		p.run(task)
	}
}

// run executes task, recovering from panics so a bad task doesn't kill
// the worker goroutine.
func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Inc()
			logger.Error("workerpool: task panicked",
				"pool", p.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	task()
}
