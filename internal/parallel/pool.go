// Package parallel runs batches of independent CPU tasks on a fixed set of
// goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs task batches on a fixed number of goroutines. Each worker owns
// a queue and takes from the others when its own runs dry, so one slow band
// does not leave the rest idle.
//
// A Pool is safe for concurrent use.
type Pool struct {
	queues []chan func()
	done   chan struct{}
	wg     sync.WaitGroup
	open   atomic.Bool
}

// NewPool starts a pool with n workers. n <= 0 selects GOMAXPROCS.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	depth := max(n*4, 8)

	p := &Pool{
		queues: make([]chan func(), n),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.open.Store(true)

	p.wg.Add(n)
	for i := range n {
		go p.loop(i)
	}
	return p
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case task := <-own:
			task()
			continue
		case <-p.done:
			p.drain(own)
			return
		default:
		}

		if task := p.take(id); task != nil {
			task()
			continue
		}

		select {
		case task := <-own:
			task()
		case <-p.done:
			p.drain(own)
			return
		}
	}
}

// take pulls one queued task from another worker.
func (p *Pool) take(id int) func() {
	for i, q := range p.queues {
		if i == id {
			continue
		}
		select {
		case task := <-q:
			return task
		default:
		}
	}
	return nil
}

func (p *Pool) drain(q chan func()) {
	for {
		select {
		case task := <-q:
			task()
		default:
			return
		}
	}
}

// Run executes every task and returns when all have finished. Tasks are
// dealt round-robin. On a closed pool Run executes the tasks on the
// calling goroutine.
func (p *Pool) Run(tasks []func()) {
	if len(tasks) == 0 {
		return
	}
	if !p.open.Load() {
		for _, task := range tasks {
			task()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		wrapped := func() {
			defer wg.Done()
			task()
		}
		select {
		case p.queues[i%len(p.queues)] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// Close stops the workers after the queued tasks finish. It is safe to call
// more than once, but not concurrently with Run.
func (p *Pool) Close() {
	if !p.open.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return len(p.queues) }

// Span is a half-open index range [Start, End).
type Span struct {
	Start, End int
}

// Split cuts [0, total) into consecutive spans of at most size items. The
// result depends only on total and size.
func Split(total, size int) []Span {
	if total <= 0 {
		return nil
	}
	if size <= 0 {
		size = total
	}
	spans := make([]Span, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		spans = append(spans, Span{Start: start, End: min(start+size, total)})
	}
	return spans
}
