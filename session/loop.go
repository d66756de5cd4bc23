package session

import (
	"sync"
)

// Loop runs posted tasks one at a time, in posting order.
type Loop interface {
	Post(task func())
}

// EventLoop is a Loop backed by a single goroutine and an unbounded queue,
// so Post never blocks the poster.
type EventLoop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func NewEventLoop() *EventLoop {
	l := &EventLoop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *EventLoop) Post(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.queue = append(l.queue, task)
	l.cond.Signal()
}

// Stop runs what is already queued, then ends the loop. Later posts are dropped.
func (l *EventLoop) Stop() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()

	<-l.done
}

func (l *EventLoop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}

		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}

		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task()
	}
}

// ManualLoop queues tasks until they are run explicitly.
type ManualLoop struct {
	mu    sync.Mutex
	queue []func()
}

func NewManualLoop() *ManualLoop {
	return &ManualLoop{}
}

func (l *ManualLoop) Post(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, task)
}

// Len is the number of queued tasks.
func (l *ManualLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Step runs the oldest task, reporting whether there was one.
func (l *ManualLoop) Step() bool {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return false
	}

	task := l.queue[0]
	l.queue = l.queue[1:]
	l.mu.Unlock()

	task()
	return true
}

// Drain runs tasks until the queue is empty, including tasks posted meanwhile.
func (l *ManualLoop) Drain() int {
	n := 0
	for l.Step() {
		n++
	}
	return n
}
