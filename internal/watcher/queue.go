package watcher

import "sync"

// pathQueue is an unbounded FIFO with a one-slot wakeup channel.
type pathQueue struct {
	mu    sync.Mutex
	items []string
	ready chan struct{}
}

func newPathQueue() *pathQueue {
	return &pathQueue{ready: make(chan struct{}, 1)}
}

func (q *pathQueue) push(path string) {
	q.mu.Lock()
	q.items = append(q.items, path)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *pathQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	path := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	return path, true
}
