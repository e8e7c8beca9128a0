package planner

import "sync"

// writeQueue orders remote writes per entity id. Tickets are taken while
// the planner lock is held, so the remote order of writes to one id
// matches the order in which they were applied locally.
type writeQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func newWriteQueue() *writeQueue {
	return &writeQueue{tails: make(map[string]chan struct{})}
}

type ticket struct {
	waits []chan struct{}
	done  []func()
}

// enqueue reserves the next write slot for each key
func (q *writeQueue) enqueue(keys ...string) *ticket {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := &ticket{}
	for _, key := range keys {
		next := make(chan struct{})
		if prev, ok := q.tails[key]; ok {
			t.waits = append(t.waits, prev)
		}
		q.tails[key] = next
		t.done = append(t.done, func() {
			close(next)
			q.mu.Lock()
			if q.tails[key] == next {
				delete(q.tails, key)
			}
			q.mu.Unlock()
		})
	}
	return t
}

// wait blocks until every earlier write to the ticket's keys has finished
func (t *ticket) wait() {
	for _, ch := range t.waits {
		<-ch
	}
}

func (t *ticket) release() {
	for _, f := range t.done {
		f()
	}
}
