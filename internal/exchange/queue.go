package exchange

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/lorasensor/internal/messages"
)

// Entry is a queued message with its delivery bookkeeping.
type Entry struct {
	ID       int64
	Msg      messages.Message
	Attempts int
}

// Queue stores outbound messages in FIFO order.
type Queue interface {
	Push(ctx context.Context, msg messages.Message) error
	// Pending returns up to limit entries, oldest first. A limit <= 0 returns all.
	Pending(ctx context.Context, limit int) ([]Entry, error)
	Remove(ctx context.Context, id int64) error
	// MarkFailed records a failed send and returns the total failed attempts.
	MarkFailed(ctx context.Context, id int64) (int, error)
	Len(ctx context.Context) (int, error)
}

// MemoryQueue is a Queue that lives only as long as the process.
type MemoryQueue struct {
	mu      sync.Mutex
	nextID  int64
	entries []Entry
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(_ context.Context, msg messages.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.entries = append(q.entries, Entry{ID: q.nextID, Msg: msg})
	return nil
}

func (q *MemoryQueue) Pending(_ context.Context, limit int) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, q.entries[:n])
	return out, nil
}

func (q *MemoryQueue) Remove(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *MemoryQueue) MarkFailed(_ context.Context, id int64) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.entries {
		if q.entries[i].ID == id {
			q.entries[i].Attempts++
			return q.entries[i].Attempts, nil
		}
	}
	return 0, nil
}

func (q *MemoryQueue) Len(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries), nil
}
