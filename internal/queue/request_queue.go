package queue

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

// QueuedJob is one unit of work waiting for a worker.
type QueuedJob struct {
	ID          string
	Pair        domain.LanguagePair
	EnqueueTime time.Time
	Run         func()

	// position in the queue; nil once dequeued or removed
	elem *list.Element
}

// ============================================================================
// Job Queue (Channel-Based Signaling)
// ============================================================================

// JobQueue is a first-in first-out queue with optional backpressure.
// Dequeue blocks on a signal channel so waiting workers also observe
// context cancellation.
type JobQueue struct {
	mu      sync.Mutex
	items   *list.List
	maxSize int // 0 means unbounded
	closed  bool
	signal  chan struct{} // at most one pending wakeup
	done    chan struct{} // closed by Close

	// Stats
	totalEnqueued int64
	totalDequeued int64
	totalDropped  int64
	totalRemoved  int64
}

// NewJobQueue creates a queue holding at most maxSize jobs (0 = unbounded).
func NewJobQueue(maxSize int) *JobQueue {
	if maxSize < 0 {
		maxSize = 0
	}
	return &JobQueue{
		items:   list.New(),
		maxSize: maxSize,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Enqueue appends job. It fails with ServiceUnavailable when the queue is
// full and with LifecycleError once the queue is closed.
func (q *JobQueue) Enqueue(job *QueuedJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return domain.ErrLifecycle("job queue is closed")
	}
	if q.maxSize > 0 && q.items.Len() >= q.maxSize {
		q.totalDropped++
		return domain.ErrServiceUnavailable("translation queue is full")
	}

	job.EnqueueTime = time.Now()
	job.elem = q.items.PushBack(job)
	q.totalEnqueued++
	q.notify()
	return nil
}

// Dequeue removes and returns the oldest job. It blocks until a job is
// available, the queue is closed and empty, or ctx is done. Jobs still
// queued at Close are handed out before Dequeue reports false.
func (q *JobQueue) Dequeue(ctx context.Context) (*QueuedJob, bool) {
	for {
		q.mu.Lock()
		if front := q.items.Front(); front != nil {
			job := q.items.Remove(front).(*QueuedJob)
			job.elem = nil
			q.totalDequeued++
			// Wakeups coalesce; pass one on while work remains.
			if q.items.Len() > 0 {
				q.notify()
			}
			q.mu.Unlock()
			return job, true
		}
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-q.done:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Remove takes job out of the queue if no worker has picked it up yet.
func (q *JobQueue) Remove(job *QueuedJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job.elem == nil {
		return false
	}
	q.items.Remove(job.elem)
	job.elem = nil
	q.totalRemoved++
	return true
}

// notify must be called with q.mu held.
func (q *JobQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
		// Signal already pending
	}
}

// Len returns current queue length
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Close stops new enqueues and wakes every waiting Dequeue.
func (q *JobQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	q.mu.Unlock()
}

// Stats returns queue statistics
func (q *JobQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		CurrentSize:   q.items.Len(),
		MaxSize:       q.maxSize,
		TotalEnqueued: q.totalEnqueued,
		TotalDequeued: q.totalDequeued,
		TotalDropped:  q.totalDropped,
		TotalRemoved:  q.totalRemoved,
	}
}

// QueueStats holds queue statistics
type QueueStats struct {
	CurrentSize   int   `json:"current_size"`
	MaxSize       int   `json:"max_size"`
	TotalEnqueued int64 `json:"total_enqueued"`
	TotalDequeued int64 `json:"total_dequeued"`
	TotalDropped  int64 `json:"total_dropped"`
	TotalRemoved  int64 `json:"total_removed"`
}
