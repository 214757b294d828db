package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

func job(id string) *QueuedJob {
	return &QueuedJob{ID: id}
}

func TestFIFOOrder(t *testing.T) {
	q := NewJobQueue(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(job(fmt.Sprint(i))))
	}
	for i := 0; i < 5; i++ {
		got, ok := q.Dequeue(context.Background())
		require.True(t, ok)
		require.Equal(t, fmt.Sprint(i), got.ID)
		require.False(t, got.EnqueueTime.IsZero())
	}
	require.Zero(t, q.Len())
}

func TestBackpressure(t *testing.T) {
	q := NewJobQueue(2)
	require.NoError(t, q.Enqueue(job("a")))
	require.NoError(t, q.Enqueue(job("b")))

	err := q.Enqueue(job("c"))
	require.True(t, domain.IsCode(err, domain.ErrCodeServiceUnavailable))

	stats := q.Stats()
	require.Equal(t, 2, stats.CurrentSize)
	require.Equal(t, int64(1), stats.TotalDropped)
}

func TestRemove(t *testing.T) {
	q := NewJobQueue(0)
	a, b := job("a"), job("b")
	require.NoError(t, q.Enqueue(a))
	require.NoError(t, q.Enqueue(b))

	require.True(t, q.Remove(a))
	require.False(t, q.Remove(a))

	got, ok := q.Dequeue(context.Background())
	require.True(t, ok)
	require.Equal(t, "b", got.ID)
	require.False(t, q.Remove(b))
	require.Equal(t, int64(1), q.Stats().TotalRemoved)
}

func TestDequeueContextCancel(t *testing.T) {
	q := NewJobQueue(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := q.Dequeue(ctx)
	require.False(t, ok)
}

func TestCloseDrainsThenStops(t *testing.T) {
	q := NewJobQueue(0)
	require.NoError(t, q.Enqueue(job("a")))
	q.Close()
	q.Close()

	require.True(t, domain.IsCode(q.Enqueue(job("b")), domain.ErrCodeLifecycle))

	got, ok := q.Dequeue(context.Background())
	require.True(t, ok)
	require.Equal(t, "a", got.ID)

	_, ok = q.Dequeue(context.Background())
	require.False(t, ok)
}

func TestCloseWakesWaiters(t *testing.T) {
	q := NewJobQueue(0)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Dequeue(context.Background())
			assert.False(t, ok)
		}()
	}
	time.Sleep(10 * time.Millisecond)
	q.Close()
	wg.Wait()
}

// Many waiters and a burst of enqueues: coalesced signals must not leave
// any job stranded.
func TestBurstReachesAllWaiters(t *testing.T) {
	q := NewJobQueue(0)
	const waiters, jobs = 8, 200

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				got, ok := q.Dequeue(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				seen[got.ID] = true
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < jobs; i++ {
		require.NoError(t, q.Enqueue(job(fmt.Sprint(i))))
	}
	require.Eventually(t, func() bool { return q.Len() == 0 }, 2*time.Second, time.Millisecond)
	q.Close()
	wg.Wait()

	require.Len(t, seen, jobs)
	require.Equal(t, int64(jobs), q.Stats().TotalDequeued)
}
