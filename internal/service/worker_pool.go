package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/queue"
)

// Job is one inference call bound to a model.
type Job func() (string, error)

type jobResult struct {
	text string
	err  error
}

// WorkerPool runs jobs on a fixed set of worker goroutines fed by a FIFO
// queue. Each worker runs one job at a time, to completion.
type WorkerPool struct {
	queue   *queue.JobQueue
	logger  *slog.Logger
	workers int
	busy    []atomic.Bool

	wg       sync.WaitGroup
	stopOnce sync.Once

	completed atomic.Int64
	failed    atomic.Int64
	panics    atomic.Int64
}

// NewWorkerPool starts workers goroutines. queueSize bounds the number of
// waiting jobs (0 = unbounded). A pool with zero workers accepts
// construction but fails every Submit.
func NewWorkerPool(workers, queueSize int, logger *slog.Logger) *WorkerPool {
	if workers < 0 {
		workers = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &WorkerPool{
		queue:   queue.NewJobQueue(queueSize),
		logger:  logger,
		workers: workers,
		busy:    make([]atomic.Bool, workers),
	}

	p.logger.Info("starting worker pool", slog.Int("workers", workers), slog.Int("queue_size", queueSize))
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	return p
}

// workerLoop processes jobs until the queue is closed and drained.
func (p *WorkerPool) workerLoop(workerID int) {
	defer p.wg.Done()
	ctx := context.Background() // Long-running context for the worker itself

	for {
		job, ok := p.queue.Dequeue(ctx)
		if !ok {
			p.logger.Debug("worker stopping", slog.Int("worker_id", workerID))
			return
		}

		p.busy[workerID].Store(true)
		p.logger.Debug("worker picked job",
			slog.Int("worker_id", workerID),
			slog.String("job_id", job.ID),
			slog.String("pair", job.Pair.String()),
		)
		job.Run()
		p.busy[workerID].Store(false)
	}
}

// Submit queues job and blocks until a worker has run it. ctx is honoured
// only while the job is still waiting; once a worker has picked it up the
// job runs to completion and its result is returned.
func (p *WorkerPool) Submit(ctx context.Context, pair domain.LanguagePair, job Job) (string, error) {
	if p.workers == 0 {
		return "", domain.ErrUsage("worker pool has no workers").WithParam("num_workers")
	}

	done := make(chan jobResult, 1)
	queued := &queue.QueuedJob{
		ID:   uuid.NewString(),
		Pair: pair,
	}
	queued.Run = func() {
		text, err := p.execute(queued, job)
		done <- jobResult{text: text, err: err}
	}

	if err := p.queue.Enqueue(queued); err != nil {
		return "", err
	}

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		if p.queue.Remove(queued) {
			return "", domain.ErrServiceUnavailable("gave up waiting for a free worker").WithCause(ctx.Err())
		}
		// Already running: wait for it.
		res := <-done
		return res.text, res.err
	}
}

// execute runs job, converting a panic into an EngineError so the worker
// survives.
func (p *WorkerPool) execute(queued *queue.QueuedJob, job Job) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.panics.Add(1)
			p.logger.Error("panic recovered",
				slog.String("job_id", queued.ID),
				slog.String("pair", queued.Pair.String()),
				slog.Any("error", rec),
				slog.String("stack", string(debug.Stack())),
			)
			text = ""
			err = domain.ErrEngine("inference engine panicked").WithCause(fmt.Errorf("panic: %v", rec))
		}
		if err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}
	}()
	return job()
}

// Stop closes the queue, lets queued jobs finish and waits for every
// worker to exit. Safe to call more than once.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.queue.Close()
		p.wg.Wait()
		p.logger.Info("worker pool stopped", slog.Int("workers", p.workers))
	})
}

// Workers is the fixed pool size.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Stats returns a snapshot of pool activity.
func (p *WorkerPool) Stats() domain.PoolStats {
	busy := 0
	for i := range p.busy {
		if p.busy[i].Load() {
			busy++
		}
	}
	qs := p.queue.Stats()
	return domain.PoolStats{
		Workers:         p.workers,
		Busy:            busy,
		Queued:          qs.CurrentSize,
		Rejected:        qs.TotalDropped,
		Abandoned:       qs.TotalRemoved,
		Completed:       p.completed.Load(),
		Failed:          p.failed.Load(),
		PanicsRecovered: p.panics.Load(),
	}
}
