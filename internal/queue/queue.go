package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

var ErrQueueClosed = errors.New("queue is closed")

// Job is a unit of background work. Run receives a fresh context; the queue
// does not impose a deadline, callers set their own.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a strictly FIFO, single-worker, in-process work queue. Enqueue
// appends and wakes the drain loop if it is idle; the loop runs one job to
// completion before the next, so settlement calls never race each other
// inside the process. A job's error or panic is logged and never aborts
// queued siblings. Jobs are not durable across process restart.
type Queue struct {
	mu       sync.Mutex
	jobs     []Job
	draining bool
	closed   bool
	wg       sync.WaitGroup
	logger   *zerolog.Logger
}

func New() *Queue {
	l := log.GetLogger()
	return &Queue{logger: &l}
}

// Enqueue appends the job and starts the drain loop when idle.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.jobs = append(q.jobs, job)
	if !q.draining {
		q.draining = true
		q.wg.Add(1)
		go q.drain()
	}
	return nil
}

// Len reports the number of jobs waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error().Interface("panic", r).Str("job", job.Name).Msg("background job panicked")
		}
	}()

	if err := job.Run(context.Background()); err != nil {
		q.logger.Error().Err(err).Str("job", job.Name).Msg("background job failed")
	}
}

// Close stops intake and waits for the queued tail to finish, or until ctx
// expires.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
