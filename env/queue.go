package env

import (
	"sync"

	"github.com/beyondbrewing/brewery-platform/pkg/logger"
)

// taskQueue serializes background work onto a single worker goroutine.
// Any number of goroutines may submit; tasks run one at a time in exact
// submission order. Submission is fire-and-forget: there is no completion
// signal, no cancellation, and no backpressure.
type taskQueue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond

	// tasks and started are guarded by mu. started flips to true exactly
	// once, when the first submission spawns the worker.
	tasks   []func()
	started bool

	logger logger.Logger
}

func newTaskQueue(log logger.Logger) *taskQueue {
	q := &taskQueue{logger: log}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// Schedule appends task to the queue and wakes the worker. The worker
// goroutine is created lazily on the first call, under the queue mutex so
// two racing submitters cannot both spawn one.
func (q *taskQueue) Schedule(task func()) {
	q.mu.Lock()
	if !q.started {
		q.started = true
		go q.worker()
		q.logger.Debug("background worker started")
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	q.nonEmpty.Signal()
}

// worker drains the queue for the life of the process. It is never
// stopped or joined; on process exit it is simply abandoned. Each task
// runs outside the queue mutex so task execution never blocks submission.
// A task that panics takes the process down; the queue does not recover
// or retry.
func (q *taskQueue) worker() {
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 {
			q.nonEmpty.Wait()
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		if len(q.tasks) == 0 {
			q.tasks = nil
		}
		q.mu.Unlock()

		task()
	}
}
