package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/berai-dev/berai/internal/logging"
)

// ErrQueueFull is returned by TaskAssigned when the buffer is full.
var ErrQueueFull = errors.New("notification queue is full")

// Queue hands assignments to a background worker so request handlers never
// wait on a slow channel. It implements Notifier itself.
type Queue struct {
	next    Notifier
	jobs    chan Assignment
	timeout time.Duration

	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewQueue buffers up to size assignments for next. Each delivery gets
// timeout to finish.
func NewQueue(next Notifier, size int, timeout time.Duration) *Queue {
	if size <= 0 {
		size = 100
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		next:    next,
		jobs:    make(chan Assignment, size),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start launches the worker.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true

	go q.run()
	logging.Logger.Info("Event ID: NOTIFY_QUEUE_STARTED, Description: Notification queue started")
}

// Stop delivers what is already buffered and waits for the worker to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	<-q.done
	logging.Logger.Info("Event ID: NOTIFY_QUEUE_STOPPED, Description: Notification queue stopped")
}

// TaskAssigned enqueues a without blocking.
func (q *Queue) TaskAssigned(_ context.Context, a Assignment) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.ctx.Err() != nil {
		return context.Canceled
	}

	select {
	case q.jobs <- a:
		return nil
	default:
		logging.Logger.Warnf("Event ID: NOTIFY_DROPPED, Description: Dropped assignment notification for task %d", a.TaskID)
		return ErrQueueFull
	}
}

// Pending reports how many assignments are waiting.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case a := <-q.jobs:
			q.deliver(a)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case a := <-q.jobs:
			q.deliver(a)
		default:
			return
		}
	}
}

func (q *Queue) deliver(a Assignment) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	if err := q.next.TaskAssigned(ctx, a); err != nil {
		logging.Logger.Errorf("Event ID: NOTIFY_FAILED, Description: Failed to deliver assignment notification for task %d: %v", a.TaskID, err)
	}
}
