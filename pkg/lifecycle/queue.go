package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/paw-chain/swaprouter/pkg/types"
)

// queueItem is one queued swap awaiting execution.
type queueItem struct {
	ID         string
	Quote      *types.Quote
	Account    string
	Priority   int
	seq        uint64
	EnqueuedAt time.Time
}

// Queue is a rate-limited, priority-ordered submission queue. Higher priority
// dequeues first; equal priorities dequeue in arrival order.
type Queue struct {
	mgr      *Manager
	limiter  *rate.Limiter
	capacity int

	mu         sync.Mutex
	items      []*queueItem
	nextSeq    uint64
	processing int
	completed  int
	failed     int
	wake       chan struct{}
}

// NewQueue builds a queue that executes through mgr under params' capacity
// and rate settings.
func NewQueue(mgr *Manager, params Params) *Queue {
	return &Queue{
		mgr:      mgr,
		limiter:  rate.NewLimiter(rate.Limit(params.QueueRate), 1),
		capacity: params.QueueCapacity,
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue stores a swap for later execution and returns its queue id.
func (q *Queue) Enqueue(quote *types.Quote, account string, priority int) (string, error) {
	if quote == nil || account == "" {
		return "", types.ErrInvalidRequest.Wrap("quote and account are required")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return "", types.ErrQueueFull.Wrapf("capacity %d reached", q.capacity)
	}
	item := &queueItem{
		ID:         uuid.NewString(),
		Quote:      quote,
		Account:    account,
		Priority:   priority,
		seq:        q.nextSeq,
		EnqueuedAt: time.Now(),
	}
	q.nextSeq++
	q.items = append(q.items, item)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return item.ID, nil
}

// Cancel removes a queued swap before it is dequeued. It reports whether the
// item was still waiting.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Status returns the aggregate queue counters.
func (q *Queue) Status() types.QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return types.QueueStatus{
		Queued:     len(q.items),
		Processing: q.processing,
		Completed:  q.completed,
		Failed:     q.failed,
	}
}

// Run drains the queue until ctx is cancelled. One item is in flight at a
// time; the limiter paces submissions.
func (q *Queue) Run(ctx context.Context) {
	for {
		item := q.pop()
		if item == nil {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}

		if err := q.limiter.Wait(ctx); err != nil {
			q.requeue(item)
			return
		}
		q.execute(ctx, item)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// pop removes and returns the highest-priority item, nil when empty.
func (q *Queue) pop() *queueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	best := 0
	for i, item := range q.items[1:] {
		cand := q.items[best]
		if item.Priority > cand.Priority ||
			(item.Priority == cand.Priority && item.seq < cand.seq) {
			best = i + 1
		}
	}
	item := q.items[best]
	q.items = append(q.items[:best], q.items[best+1:]...)
	q.processing++
	return item
}

func (q *Queue) requeue(item *queueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processing--
	q.items = append(q.items, item)
}

func (q *Queue) execute(ctx context.Context, item *queueItem) {
	tx, err := q.mgr.Execute(ctx, item.Quote, item.Account)

	q.mu.Lock()
	q.processing--
	if err != nil {
		q.failed++
	} else {
		q.completed++
	}
	q.mu.Unlock()

	fields := log.Fields{"queue_id": item.ID, "account": item.Account}
	if err != nil {
		log.WithFields(fields).WithError(err).Warn("Queued swap failed")
		return
	}
	fields["hash"] = tx.Hash
	log.WithFields(fields).Info("Queued swap submitted")
}
