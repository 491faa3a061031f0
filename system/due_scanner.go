package system

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"todo-app/common"
	"todo-app/entity"
	"todo-app/storage"
)

const retryAfter = 5

// DueScanner periodically records a task_due notification for every task
// that became due and has none yet, and pushes it to the owner.
type DueScanner struct {
	store    *storage.Store
	pool     *NotificationWorkerPool
	clock    clockwork.Clock
	interval time.Duration
	log      *zap.Logger

	// tasks queued but not yet recorded by the pool, with when they were queued
	queued map[int]time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDueScanner(store *storage.Store, pool *NotificationWorkerPool, clock clockwork.Clock, interval time.Duration, log *zap.Logger) *DueScanner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DueScanner{
		store:    store,
		pool:     pool,
		clock:    clock,
		interval: interval,
		log:      log,
		queued:   make(map[int]time.Time),
	}
}

// ScanOnce queues the pending due tasks and returns how many were queued.
// Not safe for concurrent use; Start serialises calls.
func (s *DueScanner) ScanOnce(ctx context.Context) int {
	now := s.clock.Now()
	tasks, err := s.store.PendingDueTasks(ctx, now)
	if err != nil {
		s.log.Warn("Due scan failed", zap.Error(err))
		return 0
	}

	pending := make(map[int]time.Time, len(tasks))
	n := 0
	for _, t := range tasks {
		// a job that failed to record is retried after a few intervals
		if at, ok := s.queued[t.ID]; ok && now.Sub(at) < retryAfter*s.interval {
			pending[t.ID] = at
			continue
		}
		ok := s.pool.Enqueue(common.NotificationJob{
			UserID:  t.UserID,
			TaskID:  t.ID,
			Kind:    entity.NotificationTaskDue,
			Title:   t.Title,
			Message: "Tarefa vencida: " + t.Title,
		})
		if !ok {
			continue
		}
		pending[t.ID] = now
		n++
	}
	s.queued = pending
	return n
}

// Start scans right away and then every interval until Stop or ctx ends.
func (s *DueScanner) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()
		s.ScanOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				s.ScanOnce(ctx)
			}
		}
	}(s.done)
}

func (s *DueScanner) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
