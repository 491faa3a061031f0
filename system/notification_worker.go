package system

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"todo-app/common"
	"todo-app/entity"
	"todo-app/storage"
)

var notificationsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "todo_server_notifications_total",
	Help: "Notifications recorded by the worker pool, by kind and result.",
}, []string{"kind", "result"})

// Pusher delivers a message to the live connections of a user.
type Pusher interface {
	Send(userID int, msg common.WSMessage)
}

type NotificationWorkerPool struct {
	Store     *storage.Store
	Pusher    Pusher
	JobQueue  chan common.NotificationJob
	NumWorker int
	Log       *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewNotificationWorkerPool(store *storage.Store, pusher Pusher, numWorker int, log *zap.Logger) *NotificationWorkerPool {
	if numWorker < 1 {
		numWorker = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationWorkerPool{
		Store:     store,
		Pusher:    pusher,
		JobQueue:  make(chan common.NotificationJob, 100),
		NumWorker: numWorker,
		Log:       log,
	}
}

func (p *NotificationWorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.NumWorker; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (p *NotificationWorkerPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.JobQueue)
	p.mu.Unlock()
	p.wg.Wait()
}

// Enqueue hands job to the workers without blocking. It reports false when
// the queue is full or stopped. A nil pool drops every job.
func (p *NotificationWorkerPool) Enqueue(job common.NotificationJob) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.JobQueue <- job:
		return true
	default:
		p.Log.Warn("Notification queue full, job dropped", zap.Int("task_id", job.TaskID), zap.String("kind", string(job.Kind)))
		notificationsRecorded.WithLabelValues(string(job.Kind), "dropped").Inc()
		return false
	}
}

func (p *NotificationWorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.Log.Debug("Notification worker shutting down", zap.Int("worker", id))
			return
		case job, ok := <-p.JobQueue:
			if !ok {
				return
			}
			if err := p.process(ctx, job); err != nil {
				p.Log.Error("Notification job failed", zap.Int("worker", id), zap.Int("task_id", job.TaskID), zap.Error(err))
			}
		}
	}
}

func (p *NotificationWorkerPool) process(ctx context.Context, job common.NotificationJob) error {
	n := entity.Notification{TaskID: job.TaskID, Kind: job.Kind, Message: job.Message}
	if err := p.Store.InsertNotification(ctx, job.UserID, &n); err != nil {
		notificationsRecorded.WithLabelValues(string(job.Kind), "error").Inc()
		return err
	}
	notificationsRecorded.WithLabelValues(string(job.Kind), "ok").Inc()

	if p.Pusher != nil {
		p.Pusher.Send(job.UserID, common.WSMessage{
			Event:     job.Kind,
			TaskID:    job.TaskID,
			Title:     job.Title,
			Message:   job.Message,
			Timestamp: n.CreatedAt,
		})
	}
	return nil
}

// GetNotifications returns the caller's latest notifications. ?limit= caps
// the count (default 50).
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 200 {
		limit = 200
	}

	list, err := h.Store.Notifications(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error querying notifications")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
