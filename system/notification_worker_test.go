package system

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todo-app/common"
	"todo-app/entity"
)

type fakePusher struct {
	mu   sync.Mutex
	sent map[int][]common.WSMessage
}

func (p *fakePusher) Send(userID int, msg common.WSMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = make(map[int][]common.WSMessage)
	}
	p.sent[userID] = append(p.sent[userID], msg)
}

func TestNotificationWorkerPool_ProcessesJob(t *testing.T) {
	h, mock, _ := newTestHandler(t, clockwork.NewFakeClock())
	pusher := &fakePusher{}

	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(3, 1, "task_created", "Tarefa criada: Ler", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	pool := NewNotificationWorkerPool(h.Store, pusher, 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	require.True(t, pool.Enqueue(common.NotificationJob{
		UserID:  3,
		TaskID:  1,
		Kind:    entity.NotificationTaskCreated,
		Title:   "Ler",
		Message: "Tarefa criada: Ler",
	}))

	// Stop drains the queue
	pool.Stop()

	assert.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, pusher.sent[3], 1)
	msg := pusher.sent[3][0]
	assert.Equal(t, entity.NotificationTaskCreated, msg.Event)
	assert.Equal(t, 1, msg.TaskID)
	assert.NotEmpty(t, msg.Timestamp)
}

func TestNotificationWorkerPool_FailedInsertIsNotPushed(t *testing.T) {
	h, mock, _ := newTestHandler(t, clockwork.NewFakeClock())
	pusher := &fakePusher{}
	mock.ExpectQuery("INSERT INTO notifications").WillReturnError(assert.AnError)

	pool := NewNotificationWorkerPool(h.Store, pusher, 2, zap.NewNop())
	pool.Start(context.Background())
	pool.Enqueue(common.NotificationJob{UserID: 3, TaskID: 1, Kind: entity.NotificationTaskDue})
	pool.Stop()

	assert.Empty(t, pusher.sent)
}

func TestNotificationWorkerPool_EnqueueAfterStop(t *testing.T) {
	h, _, _ := newTestHandler(t, clockwork.NewFakeClock())
	pool := NewNotificationWorkerPool(h.Store, nil, 1, zap.NewNop())
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()

	assert.False(t, pool.Enqueue(common.NotificationJob{TaskID: 1}))

	var nilPool *NotificationWorkerPool
	assert.False(t, nilPool.Enqueue(common.NotificationJob{TaskID: 1}))
}

func TestNotificationWorkerPool_FullQueueDrops(t *testing.T) {
	h, _, _ := newTestHandler(t, clockwork.NewFakeClock())
	pool := NewNotificationWorkerPool(h.Store, nil, 1, zap.NewNop())
	for i := 0; i < cap(pool.JobQueue); i++ {
		require.True(t, pool.Enqueue(common.NotificationJob{TaskID: i}))
	}
	assert.False(t, pool.Enqueue(common.NotificationJob{TaskID: -1}))
}

func TestGetNotifications(t *testing.T) {
	h, mock, _ := newTestHandler(t, clockwork.NewFakeClock())
	mock.ExpectQuery("FROM notifications").
		WithArgs(1, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "kind", "message", "created_at"}).
			AddRow(2, 7, "task_due", "Tarefa vencida: Ler", "2025-01-10T12:00:00-03:00").
			AddRow(1, 7, "task_created", "Tarefa criada: Ler", "2025-01-09T12:00:00-03:00"))

	rec := httptest.NewRecorder()
	h.GetNotifications(rec, withUser(httptest.NewRequest("GET", "/api/notifications", nil), 1))

	require.Equal(t, http.StatusOK, rec.Code)
	var list []entity.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, entity.NotificationTaskDue, list[0].Kind)
}
