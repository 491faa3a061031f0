package system

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todo-app/component"
	"todo-app/entity"
)

func expectPending(mock sqlmock.Sqlmock, rows ...[]driver.Value) {
	r := sqlmock.NewRows(taskCols)
	for _, row := range rows {
		r.AddRow(row...)
	}
	mock.ExpectQuery("LEFT JOIN notifications").
		WithArgs("task_due", false).
		WillReturnRows(r)
}

func overdue(id, userID int, title string) []driver.Value {
	return []driver.Value{id, userID, title, "", "2025-01-10T11:00:00-03:00", false, false, nil, nil, "2025-01-01T08:00:00-03:00"}
}

func TestDueScanner_QueuesEachTaskOnce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 12, 0, 0, 0, component.ServerLocation))
	h, mock, _ := newTestHandler(t, clock)
	pool := NewNotificationWorkerPool(h.Store, nil, 1, zap.NewNop())
	scanner := NewDueScanner(h.Store, pool, clock, time.Minute, zap.NewNop())

	expectPending(mock, overdue(1, 1, "Ler"), overdue(2, 2, "Correr"))
	assert.Equal(t, 2, scanner.ScanOnce(context.Background()))

	job := nextJob(t, pool)
	assert.Equal(t, entity.NotificationTaskDue, job.Kind)
	assert.Equal(t, "Tarefa vencida: Ler", job.Message)
	nextJob(t, pool)

	// not recorded yet, still pending: not queued again
	expectPending(mock, overdue(1, 1, "Ler"), overdue(2, 2, "Correr"))
	assert.Equal(t, 0, scanner.ScanOnce(context.Background()))

	// a job that never got recorded is retried later
	clock.Advance(retryAfter * time.Minute)
	expectPending(mock, overdue(2, 2, "Correr"))
	assert.Equal(t, 1, scanner.ScanOnce(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDueScanner_QueryErrorQueuesNothing(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h, mock, _ := newTestHandler(t, clock)
	pool := NewNotificationWorkerPool(h.Store, nil, 1, zap.NewNop())
	scanner := NewDueScanner(h.Store, pool, clock, time.Minute, zap.NewNop())

	mock.ExpectQuery("LEFT JOIN notifications").WillReturnError(assert.AnError)
	assert.Equal(t, 0, scanner.ScanOnce(context.Background()))
	assert.Len(t, pool.JobQueue, 0)
}

func TestDueScanner_StartStop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 12, 0, 0, 0, component.ServerLocation))
	h, mock, _ := newTestHandler(t, clock)
	pool := NewNotificationWorkerPool(h.Store, nil, 1, zap.NewNop())
	scanner := NewDueScanner(h.Store, pool, clock, time.Minute, zap.NewNop())

	expectPending(mock)
	expectPending(mock, overdue(1, 1, "Ler"))

	scanner.Start(context.Background())
	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	require.Eventually(t, func() bool { return len(pool.JobQueue) == 1 }, time.Second, 5*time.Millisecond)
	scanner.Stop()
	scanner.Stop()
	assert.NoError(t, mock.ExpectationsWereMet())
}
