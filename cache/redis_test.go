package cache

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-app/entity"
)

func withMock(t *testing.T) redismock.ClientMock {
	t.Helper()
	db, mock := redismock.NewClientMock()
	prev := RedisClient
	RedisClient = db
	t.Cleanup(func() { RedisClient = prev })
	return mock
}

func TestTaskList_RoundTripThroughRedis(t *testing.T) {
	mock := withMock(t)
	due := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	tasks := []entity.Task{{ID: 1, Title: "Ler", DueDate: &due, CreatedAt: due}}
	data, err := json.Marshal(tasks)
	require.NoError(t, err)

	mock.ExpectSet("tasks:user:4", string(data), TaskListTTL).SetVal("OK")
	require.NoError(t, SetTaskList(4, tasks))

	mock.ExpectGet("tasks:user:4").SetVal(string(data))
	got, ok := GetTaskList(4)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Ler", got[0].Title)
	assert.True(t, got[0].DueDate.Equal(due))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTaskList_Miss(t *testing.T) {
	mock := withMock(t)
	mock.ExpectGet("tasks:user:4").RedisNil()

	_, ok := GetTaskList(4)
	assert.False(t, ok)
}

func TestGetTaskList_Corrupt(t *testing.T) {
	mock := withMock(t)
	mock.ExpectGet("tasks:user:4").SetVal("{not json")

	_, ok := GetTaskList(4)
	assert.False(t, ok)
}

func TestInvalidateTasks(t *testing.T) {
	mock := withMock(t)
	mock.ExpectDel("tasks:user:4").SetVal(1)
	assert.NoError(t, InvalidateTasks(4))

	mock.ExpectDel("tasks:user:5").SetErr(errors.New("down"))
	assert.Error(t, InvalidateTasks(5))
}

func TestDisabledCacheIsNoop(t *testing.T) {
	prev := RedisClient
	RedisClient = nil
	t.Cleanup(func() { RedisClient = prev })

	assert.False(t, Enabled())
	_, err := Get("x")
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, Set("x", "y", time.Second))
	assert.NoError(t, InvalidateTasks(1))
	_, ok := GetTaskList(1)
	assert.False(t, ok)
}
