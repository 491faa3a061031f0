package duecheck

import (
	"testing"
	"time"

	"todo-app/entity"

	"github.com/stretchr/testify/assert"
)

func at(t time.Time) *time.Time { return &t }

func TestIsDue(t *testing.T) {
	now := time.Date(2025, time.June, 13, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task entity.Task
		want bool
	}{
		{"past and open", entity.Task{DueDate: at(now.Add(-time.Hour))}, true},
		{"exactly now", entity.Task{DueDate: at(now)}, true},
		{"future", entity.Task{DueDate: at(now.Add(time.Minute))}, false},
		{"completed in the past", entity.Task{DueDate: at(now.Add(-48 * time.Hour)), Completed: true}, false},
		{"completed in the future", entity.Task{DueDate: at(now.Add(48 * time.Hour)), Completed: true}, false},
		{"no due date", entity.Task{}, false},
		{"zero due date", entity.Task{DueDate: at(time.Time{})}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.task, now))
		})
	}
}

func TestDueTasks_PreservesOrderAndIsIdempotent(t *testing.T) {
	now := time.Date(2025, time.June, 13, 12, 0, 0, 0, time.UTC)
	tasks := []entity.Task{
		{ID: 5, DueDate: at(now.Add(-time.Minute))},
		{ID: 1, DueDate: at(now.Add(time.Hour))},
		{ID: 9},
		{ID: 2, DueDate: at(now.Add(-72 * time.Hour))},
		{ID: 7, DueDate: at(now.Add(-time.Hour)), Completed: true},
	}

	first := DueTasks(tasks, now)
	second := DueTasks(tasks, now)

	ids := make([]int, 0, len(first))
	for _, task := range first {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int{5, 2}, ids)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, CountDue(tasks, now))
}

func TestDueTasks_ReevaluatesAsTimeAdvances(t *testing.T) {
	now := time.Date(2025, time.June, 13, 12, 0, 0, 0, time.UTC)
	tasks := []entity.Task{{ID: 1, DueDate: at(now.Add(30 * time.Second))}}

	assert.Empty(t, DueTasks(tasks, now))
	assert.Len(t, DueTasks(tasks, now.Add(time.Minute)), 1)
}

func TestDue_StopsWhenConsumerStops(t *testing.T) {
	now := time.Now()
	tasks := []entity.Task{
		{ID: 1, DueDate: at(now.Add(-time.Hour))},
		{ID: 2, DueDate: at(now.Add(-time.Hour))},
	}

	seen := 0
	for range Due(tasks, now) {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestDueTasks_EmptyInput(t *testing.T) {
	assert.Empty(t, DueTasks(nil, time.Now()))
}
