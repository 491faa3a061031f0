package entity

import (
	"encoding/json"
	"testing"
	"time"

	"todo-app/component"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskUnmarshal_ParsesDueDate(t *testing.T) {
	raw := `{"id":3,"title":"Pagar conta","due_date":"2025-06-13T10:00:00-03:00","completed":false,
		"is_recurring":true,"recurrence_type":"weekly","created_at":"2025-06-01T08:00:00.000001-03:00"}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))

	require.NotNil(t, task.DueDate)
	assert.Equal(t, 13, task.DueDate.Day())
	assert.Equal(t, component.Weekly, task.RecurrenceType)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestTaskUnmarshal_MalformedDueDateIsDropped(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":"x","due_date":"amanhã cedo"}`), &task))
	assert.Nil(t, task.DueDate)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":"x","due_date":null}`), &task))
	assert.Nil(t, task.DueDate)
}

func TestTaskFields_ApplyDropsRecurrenceWithoutDueDate(t *testing.T) {
	recurring := true
	typ := component.Daily
	task := Task{Title: "x"}

	TaskFields{IsRecurring: &recurring, RecurrenceType: &typ}.Apply(&task)

	assert.False(t, task.IsRecurring)
	assert.Empty(t, task.RecurrenceType)

	due := time.Now()
	TaskFields{DueDate: &due, IsRecurring: &recurring, RecurrenceType: &typ}.Apply(&task)
	assert.True(t, task.IsRecurring)
	assert.Equal(t, component.Daily, task.RecurrenceType)
}

func TestTaskFieldsUnmarshal_NaiveDueDateIsServerTime(t *testing.T) {
	var f TaskFields
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Ler","due_date":"2025-06-13T10:00"}`), &f))
	require.NotNil(t, f.DueDate)
	assert.True(t, f.DueDate.Equal(time.Date(2025, 6, 13, 10, 0, 0, 0, component.ServerLocation)))
	require.NotNil(t, f.Title)
	assert.Equal(t, "Ler", *f.Title)
}

func TestTaskFieldsUnmarshal_EmptyDueDateLeavesItUnset(t *testing.T) {
	var f TaskFields
	require.NoError(t, json.Unmarshal([]byte(`{"due_date":""}`), &f))
	assert.Nil(t, f.DueDate)
}

func TestTaskFieldsUnmarshal_BadDueDate(t *testing.T) {
	var f TaskFields
	assert.Error(t, json.Unmarshal([]byte(`{"due_date":"amanhã"}`), &f))
}
