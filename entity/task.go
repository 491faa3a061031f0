package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"todo-app/component"
)

type Task struct {
	ID             int                      `json:"id"`
	Title          string                   `json:"title"`
	Description    string                   `json:"description"`
	DueDate        *time.Time               `json:"due_date"`
	Completed      bool                     `json:"completed"`
	IsRecurring    bool                     `json:"is_recurring"`
	RecurrenceType component.RecurrenceType `json:"recurrence_type,omitempty"`
	ParentTaskID   *int                     `json:"parent_task_id"`
	CreatedAt      time.Time                `json:"created_at"`
	UserID         int                      `json:"-"`
}

// UnmarshalJSON reads due_date and created_at leniently. A due date that does
// not parse is dropped so the task is never considered due.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := struct {
		*alias
		DueDate   *string `json:"due_date"`
		CreatedAt *string `json:"created_at"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.DueDate = nil
	if aux.DueDate != nil {
		if due, err := component.ParseTimestamp(*aux.DueDate, component.ServerLocation); err == nil {
			t.DueDate = &due
		}
	}
	if aux.CreatedAt != nil {
		if created, err := component.ParseTimestamp(*aux.CreatedAt, component.ServerLocation); err == nil {
			t.CreatedAt = created
		}
	}
	return nil
}

// TaskFields carries the writable fields of a task. Nil means "leave as is".
type TaskFields struct {
	Title          *string                   `json:"title,omitempty"`
	Description    *string                   `json:"description,omitempty"`
	DueDate        *time.Time                `json:"due_date,omitempty"`
	Completed      *bool                     `json:"completed,omitempty"`
	IsRecurring    *bool                     `json:"is_recurring,omitempty"`
	RecurrenceType *component.RecurrenceType `json:"recurrence_type,omitempty"`
}

// UnmarshalJSON accepts the same due_date forms as Task. An empty or null
// due_date leaves the date unset; one that does not parse is an error.
func (f *TaskFields) UnmarshalJSON(data []byte) error {
	type alias TaskFields
	aux := struct {
		*alias
		DueDate *string `json:"due_date"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.DueDate = nil
	if aux.DueDate != nil && *aux.DueDate != "" {
		due, err := component.ParseTimestamp(*aux.DueDate, component.ServerLocation)
		if err != nil {
			return fmt.Errorf("due_date %q: %w", *aux.DueDate, err)
		}
		f.DueDate = &due
	}
	return nil
}

// Apply copies the set fields onto t.
func (f TaskFields) Apply(t *Task) {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.DueDate != nil {
		due := *f.DueDate
		t.DueDate = &due
	}
	if f.Completed != nil {
		t.Completed = *f.Completed
	}
	if f.IsRecurring != nil {
		t.IsRecurring = *f.IsRecurring
	}
	if f.RecurrenceType != nil {
		t.RecurrenceType = *f.RecurrenceType
	}
	// recurrence only makes sense with a due date
	if t.DueDate == nil {
		t.IsRecurring = false
		t.RecurrenceType = ""
	}
	if !t.IsRecurring {
		t.RecurrenceType = ""
	}
}

type DeleteResult struct {
	DeletedCount int `json:"deleted_count"`
}
