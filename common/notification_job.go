package common

import "todo-app/entity"

// NotificationJob is queued by the task handlers and consumed by the
// notification worker pool.
type NotificationJob struct {
	UserID  int
	TaskID  int
	Kind    entity.NotificationKind
	Title   string
	Message string
}
