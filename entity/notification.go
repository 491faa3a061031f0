package entity

type NotificationKind string

const (
	NotificationTaskCreated   NotificationKind = "task_created"
	NotificationTaskCompleted NotificationKind = "task_completed"
	NotificationTaskDue       NotificationKind = "task_due"
)

type Notification struct {
	ID        int              `json:"id"`
	TaskID    int              `json:"task_id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt string           `json:"created_at"`
}
