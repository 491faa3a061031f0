package notifier

import (
	"fmt"

	"todo-app/entity"
)

const (
	DueTitle  = "Tarefa Vencida"
	IconPath  = "/notification-icon.png"
	BadgePath = "/notification-badge.png"
)

// DueNotification builds the alert shown for an overdue task.
func DueNotification(t entity.Task) Notification {
	return Notification{
		Title:  DueTitle,
		Body:   fmt.Sprintf("A tarefa %q está vencida!", t.Title),
		Icon:   IconPath,
		Badge:  BadgePath,
		TaskID: t.ID,
	}
}
