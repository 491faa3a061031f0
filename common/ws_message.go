package common

import "todo-app/entity"

// WSMessage is pushed to a user's websocket when one of their tasks changes.
type WSMessage struct {
	Event     entity.NotificationKind `json:"event"`
	TaskID    int                     `json:"task_id,omitempty"`
	Title     string                  `json:"title,omitempty"`
	Message   string                  `json:"message,omitempty"`
	Timestamp string                  `json:"timestamp,omitempty"`
}
