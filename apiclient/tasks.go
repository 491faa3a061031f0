package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"todo-app/entity"
)

func (c *Client) ListTasks(ctx context.Context) ([]entity.Task, error) {
	tasks := []entity.Task{}
	if err := c.do(ctx, "list tasks", http.MethodGet, "/api/tasks", c.token(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, fields entity.TaskFields) (entity.Task, error) {
	var task entity.Task
	err := c.do(ctx, "create task", http.MethodPost, "/api/tasks", c.token(), fields, &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, id int, fields entity.TaskFields) (entity.Task, error) {
	var task entity.Task
	err := c.do(ctx, "update task", http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), c.token(), fields, &task)
	return task, err
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, "delete task", http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), c.token(), nil, nil)
}

func (c *Client) DeleteCompletedTasks(ctx context.Context) (entity.DeleteResult, error) {
	var res entity.DeleteResult
	err := c.do(ctx, "delete completed tasks", http.MethodDelete, "/api/tasks/completed", c.token(), nil, &res)
	return res, err
}

func (c *Client) ListNotifications(ctx context.Context) ([]entity.Notification, error) {
	notifications := []entity.Notification{}
	if err := c.do(ctx, "list notifications", http.MethodGet, "/api/notifications", c.token(), nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}
