// Package tasklist keeps the client's cached task collection in step with
// the server and derives the filtered views the dashboard shows.
package tasklist

import (
	"context"
	"errors"
	"slices"
	"sync"

	"todo-app/entity"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	MsgLoadFailed            = "Erro ao carregar tarefas. Tente novamente mais tarde."
	MsgCreateFailed          = "Erro ao criar tarefa."
	MsgUpdateFailed          = "Erro ao atualizar tarefa."
	MsgDeleteFailed          = "Erro ao excluir tarefa."
	MsgDeleteCompletedFailed = "Erro ao excluir tarefas concluídas."
	MsgToggleFailed          = "Erro ao atualizar estado da tarefa."
)

var ErrUnknownTask = errors.New("tasklist: unknown task")

// API is the task half of the REST collaborator.
type API interface {
	ListTasks(ctx context.Context) ([]entity.Task, error)
	CreateTask(ctx context.Context, fields entity.TaskFields) (entity.Task, error)
	UpdateTask(ctx context.Context, id int, fields entity.TaskFields) (entity.Task, error)
	DeleteTask(ctx context.Context, id int) error
	DeleteCompletedTasks(ctx context.Context) (entity.DeleteResult, error)
}

// View is what the dashboard renders.
type View struct {
	Active    []entity.Task
	Completed []entity.Task
	Counts    Counts
}

type Controller struct {
	api   API
	clock clockwork.Clock
	log   *zap.Logger

	mu            sync.RWMutex
	tasks         []entity.Task
	loaded        bool
	errMsg        string
	filter        Filter
	sort          SortKey
	showCompleted bool
	subscribers   []func([]entity.Task)
}

func New(api API, clock clockwork.Clock, log *zap.Logger) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		api:           api,
		clock:         clock,
		log:           log,
		filter:        FilterAll,
		sort:          SortCreatedAt,
		showCompleted: true,
	}
}

// Subscribe registers fn to receive the full collection after every change.
func (c *Controller) Subscribe(fn func([]entity.Task)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Tasks returns a copy of the cached collection.
func (c *Controller) Tasks() []entity.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tasks)
}

func (c *Controller) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Err returns the message of the last failed operation, or "".
func (c *Controller) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

func (c *Controller) DismissErr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}

// Load replaces the cache with the server's list. On failure the previous
// list is kept.
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.api.ListTasks(ctx)
	if err != nil {
		return c.fail(MsgLoadFailed, "load tasks", err)
	}
	c.mu.Lock()
	c.tasks = tasks
	c.loaded = true
	c.errMsg = ""
	c.mu.Unlock()
	c.publish()
	return nil
}

func (c *Controller) Create(ctx context.Context, fields entity.TaskFields) (entity.Task, error) {
	task, err := c.api.CreateTask(ctx, fields)
	if err != nil {
		return entity.Task{}, c.fail(MsgCreateFailed, "create task", err)
	}
	c.mu.Lock()
	c.tasks = append(c.tasks, task)
	c.mu.Unlock()
	c.publish()
	return task, nil
}

// Update edits a task. The completed state is left untouched; use
// ToggleComplete for that.
func (c *Controller) Update(ctx context.Context, id int, fields entity.TaskFields) (entity.Task, error) {
	if _, ok := c.find(id); !ok {
		return entity.Task{}, ErrUnknownTask
	}
	fields.Completed = nil
	task, err := c.api.UpdateTask(ctx, id, fields)
	if err != nil {
		return entity.Task{}, c.fail(MsgUpdateFailed, "update task", err)
	}
	c.replace(task)
	return task, nil
}

func (c *Controller) Delete(ctx context.Context, id int) error {
	if err := c.api.DeleteTask(ctx, id); err != nil {
		return c.fail(MsgDeleteFailed, "delete task", err)
	}
	c.mu.Lock()
	c.tasks = slices.DeleteFunc(c.tasks, func(t entity.Task) bool { return t.ID == id })
	c.mu.Unlock()
	c.publish()
	return nil
}

// ToggleComplete flips the completed flag. Completing a recurring task with
// a due date reloads the whole list, because the server creates the next
// occurrence.
func (c *Controller) ToggleComplete(ctx context.Context, id int) (entity.Task, error) {
	current, ok := c.find(id)
	if !ok {
		return entity.Task{}, ErrUnknownTask
	}
	completed := !current.Completed
	task, err := c.api.UpdateTask(ctx, id, entity.TaskFields{Completed: &completed})
	if err != nil {
		return entity.Task{}, c.fail(MsgToggleFailed, "toggle task", err)
	}
	if completed && current.IsRecurring && current.DueDate != nil {
		if err := c.Load(ctx); err != nil {
			c.replace(task)
			return task, err
		}
		return task, nil
	}
	c.replace(task)
	return task, nil
}

// DeleteCompleted removes every completed task and returns how many the
// server deleted.
func (c *Controller) DeleteCompleted(ctx context.Context) (int, error) {
	res, err := c.api.DeleteCompletedTasks(ctx)
	if err != nil {
		return 0, c.fail(MsgDeleteCompletedFailed, "delete completed tasks", err)
	}
	c.mu.Lock()
	c.tasks = slices.DeleteFunc(c.tasks, func(t entity.Task) bool { return t.Completed })
	c.mu.Unlock()
	c.publish()
	return res.DeletedCount, nil
}

func (c *Controller) Filter() Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

func (c *Controller) SetFilter(f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

func (c *Controller) Sort() SortKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sort
}

func (c *Controller) SetSort(k SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = k
}

func (c *Controller) ShowCompleted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.showCompleted
}

func (c *Controller) SetShowCompleted(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showCompleted = v
}

// View filters and sorts the active tasks. Completed tasks ignore the filter
// and are listed newest first.
func (c *Controller) View() View {
	c.mu.RLock()
	tasks := slices.Clone(c.tasks)
	filter, key, showCompleted := c.filter, c.sort, c.showCompleted
	c.mu.RUnlock()

	now := c.clock.Now()
	var v View
	for _, t := range tasks {
		switch {
		case t.Completed:
			if showCompleted {
				v.Completed = append(v.Completed, t)
			}
		case filter.Match(t, now):
			v.Active = append(v.Active, t)
		}
	}
	sortTasks(v.Active, key)
	sortTasks(v.Completed, SortCreatedAt)
	v.Counts = countActive(tasks, now)
	return v
}

func (c *Controller) find(id int) (entity.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return entity.Task{}, false
}

func (c *Controller) replace(task entity.Task) {
	c.mu.Lock()
	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.tasks[i] = task
		}
	}
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) fail(msg, op string, err error) error {
	c.log.Error(op, zap.Error(err))
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
	return err
}

func (c *Controller) publish() {
	c.mu.RLock()
	tasks := slices.Clone(c.tasks)
	subs := slices.Clone(c.subscribers)
	c.mu.RUnlock()
	for _, fn := range subs {
		fn(tasks)
	}
}
