package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"todo-app/entity"
	"todo-app/notifier"
	"todo-app/tasklist"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAPI struct {
	tasks []entity.Task
}

func (a *memAPI) ListTasks(context.Context) ([]entity.Task, error) {
	return append([]entity.Task(nil), a.tasks...), nil
}

func (a *memAPI) CreateTask(_ context.Context, f entity.TaskFields) (entity.Task, error) {
	t := entity.Task{ID: len(a.tasks) + 1}
	f.Apply(&t)
	a.tasks = append(a.tasks, t)
	return t, nil
}

func (a *memAPI) UpdateTask(_ context.Context, id int, f entity.TaskFields) (entity.Task, error) {
	for i := range a.tasks {
		if a.tasks[i].ID == id {
			f.Apply(&a.tasks[i])
			return a.tasks[i], nil
		}
	}
	return entity.Task{}, nil
}

func (a *memAPI) DeleteTask(context.Context, int) error { return nil }

func (a *memAPI) DeleteCompletedTasks(context.Context) (entity.DeleteResult, error) {
	return entity.DeleteResult{}, nil
}

type grantingPlatform struct {
	perm notifier.Permission
}

func (p *grantingPlatform) Permission() notifier.Permission { return p.perm }

func (p *grantingPlatform) RequestPermission(context.Context) (notifier.Permission, error) {
	p.perm = notifier.PermissionGranted
	return p.perm, nil
}

func (p *grantingPlatform) Show(notifier.Notification) error { return nil }
func (p *grantingPlatform) Focus() error                     { return nil }

func ptr(t time.Time) *time.Time { return &t }

func newTestModel(t *testing.T) (Model, *tasklist.Controller, *notifier.Scheduler) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	now := clock.Now()
	api := &memAPI{tasks: []entity.Task{
		{ID: 1, Title: "Vencida", DueDate: ptr(now.Add(-time.Hour)), CreatedAt: now.Add(-3 * time.Hour)},
		{ID: 2, Title: "Sem data", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 3, Title: "Amanhã", DueDate: ptr(now.Add(24 * time.Hour)), CreatedAt: now.Add(-time.Hour)},
	}}
	tasks := tasklist.New(api, clock, nil)
	platform := &grantingPlatform{perm: notifier.PermissionDefault}
	sched := notifier.NewScheduler(platform, tasks, notifier.Options{Clock: clock})
	m := NewModel(context.Background(), Deps{Tasks: tasks, Scheduler: sched, Platform: platform, Clock: clock})

	next, _ := m.Update(m.loadCmd()())
	return next.(Model), tasks, sched
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestLoadRefreshesBadge(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.False(t, m.Loading)
	assert.Equal(t, 1, m.badge.Count())
	assert.True(t, m.badge.HasNew())
	assert.Contains(t, m.View(), "vencidas: 1")
}

func TestFilterKeys(t *testing.T) {
	m, tasks, _ := newTestModel(t)

	m, _ = press(t, m, "3")
	assert.Equal(t, tasklist.FilterTomorrow, tasks.Filter())
	assert.Contains(t, m.View(), "Amanhã")
	assert.NotContains(t, m.View(), "Vencida  ")

	m, _ = press(t, m, "6")
	assert.Equal(t, tasklist.FilterNoDate, tasks.Filter())

	_, _ = press(t, m, "s")
	assert.Equal(t, tasklist.SortTitle, tasks.Sort())
}

func TestSpaceTogglesSelectedTask(t *testing.T) {
	m, tasks, _ := newTestModel(t)

	// newest first: Amanhã, Sem data, Vencida
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	m, cmd := press(t, m, " ")
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Contains(t, m.Status.Text, "concluída")
	assert.Equal(t, 0, m.badge.Count())

	for _, task := range tasks.Tasks() {
		if task.ID == 1 {
			assert.True(t, task.Completed)
		}
	}
}

func TestPanelAcknowledgesAndFocuses(t *testing.T) {
	m, tasks, _ := newTestModel(t)
	m, _ = press(t, m, "3")

	m, _ = press(t, m, "b")
	assert.True(t, m.PanelOpen)
	assert.False(t, m.badge.HasNew())
	assert.Contains(t, m.View(), "Tarefas vencidas")

	m, _ = press(t, m, "enter")
	assert.False(t, m.PanelOpen)
	assert.Equal(t, tasklist.FilterAll, tasks.Filter())
	sel, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, 1, sel.ID)
}

func TestPermissionKey(t *testing.T) {
	m, _, sched := newTestModel(t)

	_, cmd := press(t, m, "n")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "Notificações ativadas.", m.Status.Text)
	assert.Equal(t, 1, sched.Check())
}

func TestQuitStopsScheduler(t *testing.T) {
	m, _, sched := newTestModel(t)
	m.Init()

	m, cmd := press(t, m, "q")
	assert.True(t, m.Quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, notifier.Idle, sched.State())
	assert.Empty(t, strings.TrimSpace(m.View()))
}

func TestFocusTaskMsgSelectsTask(t *testing.T) {
	m, tasks, _ := newTestModel(t)
	m, _ = press(t, m, "3")
	m, _ = press(t, m, "b")

	next, _ := m.Update(FocusTaskMsg{ID: 1})
	m = next.(Model)

	assert.False(t, m.PanelOpen)
	assert.Equal(t, tasklist.FilterAll, tasks.Filter())
	sel, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, 1, sel.ID)
}
