// Package tui is the interactive dashboard: task list, filters and the due
// task panel, with the notification scheduler mounted while it runs.
package tui

import (
	"context"
	"fmt"

	"todo-app/duecheck"
	"todo-app/entity"
	"todo-app/notifier"
	"todo-app/tasklist"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type Model struct {
	ctx       context.Context
	tasks     *tasklist.Controller
	scheduler *notifier.Scheduler
	badge     *notifier.Badge
	platform  notifier.Platform
	clock     clockwork.Clock
	// changed is signalled by the scheduler and the task controller
	changed <-chan struct{}

	keys      keyMap
	panelKeys panelKeyMap
	help      help.Model

	Cursor      int
	PanelOpen   bool
	PanelCursor int
	Status      StatusBar
	Loading     bool
	Quitting    bool
	width       int
}

type Deps struct {
	Tasks     *tasklist.Controller
	Scheduler *notifier.Scheduler
	Badge     *notifier.Badge
	Platform  notifier.Platform
	Clock     clockwork.Clock
	Changed   <-chan struct{}
}

func NewModel(ctx context.Context, d Deps) Model {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Badge == nil {
		d.Badge = &notifier.Badge{}
	}
	return Model{
		ctx:       ctx,
		tasks:     d.Tasks,
		scheduler: d.Scheduler,
		badge:     d.Badge,
		platform:  d.Platform,
		clock:     d.Clock,
		changed:   d.Changed,
		keys:      newKeyMap(),
		panelKeys: newPanelKeyMap(),
		help:      help.New(),
		Loading:   true,
	}
}

type tasksLoadedMsg struct{ err error }

type mutationMsg struct {
	status string
	err    error
}

type permissionMsg struct {
	permission notifier.Permission
	err        error
}

type changedMsg struct{}

// FocusTaskMsg moves the cursor to a task, as after a click on its
// desktop notification.
type FocusTaskMsg struct{ ID int }

// Init mounts the scheduler and loads the list.
func (m Model) Init() tea.Cmd {
	if m.scheduler != nil {
		m.scheduler.Start(m.ctx)
	}
	return tea.Batch(m.loadCmd(), m.waitForChange())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{err: m.tasks.Load(m.ctx)}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.changed == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-m.changed:
			return changedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) mutate(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn(m.ctx)
		return mutationMsg{status: status, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tasksLoadedMsg:
		m.Loading = false
		if msg.err != nil {
			m.Status = StatusBar{Text: m.tasks.Err(), IsError: true}
		}
		m.refreshBadge()
		m.clampCursor()
		return m, nil
	case mutationMsg:
		if msg.err != nil {
			m.Status = StatusBar{Text: m.tasks.Err(), IsError: true}
		} else if msg.status != "" {
			m.Status = StatusBar{Text: msg.status}
		}
		m.refreshBadge()
		m.clampCursor()
		return m, nil
	case permissionMsg:
		m.Status = permissionStatus(msg.permission, msg.err)
		return m, nil
	case FocusTaskMsg:
		m.PanelOpen = false
		m.focusTask(msg.ID)
		return m, nil
	case changedMsg:
		m.clampCursor()
		return m, m.waitForChange()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Quitting = true
		if m.scheduler != nil {
			m.scheduler.Stop()
		}
		return m, tea.Quit
	}
	if m.PanelOpen {
		return m.handlePanelKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.Cursor++
		m.clampCursor()
	case key.Matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.mutate(func(ctx context.Context) (string, error) {
			t, err := m.tasks.ToggleComplete(ctx, task.ID)
			if err != nil {
				return "", err
			}
			if t.Completed {
				return fmt.Sprintf("%q concluída", t.Title), nil
			}
			return fmt.Sprintf("%q reaberta", t.Title), nil
		})
	case key.Matches(msg, m.keys.Reload):
		m.Loading = true
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.Permission):
		return m, m.requestPermission()
	case key.Matches(msg, m.keys.Panel):
		m.PanelOpen = true
		m.PanelCursor = 0
		m.badge.Acknowledge()
	case key.Matches(msg, m.keys.Sort):
		m.tasks.SetSort(m.tasks.Sort().Next())
		m.Status = StatusBar{Text: "Ordenar por: " + m.tasks.Sort().Label()}
	case key.Matches(msg, m.keys.ShowCompleted):
		m.tasks.SetShowCompleted(!m.tasks.ShowCompleted())
		m.clampCursor()
	case key.Matches(msg, m.keys.ClearDone):
		return m, m.mutate(func(ctx context.Context) (string, error) {
			n, err := m.tasks.DeleteCompleted(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d tarefas concluídas excluídas", n), nil
		})
	case key.Matches(msg, m.keys.Filter):
		m.tasks.SetFilter(tasklist.Filters[int(msg.String()[0]-'1')])
		m.Cursor = 0
	}
	return m, nil
}

func (m Model) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	due := m.badge.Due()
	switch {
	case key.Matches(msg, m.panelKeys.Close):
		m.PanelOpen = false
	case key.Matches(msg, m.panelKeys.Down):
		if m.PanelCursor < len(due)-1 {
			m.PanelCursor++
		}
	case key.Matches(msg, m.panelKeys.Up):
		if m.PanelCursor > 0 {
			m.PanelCursor--
		}
	case key.Matches(msg, m.panelKeys.Open):
		if m.PanelCursor >= len(due) {
			return m, nil
		}
		id := due[m.PanelCursor].ID
		if m.scheduler != nil {
			m.scheduler.HandleClick(id)
		}
		m.PanelOpen = false
		m.focusTask(id)
	}
	return m, nil
}

func (m Model) requestPermission() tea.Cmd {
	return func() tea.Msg {
		if m.scheduler != nil {
			p, err := m.scheduler.RequestPermission(m.ctx)
			return permissionMsg{permission: p, err: err}
		}
		if m.platform == nil {
			return permissionMsg{permission: notifier.PermissionUnsupported}
		}
		p, err := m.platform.RequestPermission(m.ctx)
		return permissionMsg{permission: p, err: err}
	}
}

func permissionStatus(p notifier.Permission, err error) StatusBar {
	if err != nil {
		return StatusBar{Text: "Não foi possível ativar as notificações.", IsError: true}
	}
	switch p {
	case notifier.PermissionGranted:
		return StatusBar{Text: "Notificações ativadas."}
	case notifier.PermissionDenied:
		return StatusBar{Text: "Notificações bloqueadas. Os alertas aparecem apenas no painel.", IsError: true}
	case notifier.PermissionUnsupported:
		return StatusBar{Text: "Notificações não suportadas neste sistema.", IsError: true}
	}
	return StatusBar{}
}

// refreshBadge re-runs the evaluator against the cached list.
func (m Model) refreshBadge() {
	m.badge.Update(m.tasks.Tasks(), m.clock.Now())
}

// rows is the visible list: active tasks first, then completed.
func (m Model) rows() []entity.Task {
	v := m.tasks.View()
	return append(v.Active, v.Completed...)
}

func (m Model) selected() (entity.Task, bool) {
	rows := m.rows()
	if m.Cursor < 0 || m.Cursor >= len(rows) {
		return entity.Task{}, false
	}
	return rows[m.Cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

// focusTask moves the cursor to id, widening the filter if it is hidden.
func (m *Model) focusTask(id int) {
	for pass := 0; pass < 2; pass++ {
		for i, t := range m.rows() {
			if t.ID == id {
				m.Cursor = i
				return
			}
		}
		m.tasks.SetFilter(tasklist.FilterAll)
		m.tasks.SetShowCompleted(true)
	}
}

func isDue(t entity.Task, m Model) bool {
	return duecheck.IsDue(t, m.clock.Now())
}
