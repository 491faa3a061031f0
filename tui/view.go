package tui

import (
	"fmt"
	"strings"

	"todo-app/component"
	"todo-app/duecheck"
	"todo-app/entity"
	"todo-app/tasklist"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	tabStyle      = lipgloss.NewStyle().Padding(0, 1)
	activeTab     = tabStyle.Bold(true).Underline(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badgeNewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headerStyle.Render("Minhas Tarefas"), "  ", m.renderBadge()))
	b.WriteString("\n")

	if m.PanelOpen {
		b.WriteString(m.renderPanel())
		b.WriteString("\n")
		b.WriteString(m.help.View(m.panelKeys))
		return b.String()
	}

	v := m.tasks.View()
	b.WriteString(renderTabs(m.tasks.Filter(), v.Counts))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("Ordenar por: " + m.tasks.Sort().Label()))
	b.WriteString("\n\n")

	switch {
	case m.Loading && !m.tasks.Loaded():
		b.WriteString("Carregando tarefas...\n")
	case len(v.Active) == 0 && len(v.Completed) == 0:
		b.WriteString(emptyMessage(m.tasks.Filter()) + "\n")
	default:
		row := 0
		for _, t := range v.Active {
			b.WriteString(m.renderRow(t, row == m.Cursor) + "\n")
			row++
		}
		if len(v.Completed) > 0 {
			b.WriteString("\n" + headerStyle.Render(fmt.Sprintf("Concluídas (%d)", len(v.Completed))) + "\n")
			for _, t := range v.Completed {
				b.WriteString(m.renderRow(t, row == m.Cursor) + "\n")
				row++
			}
		}
	}

	b.WriteString("\n")
	if m.Status.Text != "" {
		if m.Status.IsError {
			b.WriteString(errorStyle.Render(m.Status.Text))
		} else {
			b.WriteString(statusStyle.Render(m.Status.Text))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderBadge() string {
	n := m.badge.Count()
	label := fmt.Sprintf("vencidas: %d", n)
	if m.badge.HasNew() {
		return badgeNewStyle.Render("● " + label)
	}
	return badgeStyle.Render(label)
}

func renderTabs(active tasklist.Filter, counts tasklist.Counts) string {
	tabs := make([]string, 0, len(tasklist.Filters))
	for i, f := range tasklist.Filters {
		label := fmt.Sprintf("%d %s (%d)", i+1, f.Label(), counts[f])
		if f == active {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderRow(t entity.Task, selected bool) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%s %s", check, t.Title)
	if t.DueDate != nil {
		line += "  " + duecheck.RelativeLabel(t.DueDate, m.clock.Now())
	}
	if t.IsRecurring {
		line += "  ↻ " + component.RecurrenceLabel(t.RecurrenceType)
	}

	switch {
	case t.Completed:
		line = doneStyle.Render(line)
	case isDue(t, m):
		line = dueStyle.Render(line)
	}
	if selected {
		return cursorStyle.Render("> " + line)
	}
	return "  " + line
}

func (m Model) renderPanel() string {
	due := m.badge.Due()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Tarefas vencidas") + "\n")
	if len(due) == 0 {
		b.WriteString("Nenhuma tarefa vencida")
		return panelStyle.Render(b.String())
	}
	for i, t := range due {
		line := fmt.Sprintf("%s  %s", t.Title, duecheck.FormatTaskDate(*t.DueDate, m.clock.Now().Location()))
		if i == m.PanelCursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < len(due)-1 {
			b.WriteString("\n")
		}
	}
	return panelStyle.Render(b.String())
}

func emptyMessage(f tasklist.Filter) string {
	switch f {
	case tasklist.FilterToday:
		return "Nenhuma tarefa para hoje."
	case tasklist.FilterTomorrow:
		return "Nenhuma tarefa para amanhã."
	case tasklist.FilterFuture:
		return "Nenhuma tarefa futura."
	case tasklist.FilterRecurring:
		return "Nenhuma tarefa recorrente."
	case tasklist.FilterNoDate:
		return "Nenhuma tarefa sem data."
	}
	return "Nenhuma tarefa. Use `todo add` para criar uma."
}
