package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"todo-app/component"
	"todo-app/duecheck"
	"todo-app/entity"
	"todo-app/tasklist"
)

func (a *app) controller(ctx context.Context) (*tasklist.Controller, error) {
	if _, err := a.requireSession(ctx); err != nil {
		return nil, err
	}
	tasks := tasklist.New(a.api, nil, a.log)
	if err := tasks.Load(ctx); err != nil {
		return nil, fmt.Errorf("%s (%w)", tasks.Err(), err)
	}
	return tasks, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	filter := fs.String("filter", string(tasklist.FilterAll), "all|today|tomorrow|future|recurring|no-date")
	sortBy := fs.String("sort", string(tasklist.SortCreatedAt), "created_at|due_date|title")
	hideCompleted := fs.Bool("hide-completed", false, "Hide completed tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := tasklist.ParseFilter(*filter)
	if err != nil {
		return err
	}
	k, err := tasklist.ParseSortKey(*sortBy)
	if err != nil {
		return err
	}

	tasks, err := a.controller(ctx)
	if err != nil {
		return err
	}
	tasks.SetFilter(f)
	tasks.SetSort(k)
	tasks.SetShowCompleted(!*hideCompleted)
	v := tasks.View()

	now := time.Now()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t\tTÍTULO\tVENCIMENTO\tRECORRÊNCIA")
	for _, t := range append(v.Active, v.Completed...) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, marker(t, now), t.Title, duecheck.RelativeLabel(t.DueDate, now), recurrence(t))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n := duecheck.CountDue(tasks.Tasks(), now); n > 0 {
		fmt.Fprintf(a.out, "\n%d tarefa(s) vencida(s)\n", n)
	}
	return nil
}

func marker(t entity.Task, now time.Time) string {
	switch {
	case t.Completed:
		return "[x]"
	case duecheck.IsDue(t, now):
		return "[!]"
	}
	return "[ ]"
}

func recurrence(t entity.Task) string {
	if !t.IsRecurring {
		return ""
	}
	return component.RecurrenceLabel(t.RecurrenceType)
}

// taskFlags binds the editable fields. Only flags the user passed end up in
// the returned TaskFields.
type taskFlags struct {
	fs          *flag.FlagSet
	title       string
	description string
	due         string
	recurrence  string
}

func newTaskFlags(name string) *taskFlags {
	tf := &taskFlags{fs: newFlagSet(name)}
	tf.fs.StringVar(&tf.title, "title", "", "Title")
	tf.fs.StringVar(&tf.description, "description", "", "Description")
	tf.fs.StringVar(&tf.due, "due", "", `Due date, e.g. "2025-01-31 18:00"`)
	tf.fs.StringVar(&tf.recurrence, "recurrence", "", "daily|weekly|monthly|none")
	return tf
}

func (tf *taskFlags) fields() (entity.TaskFields, error) {
	var f entity.TaskFields
	var err error
	tf.fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "title":
			title := strings.TrimSpace(tf.title)
			f.Title = &title
		case "description":
			f.Description = &tf.description
		case "due":
			var due time.Time
			due, err = component.ParseTimestamp(tf.due, time.Local)
			if err == nil {
				f.DueDate = &due
			}
		case "recurrence":
			r := component.RecurrenceType(strings.ToLower(tf.recurrence))
			recurring := r.Valid()
			if !recurring && r != "none" && r != "" {
				err = fmt.Errorf("recorrência inválida %q", tf.recurrence)
				return
			}
			f.IsRecurring = &recurring
			if recurring {
				f.RecurrenceType = &r
			}
		}
	})
	return f, err
}

func (a *app) add(ctx context.Context, args []string) error {
	tf := newTaskFlags("add")
	if err := tf.fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(tf.title) == "" {
		return fmt.Errorf("--title é obrigatório")
	}
	fields, err := tf.fields()
	if err != nil {
		return err
	}

	tasks, err := a.controller(ctx)
	if err != nil {
		return err
	}
	t, err := tasks.Create(ctx, fields)
	if err != nil {
		return fmt.Errorf("%s (%w)", tasks.Err(), err)
	}
	fmt.Fprintf(a.out, "Tarefa %d criada: %s\n", t.ID, t.Title)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("uso: todo edit ID [opções]")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	tf := newTaskFlags("edit")
	if err := tf.fs.Parse(args[1:]); err != nil {
		return err
	}
	fields, err := tf.fields()
	if err != nil {
		return err
	}

	tasks, err := a.controller(ctx)
	if err != nil {
		return err
	}
	t, err := tasks.Update(ctx, id, fields)
	if err != nil {
		return taskError(tasks, err)
	}
	fmt.Fprintf(a.out, "Tarefa %d atualizada.\n", t.ID)
	return nil
}

func (a *app) done(ctx context.Context, args []string) error {
	id, err := singleID(args)
	if err != nil {
		return err
	}
	tasks, err := a.controller(ctx)
	if err != nil {
		return err
	}
	t, err := tasks.ToggleComplete(ctx, id)
	if err != nil {
		return taskError(tasks, err)
	}
	if !t.Completed {
		fmt.Fprintf(a.out, "Tarefa %d reaberta.\n", t.ID)
		return nil
	}
	fmt.Fprintf(a.out, "Tarefa %d concluída.\n", t.ID)
	if t.IsRecurring && t.DueDate != nil {
		for _, next := range tasks.Tasks() {
			if next.ParentTaskID != nil && *next.ParentTaskID == t.ID && !next.Completed {
				fmt.Fprintf(a.out, "Próxima ocorrência: %d (%s)\n", next.ID, duecheck.RelativeLabel(next.DueDate, time.Now()))
			}
		}
	}
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, err := singleID(args)
	if err != nil {
		return err
	}
	tasks, err := a.controller(ctx)
	if err != nil {
		return err
	}
	if err := tasks.Delete(ctx, id); err != nil {
		return taskError(tasks, err)
	}
	fmt.Fprintf(a.out, "Tarefa %d excluída.\n", id)
	return nil
}

func (a *app) clearCompleted(ctx context.Context) error {
	tasks, err := a.controller(ctx)
	if err != nil {
		return err
	}
	n, err := tasks.DeleteCompleted(ctx)
	if err != nil {
		return taskError(tasks, err)
	}
	fmt.Fprintf(a.out, "%d tarefa(s) concluída(s) excluída(s).\n", n)
	return nil
}

func (a *app) notifications(ctx context.Context) error {
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	items, err := a.api.ListNotifications(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Nenhuma notificação.")
		return nil
	}
	for _, n := range items {
		fmt.Fprintf(a.out, "%s  %s\n", n.CreatedAt, n.Message)
	}
	return nil
}

func taskError(tasks *tasklist.Controller, err error) error {
	if msg := tasks.Err(); msg != "" {
		return fmt.Errorf("%s (%w)", msg, err)
	}
	return err
}

func singleID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("informe o ID da tarefa")
	}
	return parseID(args[0])
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("ID inválido %q", s)
	}
	return id, nil
}
