// Package duecheck decides which tasks are overdue and how a due date is
// labelled in the task list. Every caller that needs the notion of "due"
// (the notification scheduler, the background checker, the server's due
// endpoint and the dashboard badge) goes through IsDue.
package duecheck

import (
	"iter"
	"time"

	"todo-app/entity"
)

// IsDue reports whether t has a due date at or before now and is not
// completed. A missing or zero due date is never due.
func IsDue(t entity.Task, now time.Time) bool {
	if t.Completed || t.DueDate == nil || t.DueDate.IsZero() {
		return false
	}
	return !t.DueDate.After(now)
}

// Due yields the due subset of tasks in input order.
func Due(tasks []entity.Task, now time.Time) iter.Seq[entity.Task] {
	return func(yield func(entity.Task) bool) {
		for _, t := range tasks {
			if !IsDue(t, now) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// DueTasks is the eager form of Due.
func DueTasks(tasks []entity.Task, now time.Time) []entity.Task {
	out := make([]entity.Task, 0)
	for t := range Due(tasks, now) {
		out = append(out, t)
	}
	return out
}

// CountDue returns how many tasks are due without allocating the subset.
func CountDue(tasks []entity.Task, now time.Time) int {
	n := 0
	for range Due(tasks, now) {
		n++
	}
	return n
}
