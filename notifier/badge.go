package notifier

import (
	"sync"
	"time"

	"todo-app/duecheck"
	"todo-app/entity"
)

// Badge is the in-app indicator. It works without notification permission.
type Badge struct {
	mu     sync.Mutex
	due    []entity.Task
	hasNew bool
	// seen holds the due ids the user had in view at the last Acknowledge
	seen map[int]struct{}
}

// Update re-derives the due list. A due task that was not in view at the
// last Acknowledge raises the new flag until the user opens the panel.
func (b *Badge) Update(tasks []entity.Task, now time.Time) {
	due := duecheck.DueTasks(tasks, now)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.due = due
	for _, t := range due {
		if _, ok := b.seen[t.ID]; !ok {
			b.hasNew = true
			break
		}
	}
}

func (b *Badge) Acknowledge() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasNew = false
	b.seen = make(map[int]struct{}, len(b.due))
	for _, t := range b.due {
		b.seen[t.ID] = struct{}{}
	}
}

func (b *Badge) HasNew() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasNew
}

func (b *Badge) Due() []entity.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entity.Task, len(b.due))
	copy(out, b.due)
	return out
}

func (b *Badge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.due)
}
