// Package background raises due-task notifications while no dashboard is
// open: a Checker polls the task list and a PushListener follows the
// server's websocket.
package background

import (
	"context"
	"sync"
	"time"

	"todo-app/duecheck"
	"todo-app/entity"
	"todo-app/notifier"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const DefaultInterval = 15 * time.Minute

// Lister fetches the server's task list.
type Lister interface {
	ListTasks(ctx context.Context) ([]entity.Task, error)
}

type Checker struct {
	lister   Lister
	platform notifier.Platform
	clock    clockwork.Clock
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewChecker(lister Lister, platform notifier.Platform, clock clockwork.Clock, interval time.Duration, log *zap.Logger) *Checker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		lister:   lister,
		platform: platform,
		clock:    clock,
		interval: interval,
		log:      log,
	}
}

// CheckOnce fetches the tasks and shows one notification per due task.
// Failures are logged, never returned.
func (c *Checker) CheckOnce(ctx context.Context) int {
	tasks, err := c.lister.ListTasks(ctx)
	if err != nil {
		c.log.Error("background due check failed", zap.Error(err))
		notifier.Observe("background", 0, 1)
		return 0
	}
	if c.platform.Permission() != notifier.PermissionGranted {
		notifier.Observe("background", 0, 0)
		return 0
	}

	sent, failed := 0, 0
	for t := range duecheck.Due(tasks, c.clock.Now()) {
		if err := c.platform.Show(notifier.DueNotification(t)); err != nil {
			failed++
			c.log.Warn("show notification", zap.Int("task_id", t.ID), zap.Error(err))
			continue
		}
		sent++
	}
	notifier.Observe("background", sent, failed)
	return sent
}

// Start checks immediately and then once per interval until Stop or ctx is
// done.
func (c *Checker) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

func (c *Checker) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
}

func (c *Checker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	c.CheckOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() == nil {
				c.CheckOnce(ctx)
			}
		}
	}
}
