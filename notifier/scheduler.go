// Package notifier raises native notifications for overdue tasks while a
// view is mounted. A Scheduler re-evaluates the task list on a fixed interval
// and alerts each due task at most once per session.
package notifier

import (
	"context"
	"sync"
	"time"

	"todo-app/duecheck"
	"todo-app/entity"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultInterval     = 60 * time.Second
	DefaultInitialDelay = time.Second
)

type State int

const (
	Idle State = iota
	Armed
	Checking
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Checking:
		return "checking"
	}
	return "idle"
}

// TaskSource returns the current cached task collection.
type TaskSource interface {
	Tasks() []entity.Task
}

type TaskSourceFunc func() []entity.Task

func (f TaskSourceFunc) Tasks() []entity.Task { return f() }

type Options struct {
	Interval     time.Duration
	InitialDelay time.Duration
	Clock        clockwork.Clock
	Logger       *zap.Logger
	// OnTaskClick runs after a delivered notification is clicked and the
	// application has been focused.
	OnTaskClick func(entity.Task)
	// OnCheck receives the due subset after every check.
	OnCheck func(due []entity.Task)
}

type Scheduler struct {
	platform Platform
	source   TaskSource
	clock    clockwork.Clock
	log      *zap.Logger

	interval     time.Duration
	initialDelay time.Duration
	onTaskClick  func(entity.Task)
	onCheck      func([]entity.Task)

	// checkMu serializes checks
	checkMu sync.Mutex

	mu       sync.Mutex
	notified map[int]struct{}
	checking bool
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(platform Platform, source TaskSource, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Scheduler{
		platform:     platform,
		source:       source,
		clock:        opts.Clock,
		log:          opts.Logger,
		interval:     opts.Interval,
		initialDelay: opts.InitialDelay,
		onTaskClick:  opts.OnTaskClick,
		onCheck:      opts.OnCheck,
		notified:     make(map[int]struct{}),
	}
	if r, ok := platform.(ClickReporter); ok {
		r.SetClickHandler(func(taskID int) {
			if !s.HandleClick(taskID) {
				s.log.Debug("clicked task no longer listed", zap.Int("task_id", taskID))
			}
		})
	}
	return s
}

// State reports Armed while the timer runs with permission granted,
// Checking during an evaluation and Idle otherwise.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checking {
		return Checking
	}
	if s.running && s.platform.Permission() == PermissionGranted {
		return Armed
	}
	return Idle
}

// RequestPermission asks the platform for permission. It must be wired to an
// explicit user action. Only the default state is ever asked, so a denial is
// never retried.
func (s *Scheduler) RequestPermission(ctx context.Context) (Permission, error) {
	current := s.platform.Permission()
	if current != PermissionDefault {
		return current, nil
	}
	p, err := s.platform.RequestPermission(ctx)
	if err != nil {
		s.log.Warn("notification permission request failed", zap.Error(err))
		return p, err
	}
	s.log.Info("notification permission", zap.String("permission", string(p)))
	return p, nil
}

// Start arms the timer: one check after the initial delay and then one per
// interval until Stop or ctx is done. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop cancels the timer and waits for the loop to exit. No check runs after
// Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	initial := s.clock.NewTimer(s.initialDelay)
	defer initial.Stop()
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-initial.Chan():
			s.check(ctx)
		case <-ticker.Chan():
			s.check(ctx)
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	// a tick may race with cancellation
	if ctx.Err() != nil {
		return
	}
	s.Check()
}

// Check evaluates the current tasks once and notifies every due task that
// has not been notified in this session. It returns the number of
// notifications shown.
func (s *Scheduler) Check() int {
	s.checkMu.Lock()
	defer s.checkMu.Unlock()

	s.setChecking(true)
	defer s.setChecking(false)

	due := duecheck.DueTasks(s.source.Tasks(), s.clock.Now())
	if s.onCheck != nil {
		s.onCheck(due)
	}

	if s.platform.Permission() != PermissionGranted {
		Observe("foreground", 0, 0)
		return 0
	}

	sent, failed := 0, 0
	for _, t := range due {
		if s.Notified(t.ID) {
			continue
		}
		if err := s.platform.Show(DueNotification(t)); err != nil {
			failed++
			s.log.Warn("show notification", zap.Int("task_id", t.ID), zap.Error(err))
			continue
		}
		s.markNotified(t.ID)
		sent++
	}
	Observe("foreground", sent, failed)
	if sent > 0 {
		s.log.Info("due tasks notified", zap.Int("count", sent))
	}
	return sent
}

// HandleClick focuses the application and hands the clicked task to the
// OnTaskClick callback. It reports false if the task is no longer known.
func (s *Scheduler) HandleClick(taskID int) bool {
	var (
		task  entity.Task
		found bool
	)
	for _, t := range s.source.Tasks() {
		if t.ID == taskID {
			task, found = t, true
			break
		}
	}
	if !found {
		return false
	}
	if err := s.platform.Focus(); err != nil {
		s.log.Debug("focus application", zap.Error(err))
	}
	if s.onTaskClick != nil {
		s.onTaskClick(task)
	}
	return true
}

// Notified reports whether id was already alerted in this session.
func (s *Scheduler) Notified(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notified[id]
	return ok
}

// Reset forgets every notified id, as a new session would.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified = make(map[int]struct{})
}

func (s *Scheduler) markNotified(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[id] = struct{}{}
}

func (s *Scheduler) setChecking(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checking = v
}
