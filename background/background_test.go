package background

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"todo-app/common"
	"todo-app/entity"
	"todo-app/notifier"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	mu    sync.Mutex
	perm  notifier.Permission
	shown []notifier.Notification
}

func (p *fakePlatform) Permission() notifier.Permission { return p.perm }

func (p *fakePlatform) RequestPermission(context.Context) (notifier.Permission, error) {
	return p.perm, nil
}

func (p *fakePlatform) Show(n notifier.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, n)
	return nil
}

func (p *fakePlatform) Focus() error { return nil }

func (p *fakePlatform) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shown)
}

type listerFunc func(context.Context) ([]entity.Task, error)

func (f listerFunc) ListTasks(ctx context.Context) ([]entity.Task, error) { return f(ctx) }

func ptr(t time.Time) *time.Time { return &t }

func TestCheckOnce_UsesDuePredicate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	now := clock.Now()
	platform := &fakePlatform{perm: notifier.PermissionGranted}
	lister := listerFunc(func(context.Context) ([]entity.Task, error) {
		return []entity.Task{
			{ID: 1, Title: "exato", DueDate: ptr(now)},
			{ID: 2, Title: "atrasada", DueDate: ptr(now.Add(-time.Hour))},
			{ID: 3, Title: "futura", DueDate: ptr(now.Add(time.Second))},
			{ID: 4, Title: "feita", DueDate: ptr(now.Add(-time.Hour)), Completed: true},
			{ID: 5, Title: "sem data"},
		}, nil
	})
	c := NewChecker(lister, platform, clock, time.Minute, nil)

	assert.Equal(t, 2, c.CheckOnce(context.Background()))
	require.Len(t, platform.shown, 2)
	assert.Equal(t, `A tarefa "exato" está vencida!`, platform.shown[0].Body)
}

func TestCheckOnce_ErrorsAreSwallowed(t *testing.T) {
	platform := &fakePlatform{perm: notifier.PermissionGranted}
	lister := listerFunc(func(context.Context) ([]entity.Task, error) { return nil, errors.New("offline") })
	c := NewChecker(lister, platform, clockwork.NewFakeClock(), time.Minute, nil)

	assert.Equal(t, 0, c.CheckOnce(context.Background()))
	assert.Zero(t, platform.count())
}

func TestCheckOnce_NoPermission(t *testing.T) {
	clock := clockwork.NewFakeClock()
	platform := &fakePlatform{perm: notifier.PermissionDenied}
	lister := listerFunc(func(context.Context) ([]entity.Task, error) {
		return []entity.Task{{ID: 1, DueDate: ptr(clock.Now())}}, nil
	})
	c := NewChecker(lister, platform, clock, time.Minute, nil)

	assert.Equal(t, 0, c.CheckOnce(context.Background()))
}

func TestChecker_PollsOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	platform := &fakePlatform{perm: notifier.PermissionGranted}
	calls := make(chan struct{}, 10)
	lister := listerFunc(func(context.Context) ([]entity.Task, error) {
		calls <- struct{}{}
		return nil, nil
	})
	c := NewChecker(lister, platform, clock, time.Minute, nil)

	c.Start(context.Background())
	waitCall(t, calls)
	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitCall(t, calls)

	c.Stop()
	clock.Advance(time.Hour)
	select {
	case <-calls:
		t.Fatal("checked after Stop")
	case <-time.After(20 * time.Millisecond):
	}
	c.Stop()
}

func waitCall(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for poll")
	}
}

func TestNewPushListener_URL(t *testing.T) {
	p, err := NewPushListener("https://todo.example.com/api/", func() string { return "" }, &fakePlatform{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "wss://todo.example.com/ws", p.URL())

	p, err = NewPushListener("http://localhost:8080", func() string { return "" }, &fakePlatform{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", p.URL())
}

func TestPushListener_Handle(t *testing.T) {
	platform := &fakePlatform{perm: notifier.PermissionGranted}
	p, err := NewPushListener("http://localhost", func() string { return "" }, platform, nil)
	require.NoError(t, err)

	var events []entity.NotificationKind
	p.OnChange = func(m common.WSMessage) { events = append(events, m.Event) }

	p.Handle([]byte(`{"event":"task_created","task_id":1,"title":"a"}`))
	p.Handle([]byte(`{"event":"task_due","task_id":2,"title":"Pagar boleto"}`))
	p.Handle([]byte(`not json`))

	assert.Equal(t, []entity.NotificationKind{entity.NotificationTaskCreated, entity.NotificationTaskDue}, events)
	require.Len(t, platform.shown, 1)
	assert.Equal(t, 2, platform.shown[0].TaskID)
	assert.Equal(t, `A tarefa "Pagar boleto" está vencida!`, platform.shown[0].Body)
}

func TestPushListener_Run(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "jwt" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := json.Marshal(common.WSMessage{Event: entity.NotificationTaskDue, TaskID: 9, Title: "x"})
		_ = conn.WriteMessage(websocket.TextMessage, data)
		// hold the connection until the client goes away
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	platform := &fakePlatform{perm: notifier.PermissionGranted}
	p, err := NewPushListener(srv.URL, func() string { return "jwt" }, platform, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return platform.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
