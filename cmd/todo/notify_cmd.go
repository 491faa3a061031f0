package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"todo-app/background"
	"todo-app/common"
	"todo-app/entity"
	"todo-app/notifier"
	"todo-app/tasklist"
	"todo-app/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// notifyChanged wakes the dashboard without blocking the producer.
func notifyChanged(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (a *app) dashboard(ctx context.Context) error {
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changed := make(chan struct{}, 1)
	badge := &notifier.Badge{}
	tasks := tasklist.New(a.api, nil, a.log)
	tasks.Subscribe(func(all []entity.Task) {
		badge.Update(all, time.Now())
		notifyChanged(changed)
	})

	var prog *tea.Program
	sched := notifier.NewScheduler(a.platform, tasks, notifier.Options{
		Interval: a.cfg.CheckInterval(),
		Logger:   a.log,
		// clicks arrive off the event loop; Send blocks until Update reads it
		OnTaskClick: func(t entity.Task) {
			if prog != nil {
				go prog.Send(tui.FocusTaskMsg{ID: t.ID})
			}
		},
		OnCheck: func([]entity.Task) {
			badge.Update(tasks.Tasks(), time.Now())
			notifyChanged(changed)
		},
	})
	defer sched.Stop()

	if a.cfg.Push {
		push, err := background.NewPushListener(a.cfg.APIURL, a.api.Token, notifier.Platform(nopShow{a.platform}), a.log)
		if err != nil {
			return err
		}
		push.OnChange = func(common.WSMessage) {
			if err := tasks.Load(ctx); err != nil {
				a.log.Warn("reload after push", zap.Error(err))
			}
		}
		go push.Run(ctx)
	}

	model := tui.NewModel(ctx, tui.Deps{
		Tasks:     tasks,
		Scheduler: sched,
		Badge:     badge,
		Platform:  a.platform,
		Changed:   changed,
	})
	prog = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// nopShow keeps the dashboard's push listener from raising a second
// notification for a task the scheduler already alerts.
type nopShow struct {
	notifier.Platform
}

func (nopShow) Show(notifier.Notification) error { return nil }

func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	metricsAddr := fs.String("metrics-addr", a.cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	interval := fs.Duration("interval", a.cfg.BackgroundInterval(), "Polling interval")
	push := fs.Bool("push", a.cfg.Push, "Follow server push events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}

	// starting the watcher is the user's explicit opt-in
	perm, err := a.platform.RequestPermission(ctx)
	if err != nil || perm != notifier.PermissionGranted {
		a.log.Warn("desktop notifications unavailable", zap.String("permission", string(perm)), zap.Error(err))
		fmt.Fprintln(a.out, "Notificações do sistema indisponíveis; apenas o log será atualizado.")
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	checker := background.NewChecker(a.api, a.platform, nil, *interval, a.log)
	checker.Start(ctx)
	defer checker.Stop()

	if *push {
		listener, err := background.NewPushListener(a.cfg.APIURL, a.api.Token, a.platform, a.log)
		if err != nil {
			return err
		}
		go listener.Run(ctx)
	}

	fmt.Fprintf(a.out, "Verificando tarefas vencidas a cada %s. Ctrl+C para sair.\n", *interval)
	<-ctx.Done()
	return nil
}
