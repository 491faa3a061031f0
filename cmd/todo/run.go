package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo-app/account"
	"todo-app/apiclient"
	"todo-app/config"
	"todo-app/logger"
	"todo-app/notifier"
	"todo-app/platform"
	"todo-app/session"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// app carries the collaborators every command needs.
type app struct {
	cfg      *config.Client
	log      *zap.Logger
	out      io.Writer
	kv       session.KV
	store    *session.Store
	api      *apiclient.Client
	accounts *account.Service
	platform notifier.Platform
	closers  []func() error
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
}

// Run executes the todo CLI.
func Run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := config.LoadClient(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(out)
		return nil
	}
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(out)
		return nil
	}
	command, rest := rest[0], rest[1:]

	a, err := newApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer a.close()

	switch command {
	case "register":
		return a.register(ctx, rest)
	case "verify":
		return a.verify(ctx, rest)
	case "resend":
		return a.resend(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "list", "ls":
		return a.list(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "edit":
		return a.edit(ctx, rest)
	case "done":
		return a.done(ctx, rest)
	case "rm":
		return a.remove(ctx, rest)
	case "clear-completed":
		return a.clearCompleted(ctx)
	case "notifications":
		return a.notifications(ctx)
	case "dashboard", "ui":
		return a.dashboard(ctx)
	case "watch":
		return a.watch(ctx, rest)
	case "help":
		printUsage(out)
		return nil
	}
	printUsage(out)
	return fmt.Errorf("unknown command: %s", command)
}

func newApp(ctx context.Context, cfg *config.Client, out io.Writer) (*app, error) {
	log, err := logger.New(logger.Config{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, out: out}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	switch cfg.SessionStore {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, client.Close)
		a.kv = session.NewRedisKV(client, cfg.Profile)
	default:
		a.kv = session.NewFileKV(cfg.SessionFile)
	}
	a.store = session.NewStore(a.kv)
	a.api = apiclient.New(cfg.APIURL, apiclient.WithToken(func() string {
		return a.store.Token(context.Background())
	}))
	a.accounts = account.NewService(a.api, a.store, account.Options{CooldownKV: a.kv, Logger: log})

	if cfg.Notifications {
		a.platform = platform.NewDesktop()
	} else {
		a.platform = platform.Noop{}
	}
	return a, nil
}

// requireSession restores the stored session or explains how to log in.
func (a *app) requireSession(ctx context.Context) (session.Session, error) {
	sess, err := a.accounts.Restore(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return session.Session{}, errors.New("sessão não encontrada, faça login com `todo login`")
	}
	return sess, err
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, strings.TrimLeft(`
Uso: todo [--api URL] [--profile NOME] <comando> [opções]

Conta:
  register --email E --name N --password P   criar conta
  verify --email E --code 123456             confirmar email
  resend --email E                           reenviar código
  login --email E --password P               entrar
  logout                                     sair
  whoami                                     usuário atual

Tarefas:
  list [--filter F] [--sort S] [--hide-completed]
  add --title T [--description D] [--due "2006-01-02 15:04"] [--recurrence daily|weekly|monthly]
  edit ID [--title T] [--description D] [--due ...] [--recurrence ...]
  done ID                                    concluir ou reabrir
  rm ID                                      excluir
  clear-completed                            excluir concluídas
  notifications                              histórico de notificações

Notificações:
  dashboard                                  painel interativo
  watch [--metrics-addr :9100]               verificação em segundo plano
`, "\n"))
}
