package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"todo-app/account"
	"todo-app/entity"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("todo "+name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// passwordFlag falls back to TODO_PASSWORD so it stays out of shell history.
func passwordFlag(fs *flag.FlagSet) *string {
	return fs.String("password", os.Getenv("TODO_PASSWORD"), "Password (or TODO_PASSWORD)")
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "Email")
	name := fs.String("name", "", "Name")
	password := passwordFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.accounts.Register(ctx, entity.RegisterRequest{Email: *email, Name: *name, Password: *password}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Conta criada. Enviamos um código de 6 dígitos para %s.\n", *email)
	fmt.Fprintf(a.out, "Confirme com: todo verify --email %s --code 123456\n", *email)
	return nil
}

func (a *app) verify(ctx context.Context, args []string) error {
	fs := newFlagSet("verify")
	email := fs.String("email", "", "Email")
	code := fs.String("code", "", "6-digit code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.accounts.Verify(ctx, *email, *code)
	if errors.Is(err, account.ErrInvalidCode) {
		return errors.New("o código deve ter 6 dígitos")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Email verificado. Bem-vindo, %s!\n", sess.User.Name)
	return nil
}

func (a *app) resend(ctx context.Context, args []string) error {
	fs := newFlagSet("resend")
	email := fs.String("email", "", "Email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := a.accounts.Resend(ctx, *email)
	var cooldown *account.CooldownError
	if errors.As(err, &cooldown) {
		return fmt.Errorf("aguarde %ds para reenviar o código", int(cooldown.Remaining.Seconds()+0.5))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Novo código enviado para %s.\n", *email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "Email")
	password := passwordFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.accounts.Login(ctx, entity.Credentials{Email: *email, Password: *password})
	if errors.Is(err, account.ErrEmailNotVerified) {
		return fmt.Errorf("email não verificado, use `todo verify --email %s --code ...` ou `todo resend --email %s`", *email, *email)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Olá, %s!\n", sess.User.Name)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.accounts.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sessão encerrada.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>\n", sess.User.Name, sess.User.Email)
	return nil
}
