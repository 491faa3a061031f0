// Package account drives registration, email verification, login and the
// persisted session on the client.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"todo-app/apiclient"
	"todo-app/entity"
	"todo-app/session"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	CodeLength     = 6
	ResendCooldown = 60 * time.Second
)

var (
	ErrInvalidCode      = errors.New("account: verification code must have 6 digits")
	ErrInvalidEmail     = errors.New("account: invalid email")
	ErrMissingFields    = errors.New("account: email, name and password are required")
	ErrEmailNotVerified = errors.New("account: email not verified")
	ErrResendCooldown   = errors.New("account: resend cooldown active")
)

// CooldownError is returned by Resend while the previous code is fresh.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("account: wait %ds before requesting a new code", int(e.Remaining.Round(time.Second).Seconds()))
}

func (e *CooldownError) Unwrap() error { return ErrResendCooldown }

// API is the part of the REST collaborator this package needs.
type API interface {
	Register(ctx context.Context, req entity.RegisterRequest) (entity.AuthResponse, error)
	Login(ctx context.Context, creds entity.Credentials) (entity.AuthResponse, error)
	VerifyEmail(ctx context.Context, email, code string) (entity.AuthResponse, error)
	ResendVerification(ctx context.Context, email string) error
	CurrentUser(ctx context.Context, token string) (entity.User, error)
}

type Service struct {
	api   API
	store *session.Store
	// cooldowns outlive the process when kv is set
	kv       session.KV
	clock    clockwork.Clock
	cooldown time.Duration
	log      *zap.Logger

	mu          sync.Mutex
	resendAfter map[string]time.Time
}

type Options struct {
	CooldownKV session.KV
	Clock      clockwork.Clock
	Cooldown   time.Duration
	Logger     *zap.Logger
}

func NewService(api API, store *session.Store, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = ResendCooldown
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		api:         api,
		store:       store,
		kv:          opts.CooldownKV,
		clock:       opts.Clock,
		cooldown:    opts.Cooldown,
		log:         opts.Logger,
		resendAfter: make(map[string]time.Time),
	}
}

// ValidateCode accepts exactly six ASCII digits.
func ValidateCode(code string) error {
	if len(code) != CodeLength {
		return ErrInvalidCode
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrInvalidCode
		}
	}
	return nil
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// Register creates an unverified account. The server emails a code.
func (s *Service) Register(ctx context.Context, req entity.RegisterRequest) (entity.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || strings.TrimSpace(req.Name) == "" || req.Password == "" {
		return entity.AuthResponse{}, ErrMissingFields
	}
	if err := ValidateEmail(req.Email); err != nil {
		return entity.AuthResponse{}, err
	}
	return s.api.Register(ctx, req)
}

// Verify checks the code locally before calling the server and stores the
// session it returns.
func (s *Service) Verify(ctx context.Context, email, code string) (session.Session, error) {
	code = strings.TrimSpace(code)
	if err := ValidateCode(code); err != nil {
		return session.Session{}, err
	}
	res, err := s.api.VerifyEmail(ctx, email, code)
	if err != nil {
		return session.Session{}, err
	}
	return s.persist(ctx, res)
}

// Resend asks for a new code unless one was requested less than the
// cooldown ago.
func (s *Service) Resend(ctx context.Context, email string) error {
	now := s.clock.Now()
	if until := s.cooldownUntil(ctx, email); now.Before(until) {
		return &CooldownError{Remaining: until.Sub(now)}
	}
	if err := s.api.ResendVerification(ctx, email); err != nil {
		return err
	}
	s.startCooldown(ctx, email, now.Add(s.cooldown))
	return nil
}

// CooldownRemaining reports how long Resend stays blocked for email.
func (s *Service) CooldownRemaining(ctx context.Context, email string) time.Duration {
	d := s.cooldownUntil(ctx, email).Sub(s.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

func (s *Service) Login(ctx context.Context, creds entity.Credentials) (session.Session, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return session.Session{}, ErrMissingFields
	}
	res, err := s.api.Login(ctx, creds)
	if apiclient.IsStatus(err, http.StatusForbidden) {
		return session.Session{}, ErrEmailNotVerified
	}
	if err != nil {
		return session.Session{}, err
	}
	return s.persist(ctx, res)
}

// Restore loads the stored session and checks it with the server. A session
// the server rejects is cleared. When the server cannot be reached the
// stored session is returned as is.
func (s *Service) Restore(ctx context.Context) (session.Session, error) {
	sess, err := s.store.Load(ctx)
	if err != nil {
		return session.Session{}, err
	}
	user, err := s.api.CurrentUser(ctx, sess.Token)
	switch {
	case err == nil:
		sess.User = user
		return sess, nil
	case apiclient.IsUnauthorized(err), apiclient.IsStatus(err, http.StatusNotFound), apiclient.IsStatus(err, http.StatusUnprocessableEntity):
		s.log.Info("stored session rejected, clearing", zap.Error(err))
		if cerr := s.store.Clear(ctx); cerr != nil {
			return session.Session{}, cerr
		}
		return session.Session{}, session.ErrNoSession
	default:
		s.log.Warn("could not validate session", zap.Error(err))
		return sess, nil
	}
}

func (s *Service) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *Service) persist(ctx context.Context, res entity.AuthResponse) (session.Session, error) {
	if res.AccessToken == "" || res.User == nil {
		return session.Session{}, errors.New("account: server response has no session")
	}
	sess := session.Session{Token: res.AccessToken, User: *res.User}
	if err := s.store.Save(ctx, sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func cooldownKey(email string) string {
	return "resend_after:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) cooldownUntil(ctx context.Context, email string) time.Time {
	s.mu.Lock()
	until := s.resendAfter[cooldownKey(email)]
	s.mu.Unlock()
	if s.kv == nil {
		return until
	}
	raw, ok, err := s.kv.Get(ctx, cooldownKey(email))
	if err != nil || !ok {
		return until
	}
	stored, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil || stored.Before(until) {
		return until
	}
	return stored
}

func (s *Service) startCooldown(ctx context.Context, email string, until time.Time) {
	s.mu.Lock()
	s.resendAfter[cooldownKey(email)] = until
	s.mu.Unlock()
	if s.kv == nil {
		return
	}
	if err := s.kv.Set(ctx, cooldownKey(email), until.Format(time.RFC3339Nano)); err != nil {
		s.log.Warn("persist resend cooldown", zap.Error(err))
	}
}
