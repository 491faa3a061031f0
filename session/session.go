// Package session persists the logged-in user's token and profile in a
// durable key/value store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"todo-app/entity"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

var ErrNoSession = errors.New("session: no session")

type Session struct {
	Token string
	User  entity.User
}

// KV is the durable key/value backend.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns the stored session. Missing or malformed data is cleared and
// reported as ErrNoSession.
func (s *Store) Load(ctx context.Context) (Session, error) {
	token, okToken, err := s.kv.Get(ctx, keyToken)
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	rawUser, okUser, err := s.kv.Get(ctx, keyUser)
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if !okToken && !okUser {
		return Session{}, ErrNoSession
	}

	user, valid := parseUser(rawUser)
	if !okToken || strings.TrimSpace(token) == "" || !okUser || !valid {
		if err := s.Clear(ctx); err != nil {
			return Session{}, err
		}
		return Session{}, ErrNoSession
	}
	return Session{Token: token, User: user}, nil
}

func parseUser(raw string) (entity.User, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "undefined" || raw == "null" || !strings.HasPrefix(raw, "{") {
		return entity.User{}, false
	}
	var user entity.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return entity.User{}, false
	}
	return user, true
}

// Save stores both the token and the profile. An incomplete session is
// ignored, as the web client did.
func (s *Store) Save(ctx context.Context, sess Session) error {
	if sess.Token == "" {
		return nil
	}
	data, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.kv.Set(ctx, keyToken, sess.Token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.kv.Set(ctx, keyUser, string(data)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, keyToken, keyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Token returns the stored token or "" without validating the profile.
func (s *Store) Token(ctx context.Context) string {
	token, ok, err := s.kv.Get(ctx, keyToken)
	if err != nil || !ok {
		return ""
	}
	return token
}
