package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"todo-app/entity"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo-app", "session.json")
	return NewStore(NewFileKV(path)), path
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store, path := newFileStore(t)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	sess := Session{Token: "jwt", User: entity.User{ID: 1, Email: "ana@example.com", Name: "Ana"}}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt", got.Token)
	assert.Equal(t, "Ana", got.User.Name)
	assert.Equal(t, "jwt", store.Token(ctx))

	require.NoError(t, store.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_MalformedUserIsCleared(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"undefined", "null", "[1,2]", "{broken", ""} {
		t.Run(raw, func(t *testing.T) {
			store, _ := newFileStore(t)
			require.NoError(t, store.kv.Set(ctx, keyToken, "jwt"))
			require.NoError(t, store.kv.Set(ctx, keyUser, raw))

			_, err := store.Load(ctx)
			assert.ErrorIs(t, err, ErrNoSession)

			_, ok, _ := store.kv.Get(ctx, keyToken)
			assert.False(t, ok, "token must be cleared with the bad profile")
		})
	}
}

func TestFileStore_CorruptFileIsNoSession(t *testing.T) {
	ctx := context.Background()
	store, path := newFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0600))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt session file should be removed")
}

func TestFileStore_TokenWithoutUserIsCleared(t *testing.T) {
	ctx := context.Background()
	store, _ := newFileStore(t)
	require.NoError(t, store.kv.Set(ctx, keyToken, "jwt"))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, "", store.Token(ctx))
}

func TestSave_IgnoresEmptyToken(t *testing.T) {
	ctx := context.Background()
	store, path := newFileStore(t)

	require.NoError(t, store.Save(ctx, Session{User: entity.User{ID: 1}}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRedisStore_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewStore(NewRedisKV(db, "default"))

	mock.ExpectGet("session:default:token").SetVal("jwt")
	mock.ExpectGet("session:default:user").SetVal(`{"id":2,"email":"bia@example.com","name":"Bia"}`)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.User.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_MalformedIsCleared(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewStore(NewRedisKV(db, "default"))

	mock.ExpectGet("session:default:token").SetVal("jwt")
	mock.ExpectGet("session:default:user").SetVal("undefined")
	mock.ExpectDel("session:default:token", "session:default:user").SetVal(2)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Empty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	store := NewStore(NewRedisKV(db, "default"))

	mock.ExpectGet("session:default:token").RedisNil()
	mock.ExpectGet("session:default:user").RedisNil()

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}
