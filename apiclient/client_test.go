package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"todo-app/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTasks_SendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"title":"a","due_date":"2025-06-13T10:00:00-03:00"},{"id":2,"title":"b","due_date":null}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken(func() string { return "tok" }))
	tasks, err := c.ListTasks(context.Background())

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.NotNil(t, tasks[0].DueDate)
	assert.Nil(t, tasks[1].DueDate)
}

func TestUpdateTask_SendsOnlySetFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/tasks/5", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"completed": true}, body)
		w.Write([]byte(`{"id":5,"title":"x","completed":true}`))
	}))
	defer srv.Close()

	done := true
	task, err := New(srv.URL).UpdateTask(context.Background(), 5, entity.TaskFields{Completed: &done})

	require.NoError(t, err)
	assert.True(t, task.Completed)
}

func TestDeleteCompletedTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks/completed", r.URL.Path)
		w.Write([]byte(`{"deleted_count":3}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).DeleteCompletedTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.DeletedCount)
}

func TestServerError_CarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Email ou senha inválidos"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), entity.Credentials{Email: "a@b.c", Password: "x"})

	var se *ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "Email ou senha inválidos", se.Message)
	assert.True(t, IsUnauthorized(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).ListTasks(context.Background())

	var ne *NetworkError
	assert.True(t, errors.As(err, &ne))
}

func TestCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.Write([]byte(`{"user":{"id":9,"email":"ana@example.com","name":"Ana","email_verified":true}}`))
	}))
	defer srv.Close()

	user, err := New(srv.URL).CurrentUser(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 9, user.ID)
	assert.Equal(t, "Ana", user.Name)
}
