// Package system holds the HTTP handlers of the todo API and the background
// jobs that record and push task notifications.
package system

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"todo-app/common"
	"todo-app/mailer"
	"todo-app/storage"
)

type Handler struct {
	Store  *storage.Store
	Pool   *NotificationWorkerPool
	Mailer mailer.Mailer
	Clock  clockwork.Clock
	Log    *zap.Logger
}

func NewHandler(store *storage.Store, pool *NotificationWorkerPool, m mailer.Mailer, clock clockwork.Clock, log *zap.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = mailer.NewLog(log)
	}
	return &Handler{
		Store:  store,
		Pool:   pool,
		Mailer: m,
		Clock:  clock,
		Log:    log,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func currentUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

func taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid task ID")
		return 0, false
	}
	return id, true
}
