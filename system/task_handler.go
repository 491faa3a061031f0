package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"todo-app/cache"
	"todo-app/common"
	"todo-app/component"
	"todo-app/entity"
	"todo-app/storage"
)

const maxTitleLength = 100

func validateFields(f entity.TaskFields, creating bool) error {
	if creating && f.Title == nil {
		return errors.New("Título é obrigatório")
	}
	if f.Title != nil {
		title := strings.TrimSpace(*f.Title)
		if title == "" {
			return errors.New("Título é obrigatório")
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			return fmt.Errorf("Título deve ter no máximo %d caracteres", maxTitleLength)
		}
	}
	if f.RecurrenceType != nil && *f.RecurrenceType != "" && !f.RecurrenceType.Valid() {
		return fmt.Errorf("Tipo de recorrência inválido: %s", *f.RecurrenceType)
	}
	if creating && f.IsRecurring != nil && *f.IsRecurring && (f.RecurrenceType == nil || *f.RecurrenceType == "") {
		return errors.New("Tarefas recorrentes precisam de um tipo de recorrência")
	}
	return nil
}

func trimTitle(f *entity.TaskFields) {
	if f.Title != nil {
		title := strings.TrimSpace(*f.Title)
		f.Title = &title
	}
}

func (h *Handler) invalidate(userID int) {
	if err := cache.InvalidateTasks(userID); err != nil {
		h.Log.Warn("Failed to invalidate task cache", zap.Int("user_id", userID), zap.Error(err))
	}
}

func (h *Handler) notify(userID int, kind entity.NotificationKind, t entity.Task, message string) {
	h.Pool.Enqueue(common.NotificationJob{
		UserID:  userID,
		TaskID:  t.ID,
		Kind:    kind,
		Title:   t.Title,
		Message: message,
	})
}

func (h *Handler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if tasks, ok := cache.GetTaskList(userID); ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, tasks)
		return
	}

	tasks, err := h.Store.ListTasks(r.Context(), userID)
	if err != nil {
		h.Log.Error("Failed to list tasks", zap.Int("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Erro ao carregar tarefas")
		return
	}
	if err := cache.SetTaskList(userID, tasks); err != nil {
		h.Log.Warn("Failed to cache task list", zap.Int("user_id", userID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.Store.GetTask(r.Context(), userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Tarefa não encontrada")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB error")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var fields entity.TaskFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateFields(fields, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	trimTitle(&fields)

	task := entity.Task{UserID: userID}
	fields.Apply(&task)
	if err := h.Store.CreateTask(r.Context(), &task); err != nil {
		h.Log.Error("Failed to create task", zap.Int("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Erro ao criar tarefa")
		return
	}

	h.invalidate(userID)
	h.notify(userID, entity.NotificationTaskCreated, task, "Tarefa criada: "+task.Title)
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask applies a partial update. Completing a recurring task with a due
// date also creates its next occurrence.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var fields entity.TaskFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateFields(fields, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	trimTitle(&fields)

	res, err := h.Store.UpdateTask(r.Context(), userID, id, fields)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Tarefa não encontrada")
		return
	}
	if err != nil {
		h.Log.Error("Failed to update task", zap.Int("task_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar tarefa")
		return
	}

	h.invalidate(userID)
	if res.Completed {
		h.notify(userID, entity.NotificationTaskCompleted, res.Task, "Tarefa concluída: "+res.Task.Title)
	}
	if res.Next != nil {
		h.Log.Info("Next occurrence created",
			zap.Int("task_id", res.Task.ID),
			zap.Int("next_id", res.Next.ID),
			zap.String("recurrence", component.RecurrenceLabel(res.Next.RecurrenceType)),
		)
	}
	writeJSON(w, http.StatusOK, res.Task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	err := h.Store.DeleteTask(r.Context(), userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Tarefa não encontrada")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao excluir tarefa")
		return
	}
	h.invalidate(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteCompletedTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.Store.DeleteCompleted(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao excluir tarefas concluídas")
		return
	}
	h.invalidate(userID)
	writeJSON(w, http.StatusOK, entity.DeleteResult{DeletedCount: n})
}

// GetDueTasks lists the caller's tasks that are due right now.
func (h *Handler) GetDueTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tasks, err := h.Store.DueTasks(r.Context(), userID, h.Clock.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao carregar tarefas")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}
