// Package storage is the SQL repository behind the HTTP handlers. Queries are
// written with ? placeholders and rebound for postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"todo-app/component"
	"todo-app/duecheck"
	"todo-app/entity"
	"todo-app/storage/sqlite"
)

var (
	ErrNotFound   = errors.New("storage: not found")
	ErrEmailTaken = errors.New("storage: email already registered")
)

// Account is a user row with the fields the API never returns.
type Account struct {
	entity.User
	VerificationCode    string
	VerificationExpires *time.Time
}

type Store struct {
	db      *sql.DB
	dialect sqlite.Dialect
	clock   clockwork.Clock
}

func New(db *sql.DB, dialect sqlite.Dialect, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, dialect: dialect, clock: clock}
}

func (s *Store) q(query string) string {
	return sqlite.Rebind(s.dialect, query)
}

func (s *Store) now() time.Time {
	return s.clock.Now().In(component.ServerLocation)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

const userColumns = "id, email, name, password_hash, email_verified, verification_code, verification_expires_at, created_at"

func (s *Store) CreateUser(ctx context.Context, u *entity.User, code string, expires time.Time) error {
	var exists int
	err := s.db.QueryRowContext(ctx, s.q("SELECT COUNT(*) FROM users WHERE email = ?"), u.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return ErrEmailTaken
	}

	u.CreatedAt = s.now()
	err = s.db.QueryRowContext(ctx, s.q(`INSERT INTO users (email, name, password_hash, email_verified, verification_code, verification_expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		u.Email, u.Name, u.Password, false, code, formatTime(expires), formatTime(u.CreatedAt),
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (Account, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+userColumns+" FROM users WHERE email = ?"), email)
	return scanAccount(row)
}

func (s *Store) UserByID(ctx context.Context, id int) (entity.User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	acc, err := scanAccount(row)
	return acc.User, err
}

func (s *Store) SetVerificationCode(ctx context.Context, userID int, code string, expires time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q("UPDATE users SET verification_code = ?, verification_expires_at = ? WHERE id = ?"),
		code, formatTime(expires), userID)
	if err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}
	return expectRow(res)
}

// MarkVerified flags the email as verified and clears the pending code.
func (s *Store) MarkVerified(ctx context.Context, userID int) error {
	res, err := s.db.ExecContext(ctx, s.q("UPDATE users SET email_verified = ?, verification_code = NULL, verification_expires_at = NULL WHERE id = ?"),
		true, userID)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return expectRow(res)
}

func scanAccount(row *sql.Row) (Account, error) {
	var (
		acc     Account
		code    sql.NullString
		expires sql.NullString
		created string
	)
	err := row.Scan(&acc.ID, &acc.Email, &acc.Name, &acc.Password, &acc.EmailVerified, &code, &expires, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("scan user: %w", err)
	}
	acc.VerificationCode = code.String
	acc.VerificationExpires = parseNullTime(expires)
	acc.CreatedAt = parseTime(created)
	return acc, nil
}

// ---- tasks ----

const taskColumns = "id, user_id, title, description, due_date, completed, is_recurring, recurrence_type, parent_task_id, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (entity.Task, error) {
	var (
		t          entity.Task
		due        sql.NullString
		recurrence sql.NullString
		parent     sql.NullInt64
		created    string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &due, &t.Completed, &t.IsRecurring, &recurrence, &parent, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Task{}, ErrNotFound
	}
	if err != nil {
		return entity.Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.DueDate = parseNullTime(due)
	t.RecurrenceType = component.RecurrenceType(recurrence.String)
	if parent.Valid {
		p := int(parent.Int64)
		t.ParentTaskID = &p
	}
	t.CreatedAt = parseTime(created)
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, userID int) ([]entity.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.q("SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC"), userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]entity.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, userID, id int) (entity.Task, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?"), id, userID)
	return scanTask(row)
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) insertTask(ctx context.Context, db execQuerier, t *entity.Task) error {
	t.CreatedAt = s.now()
	var recurrence any
	if t.RecurrenceType != "" {
		recurrence = string(t.RecurrenceType)
	}
	var parent any
	if t.ParentTaskID != nil {
		parent = *t.ParentTaskID
	}
	err := db.QueryRowContext(ctx, s.q(`INSERT INTO tasks (user_id, title, description, due_date, completed, is_recurring, recurrence_type, parent_task_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		t.UserID, t.Title, t.Description, formatNullTime(t.DueDate), t.Completed, t.IsRecurring, recurrence, parent, formatTime(t.CreatedAt),
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// CreateTask inserts t for t.UserID and fills in its id and creation time.
func (s *Store) CreateTask(ctx context.Context, t *entity.Task) error {
	return s.insertTask(ctx, s.db, t)
}

// TaskUpdate is the outcome of UpdateTask.
type TaskUpdate struct {
	Task entity.Task
	// Completed is set when this update moved the task from open to done.
	Completed bool
	// Next is the occurrence created when a recurring task was completed.
	Next *entity.Task
}

// UpdateTask applies fields to the task. When the task goes from open to
// completed and is recurring with a due date, the next occurrence is inserted
// in the same transaction.
func (s *Store) UpdateTask(ctx context.Context, userID, id int, fields entity.TaskFields) (res TaskUpdate, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TaskUpdate{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	t, err := scanTask(tx.QueryRowContext(ctx, s.q("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?"), id, userID))
	if err != nil {
		return TaskUpdate{}, err
	}
	wasCompleted := t.Completed
	fields.Apply(&t)

	var recurrence any
	if t.RecurrenceType != "" {
		recurrence = string(t.RecurrenceType)
	}
	_, err = tx.ExecContext(ctx, s.q(`UPDATE tasks SET title = ?, description = ?, due_date = ?, completed = ?, is_recurring = ?, recurrence_type = ?
		WHERE id = ? AND user_id = ?`),
		t.Title, t.Description, formatNullTime(t.DueDate), t.Completed, t.IsRecurring, recurrence, id, userID)
	if err != nil {
		return TaskUpdate{}, fmt.Errorf("update task: %w", err)
	}

	res.Completed = t.Completed && !wasCompleted
	if res.Completed && t.IsRecurring && t.DueDate != nil {
		if due, ok := component.NextOccurrence(*t.DueDate, t.RecurrenceType); ok {
			parent := t.ID
			n := entity.Task{
				UserID:         t.UserID,
				Title:          t.Title,
				Description:    t.Description,
				DueDate:        &due,
				IsRecurring:    true,
				RecurrenceType: t.RecurrenceType,
				ParentTaskID:   &parent,
			}
			if err = s.insertTask(ctx, tx, &n); err != nil {
				return TaskUpdate{}, err
			}
			res.Next = &n
		}
	}

	if err = tx.Commit(); err != nil {
		return TaskUpdate{}, fmt.Errorf("commit: %w", err)
	}
	res.Task = t
	return res, nil
}

func (s *Store) DeleteTask(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM tasks WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectRow(res)
}

// DeleteCompleted removes every completed task of the user and reports how many went.
func (s *Store) DeleteCompleted(ctx context.Context, userID int) (int, error) {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM tasks WHERE user_id = ? AND completed = ?"), userID, true)
	if err != nil {
		return 0, fmt.Errorf("delete completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete completed: %w", err)
	}
	return int(n), nil
}

// DueTasks lists the user's tasks that are due at now.
func (s *Store) DueTasks(ctx context.Context, userID int, now time.Time) ([]entity.Task, error) {
	tasks, err := s.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return duecheck.DueTasks(tasks, now), nil
}

// PendingDueTasks returns due tasks of every user that have no task_due
// notification recorded yet.
func (s *Store) PendingDueTasks(ctx context.Context, now time.Time) ([]entity.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT t.id, t.user_id, t.title, t.description, t.due_date, t.completed, t.is_recurring, t.recurrence_type, t.parent_task_id, t.created_at
		FROM tasks t
		LEFT JOIN notifications n ON n.task_id = t.id AND n.kind = ?
		WHERE t.completed = ? AND t.due_date IS NOT NULL AND n.id IS NULL`),
		string(entity.NotificationTaskDue), false)
	if err != nil {
		return nil, fmt.Errorf("pending due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []entity.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return duecheck.DueTasks(tasks, now), nil
}

// ---- notifications ----

func (s *Store) InsertNotification(ctx context.Context, userID int, n *entity.Notification) error {
	created := s.now()
	n.CreatedAt = formatTime(created)
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO notifications (user_id, task_id, kind, message, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`),
		userID, n.TaskID, string(n.Kind), n.Message, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Notifications returns the latest notifications of the user, newest first.
func (s *Store) Notifications(ctx context.Context, userID, limit int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, task_id, kind, message, created_at FROM notifications
		WHERE user_id = ? ORDER BY id DESC LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	list := make([]entity.Notification, 0)
	for rows.Next() {
		var (
			n    entity.Notification
			kind string
		)
		if err := rows.Scan(&n.ID, &n.TaskID, &kind, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = entity.NotificationKind(kind)
		list = append(list, n)
	}
	return list, rows.Err()
}

// ---- helpers ----

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.In(component.ServerLocation).Format(time.RFC3339Nano)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, err := component.ParseTimestamp(strings.TrimSpace(s), component.ServerLocation)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := component.ParseTimestamp(s.String, component.ServerLocation)
	if err != nil {
		return nil
	}
	return &t
}
