package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shaharia-lab/taskcore/internal/id"
	"github.com/shaharia-lab/taskcore/internal/service"
)

// SQLiteTaskTemplateStore implements TaskTemplateStore backed by SQLite.
type SQLiteTaskTemplateStore struct {
	db *sql.DB
}

// NewSQLiteTaskTemplateStore returns a new SQLiteTaskTemplateStore.
func NewSQLiteTaskTemplateStore(db *sql.DB) *SQLiteTaskTemplateStore {
	return &SQLiteTaskTemplateStore{db: db}
}

// List returns task templates ordered by creation time ascending, optionally
// filtered by the enabled flag.
func (s *SQLiteTaskTemplateStore) List(enabledOnly *bool) ([]*TaskTemplate, error) {
	ctx := context.Background()
	query := `SELECT id, command, kind, parameters, enabled, created_at, updated_at
		FROM task_templates`
	args := []any{}
	if enabledOnly != nil {
		query += ` WHERE enabled = ?`
		args = append(args, boolToInt(*enabledOnly))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing task templates: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	templates := make([]*TaskTemplate, 0)
	for rows.Next() {
		t, err := scanTaskTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Get returns a task template by ID, or nil if not found.
func (s *SQLiteTaskTemplateStore) Get(taskID id.ID) (*TaskTemplate, error) {
	ctx := context.Background()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, command, kind, parameters, enabled, created_at, updated_at
		FROM task_templates WHERE id = ?`, taskID.String())

	t, err := scanTaskTemplateRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task template %q: %w", taskID, err)
	}
	return t, nil
}

// Create inserts a new task template, assigning ID/CreatedAt/UpdatedAt.
func (s *SQLiteTaskTemplateStore) Create(task *TaskTemplate) error {
	if task.ID.IsZero() {
		task.ID = id.New()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Kind == "" {
		task.Kind = KindShell
	}
	if task.Parameters == nil {
		task.Parameters = []byte("{}")
	}

	ctx := context.Background()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_templates (id, command, kind, parameters, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID.String(), task.Command, string(task.Kind), string(task.Parameters),
		boolToInt(task.Enabled), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task template: %w", err)
	}
	return nil
}

// Update updates an existing task template's mutable fields.
func (s *SQLiteTaskTemplateStore) Update(task *TaskTemplate) error {
	task.UpdatedAt = time.Now().UTC()
	if task.Parameters == nil {
		task.Parameters = []byte("{}")
	}

	ctx := context.Background()
	res, err := s.db.ExecContext(ctx, `
		UPDATE task_templates SET
			command = ?, kind = ?, parameters = ?, enabled = ?, updated_at = ?
		WHERE id = ?`,
		task.Command, string(task.Kind), string(task.Parameters),
		boolToInt(task.Enabled), task.UpdatedAt, task.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("updating task template %q: %w", task.ID, err)
	}
	n, rowErr := res.RowsAffected()
	if rowErr != nil {
		return fmt.Errorf("checking rows affected for task template %q: %w", task.ID, rowErr)
	}
	if n == 0 {
		return &service.NotFoundError{Resource: "task", ID: task.ID.String()}
	}
	return nil
}

// Delete removes a task template by ID.
func (s *SQLiteTaskTemplateStore) Delete(taskID id.ID) error {
	ctx := context.Background()
	res, err := s.db.ExecContext(ctx, "DELETE FROM task_templates WHERE id = ?", taskID.String())
	if err != nil {
		return fmt.Errorf("deleting task template %q: %w", taskID, err)
	}
	n, rowErr := res.RowsAffected()
	if rowErr != nil {
		return fmt.Errorf("checking rows affected for task template %q: %w", taskID, rowErr)
	}
	if n == 0 {
		return &service.NotFoundError{Resource: "task", ID: taskID.String()}
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTaskTemplate(rows *sql.Rows) (*TaskTemplate, error) {
	return scanTaskTemplateRow(rows)
}

func scanTaskTemplateRow(row scannable) (*TaskTemplate, error) {
	t := &TaskTemplate{}
	var idStr, kindStr, paramsStr string
	var enabledInt int

	err := row.Scan(&idStr, &t.Command, &kindStr, &paramsStr, &enabledInt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsedID, err := id.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("scanning task template id: %w", err)
	}
	t.ID = parsedID
	t.Kind = Kind(kindStr)
	t.Parameters = []byte(paramsStr)
	t.Enabled = enabledInt != 0
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
