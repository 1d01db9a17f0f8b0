package artifact

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shaharia-lab/taskcore/internal/id"
	"github.com/shaharia-lab/taskcore/internal/service"
)

// SQLiteStore implements Store backed by SQLite, sharing the same database
// as the task template store (see internal/storage.Open).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save assigns a fresh ID and persists data verbatim.
func (s *SQLiteStore) Save(data json.RawMessage, parentID *id.ID, level int) (*Artifact, error) {
	ctx := context.Background()

	if parentID != nil {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM artifacts WHERE id = ?", parentID.String()).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, &service.NotFoundError{Resource: "artifact", ID: parentID.String()}
		}
		if err != nil {
			return nil, fmt.Errorf("checking parent artifact %q: %w", parentID, err)
		}
	}

	a := &Artifact{
		ID:        id.New(),
		ParentID:  parentID,
		Level:     level,
		Data:      append(json.RawMessage(nil), data...),
		CreatedAt: time.Now().UTC(),
	}
	a.UpdatedAt = a.CreatedAt

	var parentStr any
	if parentID != nil {
		parentStr = parentID.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, parent_id, level, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), parentStr, a.Level, string(a.Data), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("saving artifact: %w", err)
	}
	return a, nil
}

// Load returns an artifact by ID, or a *service.NotFoundError if none exists.
func (s *SQLiteStore) Load(artifactID id.ID) (*Artifact, error) {
	ctx := context.Background()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, parent_id, level, data, created_at, updated_at
		FROM artifacts WHERE id = ?`, artifactID.String())

	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, &service.NotFoundError{Resource: "artifact", ID: artifactID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("loading artifact %q: %w", artifactID, err)
	}
	return a, nil
}

// Delete removes an artifact by ID.
func (s *SQLiteStore) Delete(artifactID id.ID) error {
	ctx := context.Background()
	res, err := s.db.ExecContext(ctx, "DELETE FROM artifacts WHERE id = ?", artifactID.String())
	if err != nil {
		return fmt.Errorf("deleting artifact %q: %w", artifactID, err)
	}
	n, rowErr := res.RowsAffected()
	if rowErr != nil {
		return fmt.Errorf("checking rows affected for artifact %q: %w", artifactID, rowErr)
	}
	if n == 0 {
		return &service.NotFoundError{Resource: "artifact", ID: artifactID.String()}
	}
	return nil
}

// List returns all artifacts ordered by creation time ascending.
func (s *SQLiteStore) List() ([]*Artifact, error) {
	ctx := context.Background()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, level, data, created_at, updated_at
		FROM artifacts ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]*Artifact, 0)
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanArtifact(row scannable) (*Artifact, error) {
	a := &Artifact{}
	var idStr, dataStr string
	var parentStr sql.NullString

	if err := row.Scan(&idStr, &parentStr, &a.Level, &dataStr, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	parsedID, err := id.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing artifact id: %w", err)
	}
	a.ID = parsedID
	a.Data = []byte(dataStr)

	if parentStr.Valid {
		parentID, err := id.Parse(parentStr.String)
		if err != nil {
			return nil, fmt.Errorf("parsing artifact parent id: %w", err)
		}
		a.ParentID = &parentID
	}
	return a, nil
}
