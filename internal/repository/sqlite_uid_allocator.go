package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/reqtrack/internal/db"
	"github.com/alexanderramin/reqtrack/internal/domain"
)

// SQLiteUIDAllocator derives the next REQ-NNNN identifier from the highest
// uid already stored in the project. Run it in the same transaction as the
// insert that consumes the uid; the (project_id, uid) unique index rejects
// anything that slips past.
type SQLiteUIDAllocator struct {
	db db.DBTX
}

// NewSQLiteUIDAllocator creates a new SQLiteUIDAllocator.
func NewSQLiteUIDAllocator(conn db.DBTX) *SQLiteUIDAllocator {
	return &SQLiteUIDAllocator{db: conn}
}

// Allocate returns the next unused uid for projectID, starting at REQ-0001.
func (a *SQLiteUIDAllocator) Allocate(ctx context.Context, projectID string) (string, error) {
	var max int
	query := `SELECT COALESCE(MAX(` + uidNumber + `), 0)
		FROM requirements
		WHERE project_id = ? AND uid LIKE 'REQ-%'`
	if err := a.db.QueryRowContext(ctx, query, projectID).Scan(&max); err != nil {
		return "", fmt.Errorf("allocating uid for project %s: %w", projectID, err)
	}
	uid := domain.FormatUID(max + 1)

	taken, err := NewSQLiteRequirementRepo(a.db).ExistsUID(ctx, projectID, uid)
	if err != nil {
		return "", err
	}
	if taken {
		return "", &domain.ConflictError{Entity: "requirement", Key: uid, Detail: "uid taken in project"}
	}
	return uid, nil
}
