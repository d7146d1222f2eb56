package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/reqtrack/internal/db"
	"github.com/alexanderramin/reqtrack/internal/domain"
)

// SQLiteRequirementRepo implements RequirementRepo using a SQLite database.
type SQLiteRequirementRepo struct {
	db db.DBTX
}

// NewSQLiteRequirementRepo creates a new SQLiteRequirementRepo.
func NewSQLiteRequirementRepo(conn db.DBTX) *SQLiteRequirementRepo {
	return &SQLiteRequirementRepo{db: conn}
}

const requirementColumns = `id, uid, project_id, subject_id, parent_requirement_id, current_version_id,
	status, priority, created_by, created_at, updated_at`

// uidNumber orders uids numerically; string order would put REQ-10000 before REQ-9999.
const uidNumber = `CAST(SUBSTR(uid, 5) AS INTEGER)`

func (r *SQLiteRequirementRepo) Create(ctx context.Context, req *domain.Requirement) error {
	query := `INSERT INTO requirements (` + requirementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.UID,
		req.ProjectID,
		nullableStringToValue(req.SubjectID),
		nullableStringToValue(req.ParentRequirementID),
		nullableStringToValue(req.CurrentVersionID),
		string(req.Status),
		nullableIntToValue(req.Priority),
		req.CreatedBy,
		formatTime(req.CreatedAt),
		formatTime(req.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Entity: "requirement", Key: req.UID, Detail: "uid taken in project"}
		}
		return fmt.Errorf("inserting requirement: %w", err)
	}
	return nil
}

func (r *SQLiteRequirementRepo) GetByID(ctx context.Context, id string) (*domain.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements WHERE id = ?`
	req, err := scanRequirement(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("requirement", id)
	}
	return req, err
}

func (r *SQLiteRequirementRepo) GetByUID(ctx context.Context, projectID, uid string) (*domain.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements WHERE project_id = ? AND uid = ?`
	req, err := scanRequirement(r.db.QueryRowContext(ctx, query, projectID, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("requirement", uid)
	}
	return req, err
}

func (r *SQLiteRequirementRepo) ExistsUID(ctx context.Context, projectID, uid string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM requirements WHERE project_id = ? AND uid = ?`, projectID, uid).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking uid %s: %w", uid, err)
	}
	return true, nil
}

func (r *SQLiteRequirementRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements
		WHERE project_id = ?
		ORDER BY created_at DESC, ` + uidNumber + ` DESC`
	return r.list(ctx, "listing requirements", query, projectID)
}

func (r *SQLiteRequirementRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements
		WHERE parent_requirement_id = ?
		ORDER BY created_at, ` + uidNumber
	return r.list(ctx, "listing child requirements", query, parentID)
}

func (r *SQLiteRequirementRepo) list(ctx context.Context, op, query string, args ...any) ([]*domain.Requirement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var reqs []*domain.Requirement
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reqs, nil
}

// Update writes the mutable columns. ID, UID, project and creation stamps
// are immutable.
func (r *SQLiteRequirementRepo) Update(ctx context.Context, req *domain.Requirement) error {
	query := `UPDATE requirements SET subject_id = ?, parent_requirement_id = ?, current_version_id = ?,
		status = ?, priority = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableStringToValue(req.SubjectID),
		nullableStringToValue(req.ParentRequirementID),
		nullableStringToValue(req.CurrentVersionID),
		string(req.Status),
		nullableIntToValue(req.Priority),
		formatTime(req.UpdatedAt),
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("updating requirement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating requirement: %w", err)
	}
	if n == 0 {
		return domain.NewNotFound("requirement", req.ID)
	}
	return nil
}

// Delete removes the requirement. Its versions cascade; children become roots.
func (r *SQLiteRequirementRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM requirements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting requirement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting requirement: %w", err)
	}
	if n == 0 {
		return domain.NewNotFound("requirement", id)
	}
	return nil
}

func scanRequirement(row rowScanner) (*domain.Requirement, error) {
	var req domain.Requirement
	var subjectID, parentID, currentVersionID sql.NullString
	var priority sql.NullInt64
	var statusStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&req.ID, &req.UID, &req.ProjectID,
		&subjectID, &parentID, &currentVersionID,
		&statusStr, &priority,
		&req.CreatedBy, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning requirement: %w", err)
	}

	req.SubjectID = nullStringPtr(subjectID)
	req.ParentRequirementID = nullStringPtr(parentID)
	req.CurrentVersionID = nullStringPtr(currentVersionID)
	req.Status = domain.RequirementStatus(statusStr)
	req.Priority = nullIntPtr(priority)

	if req.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	if req.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	return &req, nil
}
