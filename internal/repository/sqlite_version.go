package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/reqtrack/internal/db"
	"github.com/alexanderramin/reqtrack/internal/domain"
)

// SQLiteVersionStore implements VersionStore using a SQLite database.
// Rows are only ever inserted, plus one effective_to stamp when superseded.
type SQLiteVersionStore struct {
	db    db.DBTX
	clock domain.Clock
	ids   domain.IDGenerator
}

type VersionStoreOption func(*SQLiteVersionStore)

func WithClock(c domain.Clock) VersionStoreOption {
	return func(s *SQLiteVersionStore) { s.clock = c }
}

func WithIDGenerator(g domain.IDGenerator) VersionStoreOption {
	return func(s *SQLiteVersionStore) { s.ids = g }
}

// NewSQLiteVersionStore creates a version store. Without options it uses the
// wall clock and random UUIDs.
func NewSQLiteVersionStore(conn db.DBTX, opts ...VersionStoreOption) *SQLiteVersionStore {
	s := &SQLiteVersionStore{db: conn, clock: domain.RealClock{}, ids: domain.UUIDGenerator{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const versionColumns = `id, requirement_id, version_number, title, statement, rationale, tags,
	delta_notes, effective_from, effective_to, created_by, created_at`

// AppendVersion closes priorCurrentVersionID (when non-nil) and inserts the
// next version, both stamped with the same instant so intervals stay
// contiguous. It never touches the requirement row. Run it inside a unit of
// work together with the pointer update.
func (s *SQLiteVersionStore) AppendVersion(ctx context.Context, requirementID string, priorCurrentVersionID *string, content domain.VersionContent) (*domain.RequirementVersion, error) {
	now := s.clock.Now().UTC()

	if priorCurrentVersionID != nil {
		var err error
		if now, err = s.closeVersion(ctx, requirementID, *priorCurrentVersionID, now); err != nil {
			return nil, err
		}
	}

	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM requirement_versions WHERE requirement_id = ?`,
		requirementID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("computing next version number for %s: %w", requirementID, err)
	}

	tags := content.Tags
	if tags == nil {
		tags = []string{}
	}
	v := &domain.RequirementVersion{
		ID:            s.ids.New(),
		RequirementID: requirementID,
		VersionNumber: next,
		Title:         content.Title,
		Statement:     content.Statement,
		Rationale:     content.Rationale,
		Tags:          tags,
		DeltaNotes:    content.DeltaNotes,
		EffectiveFrom: now,
		CreatedBy:     content.CreatedBy,
		CreatedAt:     now,
	}
	if err := s.insert(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// closeVersion stamps effective_to on the open version. It returns the
// instant actually used, which is never earlier than the version's start.
func (s *SQLiteVersionStore) closeVersion(ctx context.Context, requirementID, versionID string, now time.Time) (time.Time, error) {
	var fromStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT effective_from FROM requirement_versions
		WHERE id = ? AND requirement_id = ? AND effective_to IS NULL`,
		versionID, requirementID).Scan(&fromStr)
	if errors.Is(err, sql.ErrNoRows) {
		return now, &domain.ConflictError{Entity: "requirement version", Key: versionID, Detail: "no longer current"}
	}
	if err != nil {
		return now, fmt.Errorf("reading version %s: %w", versionID, err)
	}
	from, err := parseTime(fromStr, "effective_from")
	if err != nil {
		return now, err
	}
	if now.Before(from) {
		now = from
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE requirement_versions SET effective_to = ? WHERE id = ? AND effective_to IS NULL`,
		formatTime(now), versionID)
	if err != nil {
		return now, fmt.Errorf("closing version %s: %w", versionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return now, fmt.Errorf("closing version %s: %w", versionID, err)
	}
	if n == 0 {
		return now, &domain.ConflictError{Entity: "requirement version", Key: versionID, Detail: "no longer current"}
	}
	return now, nil
}

func (s *SQLiteVersionStore) insert(ctx context.Context, v *domain.RequirementVersion) error {
	tags, err := encodeTags(v.Tags)
	if err != nil {
		return err
	}
	query := `INSERT INTO requirement_versions (` + versionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		v.ID,
		v.RequirementID,
		v.VersionNumber,
		v.Title,
		v.Statement,
		nullableStringToValue(v.Rationale),
		tags,
		nullableStringToValue(v.DeltaNotes),
		formatTime(v.EffectiveFrom),
		nullableTimeToString(v.EffectiveTo),
		v.CreatedBy,
		formatTime(v.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{
				Entity: "requirement version",
				Key:    fmt.Sprintf("%s#%d", v.RequirementID, v.VersionNumber),
				Detail: "concurrent append",
			}
		}
		return fmt.Errorf("inserting requirement version: %w", err)
	}
	return nil
}

func (s *SQLiteVersionStore) GetByID(ctx context.Context, id string) (*domain.RequirementVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM requirement_versions WHERE id = ?`
	v, err := scanVersion(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("requirement version", id)
	}
	return v, err
}

func (s *SQLiteVersionStore) ListByRequirement(ctx context.Context, requirementID string) ([]*domain.RequirementVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM requirement_versions
		WHERE requirement_id = ? ORDER BY version_number DESC`
	rows, err := s.db.QueryContext(ctx, query, requirementID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	var versions []*domain.RequirementVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}
	return versions, nil
}

func (s *SQLiteVersionStore) Latest(ctx context.Context, requirementID string) (*domain.RequirementVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM requirement_versions
		WHERE requirement_id = ? ORDER BY version_number DESC LIMIT 1`
	v, err := scanVersion(s.db.QueryRowContext(ctx, query, requirementID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("requirement version", requirementID)
	}
	return v, err
}

// AsOf returns the version whose [effective_from, effective_to) contains t.
func (s *SQLiteVersionStore) AsOf(ctx context.Context, requirementID string, t time.Time) (*domain.RequirementVersion, error) {
	at := formatTime(t)
	query := `SELECT ` + versionColumns + ` FROM requirement_versions
		WHERE requirement_id = ? AND effective_from <= ? AND (effective_to IS NULL OR effective_to > ?)
		ORDER BY version_number DESC LIMIT 1`
	v, err := scanVersion(s.db.QueryRowContext(ctx, query, requirementID, at, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("requirement version", requirementID+"@"+at)
	}
	return v, err
}

func (s *SQLiteVersionStore) CurrentByProject(ctx context.Context, projectID string) (map[string]*domain.RequirementVersion, error) {
	query := `SELECT v.id, v.requirement_id, v.version_number, v.title, v.statement, v.rationale, v.tags,
		v.delta_notes, v.effective_from, v.effective_to, v.created_by, v.created_at
		FROM requirement_versions v
		JOIN requirements r ON r.current_version_id = v.id
		WHERE r.project_id = ?`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing current versions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*domain.RequirementVersion)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out[v.RequirementID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating current versions: %w", err)
	}
	return out, nil
}

func scanVersion(row rowScanner) (*domain.RequirementVersion, error) {
	var v domain.RequirementVersion
	var rationale, deltaNotes, effectiveTo sql.NullString
	var tagsRaw, fromStr, createdAtStr string

	err := row.Scan(
		&v.ID, &v.RequirementID, &v.VersionNumber,
		&v.Title, &v.Statement, &rationale, &tagsRaw,
		&deltaNotes, &fromStr, &effectiveTo,
		&v.CreatedBy, &createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning requirement version: %w", err)
	}

	v.Rationale = nullStringPtr(rationale)
	v.DeltaNotes = nullStringPtr(deltaNotes)
	v.EffectiveTo = parseNullableTime(effectiveTo)
	if v.Tags, err = decodeTags(tagsRaw); err != nil {
		return nil, err
	}
	if v.EffectiveFrom, err = parseTime(fromStr, "effective_from"); err != nil {
		return nil, err
	}
	if v.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	return &v, nil
}
