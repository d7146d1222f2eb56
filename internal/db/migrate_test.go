package db

import (
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

const ts = "2025-01-01T00:00:00.000000000Z"

func seedProject(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO projects (id, short_id, name, created_at, updated_at)
		VALUES ('p1', 'TST', 'Test', ?, ?)`, ts, ts)
	require.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// Run migrations a second time; it should succeed without error.
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{"projects", "subjects", "requirements", "requirement_versions", "schema_migrations"}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_projects_short_id",
		"idx_subjects_project",
		"idx_requirements_project_uid",
		"idx_requirements_parent",
		"idx_requirements_subject",
		"idx_requirement_versions_number",
		"idx_requirement_versions_open",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_SchemaVersionIsLatest(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.False(t, dirty)

	latest, err := LatestSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.Equal(t, uint(2), latest)
}

// steppedSource serves versions 1..last and then fails with nextErr.
type steppedSource struct {
	source.Driver
	last    uint
	nextErr error
}

func (s steppedSource) First() (uint, error) { return 1, nil }

func (s steppedSource) Next(v uint) (uint, error) {
	if v < s.last {
		return v + 1, nil
	}
	return 0, s.nextErr
}

func TestLatestVersion(t *testing.T) {
	end := &fs.PathError{Op: "next", Path: "migrations", Err: fs.ErrNotExist}
	v, err := latestVersion(steppedSource{last: 3, nextErr: end})
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)

	broken := errors.New("corrupt migration name")
	_, err = latestVersion(steppedSource{last: 2, nextErr: broken})
	assert.ErrorIs(t, err, broken, "errors other than the end of the list are reported")
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk)
	require.NoError(t, err)
	assert.Equal(t, 1, fk, "foreign keys should be enabled")
}

func TestOpenDB_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reqtrack.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrate_RequirementStatusCheckConstraint(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db)

	_, err := db.Exec(`INSERT INTO requirements (id, uid, project_id, status, created_by, created_at, updated_at)
		VALUES ('r1', 'REQ-0001', 'p1', 'DONE', 'u', ?, ?)`, ts, ts)
	assert.Error(t, err, "unknown status should be rejected by CHECK constraint")

	_, err = db.Exec(`INSERT INTO requirements (id, uid, project_id, status, created_by, created_at, updated_at)
		VALUES ('r1', 'REQ-0001', 'p1', 'DRAFT', 'u', ?, ?)`, ts, ts)
	assert.NoError(t, err)
}

func TestMigrate_UIDUniquePerProject(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db)
	_, err := db.Exec(`INSERT INTO projects (id, short_id, name, created_at, updated_at)
		VALUES ('p2', 'OTH', 'Other', ?, ?)`, ts, ts)
	require.NoError(t, err)

	insert := `INSERT INTO requirements (id, uid, project_id, created_by, created_at, updated_at)
		VALUES (?, 'REQ-0001', ?, 'u', ?, ?)`
	_, err = db.Exec(insert, "r1", "p1", ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(insert, "r2", "p1", ts, ts)
	assert.Error(t, err, "duplicate uid in one project")
	_, err = db.Exec(insert, "r3", "p2", ts, ts)
	assert.NoError(t, err, "same uid in another project")
}

func TestMigrate_VersionConstraints(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db)
	_, err := db.Exec(`INSERT INTO requirements (id, uid, project_id, created_by, created_at, updated_at)
		VALUES ('r1', 'REQ-0001', 'p1', 'u', ?, ?)`, ts, ts)
	require.NoError(t, err)

	insert := `INSERT INTO requirement_versions (id, requirement_id, version_number, title, statement,
		effective_from, effective_to, created_by, created_at)
		VALUES (?, 'r1', ?, 't', 's', ?, ?, 'u', ?)`

	_, err = db.Exec(insert, "v1", 1, ts, nil, ts)
	require.NoError(t, err)

	_, err = db.Exec(insert, "v2", 2, ts, nil, ts)
	assert.Error(t, err, "a second open version must be rejected")

	_, err = db.Exec(insert, "v3", 1, ts, ts, ts)
	assert.Error(t, err, "duplicate version number must be rejected")

	_, err = db.Exec(`INSERT INTO requirement_versions (id, requirement_id, version_number, title, statement,
		effective_from, created_by, created_at) VALUES ('v4', 'r1', 3, '', 's', ?, 'u', ?)`, ts, ts)
	assert.Error(t, err, "empty title must be rejected")
}

func TestMigrate_DeleteRequirementCascadesVersions(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db)
	_, err := db.Exec(`INSERT INTO requirements (id, uid, project_id, created_by, created_at, updated_at)
		VALUES ('r1', 'REQ-0001', 'p1', 'u', ?, ?)`, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO requirement_versions (id, requirement_id, version_number, title, statement,
		effective_from, created_by, created_at) VALUES ('v1', 'r1', 1, 't', 's', ?, 'u', ?)`, ts, ts)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE requirements SET current_version_id = 'v1' WHERE id = 'r1'`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM requirements WHERE id = 'r1'`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM requirement_versions`).Scan(&n))
	assert.Equal(t, 0, n)
}
