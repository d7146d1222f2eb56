package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/reqtrack/internal/db"
	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/alexanderramin/reqtrack/internal/repository"
	"github.com/alexanderramin/reqtrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	db      *sql.DB
	clock   *testutil.FixedClock
	project *domain.Project
	svc     RequirementService
}

func newTestEnv(t *testing.T, opts ...RequirementOption) *testEnv {
	t.Helper()
	return newTestEnvOn(t, testutil.NewTestDB(t), opts...)
}

func newTestEnvOn(t *testing.T, database *sql.DB, opts ...RequirementOption) *testEnv {
	t.Helper()
	clock := testutil.NewFixedClock(epoch)
	proj := testutil.NewTestProject("Braking")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(context.Background(), proj))

	opts = append([]RequirementOption{WithClock(clock)}, opts...)
	return &testEnv{
		db:      database,
		clock:   clock,
		project: proj,
		svc:     NewRequirementService(testutil.NewTestUoW(database), opts...),
	}
}

func (e *testEnv) input(title string) domain.CreateRequirementInput {
	return domain.CreateRequirementInput{
		ProjectID: e.project.ID,
		Title:     title,
		Statement: "The system shall " + title + ".",
		Tags:      []string{"safety"},
	}
}

func (e *testEnv) create(t *testing.T, title string) *domain.RequirementDetail {
	t.Helper()
	d, err := e.svc.Create(context.Background(), e.input(title), "alice")
	require.NoError(t, err)
	return d
}

func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// assertLedger checks the version ledger of one requirement: numbers run
// 1..N without gaps, exactly one version is open, the pointer names it,
// and each closed interval ends where the next begins.
func assertLedger(t *testing.T, database *sql.DB, requirementID string) {
	t.Helper()
	ctx := context.Background()
	req, err := repository.NewSQLiteRequirementRepo(database).GetByID(ctx, requirementID)
	require.NoError(t, err)
	versions, err := repository.NewSQLiteVersionStore(database).ListByRequirement(ctx, requirementID)
	require.NoError(t, err)
	require.NotEmpty(t, versions, "every requirement has at least one version")

	open := 0
	n := len(versions)
	for i, v := range versions {
		assert.Equal(t, n-i, v.VersionNumber, "versions are numbered 1..N newest first")
		if v.IsCurrent() {
			open++
			require.NotNil(t, req.CurrentVersionID)
			assert.Equal(t, v.ID, *req.CurrentVersionID, "pointer names the open version")
		}
		if i > 0 {
			newer := versions[i-1]
			require.NotNil(t, v.EffectiveTo, "superseded versions are closed")
			assert.True(t, v.EffectiveTo.Equal(newer.EffectiveFrom), "intervals are contiguous")
		}
	}
	assert.Equal(t, 1, open, "exactly one open version")
}

// seedRequirement stores a requirement with an explicit uid, bypassing the
// allocator, the way a pre-existing row would look.
func seedRequirement(t *testing.T, database *sql.DB, projectID, uid string) *domain.Requirement {
	t.Helper()
	ctx := context.Background()
	req := testutil.NewTestRequirement(projectID, uid)
	err := db.NewSQLiteUnitOfWork(database).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		reqs := repository.NewSQLiteRequirementRepo(tx)
		if err := reqs.Create(ctx, req); err != nil {
			return err
		}
		v, err := repository.NewSQLiteVersionStore(tx).AppendVersion(ctx, req.ID, nil, testutil.NewTestContent("Seeded "+uid))
		if err != nil {
			return err
		}
		req.PointTo(v, v.EffectiveFrom)
		return reqs.Update(ctx, req)
	})
	require.NoError(t, err)
	return req
}
