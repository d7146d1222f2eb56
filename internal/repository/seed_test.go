package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/reqtrack/internal/db"
	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/alexanderramin/reqtrack/internal/testutil"
	"github.com/stretchr/testify/require"
)

func seedProject(t *testing.T, database *sql.DB) *domain.Project {
	t.Helper()
	proj := testutil.NewTestProject("Seeded")
	require.NoError(t, NewSQLiteProjectRepo(database).Create(context.Background(), proj))
	return proj
}

// seedRequirement stores a requirement with version 1 and the pointer set,
// the way the service does.
func seedRequirement(t *testing.T, database *sql.DB, projectID, uid string, opts ...testutil.RequirementOption) (*domain.Requirement, *domain.RequirementVersion) {
	t.Helper()
	req, v1, err := createRequirement(context.Background(), database, projectID, uid, opts...)
	require.NoError(t, err)
	return req, v1
}

// createRequirement is seedRequirement without assertions, for goroutines.
func createRequirement(ctx context.Context, database *sql.DB, projectID, uid string, opts ...testutil.RequirementOption) (*domain.Requirement, *domain.RequirementVersion, error) {
	req := testutil.NewTestRequirement(projectID, uid, opts...)
	var v1 *domain.RequirementVersion

	err := db.NewSQLiteUnitOfWork(database).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		reqs := NewSQLiteRequirementRepo(tx)
		if err := reqs.Create(ctx, req); err != nil {
			return err
		}
		var err error
		v1, err = NewSQLiteVersionStore(tx).AppendVersion(ctx, req.ID, nil, testutil.NewTestContent("Seed "+uid))
		if err != nil {
			return err
		}
		req.PointTo(v1, v1.EffectiveFrom)
		return reqs.Update(ctx, req)
	})
	return req, v1, err
}
