package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/alexanderramin/reqtrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestVersionStore_AppendFirstVersion(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	req := testutil.NewTestRequirement(proj.ID, "REQ-0001")
	require.NoError(t, NewSQLiteRequirementRepo(database).Create(ctx, req))

	clock := testutil.NewFixedClock(t0)
	store := NewSQLiteVersionStore(database, WithClock(clock))

	v1, err := store.AppendVersion(ctx, req.ID, nil, testutil.NewTestContent("Login", "auth", "ui"))
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNumber)
	assert.True(t, v1.IsCurrent())
	assert.True(t, t0.Equal(v1.EffectiveFrom))
	assert.Nil(t, v1.DeltaNotes)

	got, err := store.GetByID(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Login", got.Title)
	assert.Equal(t, []string{"auth", "ui"}, got.Tags)
	assert.Nil(t, got.EffectiveTo)
}

func TestVersionStore_AppendClosesPriorContiguously(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	clock := testutil.NewFixedClock(t0)
	store := NewSQLiteVersionStore(database, WithClock(clock))

	req, v1 := seedRequirement(t, database, proj.ID, "REQ-0001")

	clock.Advance(time.Hour)
	content := testutil.NewTestContent("Login v2")
	content.DeltaNotes = testutil.Ptr("tightened wording")
	v2, err := store.AppendVersion(ctx, req.ID, &v1.ID, content)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.Equal(t, "tightened wording", *v2.DeltaNotes)

	closed, err := store.GetByID(ctx, v1.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.EffectiveTo)
	assert.True(t, closed.EffectiveTo.Equal(v2.EffectiveFrom), "intervals must touch")

	versions, err := store.ListByRequirement(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber, "newest first")
	assert.Equal(t, 1, versions[1].VersionNumber)

	latest, err := store.Latest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)
}

func TestVersionStore_AppendWithStalePrior_Conflict(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	store := NewSQLiteVersionStore(database)

	req, v1 := seedRequirement(t, database, proj.ID, "REQ-0001")
	_, err := store.AppendVersion(ctx, req.ID, &v1.ID, testutil.NewTestContent("Second"))
	require.NoError(t, err)

	// v1 is closed now; appending on top of it again must fail.
	_, err = store.AppendVersion(ctx, req.ID, &v1.ID, testutil.NewTestContent("Third"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	versions, err := store.ListByRequirement(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestVersionStore_SecondOpenVersion_Conflict(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	store := NewSQLiteVersionStore(database)

	req, _ := seedRequirement(t, database, proj.ID, "REQ-0001")
	_, err := store.AppendVersion(ctx, req.ID, nil, testutil.NewTestContent("Rogue"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestVersionStore_ClockBehindPriorStart(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	clock := testutil.NewFixedClock(t0)
	store := NewSQLiteVersionStore(database, WithClock(clock))

	req := testutil.NewTestRequirement(proj.ID, "REQ-0001")
	require.NoError(t, NewSQLiteRequirementRepo(database).Create(ctx, req))
	v1, err := store.AppendVersion(ctx, req.ID, nil, testutil.NewTestContent("First"))
	require.NoError(t, err)

	clock.Set(t0.Add(-time.Minute))
	v2, err := store.AppendVersion(ctx, req.ID, &v1.ID, testutil.NewTestContent("Second"))
	require.NoError(t, err)
	assert.True(t, t0.Equal(v2.EffectiveFrom), "start clamps to the prior start")
}

func TestVersionStore_AsOf(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	clock := testutil.NewFixedClock(t0)
	store := NewSQLiteVersionStore(database, WithClock(clock))

	req := testutil.NewTestRequirement(proj.ID, "REQ-0001")
	require.NoError(t, NewSQLiteRequirementRepo(database).Create(ctx, req))
	v1, err := store.AppendVersion(ctx, req.ID, nil, testutil.NewTestContent("First"))
	require.NoError(t, err)
	clock.Advance(time.Hour)
	v2, err := store.AppendVersion(ctx, req.ID, &v1.ID, testutil.NewTestContent("Second"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		at     time.Time
		wantID string
	}{
		{"at v1 start", t0, v1.ID},
		{"inside v1", t0.Add(30 * time.Minute), v1.ID},
		{"at boundary", t0.Add(time.Hour), v2.ID},
		{"long after", t0.Add(24 * time.Hour), v2.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.AsOf(ctx, req.ID, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}

	_, err = store.AsOf(ctx, req.ID, t0.Add(-time.Nanosecond))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionStore_CurrentByProject(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	store := NewSQLiteVersionStore(database)

	r1, v1 := seedRequirement(t, database, proj.ID, "REQ-0001")
	r2, v2 := seedRequirement(t, database, proj.ID, "REQ-0002")

	current, err := store.CurrentByProject(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, v1.ID, current[r1.ID].ID)
	assert.Equal(t, v2.ID, current[r2.ID].ID)
}

func TestVersionStore_NilTagsStoredEmpty(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	req := testutil.NewTestRequirement(proj.ID, "REQ-0001")
	require.NoError(t, NewSQLiteRequirementRepo(database).Create(ctx, req))
	store := NewSQLiteVersionStore(database)

	content := testutil.NewTestContent("No tags")
	content.Tags = nil
	v, err := store.AppendVersion(ctx, req.ID, nil, content)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}
