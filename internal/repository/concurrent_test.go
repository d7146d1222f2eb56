package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alexanderramin/reqtrack/internal/db"
	"github.com/alexanderramin/reqtrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentAccess_ReadDuringWrite verifies that readers see consistent
// requirements (never one without a current version) while a writer is busy.
// SQLite WAL mode allows concurrent readers with a single writer.
func TestConcurrentAccess_ReadDuringWrite(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	reqRepo := NewSQLiteRequirementRepo(database)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 20; i++ {
			if _, _, err := createRequirement(ctx, database, proj.ID, fmt.Sprintf("REQ-%04d", i)); err != nil {
				t.Errorf("writer: create requirement %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				reqs, err := reqRepo.ListByProject(ctx, proj.ID)
				if err != nil {
					t.Errorf("reader %d: list requirements: %v", reader, err)
					return
				}
				for _, req := range reqs {
					if req.CurrentVersionID == nil {
						t.Errorf("reader %d: requirement %s visible without a current version", reader, req.UID)
					}
				}
			}
		}(r)
	}

	wg.Wait()

	reqs, err := reqRepo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 20)
}

// TestConcurrentAccess_AllocateAndInsert_NoDuplicateUID runs allocation and
// insert in one IMMEDIATE transaction per worker; writers queue on the
// database lock so every uid is distinct.
func TestConcurrentAccess_AllocateAndInsert_NoDuplicateUID(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()
	proj := seedProject(t, database)
	uow := db.NewSQLiteUnitOfWork(database)

	const workers = 20
	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
				uid, err := NewSQLiteUIDAllocator(tx).Allocate(ctx, proj.ID)
				if err != nil {
					return err
				}
				return NewSQLiteRequirementRepo(tx).Create(ctx, testutil.NewTestRequirement(proj.ID, uid))
			})
			if err != nil {
				errCh <- err
			}
		}()
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	reqs, err := NewSQLiteRequirementRepo(database).ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		assert.Falsef(t, seen[r.UID], "duplicate uid %s", r.UID)
		seen[r.UID] = true
	}
	assert.Len(t, seen, workers)
	assert.True(t, seen["REQ-0020"])
}
