package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mediacatalog/database"
	"mediacatalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) (*MediaRepository, func()) {
	// Create a temporary test database
	testDB, err := database.NewDB("sqlite3", ":memory:", database.Options{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Initialize schema
	if err := testDB.InitSchema(context.Background()); err != nil {
		t.Fatalf("Failed to initialize test schema: %v", err)
	}

	repo := NewMediaRepository(testDB)

	// Return cleanup function
	cleanup := func() {
		if err := testDB.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	}

	return repo, cleanup
}

func createTestMediaForRepo(repo *MediaRepository, title string) (*models.MediaRecord, error) {
	rec := &models.MediaRecord{
		Title:       title,
		ReleaseDate: models.NewDate(1984, time.December, 14),
		Genre:       "Sci-Fi",
	}

	err := repo.Create(context.Background(), rec)
	return rec, err
}

func TestMediaRepository_GetAll_Empty(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	records, err := repo.GetAll(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestMediaRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	rec, err := createTestMediaForRepo(repo, "Dune")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)

	got, err := repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, "1984-12-14", got.ReleaseDate.String())
}

func TestMediaRepository_GetAll_OrderedByID(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	for _, title := range []string{"Alien", "Brazil", "Contact"} {
		_, err := createTestMediaForRepo(repo, title)
		require.NoError(t, err)
	}

	records, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Alien", records[0].Title)
	assert.Equal(t, "Contact", records[2].Title)
	assert.Less(t, records[0].ID, records[1].ID)
}

func TestMediaRepository_GetByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "media with id 999 not found")
}

func TestMediaRepository_Update_Success(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	rec, err := createTestMediaForRepo(repo, "Dune")
	require.NoError(t, err)

	rec.Title = "Dune (Director's Cut)"
	rec.ReleaseDate = models.NewDate(2021, time.October, 22)
	rec.Genre = "Science Fiction"
	require.NoError(t, repo.Update(ctx, rec))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestMediaRepository_Update_SameValues(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	rec, err := createTestMediaForRepo(repo, "Dune")
	require.NoError(t, err)

	assert.NoError(t, repo.Update(context.Background(), rec))
}

func TestMediaRepository_Update_NotFoundDoesNotInsert(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	rec := &models.MediaRecord{
		ID:          42,
		Title:       "Ghost",
		ReleaseDate: models.NewDate(1990, time.July, 13),
		Genre:       "Drama",
	}
	err := repo.Update(ctx, rec)
	assert.ErrorIs(t, err, ErrNotFound)

	records, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMediaRepository_Delete_Success(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	// Create a test record
	rec, err := createTestMediaForRepo(repo, "Media to Delete")
	assert.NoError(t, err)
	assert.NotZero(t, rec.ID)

	// Verify record exists
	retrieved, err := repo.GetByID(ctx, rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, rec.Title, retrieved.Title)

	// Delete the record
	err = repo.Delete(ctx, rec.ID)
	assert.NoError(t, err)

	// Verify record no longer exists
	_, err = repo.GetByID(ctx, rec.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMediaRepository_Delete_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	err := repo.Delete(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "media with id 999 not found")
}

func TestMediaRepository_Delete_DoubleDelete(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	rec, err := createTestMediaForRepo(repo, "Double Delete Test")
	require.NoError(t, err)

	assert.NoError(t, repo.Delete(ctx, rec.ID))

	// Try to delete again - should fail
	err = repo.Delete(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMediaRepository_Delete_EdgeCaseIDs(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	edgeCaseIDs := []int64{
		0,
		-1,
		-999999999,
		999999999,
		2147483647,  // max int32
		-2147483648, // min int32
	}

	for _, id := range edgeCaseIDs {
		t.Run(fmt.Sprint(id), func(t *testing.T) {
			err := repo.Delete(context.Background(), id)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMediaRepository_Delete_DatabaseIntegrity(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	rec1, err := createTestMediaForRepo(repo, "Media 1")
	require.NoError(t, err)
	rec2, err := createTestMediaForRepo(repo, "Media 2")
	require.NoError(t, err)
	rec3, err := createTestMediaForRepo(repo, "Media 3")
	require.NoError(t, err)

	// Delete middle record
	require.NoError(t, repo.Delete(ctx, rec2.ID))

	// A new record gets a new id, not the deleted one
	rec4, err := createTestMediaForRepo(repo, "Media 4")
	require.NoError(t, err)
	assert.NotEqual(t, rec2.ID, rec4.ID)

	records, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	assert.Contains(t, ids, rec1.ID)
	assert.NotContains(t, ids, rec2.ID)
	assert.Contains(t, ids, rec3.ID)
	assert.Contains(t, ids, rec4.ID)
}

func TestMediaRepository_Delete_ConcurrentAccess(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	rec, err := createTestMediaForRepo(repo, "Concurrent Access Test")
	require.NoError(t, err)

	// Try to delete the same record from multiple goroutines
	concurrency := 3
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			results <- repo.Delete(context.Background(), rec.ID)
		}()
	}

	successCount := 0
	notFoundCount := 0
	for i := 0; i < concurrency; i++ {
		err := <-results
		if err == nil {
			successCount++
		} else {
			assert.ErrorIs(t, err, ErrNotFound)
			notFoundCount++
		}
	}

	assert.Equal(t, 1, successCount, "Exactly one deletion should succeed")
	assert.Equal(t, concurrency-1, notFoundCount, "The rest should report not found")
}

func TestMediaRepository_ContextCancelled(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetAll(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMediaRepository_StoreFailure(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	cleanup()

	_, err := repo.GetAll(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
