package store_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/library-server/internal/store"
)

type TestEntity struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Tags  []string `json:"tags"`
}

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "entity-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func TestEntity_Create_Success(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	testData := &TestEntity{
		ID:    "1",
		Name:  "John Doe",
		Email: "john@example.com",
	}

	err := entity.Create(context.Background(), "1", testData)
	require.NoError(t, err)

	retrieved, err := entity.Get(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, testData.ID, retrieved.ID)
	require.Equal(t, testData.Name, retrieved.Name)
	require.Equal(t, testData.Email, retrieved.Email)
}

func TestEntity_Create_AlreadyExists(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")
	testData := &TestEntity{ID: "1", Name: "John Doe"}

	require.NoError(t, entity.Create(context.Background(), "1", testData))

	err := entity.Create(context.Background(), "1", testData)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	_, err := entity.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Update_Success(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("email", func(e *TestEntity) []string { return []string{e.Email} }, nil)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &TestEntity{ID: "1", Name: "John", Email: "john@example.com"}))
	require.NoError(t, entity.Update(ctx, "1", &TestEntity{ID: "1", Name: "John", Email: "johnny@example.com"}))

	_, err := entity.GetByIndex(ctx, "email", "john@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	retrieved, err := entity.GetByIndex(ctx, "email", "johnny@example.com")
	require.NoError(t, err)
	require.Equal(t, "1", retrieved.ID)
}

func TestEntity_Update_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	err := entity.Update(context.Background(), "missing", &TestEntity{ID: "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Update_IndexConflict(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("email", func(e *TestEntity) []string { return []string{e.Email} }, nil)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &TestEntity{ID: "1", Email: "a@example.com"}))
	require.NoError(t, entity.Create(ctx, "2", &TestEntity{ID: "2", Email: "b@example.com"}))

	err := entity.Update(ctx, "2", &TestEntity{ID: "2", Email: "a@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_ContextCancellation(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithMultiIndex("tag", func(e *TestEntity) []string { return e.Tags }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := entity.Create(ctx, "1", &TestEntity{ID: "1"})
	require.ErrorIs(t, err, context.Canceled)

	_, err = entity.Get(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)

	err = entity.Update(ctx, "1", &TestEntity{ID: "1"})
	require.ErrorIs(t, err, context.Canceled)

	_, err = entity.Count(ctx)
	require.ErrorIs(t, err, context.Canceled)

	_, err = entity.CountByIndex(ctx, "tag", "x")
	require.ErrorIs(t, err, context.Canceled)
}

func TestEntity_ContextTimeout(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	err := entity.Create(ctx, "1", &TestEntity{ID: "1"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEntity_WithIndexTransform(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("email",
			func(e *TestEntity) []string { return []string{strings.ToLower(e.Email)} },
			strings.ToLower,
		)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &TestEntity{ID: "1", Email: "John@Example.com"}))

	retrieved, err := entity.GetByIndex(ctx, "email", "JOHN@example.COM")
	require.NoError(t, err)
	require.Equal(t, "1", retrieved.ID)
}

func TestEntity_GetByIndex_Unknown(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithMultiIndex("tag", func(e *TestEntity) []string { return e.Tags }, nil)

	_, err := entity.GetByIndex(context.Background(), "tag", "x")
	require.Error(t, err)

	_, err = entity.GetByIndex(context.Background(), "nope", "x")
	require.Error(t, err)
}

func TestEntity_IndexConflict(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("email", func(e *TestEntity) []string { return []string{e.Email} }, nil)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &TestEntity{ID: "1", Email: "same@example.com"}))

	err := entity.Create(ctx, "2", &TestEntity{ID: "2", Email: "same@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = entity.Get(ctx, "2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_MultiIndex(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithMultiIndex("tag", func(e *TestEntity) []string { return e.Tags }, strings.ToLower)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &TestEntity{ID: "1", Tags: []string{"go", "db"}}))
	require.NoError(t, entity.Create(ctx, "2", &TestEntity{ID: "2", Tags: []string{"go"}}))
	require.NoError(t, entity.Create(ctx, "3", &TestEntity{ID: "3", Tags: []string{"rust"}}))

	var ids []string
	for e, err := range entity.ListByIndex(ctx, "tag", "GO") {
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{"1", "2"}, ids)

	n, err := entity.CountByIndex(ctx, "tag", "db")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Retagging moves the entity between index buckets.
	require.NoError(t, entity.Update(ctx, "2", &TestEntity{ID: "2", Tags: []string{"rust"}}))

	n, err = entity.CountByIndex(ctx, "tag", "go")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = entity.CountByIndex(ctx, "tag", "rust")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEntity_Count_SkipsIndexKeys(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("email", func(e *TestEntity) []string { return []string{e.Email} }, nil).
		WithMultiIndex("tag", func(e *TestEntity) []string { return e.Tags }, nil)
	ctx := context.Background()

	for i := range 5 {
		id := fmt.Sprintf("%d", i)
		require.NoError(t, entity.Create(ctx, id, &TestEntity{
			ID:    id,
			Email: id + "@example.com",
			Tags:  []string{"a", "b"},
		}))
	}

	n, err := entity.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestEntity_List(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("email", func(e *TestEntity) []string { return []string{e.Email} }, nil)
	ctx := context.Background()

	for i := range 5 {
		id := fmt.Sprintf("%d", i)
		require.NoError(t, entity.Create(ctx, id, &TestEntity{ID: id, Email: id + "@example.com"}))
	}

	count := 0
	for retrieved, err := range entity.List(ctx) {
		require.NoError(t, err)
		require.NotNil(t, retrieved)
		count++
	}
	require.Equal(t, 5, count)
}

func TestEntity_List_EarlyTermination(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")
	ctx := context.Background()

	for i := range 10 {
		id := fmt.Sprintf("%d", i)
		require.NoError(t, entity.Create(ctx, id, &TestEntity{ID: id}))
	}

	count := 0
	for _, err := range entity.List(ctx) {
		require.NoError(t, err)
		count++
		if count == 3 {
			break
		}
	}
	require.Equal(t, 3, count)
}
