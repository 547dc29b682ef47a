package repository

import (
	"context"
	"course_market_backend/internal/model"
	"course_market_backend/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIfAbsentIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewEnrollmentRepository(db)
	creator := testutil.CreateUser(t, db, "grace", model.Creator)
	learner := testutil.CreateUser(t, db, "ada", model.Learner)
	course := testutil.CreateCourse(t, db, creator, "Go", true)
	ctx := context.Background()

	first, created, err := repo.CreateIfAbsent(ctx, learner.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 0, first.Progress)
	assert.Nil(t, first.CompletedAt)

	second, created, err := repo.CreateIfAbsent(ctx, learner.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	n, err := repo.CountByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCreateIfAbsentConcurrent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewEnrollmentRepository(db)
	creator := testutil.CreateUser(t, db, "grace", model.Creator)
	learner := testutil.CreateUser(t, db, "ada", model.Learner)
	course := testutil.CreateCourse(t, db, creator, "Go", true)

	const workers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, workers)
	ids := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			e, _, err := repo.CreateIfAbsent(context.Background(), learner.ID, course.ID)
			if err != nil {
				errs <- err
				return
			}
			ids <- e.ID
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	close(ids)

	for err := range errs {
		t.Fatalf("concurrent enroll failed: %v", err)
	}

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)

	n, err := repo.CountByCourse(context.Background(), course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMarkCompletedCreatesWhenAbsent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewEnrollmentRepository(db)
	creator := testutil.CreateUser(t, db, "grace", model.Creator)
	learner := testutil.CreateUser(t, db, "ada", model.Learner)
	course := testutil.CreateCourse(t, db, creator, "Go", true)
	now := time.Now()

	e, err := repo.MarkCompleted(context.Background(), learner.ID, course.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 100, e.Progress)
	require.NotNil(t, e.CompletedAt)

	stored, err := repo.FindByUserAndCourse(context.Background(), learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, stored.ID)
	assert.Equal(t, 100, stored.Progress)
}

func TestMarkCompletedIsSetOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewEnrollmentRepository(db)
	creator := testutil.CreateUser(t, db, "grace", model.Creator)
	learner := testutil.CreateUser(t, db, "ada", model.Learner)
	course := testutil.CreateCourse(t, db, creator, "Go", true)
	ctx := context.Background()

	enrolled, _, err := repo.CreateIfAbsent(ctx, learner.ID, course.ID)
	require.NoError(t, err)

	firstAt := time.Now().Add(-time.Hour).Truncate(time.Second)
	first, err := repo.MarkCompleted(ctx, learner.ID, course.ID, firstAt)
	require.NoError(t, err)
	assert.Equal(t, enrolled.ID, first.ID)
	assert.Equal(t, 100, first.Progress)
	require.NotNil(t, first.CompletedAt)

	second, err := repo.MarkCompleted(ctx, learner.ID, course.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
}

func TestFindByUserPreloadsCourse(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewEnrollmentRepository(db)
	creator := testutil.CreateUser(t, db, "grace", model.Creator)
	learner := testutil.CreateUser(t, db, "ada", model.Learner)
	other := testutil.CreateUser(t, db, "bob", model.Learner)
	course := testutil.CreateCourse(t, db, creator, "Go", true)
	ctx := context.Background()

	_, _, err := repo.CreateIfAbsent(ctx, learner.ID, course.ID)
	require.NoError(t, err)
	_, _, err = repo.CreateIfAbsent(ctx, other.ID, course.ID)
	require.NoError(t, err)

	list, err := repo.FindByUser(ctx, learner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Course)
	assert.Equal(t, "Go", list[0].Course.Title)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
