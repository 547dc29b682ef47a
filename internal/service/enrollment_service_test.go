package service

import (
	"context"
	"course_market_backend/internal/model"
	"course_market_backend/internal/util"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishedCourse(t *testing.T, f *fixture, title string) *model.Course {
	t.Helper()
	ctx := context.Background()
	owner := f.caller(t, "owner", model.Creator)
	admin := f.caller(t, "admin", model.Admin)
	course, err := f.courses.CreateCourse(ctx, owner, validCourse(title))
	require.NoError(t, err)
	course, err = f.courses.ApproveCourse(ctx, admin, course.ID)
	require.NoError(t, err)
	return course
}

func TestEnrollIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f, "Go")
	learner := f.caller(t, "ada", model.Learner)

	first, created, err := f.enrollments.Enroll(ctx, learner, course.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.ProgressStarted, first.Progress)
	assert.Nil(t, first.CompletedAt)

	second, created, err := f.enrollments.Enroll(ctx, learner, course.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&model.Enrollment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnrollConcurrent(t *testing.T) {
	f := newFixture(t)
	course := publishedCourse(t, f, "Go")
	learner := f.caller(t, "ada", model.Learner)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.enrollments.Enroll(context.Background(), learner, course.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var count int64
	require.NoError(t, f.db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", learner.ID, course.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnrollRejectsUnpublishedOrMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.caller(t, "grace", model.Creator)
	learner := f.caller(t, "ada", model.Learner)

	draft, err := f.courses.CreateCourse(ctx, owner, validCourse("Draft"))
	require.NoError(t, err)

	_, _, err = f.enrollments.Enroll(ctx, learner, draft.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)

	_, _, err = f.enrollments.Enroll(ctx, learner, "missing")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)

	_, _, err = f.enrollments.Enroll(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	_, _, err = f.enrollments.Enroll(ctx, learner, "")
	var verr *util.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.enrollments.RecordCompletion(ctx, learner, draft.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestRecordCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f, "Go")
	learner := f.caller(t, "ada", model.Learner)

	_, _, err := f.enrollments.Enroll(ctx, learner, course.ID)
	require.NoError(t, err)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.enrollments.now = func() time.Time { return first }
	done, err := f.enrollments.RecordCompletion(ctx, learner, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, done.Progress)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(first))

	// 再次完成不修改 completedAt
	f.enrollments.now = func() time.Time { return first.Add(time.Hour) }
	again, err := f.enrollments.RecordCompletion(ctx, learner, course.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, again.ID)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, again.CompletedAt.Equal(first))
}

func TestRecordCompletionAfterCourseHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.caller(t, "grace", model.Creator)
	admin := f.caller(t, "root", model.Admin)
	learner := f.caller(t, "ada", model.Learner)

	course, err := f.courses.CreateCourse(ctx, owner, validCourse("Go"))
	require.NoError(t, err)
	_, err = f.courses.ApproveCourse(ctx, admin, course.ID)
	require.NoError(t, err)
	_, _, err = f.enrollments.Enroll(ctx, learner, course.ID)
	require.NoError(t, err)

	hidden, err := f.courses.ToggleVisibility(ctx, owner, course.ID)
	require.NoError(t, err)
	require.False(t, hidden.IsPublished)

	done, err := f.enrollments.RecordCompletion(ctx, learner, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, done.Progress)
	assert.NotNil(t, done.CompletedAt)

	list, err := f.enrollments.ListEnrollments(ctx, learner)
	require.NoError(t, err)
	require.Len(t, list.Enrollments, 1)
	assert.Equal(t, model.ProgressCompleted, list.Enrollments[0].Progress)
	assert.Equal(t, 1, list.Stats.Completed)

	// 未报名的学员不能借完成接口进入已下架课程
	other := f.caller(t, "linus", model.Learner)
	_, err = f.enrollments.RecordCompletion(ctx, other, course.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestRecordCompletionWithoutEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f, "Go")
	learner := f.caller(t, "ada", model.Learner)

	done, err := f.enrollments.RecordCompletion(ctx, learner, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, done.Progress)
	assert.NotNil(t, done.CompletedAt)

	// 已完成后再报名不会回退进度
	enrollment, created, err := f.enrollments.Enroll(ctx, learner, course.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.ProgressCompleted, enrollment.Progress)
}

func TestListEnrollmentsStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	learner := f.caller(t, "ada", model.Learner)

	empty, err := f.enrollments.ListEnrollments(ctx, learner)
	require.NoError(t, err)
	assert.NotNil(t, empty.Enrollments)
	assert.Equal(t, model.EnrollmentStats{}, empty.Stats)

	a := publishedCourse(t, f, "A")
	b := publishedCourse(t, f, "B")
	_, _, err = f.enrollments.Enroll(ctx, learner, a.ID)
	require.NoError(t, err)
	_, err = f.enrollments.RecordCompletion(ctx, learner, b.ID)
	require.NoError(t, err)

	list, err := f.enrollments.ListEnrollments(ctx, learner)
	require.NoError(t, err)
	require.Len(t, list.Enrollments, 2)
	for _, e := range list.Enrollments {
		require.NotNil(t, e.Course)
		assert.Equal(t, e.CourseID, e.Course.ID)
	}
	assert.Equal(t, model.EnrollmentStats{Total: 2, Completed: 1, InProgress: 0, AverageProgress: 50}, list.Stats)

	_, err = f.enrollments.ListEnrollments(ctx, nil)
	assert.ErrorIs(t, err, util.ErrUnauthorized)
}

func TestComputeStats(t *testing.T) {
	cases := []struct {
		name     string
		progress []int
		want     model.EnrollmentStats
	}{
		{"empty", nil, model.EnrollmentStats{}},
		{"single started", []int{0}, model.EnrollmentStats{Total: 1}},
		{"mixed", []int{0, 50, 100}, model.EnrollmentStats{Total: 3, Completed: 1, InProgress: 1, AverageProgress: 50}},
		{"rounds to nearest", []int{0, 100, 100, 1}, model.EnrollmentStats{Total: 4, Completed: 2, InProgress: 1, AverageProgress: 50}},
		{"rounds up", []int{100, 100, 0}, model.EnrollmentStats{Total: 3, Completed: 2, AverageProgress: 67}},
		{"half rounds up", []int{0, 1}, model.EnrollmentStats{Total: 2, InProgress: 1, AverageProgress: 1}},
		{"rounds down", []int{100, 0, 0}, model.EnrollmentStats{Total: 3, Completed: 1, AverageProgress: 33}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enrollments := make([]model.Enrollment, 0, len(tc.progress))
			for _, p := range tc.progress {
				enrollments = append(enrollments, model.Enrollment{Progress: p})
			}
			assert.Equal(t, tc.want, ComputeStats(enrollments))
		})
	}
}
