package service

import (
	"context"
	"course_market_backend/internal/model"
	"course_market_backend/internal/repository"
	"course_market_backend/internal/util"
	"course_market_backend/pkg/logger"
	"course_market_backend/pkg/monitoring"
	"course_market_backend/pkg/tracing"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnrollmentView 报名记录及课程摘要
// swagger:model EnrollmentView
type EnrollmentView struct {
	ID          string               `json:"id"`
	CourseID    string               `json:"courseId"`
	Progress    int                  `json:"progress"`
	EnrolledAt  time.Time            `json:"enrolledAt"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
	Course      *model.CourseSummary `json:"course,omitempty"`
}

// EnrollmentList 学员报名列表及统计
// swagger:model EnrollmentList
type EnrollmentList struct {
	Enrollments []EnrollmentView      `json:"enrollments"`
	Stats       model.EnrollmentStats `json:"stats"`
}

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	now            func() time.Time
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		now:            time.Now,
	}
}

// Enroll 报名已发布课程，重复报名返回已有记录
func (s *EnrollmentService) Enroll(ctx context.Context, caller *Caller, courseID string) (*model.Enrollment, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EnrollmentService.Enroll")
	defer span.End()

	if err := Authorize(caller, ActionEnroll, nil); err != nil {
		return nil, false, err
	}
	if _, err := s.publishedCourse(ctx, courseID); err != nil {
		return nil, false, err
	}

	enrollment, created, err := s.EnrollmentRepo.CreateIfAbsent(ctx, caller.ID, courseID)
	if err != nil {
		return nil, false, util.StorageError("enroll", err)
	}

	if created {
		monitoring.EnrollmentEvents.WithLabelValues("enrolled").Inc()
		logger.Log.Info("User enrolled",
			zap.Uint("userId", caller.ID),
			zap.String("courseId", courseID))
	}
	return enrollment, created, nil
}

// RecordCompletion 标记课程完成。已有报名不受课程上下架影响；
// 未报名时只能对已发布课程隐式创建报名
func (s *EnrollmentService) RecordCompletion(ctx context.Context, caller *Caller, courseID string) (*model.Enrollment, error) {
	ctx, span := tracing.StartSpan(ctx, "EnrollmentService.RecordCompletion")
	defer span.End()

	if err := Authorize(caller, ActionRecordCompletion, nil); err != nil {
		return nil, err
	}
	if err := requireCourseID(courseID); err != nil {
		return nil, err
	}

	existing, err := s.EnrollmentRepo.FindByUserAndCourse(ctx, caller.ID, courseID)
	switch {
	case err == nil:
		if existing.IsCompleted() {
			return existing, nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := s.publishedCourse(ctx, courseID); err != nil {
			return nil, err
		}
	default:
		return nil, util.StorageError("find enrollment", err)
	}

	enrollment, err := s.EnrollmentRepo.MarkCompleted(ctx, caller.ID, courseID, s.now())
	if err != nil {
		return nil, util.StorageError("record completion", err)
	}

	monitoring.EnrollmentEvents.WithLabelValues("completed").Inc()
	logger.Log.Info("Course completed",
		zap.Uint("userId", caller.ID),
		zap.String("courseId", courseID))
	return enrollment, nil
}

// ListEnrollments 调用者自己的报名列表
func (s *EnrollmentService) ListEnrollments(ctx context.Context, caller *Caller) (*EnrollmentList, error) {
	if err := Authorize(caller, ActionListEnrollments, nil); err != nil {
		return nil, err
	}

	enrollments, err := s.EnrollmentRepo.FindByUser(ctx, caller.ID)
	if err != nil {
		return nil, util.StorageError("list enrollments", err)
	}

	views := make([]EnrollmentView, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		views = append(views, EnrollmentView{
			ID:          e.ID,
			CourseID:    e.CourseID,
			Progress:    e.Progress,
			EnrolledAt:  e.EnrolledAt,
			CompletedAt: e.CompletedAt,
			Course:      e.Course.Summary(),
		})
	}

	return &EnrollmentList{
		Enrollments: views,
		Stats:       ComputeStats(enrollments),
	}, nil
}

// ComputeStats 平均进度四舍五入，空列表为 0
func ComputeStats(enrollments []model.Enrollment) model.EnrollmentStats {
	stats := model.EnrollmentStats{Total: len(enrollments)}
	if stats.Total == 0 {
		return stats
	}

	sum := 0
	for _, e := range enrollments {
		sum += e.Progress
		switch {
		case e.IsCompleted():
			stats.Completed++
		case e.Progress > model.ProgressStarted:
			stats.InProgress++
		}
	}
	stats.AverageProgress = int(math.Round(float64(sum) / float64(stats.Total)))
	return stats
}

func requireCourseID(courseID string) error {
	if strings.TrimSpace(courseID) == "" {
		verr := util.NewValidationError()
		verr.Add("courseId", "is required")
		return verr
	}
	return nil
}

func (s *EnrollmentService) publishedCourse(ctx context.Context, courseID string) (*model.Course, error) {
	if err := requireCourseID(courseID); err != nil {
		return nil, err
	}
	course, err := s.CourseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, util.StorageError("find course", err)
	}
	if !course.IsPublished {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}
