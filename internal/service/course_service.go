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
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CourseRequest 创建/编辑课程的请求体，发布状态不可由客户端设置
// swagger:model CourseRequest
type CourseRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *float64         `json:"price"`
	Image       string           `json:"image"`
	IntroVideo  string           `json:"introVideo"`
	Duration    string           `json:"duration"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Category    string           `json:"category"`
}

// Validate 返回字段级错误
func (r *CourseRequest) Validate() error {
	verr := util.NewValidationError()
	if strings.TrimSpace(r.Title) == "" {
		verr.Add("title", "is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		verr.Add("description", "is required")
	}
	if r.Price == nil {
		verr.Add("price", "is required")
	} else if *r.Price < 0 {
		verr.Add("price", "must be a number >= 0")
	}
	if strings.TrimSpace(r.Duration) == "" {
		verr.Add("duration", "is required")
	}
	if r.Difficulty == "" {
		verr.Add("difficulty", "is required")
	} else if !r.Difficulty.Valid() {
		verr.Add("difficulty", "must be one of BEGINNER, INTERMEDIATE, ADVANCED")
	}
	if strings.TrimSpace(r.Category) == "" {
		verr.Add("category", "is required")
	}
	return verr.OrNil()
}

func (r *CourseRequest) apply(course *model.Course) {
	course.Title = strings.TrimSpace(r.Title)
	course.Description = strings.TrimSpace(r.Description)
	course.Price = *r.Price
	course.Image = strings.TrimSpace(r.Image)
	course.IntroVideo = strings.TrimSpace(r.IntroVideo)
	course.Duration = strings.TrimSpace(r.Duration)
	course.Difficulty = r.Difficulty
	course.Category = strings.TrimSpace(r.Category)
}

type CourseService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	UserRepo       *repository.UserRepository
	PaymentRepo    *repository.PaymentRepository
	now            func() time.Time
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		UserRepo:       userRepo,
		PaymentRepo:    paymentRepo,
		now:            time.Now,
	}
}

// CreateCourse 创作者新建课程，始终为草稿
func (s *CourseService) CreateCourse(ctx context.Context, caller *Caller, req *CourseRequest) (*model.Course, error) {
	ctx, span := tracing.StartSpan(ctx, "CourseService.CreateCourse")
	defer span.End()

	if err := Authorize(caller, ActionCreateCourse, nil); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	course := &model.Course{
		CreatorID:   caller.ID,
		Instructor:  caller.Name,
		IsPublished: false,
	}
	req.apply(course)

	if err := s.CourseRepo.Create(ctx, course); err != nil {
		return nil, util.StorageError("create course", err)
	}

	monitoring.CourseEvents.WithLabelValues("created").Inc()
	logger.Log.Info("Course created",
		zap.String("courseId", course.ID),
		zap.Uint("creatorId", caller.ID),
		zap.String("title", course.Title))
	return course, nil
}

// UpdateCourse 编辑课程内容，不改变发布状态与归属
func (s *CourseService) UpdateCourse(ctx context.Context, caller *Caller, id string, req *CourseRequest) (*model.Course, error) {
	ctx, span := tracing.StartSpan(ctx, "CourseService.UpdateCourse")
	defer span.End()

	if caller == nil {
		return nil, util.ErrUnauthorized
	}
	course, err := s.findCourse(ctx, id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) && !caller.IsAdmin() {
			return nil, util.ErrForbidden
		}
		return nil, err
	}
	if err := Authorize(caller, ActionUpdateCourse, course); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	req.apply(course)
	if err := s.CourseRepo.UpdateContent(ctx, course); err != nil {
		return nil, util.StorageError("update course", err)
	}

	monitoring.CourseEvents.WithLabelValues("updated").Inc()
	logger.Log.Info("Course updated", zap.String("courseId", course.ID), zap.Uint("userId", caller.ID))
	return course, nil
}

// ListCoursesForCreator 创作者自己的全部课程
func (s *CourseService) ListCoursesForCreator(ctx context.Context, caller *Caller) ([]model.Course, error) {
	if err := Authorize(caller, ActionListOwnCourses, nil); err != nil {
		return nil, err
	}
	courses, err := s.CourseRepo.FindByCreator(ctx, caller.ID)
	if err != nil {
		return nil, util.StorageError("list creator courses", err)
	}
	return nonNil(courses), nil
}

// ListPublishedCourses 公开目录
func (s *CourseService) ListPublishedCourses(ctx context.Context, filter model.CourseFilter) ([]model.Course, error) {
	ctx, span := tracing.StartSpan(ctx, "CourseService.ListPublishedCourses")
	defer span.End()

	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	courses, err := s.CourseRepo.FindPublished(ctx, filter)
	if err != nil {
		return nil, util.StorageError("list published courses", err)
	}
	return nonNil(courses), nil
}

// GetCourse 已发布课程公开可见；草稿只对创作者本人和管理员可见，其余一律 404
func (s *CourseService) GetCourse(ctx context.Context, caller *Caller, id string) (*model.Course, error) {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, ActionViewCourse, course); err != nil {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}

// ListUnpublishedCourses 待审核课程
func (s *CourseService) ListUnpublishedCourses(ctx context.Context, caller *Caller) ([]model.Course, error) {
	if err := Authorize(caller, ActionListUnpublished, nil); err != nil {
		return nil, err
	}
	courses, err := s.CourseRepo.FindUnpublished(ctx)
	if err != nil {
		return nil, util.StorageError("list unpublished courses", err)
	}
	return nonNil(courses), nil
}

// ApproveCourse 管理员审核通过并发布，首次审核时记录 approvedAt
func (s *CourseService) ApproveCourse(ctx context.Context, caller *Caller, id string) (*model.Course, error) {
	ctx, span := tracing.StartSpan(ctx, "CourseService.ApproveCourse")
	defer span.End()

	if err := Authorize(caller, ActionApproveCourse, nil); err != nil {
		return nil, err
	}
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.setPublished(ctx, course, true); err != nil {
		return nil, err
	}

	monitoring.CourseEvents.WithLabelValues("approved").Inc()
	logger.Log.Info("Course approved", zap.String("courseId", course.ID), zap.Uint("adminId", caller.ID))
	return course, nil
}

// DeleteCourse 管理员或课程创作者删除课程，报名记录在同一事务中删除。
// 创作者访问不存在或他人的课程统一返回 403，不泄露课程是否存在。
func (s *CourseService) DeleteCourse(ctx context.Context, caller *Caller, id string) error {
	ctx, span := tracing.StartSpan(ctx, "CourseService.DeleteCourse")
	defer span.End()

	if caller == nil {
		return util.ErrUnauthorized
	}
	course, err := s.findCourse(ctx, id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) && !caller.IsAdmin() {
			return util.ErrForbidden
		}
		return err
	}
	if err := Authorize(caller, ActionDeleteCourse, course); err != nil {
		return err
	}

	affected, err := s.CourseRepo.DeleteCascade(ctx, course.ID)
	if err != nil {
		return util.StorageError("delete course", err)
	}
	if affected == 0 {
		return util.ErrCourseNotFound
	}

	monitoring.CourseEvents.WithLabelValues("deleted").Inc()
	logger.Log.Info("Course deleted",
		zap.String("courseId", course.ID),
		zap.Uint("userId", caller.ID),
		zap.String("role", string(caller.Role)))
	return nil
}

// ToggleVisibility 切换发布状态。下架无需审核；
// 创作者只能重新发布审核过的课程，管理员可直接发布。
func (s *CourseService) ToggleVisibility(ctx context.Context, caller *Caller, id string) (*model.Course, error) {
	ctx, span := tracing.StartSpan(ctx, "CourseService.ToggleVisibility")
	defer span.End()

	if caller == nil {
		return nil, util.ErrUnauthorized
	}
	course, err := s.findCourse(ctx, id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) && !caller.IsAdmin() {
			return nil, util.ErrForbidden
		}
		return nil, err
	}
	if err := Authorize(caller, ActionToggleVisibility, course); err != nil {
		return nil, err
	}

	publish := !course.IsPublished
	if publish && !caller.IsAdmin() && course.ApprovedAt == nil {
		return nil, util.ErrForbidden
	}

	if err := s.setPublished(ctx, course, publish); err != nil {
		return nil, err
	}

	event := "unpublished"
	if publish {
		event = "published"
	}
	monitoring.CourseEvents.WithLabelValues(event).Inc()
	logger.Log.Info("Course visibility toggled",
		zap.String("courseId", course.ID),
		zap.Bool("isPublished", publish),
		zap.Uint("userId", caller.ID))
	return course, nil
}

// AdminStats 平台概览
func (s *CourseService) AdminStats(ctx context.Context, caller *Caller) (*model.AdminStats, error) {
	if err := Authorize(caller, ActionViewStats, nil); err != nil {
		return nil, err
	}

	stats := &model.AdminStats{}
	var err error
	if stats.TotalUsers, err = s.UserRepo.Count(ctx); err != nil {
		return nil, util.StorageError("count users", err)
	}
	if stats.PublishedCourses, stats.DraftCourses, err = s.CourseRepo.CountByPublished(ctx); err != nil {
		return nil, util.StorageError("count courses", err)
	}
	stats.TotalCourses = stats.PublishedCourses + stats.DraftCourses
	if stats.TotalEnrollments, err = s.EnrollmentRepo.Count(ctx); err != nil {
		return nil, util.StorageError("count enrollments", err)
	}
	if stats.TotalRevenue, err = s.PaymentRepo.TotalRevenue(ctx); err != nil {
		return nil, util.StorageError("sum revenue", err)
	}
	return stats, nil
}

func (s *CourseService) findCourse(ctx context.Context, id string) (*model.Course, error) {
	if strings.TrimSpace(id) == "" {
		return nil, util.ErrCourseNotFound
	}
	course, err := s.CourseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, util.StorageError("find course", err)
	}
	return course, nil
}

// setPublished 写库并同步内存中的课程对象；发布时补记 approvedAt
func (s *CourseService) setPublished(ctx context.Context, course *model.Course, publish bool) error {
	var approvedAt *time.Time
	if publish && course.ApprovedAt == nil {
		now := s.now()
		approvedAt = &now
	}

	affected, err := s.CourseRepo.SetPublished(ctx, course.ID, publish, approvedAt)
	if err != nil {
		return util.StorageError("update course visibility", err)
	}
	if affected == 0 {
		return util.ErrCourseNotFound
	}

	course.IsPublished = publish
	if approvedAt != nil {
		course.ApprovedAt = approvedAt
	}
	return nil
}

func validateFilter(filter model.CourseFilter) error {
	verr := util.NewValidationError()
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		verr.Add("difficulty", "must be one of BEGINNER, INTERMEDIATE, ADVANCED")
	}
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		verr.Add("minPrice", "must be >= 0")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MaxPrice < *filter.MinPrice {
		verr.Add("maxPrice", "must be >= minPrice")
	}
	return verr.OrNil()
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
