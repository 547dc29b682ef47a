package repository

import (
	"context"
	"course_market_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

var enrollmentPair = []clause.Column{{Name: "user_id"}, {Name: "course_id"}}

func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID uint, courseID string) (*model.Enrollment, error) {
	return findEnrollment(r.DB.WithContext(ctx), userID, courseID)
}

// CreateIfAbsent 依赖 (user_id, course_id) 唯一索引，并发调用只会产生一条记录。
// 返回的报名记录始终是库中实际存在的那一条。
func (r *EnrollmentRepository) CreateIfAbsent(ctx context.Context, userID uint, courseID string) (*model.Enrollment, bool, error) {
	db := r.DB.WithContext(ctx)
	enrollment := &model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Progress:   model.ProgressStarted,
		EnrolledAt: time.Now(),
	}

	res := db.Clauses(clause.OnConflict{Columns: enrollmentPair, DoNothing: true}).Create(enrollment)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return enrollment, true, nil
	}

	existing, err := findEnrollment(db, userID, courseID)
	return existing, false, err
}

// MarkCompleted 将报名标记为完成，不存在时直接以 100 创建。
// completed_at 只写入一次。
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, userID uint, courseID string, now time.Time) (*model.Enrollment, error) {
	var result *model.Enrollment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completed := &model.Enrollment{
			UserID:      userID,
			CourseID:    courseID,
			Progress:    model.ProgressCompleted,
			EnrolledAt:  now,
			CompletedAt: &now,
		}
		res := tx.Clauses(clause.OnConflict{Columns: enrollmentPair, DoNothing: true}).Create(completed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			result = completed
			return nil
		}

		existing, err := findEnrollment(tx, userID, courseID)
		if err != nil {
			return err
		}
		if existing.IsCompleted() {
			result = existing
			return nil
		}

		err = tx.Model(&model.Enrollment{}).
			Where("user_id = ? AND course_id = ? AND progress < ?", userID, courseID, model.ProgressCompleted).
			Updates(map[string]interface{}{
				"progress":     model.ProgressCompleted,
				"completed_at": now,
				"updated_at":   now,
			}).Error
		if err != nil {
			return err
		}

		result, err = findEnrollment(tx, userID, courseID)
		return err
	})
	return result, err
}

// FindByUser 学员的全部报名，附带课程信息
func (r *EnrollmentRepository) FindByUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at desc").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}

func (r *EnrollmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).Count(&n).Error
	return n, err
}

func findEnrollment(db *gorm.DB, userID uint, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}
