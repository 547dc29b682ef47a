package repository

import (
	"context"
	"course_market_backend/internal/model"
	"course_market_backend/pkg/logger"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PublishedCatalogKey 未筛选的公开课程目录缓存
const PublishedCatalogKey = "courses:published"

// catalogVersionKey 每次失效时递增，写缓存前比对，避免旧快照覆盖失效
const catalogVersionKey = PublishedCatalogKey + ":version"

var errStaleCatalog = errors.New("catalog changed while loading")

type CourseRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	TTL   time.Duration
}

func NewCourseRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *CourseRepository {
	return &CourseRepository{DB: db, Redis: rdb, TTL: ttl}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Create(course).Error
}

// UpdateContent 只更新可编辑字段，不触碰发布状态和归属
func (r *CourseRepository) UpdateContent(ctx context.Context, course *model.Course) error {
	err := r.DB.WithContext(ctx).Model(&model.Course{}).
		Where("id = ?", course.ID).
		Updates(map[string]interface{}{
			"title":       course.Title,
			"description": course.Description,
			"price":       course.Price,
			"image":       course.Image,
			"intro_video": course.IntroVideo,
			"duration":    course.Duration,
			"difficulty":  course.Difficulty,
			"category":    course.Category,
			"updated_at":  time.Now(),
		}).Error
	if err == nil && course.IsPublished {
		r.InvalidatePublished(ctx)
	}
	return err
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&course).Error
	return &course, err
}

// FindByCreator 创作者自己的课程，按创建时间倒序
func (r *CourseRepository) FindByCreator(ctx context.Context, creatorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.WithContext(ctx).Where("creator_id = ?", creatorID).Order("created_at desc").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindUnpublished(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.WithContext(ctx).Where("is_published = ?", false).Order("created_at desc").Find(&courses).Error
	return courses, err
}

// FindPublished 公开目录，无筛选条件时走 Redis 缓存
func (r *CourseRepository) FindPublished(ctx context.Context, filter model.CourseFilter) ([]model.Course, error) {
	var version int64
	if filter.IsZero() {
		if courses, ok := r.cachedPublished(ctx); ok {
			return courses, nil
		}
		version = r.catalogVersion(ctx)
	}

	db := r.DB.WithContext(ctx).Where("is_published = ?", true)
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		db = db.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.MinPrice != nil {
		db = db.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		db = db.Where("price <= ?", *filter.MaxPrice)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		db = db.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(instructor) LIKE ?)", term, term, term)
	}

	var courses []model.Course
	if err := db.Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, err
	}

	if filter.IsZero() {
		r.cachePublished(ctx, courses, version)
	}
	return courses, nil
}

// SetPublished 返回受影响行数，0 表示课程不存在
func (r *CourseRepository) SetPublished(ctx context.Context, id string, published bool, approvedAt *time.Time) (int64, error) {
	updates := map[string]interface{}{
		"is_published": published,
		"updated_at":   time.Now(),
	}
	if approvedAt != nil {
		updates["approved_at"] = *approvedAt
	}
	res := r.DB.WithContext(ctx).Model(&model.Course{}).Where("id = ?", id).Updates(updates)
	if res.Error == nil && res.RowsAffected > 0 {
		r.InvalidatePublished(ctx)
	}
	return res.RowsAffected, res.Error
}

// DeleteCascade 在同一事务中删除课程及其报名、课时进度
func (r *CourseRepository) DeleteCascade(ctx context.Context, id string) (int64, error) {
	var affected int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollmentIDs := tx.Model(&model.Enrollment{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("enrollment_id IN (?)", enrollmentIDs).Delete(&model.LessonProgress{}).Error; err != nil {
			return err
		}
		lessonIDs := tx.Model(&model.Lesson{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&model.LessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Payment{}).Where("course_id = ?", id).Update("course_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Course{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err == nil && affected > 0 {
		r.InvalidatePublished(ctx)
	}
	return affected, err
}

// CountByPublished 返回 (已发布, 草稿)
func (r *CourseRepository) CountByPublished(ctx context.Context) (int64, int64, error) {
	var rows []struct {
		IsPublished bool
		Total       int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Course{}).
		Select("is_published, COUNT(*) AS total").
		Group("is_published").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	var published, draft int64
	for _, row := range rows {
		if row.IsPublished {
			published = row.Total
		} else {
			draft = row.Total
		}
	}
	return published, draft, nil
}

func (r *CourseRepository) InvalidatePublished(ctx context.Context) {
	if r.Redis == nil {
		return
	}
	if err := r.Redis.Incr(ctx, catalogVersionKey).Err(); err != nil {
		logger.Log.Warn("Failed to bump course catalog version", zap.Error(err))
	}
	if err := r.Redis.Del(ctx, PublishedCatalogKey).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate course catalog cache", zap.Error(err))
	}
}

func (r *CourseRepository) catalogVersion(ctx context.Context) int64 {
	if r.Redis == nil {
		return 0
	}
	version, err := r.Redis.Get(ctx, catalogVersionKey).Int64()
	if err != nil && err != redis.Nil {
		logger.Log.Warn("Course catalog version read failed", zap.Error(err))
	}
	return version
}

func (r *CourseRepository) cachedPublished(ctx context.Context) ([]model.Course, bool) {
	if r.Redis == nil {
		return nil, false
	}
	raw, err := r.Redis.Get(ctx, PublishedCatalogKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("Course catalog cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var courses []model.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, false
	}
	return courses, true
}

// cachePublished 仅当加载期间版本未变时写入
func (r *CourseRepository) cachePublished(ctx context.Context, courses []model.Course, version int64) {
	if r.Redis == nil {
		return
	}
	raw, err := json.Marshal(courses)
	if err != nil {
		return
	}

	err = r.Redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, catalogVersionKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return errStaleCatalog
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, PublishedCatalogKey, raw, r.TTL)
			return nil
		})
		return err
	}, catalogVersionKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleCatalog), errors.Is(err, redis.TxFailedErr):
		logger.Log.Debug("Skipped stale course catalog snapshot", zap.Int64("version", version))
	default:
		logger.Log.Warn("Course catalog cache write failed", zap.Error(err))
	}
}
