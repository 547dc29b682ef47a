package service

import (
	"course_market_backend/internal/model"
	"course_market_backend/internal/repository"
	"course_market_backend/internal/testutil"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	mr          *miniredis.Miniredis
	courses     *CourseService
	enrollments *EnrollmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	rdb, mr := testutil.NewTestRedis(t)

	courseRepo := repository.NewCourseRepository(db, rdb, time.Minute)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	return &fixture{
		db:          db,
		mr:          mr,
		courses:     NewCourseService(courseRepo, enrollmentRepo, userRepo, paymentRepo),
		enrollments: NewEnrollmentService(enrollmentRepo, courseRepo),
	}
}

func (f *fixture) caller(t *testing.T, name string, role model.UserRole) *Caller {
	t.Helper()
	u := testutil.CreateUser(t, f.db, name, role)
	return &Caller{ID: u.ID, Name: u.Name, Role: u.Role}
}

func validCourse(title string) *CourseRequest {
	price := 19.99
	return &CourseRequest{
		Title:       title,
		Description: "Learn " + title,
		Price:       &price,
		Duration:    "3h",
		Difficulty:  model.Beginner,
		Category:    "AI",
	}
}

func floatPtr(v float64) *float64 { return &v }
