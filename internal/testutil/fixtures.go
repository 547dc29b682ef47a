package testutil

import (
	"course_market_backend/internal/model"
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"
)

var userSeq int64

func CreateUser(t testing.TB, db *gorm.DB, name string, role model.UserRole) *model.User {
	t.Helper()

	n := atomic.AddInt64(&userSeq, 1)
	user := &model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@example.com", name, n),
		Password: "x",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateCourse(t testing.TB, db *gorm.DB, creator *model.User, title string, published bool) *model.Course {
	t.Helper()

	course := &model.Course{
		Title:       title,
		Description: title + " description",
		Price:       10,
		Duration:    "1h",
		Difficulty:  model.Beginner,
		Category:    "AI",
		Instructor:  creator.Name,
		CreatorID:   creator.ID,
		IsPublished: published,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}
