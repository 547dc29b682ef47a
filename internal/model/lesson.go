package model

import "time"

// swagger:model Lesson
type Lesson struct {
	UUIDBase
	CourseID    string `gorm:"type:varchar(36);not null;index" json:"courseId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	VideoURL    string `gorm:"size:512" json:"videoUrl,omitempty"`
	Duration    int    `gorm:"default:0" json:"duration"` // 分钟
	Order       int    `gorm:"column:sort_order;default:0" json:"order"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonProgress 单课时进度，核心流程只使用课程级 progress
// swagger:model LessonProgress
type LessonProgress struct {
	UUIDBase
	UserID       uint        `gorm:"not null;index" json:"userId"`
	LessonID     string      `gorm:"type:varchar(36);not null;index" json:"lessonId"`
	EnrollmentID string      `gorm:"type:varchar(36);not null;index" json:"enrollmentId"`
	IsCompleted  bool        `gorm:"default:false" json:"isCompleted"`
	CompletedAt  *time.Time  `json:"completedAt,omitempty"`
	Lesson       *Lesson     `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollment   *Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (LessonProgress) TableName() string {
	return "progress"
}
