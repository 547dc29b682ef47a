package model

import "time"

const (
	ProgressStarted   = 0
	ProgressCompleted = 100
)

// Enrollment 学员与课程的报名关系，(user_id, course_id) 唯一
// swagger:model Enrollment
type Enrollment struct {
	UUIDBase
	UserID      uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID    string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_user_course;index" json:"courseId"`
	Progress    int        `gorm:"not null;default:0" json:"progress"`
	EnrolledAt  time.Time  `gorm:"not null" json:"enrolledAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Course      *Course    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) IsCompleted() bool {
	return e.Progress >= ProgressCompleted
}

// EnrollmentStats 学员仪表盘聚合数据
type EnrollmentStats struct {
	Total           int `json:"total"`
	Completed       int `json:"completed"`
	InProgress      int `json:"inProgress"`
	AverageProgress int `json:"averageProgress"`
}
