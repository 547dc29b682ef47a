package model

import "time"

type Difficulty string

const (
	Beginner     Difficulty = "BEGINNER"
	Intermediate Difficulty = "INTERMEDIATE"
	Advanced     Difficulty = "ADVANCED"
)

func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Course 课程。新建时始终为草稿，由管理员审核后发布
// swagger:model Course
type Course struct {
	UUIDBase
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Price       float64    `gorm:"not null;default:0" json:"price"`
	Image       string     `gorm:"size:512" json:"image,omitempty"`
	IntroVideo  string     `gorm:"size:512" json:"introVideo,omitempty"`
	Duration    string     `gorm:"size:50;not null" json:"duration"`
	Difficulty  Difficulty `gorm:"size:20;not null;index" json:"difficulty"`
	Category    string     `gorm:"size:100;not null;index" json:"category"`
	Instructor  string     `gorm:"size:100" json:"instructor"`
	CreatorID   uint       `gorm:"not null;index" json:"creatorId"`
	Creator     *User      `gorm:"foreignKey:CreatorID;constraint:OnDelete:RESTRICT" json:"-"`
	IsPublished bool       `gorm:"not null;default:false;index" json:"isPublished"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	Lessons     []Lesson   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseSummary 报名列表中附带的课程摘要
type CourseSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Price       float64    `json:"price"`
	Image       string     `json:"image,omitempty"`
	IntroVideo  string     `json:"introVideo,omitempty"`
	Instructor  string     `json:"instructor"`
	CreatorID   uint       `json:"creatorId"`
}

func (c *Course) Summary() *CourseSummary {
	if c == nil {
		return nil
	}
	return &CourseSummary{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Difficulty:  c.Difficulty,
		Price:       c.Price,
		Image:       c.Image,
		IntroVideo:  c.IntroVideo,
		Instructor:  c.Instructor,
		CreatorID:   c.CreatorID,
	}
}

// CourseFilter 公开课程目录的筛选条件
type CourseFilter struct {
	Category   string     `form:"category"`
	Difficulty Difficulty `form:"difficulty"`
	MinPrice   *float64   `form:"minPrice"`
	MaxPrice   *float64   `form:"maxPrice"`
	Search     string     `form:"search"`
}

func (f CourseFilter) IsZero() bool {
	return f.Category == "" && f.Difficulty == "" && f.MinPrice == nil && f.MaxPrice == nil && f.Search == ""
}
