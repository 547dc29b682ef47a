package model

type UserRole string

const (
	Learner UserRole = "LEARNER"
	Creator UserRole = "CREATOR"
	Admin   UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case Learner, Creator, Admin:
		return true
	}
	return false
}

// swagger:model User
type User struct {
	BaseModel
	Name      string   `gorm:"size:100;not null" json:"name"`
	Email     string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string   `gorm:"size:100;not null" json:"-"`
	Role      UserRole `gorm:"size:20;not null;default:LEARNER" json:"role"`
	Image     string   `gorm:"size:255" json:"image,omitempty"`
	IsBlocked bool     `gorm:"default:false" json:"isBlocked"`
}

func (User) TableName() string {
	return "users"
}
