package model

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// swagger:model Payment
type Payment struct {
	UUIDBase
	UserID        uint          `gorm:"not null;index" json:"userId"`
	CourseID      *string       `gorm:"type:varchar(36);index" json:"courseId,omitempty"`
	EnrollmentID  *string       `gorm:"type:varchar(36);index" json:"enrollmentId,omitempty"`
	Amount        float64       `gorm:"not null" json:"amount"`
	Currency      string        `gorm:"size:10;default:USD" json:"currency"`
	Status        PaymentStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	PaymentMethod string        `gorm:"size:50" json:"paymentMethod"`
	TransactionID string        `gorm:"size:100" json:"transactionId,omitempty"`
	Course        *Course       `gorm:"foreignKey:CourseID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// AdminStats 管理后台统计
type AdminStats struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalCourses     int64   `json:"totalCourses"`
	PublishedCourses int64   `json:"publishedCourses"`
	DraftCourses     int64   `json:"draftCourses"`
	TotalEnrollments int64   `json:"totalEnrollments"`
	TotalRevenue     float64 `json:"totalRevenue"`
}
