package repository

import (
	"context"
	"course_market_backend/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// TotalRevenue 已完成支付的总额
func (r *PaymentRepository) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.DB.WithContext(ctx).Model(&model.Payment{}).
		Where("status = ?", model.PaymentCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
