package repository

import (
	"gorm.io/gorm"

	"github.com/nexoraai/nexora_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) ExistsByPaymentID(paymentID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Payment{}).Where("payment_id = ?", paymentID).Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepository) ListByUser(userID string) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}
