package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/nexoraai/nexora_server/internal/model"
)

// ErrDuplicatePayment is returned when a payment id was already materialized.
var ErrDuplicatePayment = errors.New("payment already processed")

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(plan *model.Plan) error {
	return r.db.Create(plan).Error
}

// LatestByUser returns the governing row, or gorm.ErrRecordNotFound.
func (r *PlanRepository) LatestByUser(userID string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) MarkExpired(id int64) error {
	return r.db.Model(&model.Plan{}).Where("id = ?", id).
		Update("status", model.PlanStatusExpired).Error
}

// ListActive returns rows still stored as trial or pro.
func (r *PlanRepository) ListActive(limit int) ([]*model.Plan, error) {
	var plans []*model.Plan
	q := r.db.Where("status IN ?", []string{model.PlanStatusTrial, model.PlanStatusPro}).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&plans).Error
	return plans, err
}

// ActivateWithPayment records the payment and inserts the pro row in one
// transaction. A payment id seen before yields ErrDuplicatePayment.
func (r *PlanRepository) ActivateWithPayment(plan *model.Plan, payment *model.Payment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Payment{}).Where("payment_id = ?", payment.PaymentID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicatePayment
		}

		if err := tx.Create(payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePayment
			}
			return err
		}
		return tx.Create(plan).Error
	})
}
