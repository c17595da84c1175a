package model

import "time"

const PaymentStatusApproved = "approved"

// Payment records a processed Mercado Pago payment so webhook redelivery is a no-op.
type Payment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	PaymentID string    `gorm:"size:64;uniqueIndex;not null" json:"payment_id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	PlanType  string    `gorm:"size:32" json:"plan_type"`
	Status    string    `gorm:"size:20" json:"status"`
	Amount    float64   `gorm:"type:decimal(10,2)" json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
