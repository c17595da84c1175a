package dto

type PreferenceRequest struct {
	PlanType string `json:"planType" binding:"required"`
}

type PlanOfferInfo struct {
	PlanType     string  `json:"planType"`
	Title        string  `json:"title"`
	DurationDays int     `json:"durationDays"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
}

type PaymentInfo struct {
	PaymentID string  `json:"paymentId"`
	PlanType  string  `json:"planType"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	PaidAt    string  `json:"paidAt"`
}
