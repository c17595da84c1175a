// Package billing talks to Mercado Pago checkout.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/nexoraai/nexora_server/config"
)

var ErrInvalidReference = errors.New("invalid external reference")

type PreferenceInput struct {
	UserID   string
	PlanType string
	Email    string
	Title    string
	Price    float64
	Currency string
}

type Preference struct {
	ID        string
	InitPoint string
}

type PaymentDetail struct {
	ID                string
	Status            string
	ExternalReference string
	Amount            float64
	PayerEmail        string
	Metadata          map[string]interface{}
}

// Gateway is the checkout provider used by the checkout service.
type Gateway interface {
	CreatePreference(ctx context.Context, in PreferenceInput) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentDetail, error)
}

type MercadoPago struct {
	preferences preference.Client
	payments    payment.Client
	urls        config.CheckoutConfig
}

func NewMercadoPago(cfg config.CheckoutConfig) (*MercadoPago, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("mercado pago access token not configured")
	}
	mpCfg, err := mpconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercado pago config: %w", err)
	}
	return &MercadoPago{
		preferences: preference.NewClient(mpCfg),
		payments:    payment.NewClient(mpCfg),
		urls:        cfg,
	}, nil
}

func (m *MercadoPago) CreatePreference(ctx context.Context, in PreferenceInput) (*Preference, error) {
	req := preference.Request{
		Items: []preference.ItemRequest{{
			ID:         in.PlanType,
			Title:      in.Title,
			Quantity:   1,
			UnitPrice:  in.Price,
			CurrencyID: in.Currency,
		}},
		ExternalReference: ExternalReference(in.UserID, in.PlanType),
		NotificationURL:   m.urls.NotificationURL,
		Metadata: map[string]any{
			"user_id":   in.UserID,
			"plan_type": in.PlanType,
		},
	}
	if in.Email != "" {
		req.Metadata["email"] = in.Email
	}
	if m.urls.SuccessURL != "" {
		req.BackURLs = &preference.BackURLsRequest{
			Success: m.urls.SuccessURL,
			Pending: m.urls.PendingURL,
			Failure: m.urls.FailureURL,
		}
		req.AutoReturn = "approved"
	}

	resp, err := m.preferences.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	return &Preference{ID: resp.ID, InitPoint: resp.InitPoint}, nil
}

func (m *MercadoPago) GetPayment(ctx context.Context, paymentID string) (*PaymentDetail, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment id %q is not numeric", paymentID)
	}

	resp, err := m.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	return &PaymentDetail{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
		Amount:            resp.TransactionAmount,
		PayerEmail:        resp.Payer.Email,
		Metadata:          resp.Metadata,
	}, nil
}

// ReceiptEmail is the account e-mail stored at checkout, else the payer's.
func (p *PaymentDetail) ReceiptEmail() string {
	if email, ok := p.Metadata["email"].(string); ok && email != "" {
		return email
	}
	return p.PayerEmail
}

// ExternalReference encodes the buyer and plan as "userID:planType".
func ExternalReference(userID, planType string) string {
	return userID + ":" + planType
}

// ParseReference recovers user id and plan type from a payment, preferring
// the external reference and falling back to metadata.
func ParseReference(p *PaymentDetail) (userID, planType string, err error) {
	if parts := strings.SplitN(p.ExternalReference, ":", 2); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], parts[1], nil
	}

	userID, _ = p.Metadata["user_id"].(string)
	planType, _ = p.Metadata["plan_type"].(string)
	if userID == "" || planType == "" {
		return "", "", ErrInvalidReference
	}
	return userID, planType, nil
}
