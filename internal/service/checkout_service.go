package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/billing"
	"github.com/nexoraai/nexora_server/internal/pkg/email"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/pubsub"
	"github.com/nexoraai/nexora_server/internal/pkg/queue"
	"github.com/nexoraai/nexora_server/internal/repository"
)

var (
	ErrCheckoutUnavailable = errors.New("Checkout indisponível no momento.")
	ErrMissingPaymentID    = errors.New("missing payment id")
)

// PaymentEnqueuer hands webhook notifications to the worker.
type PaymentEnqueuer interface {
	Push(ctx context.Context, msg *queue.PaymentMessage) error
}

// PlanEventPublisher announces plan changes to connected clients.
type PlanEventPublisher interface {
	PublishPlanEvent(ctx context.Context, event *pubsub.PlanEvent) error
}

type CheckoutService struct {
	gateway     billing.Gateway
	planService *PlanService
	paymentRepo *repository.PaymentRepository
	enqueuer    PaymentEnqueuer
	publisher   PlanEventPublisher
	mailer      *email.Service
	cfg         *config.Config
}

func NewCheckoutService(
	gateway billing.Gateway,
	planService *PlanService,
	paymentRepo *repository.PaymentRepository,
	enqueuer PaymentEnqueuer,
	publisher PlanEventPublisher,
	mailer *email.Service,
	cfg *config.Config,
) *CheckoutService {
	return &CheckoutService{
		gateway:     gateway,
		planService: planService,
		paymentRepo: paymentRepo,
		enqueuer:    enqueuer,
		publisher:   publisher,
		mailer:      mailer,
		cfg:         cfg,
	}
}

// Catalog lists the purchasable plans, shortest first.
func (s *CheckoutService) Catalog() []dto.PlanOfferInfo {
	offers := make([]dto.PlanOfferInfo, 0, len(s.cfg.Plans.Catalog))
	for planType, offer := range s.cfg.Plans.Catalog {
		offers = append(offers, dto.PlanOfferInfo{
			PlanType:     planType,
			Title:        offer.Title,
			DurationDays: offer.DurationDays,
			Price:        offer.Price,
			Currency:     offer.Currency,
		})
	}
	sort.Slice(offers, func(i, j int) bool {
		if offers[i].DurationDays != offers[j].DurationDays {
			return offers[i].DurationDays < offers[j].DurationDays
		}
		return offers[i].PlanType < offers[j].PlanType
	})
	return offers
}

func (s *CheckoutService) CreatePreference(ctx context.Context, user *identity.Identity, planType string) (*billing.Preference, error) {
	offer, ok := s.cfg.Plans.Offer(planType)
	if !ok {
		return nil, ErrUnknownPlanType
	}
	if s.gateway == nil {
		return nil, ErrCheckoutUnavailable
	}

	pref, err := s.gateway.CreatePreference(ctx, billing.PreferenceInput{
		UserID:   user.ID,
		PlanType: planType,
		Email:    user.Email,
		Title:    offer.Title,
		Price:    offer.Price,
		Currency: offer.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout preference: %w", err)
	}
	return pref, nil
}

type notification struct {
	ID   json.RawMessage `json:"id"`
	Type string          `json:"type"`
	Data struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// ParseNotification extracts the payment id from a webhook body shaped
// {data:{id}} or {id}, with the data.id query parameter as a fallback.
func ParseNotification(body []byte, queryID string) (id, topic string, err error) {
	var n notification
	if len(body) > 0 {
		_ = json.Unmarshal(body, &n)
	}

	for _, raw := range []json.RawMessage{n.Data.ID, n.ID} {
		if id := rawID(raw); id != "" {
			return id, n.Type, nil
		}
	}
	if queryID = strings.TrimSpace(queryID); queryID != "" {
		return queryID, n.Type, nil
	}
	return "", n.Type, ErrMissingPaymentID
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return n.String()
		}
	}
	return ""
}

const paymentTopic = "payment"

// IsPaymentTopic reports whether a notification topic refers to a payment. An
// empty topic is treated as a payment.
func IsPaymentTopic(topic string) bool {
	topic = strings.TrimSpace(topic)
	return topic == "" || topic == paymentTopic || strings.HasPrefix(topic, paymentTopic+".")
}

// HandleNotification processes a webhook inline, or queues it for the
// worker when async webhooks are enabled. Other topics are acknowledged and
// dropped.
func (s *CheckoutService) HandleNotification(ctx context.Context, paymentID, topic string) error {
	if !IsPaymentTopic(topic) {
		logger.WithComponent("checkout").WithFields(logrus.Fields{"topic": topic, "id": paymentID}).Info("ignoring non-payment notification")
		return nil
	}
	if s.cfg.Checkout.AsyncWebhooks && s.enqueuer != nil {
		return s.enqueuer.Push(ctx, &queue.PaymentMessage{
			PaymentID:  paymentID,
			Topic:      topic,
			ReceivedAt: time.Now(),
		})
	}
	return s.ProcessPayment(ctx, paymentID)
}

// ProcessPayment activates the plan paid by paymentID. Payments already
// recorded are skipped without asking the gateway; payments that are not
// approved are ignored.
func (s *CheckoutService) ProcessPayment(ctx context.Context, paymentID string) error {
	if s.gateway == nil {
		return ErrCheckoutUnavailable
	}
	log := logger.WithComponent("checkout").WithField("payment_id", paymentID)

	seen, err := s.paymentRepo.ExistsByPaymentID(paymentID)
	if err != nil {
		return err
	}
	if seen {
		log.Info("payment already processed")
		return nil
	}

	detail, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if detail.Status != model.PaymentStatusApproved {
		log.WithField("status", detail.Status).Info("payment not approved, ignoring")
		return nil
	}

	userID, planType, err := billing.ParseReference(detail)
	if err != nil {
		return fmt.Errorf("payment %s: %w", paymentID, err)
	}

	plan, err := s.planService.ActivatePro(userID, planType, &model.Payment{
		PaymentID: detail.ID,
		UserID:    userID,
		PlanType:  planType,
		Status:    detail.Status,
		Amount:    detail.Amount,
	})
	if errors.Is(err, repository.ErrDuplicatePayment) {
		log.Info("payment already processed")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"user_id": userID, "plan_type": planType}).Info("pro plan activated")

	state := plan.Evaluate(time.Now())
	if s.publisher != nil {
		event := &pubsub.PlanEvent{
			UserID:    userID,
			Status:    state.Status,
			PlanType:  planType,
			DaysLeft:  state.DaysLeft,
			EndsAt:    plan.PlanEndsAt,
			PaymentID: detail.ID,
		}
		if err := s.publisher.PublishPlanEvent(ctx, event); err != nil {
			log.WithError(err).Warn("plan event publish failed")
		}
	}

	if to := detail.ReceiptEmail(); to != "" && s.mailer.Enabled() {
		offer, _ := s.cfg.Plans.Offer(planType)
		if err := s.mailer.SendReceipt(to, offer.Title, detail.Amount, offer.Currency, *plan.PlanEndsAt); err != nil {
			log.WithError(err).Warn("receipt email failed")
		}
	}

	return nil
}
