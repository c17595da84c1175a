package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nexoraai/nexora_server/internal/model"
)

// TestUserPassword is the plain password of every TestUser.
const TestUserPassword = "secret123"

// TestUser creates a local-provider user.
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestUserPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        fmt.Sprintf("test_%d@example.com", time.Now().UnixNano()),
		Name:         "Test User",
		PasswordHash: string(hash),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// TestTrialPlan inserts a trial row started at startedAt.
func TestTrialPlan(t *testing.T, db *gorm.DB, userID string, startedAt time.Time, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	plan := &model.Plan{
		UserID:         userID,
		Status:         model.PlanStatusTrial,
		TrialStartedAt: &startedAt,
		TrialDays:      model.DefaultTrialDays,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// TestProPlan inserts a pro row ending at endsAt.
func TestProPlan(t *testing.T, db *gorm.DB, userID, planType string, endsAt time.Time, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	started := endsAt.Add(-30 * 24 * time.Hour)
	plan := &model.Plan{
		UserID:        userID,
		Status:        model.PlanStatusPro,
		PlanType:      planType,
		PlanStartedAt: &started,
		PlanEndsAt:    &endsAt,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

func WithCreatedAt(createdAt time.Time) func(*model.Plan) {
	return func(p *model.Plan) {
		p.CreatedAt = createdAt
	}
}

func WithTrialDays(days int) func(*model.Plan) {
	return func(p *model.Plan) {
		p.TrialDays = days
	}
}

func WithPaymentID(paymentID string) func(*model.Plan) {
	return func(p *model.Plan) {
		p.PaymentID = paymentID
	}
}

func TestProfile(t *testing.T, db *gorm.DB, userID, fullName string) *model.Profile {
	t.Helper()

	profile := &model.Profile{ID: userID, FullName: &fullName}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return profile
}
