package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/repository"
)

var ErrEmptyHistoryRecord = errors.New("Registro de histórico sem legenda.")

type HistoryService struct {
	historyRepo *repository.HistoryRepository
}

func NewHistoryService(historyRepo *repository.HistoryRepository) *HistoryService {
	return &HistoryService{historyRepo: historyRepo}
}

// List returns the user's history, newest first. Never nil.
func (s *HistoryService) List(ctx context.Context, userID string) ([]model.GenerationRecord, error) {
	records, err := s.historyRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.GenerationRecord{}
	}
	return records, nil
}

// Add stores a record produced by the panel itself, e.g. when the server
// response was lost. Missing id and timestamp are filled in.
func (s *HistoryService) Add(ctx context.Context, userID string, record model.GenerationRecord) ([]model.GenerationRecord, error) {
	if strings.TrimSpace(record.Caption) == "" {
		return nil, ErrEmptyHistoryRecord
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return s.historyRepo.Append(ctx, userID, record)
}

func (s *HistoryService) Clear(ctx context.Context, userID string) error {
	return s.historyRepo.Clear(ctx, userID)
}
