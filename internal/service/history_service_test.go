package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/repository"
	"github.com/nexoraai/nexora_server/internal/testutil"
)

func setupHistoryService(t *testing.T) *HistoryService {
	t.Helper()
	rdb, _ := testutil.SetupTestRedis(t)
	return NewHistoryService(repository.NewHistoryRepository(rdb, 20))
}

func TestHistoryService_ListEmpty(t *testing.T) {
	s := setupHistoryService(t)

	records, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestHistoryService_AddFillsDefaults(t *testing.T) {
	s := setupHistoryService(t)

	records, err := s.Add(context.Background(), "u1", model.GenerationRecord{Caption: "legenda"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].CreatedAt.IsZero())

	_, err = s.Add(context.Background(), "u1", model.GenerationRecord{Caption: "  "})
	assert.ErrorIs(t, err, ErrEmptyHistoryRecord)
}

func TestHistoryService_CapsAndClears(t *testing.T) {
	s := setupHistoryService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		img := fmt.Sprintf("data:image/png;base64,%d", i)
		_, err := s.Add(ctx, "u1", model.GenerationRecord{ID: fmt.Sprintf("r%d", i), Caption: "c", ImageURL: &img})
		require.NoError(t, err)
	}

	records, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 20)
	assert.Equal(t, "r24", records[0].ID)
	assert.NotNil(t, records[0].ImageURL)
	for _, r := range records[1:] {
		assert.Nil(t, r.ImageURL)
	}

	require.NoError(t, s.Clear(ctx, "u1"))
	records, err = s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, records)
}
