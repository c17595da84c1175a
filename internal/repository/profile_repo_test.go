package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/testutil"
)

func strPtr(s string) *string {
	return &s
}

func TestProfileRepository_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewProfileRepository(db)

	require.NoError(t, repo.Upsert(&model.Profile{ID: "user-1", FullName: strPtr("Ana")}))
	require.NoError(t, repo.Upsert(&model.Profile{ID: "user-1", FullName: strPtr("Ana Souza"), Phone: strPtr("+55 11 9999")}))

	profile, err := repo.GetByID("user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", *profile.FullName)
	assert.Equal(t, "+55 11 9999", *profile.Phone)

	var count int64
	db.Model(&model.Profile{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProfileRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, err := NewProfileRepository(db).GetByID("missing")
	assert.Error(t, err)
}
