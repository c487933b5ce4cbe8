package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/moondev/applicant-portal-api/internal/models"
)

func TestProfileRepositoryGetByEmail(t *testing.T) {
	db := setupPortalTestDB(t, &models.Profile{})
	repo := NewProfileRepository(db)

	profile := models.Profile{Email: "dewi@example.com", PasswordHash: "hash", Role: models.RoleDeveloper}
	require.NoError(t, repo.Create(context.Background(), &profile))
	require.NotZero(t, profile.ID)

	found, err := repo.GetByEmail(context.Background(), "dewi@example.com")
	require.NoError(t, err)
	require.Equal(t, profile.ID, found.ID)
	require.Equal(t, models.RoleDeveloper, found.Role)

	_, err = repo.GetByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
