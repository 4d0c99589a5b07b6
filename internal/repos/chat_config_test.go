package repos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiestudio/embedded-chat/internal/models"
	"github.com/axiestudio/embedded-chat/internal/testutil"
)

func newConfig(orgID, slug string) *models.ChatConfig {
	return &models.ChatConfig{
		OrganizationID: orgID,
		BaseURL:        "https://api.example.com/run",
		WorkflowID:     "wf-1",
		APIKey:         "secret",
		IsEnabled:      true,
		PublicSlug:     slug,
	}
}

func TestChatConfigRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewChatConfigRepo(testutil.DB(t))

	cfg := newConfig("org_1", "abc123")
	cfg.CompanyName = testutil.Ptr("Acme")
	require.NoError(t, repo.Create(ctx, cfg))
	require.NotZero(t, cfg.ID)

	byOrg, err := repo.GetByOrganizationID(ctx, "org_1")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, byOrg.ID)
	assert.Equal(t, "Acme", *byOrg.CompanyName)
	assert.Nil(t, byOrg.LogoURL)

	bySlug, err := repo.GetByPublicSlug(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, bySlug.ID)

	byID, err := repo.GetByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "org_1", byID.OrganizationID)
	assert.False(t, byID.CreatedAt.IsZero())
}

func TestChatConfigRepo_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewChatConfigRepo(testutil.DB(t))

	_, err := repo.GetByOrganizationID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByPublicSlug(ctx, "nothing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatConfigRepo_CreatePersistsDisabled(t *testing.T) {
	ctx := context.Background()
	repo := NewChatConfigRepo(testutil.DB(t))

	cfg := newConfig("org_1", "off-slug")
	cfg.IsEnabled = false
	require.NoError(t, repo.Create(ctx, cfg))

	got, err := repo.GetByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.False(t, got.IsEnabled)
}

func TestChatConfigRepo_UniqueIndexes(t *testing.T) {
	ctx := context.Background()
	repo := NewChatConfigRepo(testutil.DB(t))

	require.NoError(t, repo.Create(ctx, newConfig("org_1", "slug-one")))

	err := repo.Create(ctx, newConfig("org_1", "slug-two"))
	assert.ErrorIs(t, err, ErrDuplicateKey, "organization must be unique")

	err = repo.Create(ctx, newConfig("org_2", "slug-one"))
	assert.ErrorIs(t, err, ErrDuplicateKey, "public slug must be unique")
}

func TestChatConfigRepo_UpdateByOrganizationID(t *testing.T) {
	ctx := context.Background()
	repo := NewChatConfigRepo(testutil.DB(t))

	cfg := newConfig("org_1", "slug-one")
	require.NoError(t, repo.Create(ctx, cfg))

	updated, err := repo.UpdateByOrganizationID(ctx, "org_1", map[string]interface{}{
		"company_name": "New Name",
		"is_enabled":   false,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", *updated.CompanyName)
	assert.False(t, updated.IsEnabled)
	assert.Equal(t, "slug-one", updated.PublicSlug)
	assert.Equal(t, "secret", updated.APIKey)
	assert.False(t, updated.UpdatedAt.Before(cfg.UpdatedAt))

	_, err = repo.UpdateByOrganizationID(ctx, "org_missing", map[string]interface{}{"company_name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatConfigRepo_DeleteByOrganizationID(t *testing.T) {
	ctx := context.Background()
	repo := NewChatConfigRepo(testutil.DB(t))

	cfg := newConfig("org_1", "slug-one")
	require.NoError(t, repo.Create(ctx, cfg))

	deleted, err := repo.DeleteByOrganizationID(ctx, "org_1")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, deleted.ID)

	_, err = repo.GetByPublicSlug(ctx, "slug-one")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.DeleteByOrganizationID(ctx, "org_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatConfigRepo_List(t *testing.T) {
	ctx := context.Background()
	repo := NewChatConfigRepo(testutil.DB(t))

	require.NoError(t, repo.Create(ctx, newConfig("org_1", "slug-one")))
	require.NoError(t, repo.Create(ctx, newConfig("org_2", "slug-two")))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Less(t, all[0].ID, all[1].ID)
}
