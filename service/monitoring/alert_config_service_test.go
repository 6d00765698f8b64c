package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchtower-service/service/models"
	"watchtower-service/testutil"
)

func boolPtr(b bool) *bool { return &b }

func TestAlertConfigService_CRUD(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := NewAlertConfigService(tdb.DB)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", AlertConfigInput{
		AlertType: "slack",
		Config:    map[string]interface{}{"webhook_url": "https://hooks.example.com/a"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.AlertTypeWebhook, created.AlertType)
	assert.True(t, created.Enabled)

	list, err := svc.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	updated, err := svc.Update(ctx, "owner-1", created.ID, AlertConfigInput{
		AlertType: "email",
		Config:    map[string]interface{}{"email": "ops@example.com"},
		Enabled:   boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AlertTypeEmail, updated.AlertType)
	assert.False(t, updated.Enabled)

	got, err := svc.Get(ctx, "owner-1", created.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, "ops@example.com", got.Destination())

	require.NoError(t, svc.Delete(ctx, "owner-1", created.ID))
	_, err = svc.Get(ctx, "owner-1", created.ID)
	assert.ErrorIs(t, err, ErrAlertConfigNotFound)
}

func TestAlertConfigService_OwnerScope(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := NewAlertConfigService(tdb.DB)
	ctx := context.Background()

	mine, err := svc.Create(ctx, "owner-1", AlertConfigInput{AlertType: "webhook", Config: map[string]interface{}{"url": "https://a"}})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "owner-2", mine.ID)
	assert.ErrorIs(t, err, ErrAlertConfigNotFound)

	_, err = svc.Get(ctx, "", mine.ID)
	assert.ErrorIs(t, err, ErrAlertConfigNotFound, "anonymous scope must not see owned configs")

	_, err = svc.Update(ctx, "owner-2", mine.ID, AlertConfigInput{AlertType: "webhook"})
	assert.ErrorIs(t, err, ErrAlertConfigNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "owner-2", mine.ID), ErrAlertConfigNotFound)

	others, err := svc.List(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestAlertConfigService_InvalidType(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	svc := NewAlertConfigService(tdb.DB)

	_, err := svc.Create(context.Background(), "", AlertConfigInput{AlertType: "pager"})
	assert.ErrorIs(t, err, ErrInvalidAlertType)
}

func TestAlertConfigService_FindChannelsForOwner(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	factory := testutil.NewTestDataFactory(tdb.DB)
	svc := NewAlertConfigService(tdb.DB)

	factory.CreateAlertConfig(func(c *models.AlertConfig) { c.OwnerID = "owner-1" })
	factory.CreateAlertConfig(func(c *models.AlertConfig) { c.OwnerID = "owner-1"; c.Enabled = false })
	factory.CreateAlertConfig(func(c *models.AlertConfig) { c.OwnerID = "owner-2" })
	factory.CreateAlertConfig()

	channels, err := svc.FindChannelsForOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Len(t, channels, 1)

	anonymous, err := svc.FindChannelsForOwner(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, anonymous, 1)
}
