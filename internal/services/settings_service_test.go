package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpd/internal/models"
	"xpd/internal/testutil"
)

func newTestSettingsService() (*SettingsService, *testutil.MockLedgerStore, *testutil.MockLogger) {
	conf := accrualTestConfig()
	store := testutil.NewMockLedgerStore()
	logger := &testutil.MockLogger{}
	return NewSettingsService(conf, store, logger).(*SettingsService), store, logger
}

func TestSettingsService_Effective_Defaults(t *testing.T) {
	svc, _, _ := newTestSettingsService()

	eff := svc.Effective(context.Background(), "g1")
	assert.Equal(t, "g1", eff.GuildID)
	assert.Equal(t, int64(60), eff.CooldownSeconds)
	assert.False(t, eff.Paused)
}

func TestSettingsService_Effective_Override(t *testing.T) {
	svc, store, _ := newTestSettingsService()
	ctx := context.Background()

	require.NoError(t, store.PutGuildSettings(ctx, &models.GuildSettings{GuildID: "g1", CooldownSeconds: 120}))

	eff := svc.Effective(ctx, "g1")
	assert.Equal(t, int64(120), eff.CooldownSeconds)
}

func TestSettingsService_Effective_ZeroCooldownFallsBack(t *testing.T) {
	svc, store, _ := newTestSettingsService()
	ctx := context.Background()

	// A paused guild with no cooldown override still gets the global window.
	require.NoError(t, store.PutGuildSettings(ctx, &models.GuildSettings{GuildID: "g1", Paused: true}))

	eff := svc.Effective(ctx, "g1")
	assert.True(t, eff.Paused)
	assert.Equal(t, int64(60), eff.CooldownSeconds)
}

func TestSettingsService_Effective_FailOpen(t *testing.T) {
	svc, store, logger := newTestSettingsService()

	store.FailWith = errors.New("store down")
	eff := svc.Effective(context.Background(), "g1")
	assert.Equal(t, int64(60), eff.CooldownSeconds)
	assert.False(t, eff.Paused)
	assert.True(t, logger.HasLevel("warn"))
}

func TestSettingsService_Effective_ServesCached(t *testing.T) {
	svc, store, logger := newTestSettingsService()
	ctx := context.Background()

	require.NoError(t, store.PutGuildSettings(ctx, &models.GuildSettings{GuildID: "g1", CooldownSeconds: 120}))
	first := svc.Effective(ctx, "g1")
	require.Equal(t, int64(120), first.CooldownSeconds)

	// Within the cache TTL the store is not consulted again.
	store.FailWith = errors.New("store down")
	second := svc.Effective(ctx, "g1")
	assert.Equal(t, int64(120), second.CooldownSeconds)
	assert.False(t, logger.HasLevel("warn"))
}

func TestSettingsService_Update(t *testing.T) {
	svc, store, _ := newTestSettingsService()
	ctx := context.Background()

	updated, err := svc.Update(ctx, &models.GuildSettings{GuildID: "g1", CooldownSeconds: 90, Paused: true})
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.IsZero())

	stored, err := store.GuildSettings(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(90), stored.CooldownSeconds)
	assert.True(t, stored.Paused)
}

func TestSettingsService_Update_RefreshesCache(t *testing.T) {
	svc, store, _ := newTestSettingsService()
	ctx := context.Background()

	_, err := svc.Update(ctx, &models.GuildSettings{GuildID: "g1", CooldownSeconds: 90})
	require.NoError(t, err)

	// The updated value is served from cache without a store read.
	store.FailWith = errors.New("store down")
	eff := svc.Effective(ctx, "g1")
	assert.Equal(t, int64(90), eff.CooldownSeconds)
}

func TestSettingsService_Update_StoreError(t *testing.T) {
	svc, store, _ := newTestSettingsService()
	store.FailWith = errors.New("store down")

	_, err := svc.Update(context.Background(), &models.GuildSettings{GuildID: "g1", CooldownSeconds: 90})
	assert.Error(t, err)
}

func TestSettingsService_Get_SynthesizesDefaults(t *testing.T) {
	svc, _, _ := newTestSettingsService()

	settings, err := svc.Get(context.Background(), "g1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "g1", settings.GuildID)
	assert.Equal(t, int64(60), settings.CooldownSeconds)
}

func TestSettingsService_Get_FillsZeroCooldown(t *testing.T) {
	svc, store, _ := newTestSettingsService()
	ctx := context.Background()

	require.NoError(t, store.PutGuildSettings(ctx, &models.GuildSettings{GuildID: "g1", Paused: true}))

	settings, err := svc.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), settings.CooldownSeconds)
	assert.True(t, settings.Paused)
}

func TestSettingsService_Get_StoreError(t *testing.T) {
	svc, store, _ := newTestSettingsService()
	store.FailWith = errors.New("store down")

	_, err := svc.Get(context.Background(), "g1")
	assert.Error(t, err)
}

func TestSettingsService_MaxCooldown(t *testing.T) {
	svc, store, _ := newTestSettingsService()
	ctx := context.Background()

	// No overrides seen yet: the global default.
	assert.Equal(t, time.Minute, svc.MaxCooldown())

	require.NoError(t, store.PutGuildSettings(ctx, &models.GuildSettings{GuildID: "g1", CooldownSeconds: 120}))
	svc.Effective(ctx, "g1")
	assert.Equal(t, 2*time.Minute, svc.MaxCooldown())

	_, err := svc.Update(ctx, &models.GuildSettings{GuildID: "g2", CooldownSeconds: 300})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, svc.MaxCooldown())

	// Lowering an override never shrinks the horizon.
	_, err = svc.Update(ctx, &models.GuildSettings{GuildID: "g2", CooldownSeconds: 30})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, svc.MaxCooldown())
}

func TestSettingsService_MaxCooldown_OverrideBelowGlobal(t *testing.T) {
	svc, _, _ := newTestSettingsService()

	_, err := svc.Update(context.Background(), &models.GuildSettings{GuildID: "g1", CooldownSeconds: 10})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, svc.MaxCooldown())
}
