package services

import (
	"context"
	"time"

	"xpd/internal/models"
	"xpd/internal/providers"
)

type AccrualServiceInterface interface {
	HandleMessage(ctx context.Context, event *models.MessageEvent) (*models.AccrualResult, error)
}

type AccrualService struct {
	progression *models.Progression
	cooldowns   *models.CooldownTracker
	store       models.LedgerStore
	settings    SettingsServiceInterface
	activity    *models.ActivityTracker
	metrics     providers.MetricsProviderInterface
	logger      providers.Logger
	now         func() time.Time
}

// HandleMessage runs one event through the accrual pipeline: validate,
// settings gate, cooldown, XP delta, ledger write, level derivation.
// Rejections are results, not errors; only store failures return an error.
func (as *AccrualService) HandleMessage(ctx context.Context, event *models.MessageEvent) (*models.AccrualResult, error) {
	if event == nil || event.GuildID == "" || event.UserID == "" || event.Length <= 0 {
		as.metrics.IncGrantsTotal("invalid")
		return &models.AccrualResult{Reason: models.ReasonInvalidEvent}, nil
	}

	now := event.Time()
	if now.IsZero() {
		now = as.now()
	}

	settings := as.settings.Effective(ctx, event.GuildID)
	if settings.Paused {
		as.metrics.IncGrantsTotal("paused")
		return &models.AccrualResult{Reason: models.ReasonPaused}, nil
	}

	granted, retryAfter := as.cooldowns.TryConsume(event.GuildID, event.UserID, now, settings.Cooldown())
	if !granted {
		as.metrics.IncGrantsTotal("cooldown")
		return &models.AccrualResult{
			Reason:       models.ReasonCooldown,
			RetryAfterMs: retryAfter.Milliseconds(),
		}, nil
	}

	delta := as.progression.XPFor(event.Length)

	oldXP, newXP, err := as.store.ApplyDelta(ctx, event.GuildID, event.UserID, delta, now)
	if err != nil {
		// The window is already consumed, so this grant is lost. Retrying
		// could double-grant on a partial write, so propagate instead.
		as.metrics.IncStorageErrors()
		as.metrics.IncGrantsTotal("error")
		as.logger.Errorf(providers.TypeAccrual, "Lost grant of %d XP for user %s in guild %s: %s", delta, event.UserID, event.GuildID, err)
		return nil, err
	}

	oldLevel := as.progression.LevelFor(oldXP)
	newLevel := as.progression.LevelFor(newXP)
	result := &models.AccrualResult{
		Granted:   true,
		XP:        newXP,
		Delta:     delta,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		LeveledUp: newLevel > oldLevel,
	}

	as.activity.Touch(event.GuildID, event.UserID, now)

	as.metrics.IncGrantsTotal("granted")
	as.metrics.AddXPAwarded(delta)
	if result.LeveledUp {
		as.metrics.IncLevelUps()
		as.logger.Infof(providers.TypeAccrual, "User %s reached level %d in guild %s", event.UserID, newLevel, event.GuildID)
	}
	as.logger.Debugf(providers.TypeAccrual, "Granted %d XP to user %s in guild %s, total %d", delta, event.UserID, event.GuildID, newXP)

	return result, nil
}

func NewAccrualService(
	progression *models.Progression,
	cooldowns *models.CooldownTracker,
	store models.LedgerStore,
	settings SettingsServiceInterface,
	activity *models.ActivityTracker,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
) AccrualServiceInterface {
	return &AccrualService{
		progression: progression,
		cooldowns:   cooldowns,
		store:       store,
		settings:    settings,
		activity:    activity,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}
