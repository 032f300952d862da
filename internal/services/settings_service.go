package services

import (
	"context"
	"sync"
	"time"

	"xpd/internal/models"
	"xpd/internal/providers"
	"xpd/internal/structures"
)

// settingsCacheTTL bounds how long a stale override can keep gating accrual.
const settingsCacheTTL = 5 * time.Second

type SettingsServiceInterface interface {
	// Effective returns the settings the engine must apply for the guild.
	// Never fails: store errors fall back to the global defaults.
	Effective(ctx context.Context, guildID string) models.GuildSettings
	Get(ctx context.Context, guildID string) (*models.GuildSettings, error)
	Update(ctx context.Context, settings *models.GuildSettings) (*models.GuildSettings, error)
	// MaxCooldown reports the largest cooldown interval in play, global
	// default included. The sweeper derives its retention horizon from it.
	MaxCooldown() time.Duration
}

type settingsEntry struct {
	value     models.GuildSettings
	hasRow    bool
	fetchedAt time.Time
}

type SettingsService struct {
	config *structures.Config
	store  models.LedgerStore
	logger providers.Logger

	mu    sync.RWMutex
	cache map[string]settingsEntry
	// Highest override seen since start. May overshoot after a guild lowers
	// its cooldown; sweeping late is harmless.
	maxSeen int64
}

func (s *SettingsService) Effective(ctx context.Context, guildID string) models.GuildSettings {
	now := time.Now()

	s.mu.RLock()
	entry, ok := s.cache[guildID]
	s.mu.RUnlock()
	if ok && now.Sub(entry.fetchedAt) < settingsCacheTTL {
		return s.effective(guildID, entry)
	}

	stored, err := s.store.GuildSettings(ctx, guildID)
	if err != nil {
		// Fail open: a settings read must never stall accrual.
		s.logger.Warnf(providers.TypeStore, "Failed to read settings for guild %s, using defaults: %s", guildID, err)
		return s.defaults(guildID)
	}

	entry = settingsEntry{fetchedAt: now}
	if stored != nil {
		entry.value = *stored
		entry.hasRow = true
	}

	s.mu.Lock()
	s.cache[guildID] = entry
	if entry.value.CooldownSeconds > s.maxSeen {
		s.maxSeen = entry.value.CooldownSeconds
	}
	s.mu.Unlock()

	return s.effective(guildID, entry)
}

func (s *SettingsService) Get(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	stored, err := s.store.GuildSettings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		eff := s.defaults(guildID)
		return &eff, nil
	}
	if stored.CooldownSeconds <= 0 {
		stored.CooldownSeconds = int64(s.config.Accrual.Cooldown.Seconds())
	}
	return stored, nil
}

func (s *SettingsService) Update(ctx context.Context, settings *models.GuildSettings) (*models.GuildSettings, error) {
	cp := *settings
	cp.UpdatedAt = time.Now()

	if err := s.store.PutGuildSettings(ctx, &cp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[cp.GuildID] = settingsEntry{value: cp, hasRow: true, fetchedAt: time.Now()}
	if cp.CooldownSeconds > s.maxSeen {
		s.maxSeen = cp.CooldownSeconds
	}
	s.mu.Unlock()

	return &cp, nil
}

func (s *SettingsService) MaxCooldown() time.Duration {
	s.mu.RLock()
	maxSeen := s.maxSeen
	s.mu.RUnlock()

	if d := time.Duration(maxSeen) * time.Second; d > s.config.Accrual.Cooldown {
		return d
	}
	return s.config.Accrual.Cooldown
}

func (s *SettingsService) defaults(guildID string) models.GuildSettings {
	return models.GuildSettings{
		GuildID:         guildID,
		CooldownSeconds: int64(s.config.Accrual.Cooldown.Seconds()),
	}
}

// effective fills unset override fields from the global defaults.
func (s *SettingsService) effective(guildID string, entry settingsEntry) models.GuildSettings {
	if !entry.hasRow {
		return s.defaults(guildID)
	}
	eff := entry.value
	if eff.CooldownSeconds <= 0 {
		eff.CooldownSeconds = int64(s.config.Accrual.Cooldown.Seconds())
	}
	return eff
}

func NewSettingsService(config *structures.Config, store models.LedgerStore, logger providers.Logger) SettingsServiceInterface {
	return &SettingsService{
		config: config,
		store:  store,
		logger: logger,
		cache:  make(map[string]settingsEntry),
	}
}
