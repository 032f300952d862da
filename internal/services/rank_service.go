package services

import (
	"context"
	"time"

	"xpd/internal/models"
)

type RankServiceInterface interface {
	Profile(ctx context.Context, guildID, userID string) (*models.ProfileView, error)
	Leaderboard(ctx context.Context, guildID string, limit int) (*models.LeaderboardView, error)
	Rank(ctx context.Context, guildID, userID string) (*models.RankView, error)
	Guilds(ctx context.Context) ([]string, error)
	RecentAwards(ctx context.Context, guildID string, n int) ([]*models.Award, error)
	Activity(guildID string, days int) *models.ActivityView
}

// RankService answers the read-side queries. Levels are derived from totals
// on every call, never read back from storage.
type RankService struct {
	progression *models.Progression
	store       models.LedgerStore
	activity    *models.ActivityTracker
}

// Profile returns nil without error when the member was never awarded.
func (rs *RankService) Profile(ctx context.Context, guildID, userID string) (*models.ProfileView, error) {
	rec, err := rs.store.Get(ctx, guildID, userID)
	if err != nil || rec == nil {
		return nil, err
	}
	rank, err := rs.store.Rank(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	level := rs.progression.LevelFor(rec.XP)
	return &models.ProfileView{
		GuildID:     guildID,
		UserID:      userID,
		XP:          rec.XP,
		Level:       level,
		Rank:        rank,
		NextLevelXP: rs.progression.ThresholdFor(level + 1),
		LastAwardAt: rec.LastAwardAt,
	}, nil
}

func (rs *RankService) Leaderboard(ctx context.Context, guildID string, limit int) (*models.LeaderboardView, error) {
	records, err := rs.store.TopN(ctx, guildID, limit)
	if err != nil {
		return nil, err
	}

	view := &models.LeaderboardView{
		GuildID: guildID,
		Entries: make([]models.LeaderboardEntry, 0, len(records)),
	}
	for i, rec := range records {
		view.Entries = append(view.Entries, models.LeaderboardEntry{
			Rank:   i + 1,
			UserID: rec.UserID,
			XP:     rec.XP,
			Level:  rs.progression.LevelFor(rec.XP),
		})
	}
	return view, nil
}

// Rank returns nil without error when the member was never awarded.
func (rs *RankService) Rank(ctx context.Context, guildID, userID string) (*models.RankView, error) {
	rank, err := rs.store.Rank(ctx, guildID, userID)
	if err != nil || rank == 0 {
		return nil, err
	}
	return &models.RankView{GuildID: guildID, UserID: userID, Rank: rank}, nil
}

func (rs *RankService) Guilds(ctx context.Context) ([]string, error) {
	return rs.store.Guilds(ctx)
}

func (rs *RankService) RecentAwards(ctx context.Context, guildID string, n int) ([]*models.Award, error) {
	return rs.store.RecentAwards(ctx, guildID, n)
}

func (rs *RankService) Activity(guildID string, days int) *models.ActivityView {
	if days < 1 {
		days = 1
	}
	return &models.ActivityView{
		GuildID:       guildID,
		Days:          days,
		ActiveMembers: rs.activity.ActiveCount(guildID, days, time.Now()),
	}
}

func NewRankService(progression *models.Progression, store models.LedgerStore, activity *models.ActivityTracker) RankServiceInterface {
	return &RankService{
		progression: progression,
		store:       store,
		activity:    activity,
	}
}
