package models

import "time"

// Read-side response shapes. Levels here are always derived via
// Progression.LevelFor at query time.

type ProfileView struct {
	GuildID     string    `json:"guild_id"`
	UserID      string    `json:"user_id"`
	XP          int64     `json:"xp"`
	Level       int       `json:"level"`
	Rank        int       `json:"rank"`
	NextLevelXP int64     `json:"next_level_xp"`
	LastAwardAt time.Time `json:"last_award_at"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	XP     int64  `json:"xp"`
	Level  int    `json:"level"`
}

type LeaderboardView struct {
	GuildID string             `json:"guild_id"`
	Entries []LeaderboardEntry `json:"entries"`
}

type RankView struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
	Rank    int    `json:"rank"`
}

type ActivityView struct {
	GuildID       string `json:"guild_id"`
	Days          int    `json:"days"`
	ActiveMembers int    `json:"active_members"`
}
