package models

import "time"

// MemberRecord is one row of the ledger: the total XP a user has accrued in
// one guild. Level is never stored; it is derived from XP on read.
type MemberRecord struct {
	GuildID     string    `json:"guild_id"`
	UserID      string    `json:"user_id"`
	XP          int64     `json:"xp"`
	LastAwardAt time.Time `json:"last_award_at"`
}

// Award is one granted accrual, kept for the recent-awards feed. Like
// MessageEvent it carries no message content.
type Award struct {
	GuildID string    `json:"guild_id"`
	UserID  string    `json:"user_id"`
	Delta   int64     `json:"delta"`
	At      time.Time `json:"at"`
}

// GuildSettings are per-guild engine overrides. A zero CooldownSeconds
// means the global default applies; Paused suspends accrual entirely.
type GuildSettings struct {
	GuildID         string    `json:"guild_id"`
	CooldownSeconds int64     `json:"cooldown_seconds"`
	Paused          bool      `json:"paused"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (s *GuildSettings) Cooldown() time.Duration {
	return time.Duration(s.CooldownSeconds) * time.Second
}
