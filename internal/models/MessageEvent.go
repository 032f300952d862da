package models

import "time"

// MessageEvent is the ingest boundary. Only the guild, the author, the
// content length and an optional timestamp cross it; message content never
// reaches the engine.
type MessageEvent struct {
	GuildID string `json:"g"`
	UserID  string `json:"u"`
	Length  int    `json:"l"`
	At      int64  `json:"t,omitempty"` // unix milliseconds, 0 = engine clock
}

// Time returns the event timestamp, or the zero time when none was supplied.
func (e *MessageEvent) Time() time.Time {
	if e.At == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.At)
}

const (
	ReasonInvalidEvent = "invalid_event"
	ReasonCooldown     = "cooldown"
	ReasonPaused       = "paused"
)

type AccrualResult struct {
	Granted      bool   `json:"granted"`
	Reason       string `json:"reason,omitempty"`
	XP           int64  `json:"xp"`
	Delta        int64  `json:"delta"`
	OldLevel     int    `json:"old_level"`
	NewLevel     int    `json:"new_level"`
	LeveledUp    bool   `json:"leveled_up"`
	RetryAfterMs int64  `json:"retry_after_ms,omitempty"`
}
