package models

import (
	"context"
	"fmt"
	"time"
)

// LedgerStore abstracts the durable XP ledger. Implemented by the ledger
// package (sqlite and memory drivers); declared here so providers and
// services can depend on it without importing the implementations.
type LedgerStore interface {
	// ApplyDelta atomically adds delta to the (guild, user) total, creating
	// the record at zero on first touch, and returns the totals before and
	// after the write. Deltas are never negative.
	ApplyDelta(ctx context.Context, guildID, userID string, delta int64, at time.Time) (oldXP, newXP int64, err error)

	// Get returns the member record, or nil without error when the member
	// has never been awarded in the guild.
	Get(ctx context.Context, guildID, userID string) (*MemberRecord, error)

	// TopN returns up to n records ordered by XP descending, ties broken by
	// ascending user ID. n <= 0 yields an empty slice.
	TopN(ctx context.Context, guildID string, n int) ([]*MemberRecord, error)

	// Rank returns the 1-based leaderboard position of the member, or 0
	// when the member is absent.
	Rank(ctx context.Context, guildID, userID string) (int, error)

	MemberCount(ctx context.Context, guildID string) (int, error)
	MemberCounts(ctx context.Context) (map[string]int, error)
	Guilds(ctx context.Context) ([]string, error)

	RecentAwards(ctx context.Context, guildID string, n int) ([]*Award, error)
	PruneAwards(ctx context.Context, olderThan time.Time) (int, error)

	GuildSettings(ctx context.Context, guildID string) (*GuildSettings, error)
	PutGuildSettings(ctx context.Context, settings *GuildSettings) error

	Export(ctx context.Context) (*LedgerSnapshot, error)
	Import(ctx context.Context, snapshot *LedgerSnapshot) error

	Stats() StoreStats
	Close() error
}

// StoreStats is a cheap gauge snapshot for health and metrics.
type StoreStats struct {
	Guilds  int `json:"guilds"`
	Members int `json:"members"`
}

// StorageError wraps a failed store operation. Callers must treat it as
// final: retrying a partially applied award would double-grant.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s: %s", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
