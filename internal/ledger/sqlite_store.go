package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"xpd/internal/models"
	"xpd/internal/structures"

	_ "modernc.org/sqlite"
)

// SqliteStore is the durable ledger driver. All writes for a member go
// through one transaction on a single connection, which keeps concurrent
// awards for the same key linearizable without SQLITE_BUSY churn.
type SqliteStore struct {
	db       *sql.DB
	awardCap int
}

func NewSqliteStore(conf *structures.Config) (*SqliteStore, error) {
	path := conf.Storage.Path
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err = db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	s := &SqliteStore{db: db, awardCap: conf.Accrual.AwardsBuffer}
	if err = s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqliteStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS user_xp (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			xp INTEGER NOT NULL DEFAULT 0,
			last_award_at INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (guild_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_xp_board ON user_xp(guild_id, xp DESC, user_id ASC)`,
		`CREATE TABLE IF NOT EXISTS award_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			delta INTEGER NOT NULL,
			at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_award_log_guild ON award_log(guild_id, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_award_log_at ON award_log(at)`,
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			cooldown_seconds INTEGER NOT NULL DEFAULT 0,
			paused INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, query := range queries {
		if _, err := s.db.ExecContext(context.Background(), query); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	// Column added after the first release (if not exists) - for migration
	_, _ = s.db.Exec(`ALTER TABLE user_xp ADD COLUMN last_award_at INTEGER NOT NULL DEFAULT 0`)

	return nil
}

func (s *SqliteStore) ApplyDelta(ctx context.Context, guildID, userID string, delta int64, at time.Time) (int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, models.NewStorageError("apply_delta", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldXP int64
	err = tx.QueryRowContext(ctx, `
		SELECT xp FROM user_xp WHERE guild_id = ? AND user_id = ?
	`, guildID, userID).Scan(&oldXP)
	if err != nil && err != sql.ErrNoRows {
		return 0, 0, models.NewStorageError("apply_delta", err)
	}
	newXP := oldXP + delta

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_xp (guild_id, user_id, xp, last_award_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET xp = excluded.xp, last_award_at = excluded.last_award_at
	`, guildID, userID, newXP, at.UnixMilli())
	if err != nil {
		return 0, 0, models.NewStorageError("apply_delta", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO award_log (guild_id, user_id, delta, at) VALUES (?, ?, ?, ?)
	`, guildID, userID, delta, at.UnixMilli())
	if err != nil {
		return 0, 0, models.NewStorageError("apply_delta", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, models.NewStorageError("apply_delta", err)
	}
	return oldXP, newXP, nil
}

func (s *SqliteStore) Get(ctx context.Context, guildID, userID string) (*models.MemberRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT xp, last_award_at FROM user_xp WHERE guild_id = ? AND user_id = ?
	`, guildID, userID)

	var xp, lastAt int64
	err := row.Scan(&xp, &lastAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewStorageError("get", err)
	}
	return &models.MemberRecord{GuildID: guildID, UserID: userID, XP: xp, LastAwardAt: millisToTime(lastAt)}, nil
}

func (s *SqliteStore) TopN(ctx context.Context, guildID string, n int) ([]*models.MemberRecord, error) {
	if n <= 0 {
		return []*models.MemberRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, xp, last_award_at FROM user_xp
		WHERE guild_id = ?
		ORDER BY xp DESC, user_id ASC
		LIMIT ?
	`, guildID, n)
	if err != nil {
		return nil, models.NewStorageError("top_n", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*models.MemberRecord, 0, n)
	for rows.Next() {
		rec := &models.MemberRecord{GuildID: guildID}
		var lastAt int64
		if err = rows.Scan(&rec.UserID, &rec.XP, &lastAt); err != nil {
			return nil, models.NewStorageError("top_n", err)
		}
		rec.LastAwardAt = millisToTime(lastAt)
		result = append(result, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, models.NewStorageError("top_n", err)
	}
	return result, nil
}

func (s *SqliteStore) Rank(ctx context.Context, guildID, userID string) (int, error) {
	rec, err := s.Get(ctx, guildID, userID)
	if err != nil || rec == nil {
		return 0, err
	}

	var ahead int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_xp
		WHERE guild_id = ? AND (xp > ? OR (xp = ? AND user_id < ?))
	`, guildID, rec.XP, rec.XP, userID).Scan(&ahead)
	if err != nil {
		return 0, models.NewStorageError("rank", err)
	}
	return ahead + 1, nil
}

func (s *SqliteStore) MemberCount(ctx context.Context, guildID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_xp WHERE guild_id = ?
	`, guildID).Scan(&count)
	if err != nil {
		return 0, models.NewStorageError("member_count", err)
	}
	return count, nil
}

func (s *SqliteStore) MemberCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, COUNT(*) FROM user_xp GROUP BY guild_id
	`)
	if err != nil {
		return nil, models.NewStorageError("member_counts", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var guildID string
		var count int
		if err = rows.Scan(&guildID, &count); err != nil {
			return nil, models.NewStorageError("member_counts", err)
		}
		counts[guildID] = count
	}
	if err = rows.Err(); err != nil {
		return nil, models.NewStorageError("member_counts", err)
	}
	return counts, nil
}

func (s *SqliteStore) Guilds(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id FROM user_xp
		UNION
		SELECT guild_id FROM guild_settings
		ORDER BY guild_id ASC
	`)
	if err != nil {
		return nil, models.NewStorageError("guilds", err)
	}
	defer func() { _ = rows.Close() }()

	var guilds []string
	for rows.Next() {
		var guildID string
		if err = rows.Scan(&guildID); err != nil {
			return nil, models.NewStorageError("guilds", err)
		}
		guilds = append(guilds, guildID)
	}
	if err = rows.Err(); err != nil {
		return nil, models.NewStorageError("guilds", err)
	}
	return guilds, nil
}

func (s *SqliteStore) RecentAwards(ctx context.Context, guildID string, n int) ([]*models.Award, error) {
	if n <= 0 {
		return []*models.Award{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, delta, at FROM award_log
		WHERE guild_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, guildID, n)
	if err != nil {
		return nil, models.NewStorageError("recent_awards", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*models.Award, 0, n)
	for rows.Next() {
		a := &models.Award{GuildID: guildID}
		var at int64
		if err = rows.Scan(&a.UserID, &a.Delta, &at); err != nil {
			return nil, models.NewStorageError("recent_awards", err)
		}
		a.At = millisToTime(at)
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, models.NewStorageError("recent_awards", err)
	}
	return result, nil
}

func (s *SqliteStore) PruneAwards(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM award_log WHERE at < ?
	`, olderThan.UnixMilli())
	if err != nil {
		return 0, models.NewStorageError("prune_awards", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, models.NewStorageError("prune_awards", err)
	}
	return int(affected), nil
}

func (s *SqliteStore) GuildSettings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT cooldown_seconds, paused, updated_at FROM guild_settings WHERE guild_id = ?
	`, guildID)

	gs := &models.GuildSettings{GuildID: guildID}
	var updatedAt int64
	err := row.Scan(&gs.CooldownSeconds, &gs.Paused, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewStorageError("guild_settings", err)
	}
	gs.UpdatedAt = millisToTime(updatedAt)
	return gs, nil
}

func (s *SqliteStore) PutGuildSettings(ctx context.Context, settings *models.GuildSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, cooldown_seconds, paused, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			cooldown_seconds = excluded.cooldown_seconds,
			paused = excluded.paused,
			updated_at = excluded.updated_at
	`, settings.GuildID, settings.CooldownSeconds, settings.Paused, settings.UpdatedAt.UnixMilli())
	if err != nil {
		return models.NewStorageError("put_guild_settings", err)
	}
	return nil
}

func (s *SqliteStore) Export(ctx context.Context) (*models.LedgerSnapshot, error) {
	snap := models.NewLedgerSnapshot()

	guilds, err := s.Guilds(ctx)
	if err != nil {
		return nil, err
	}
	for _, guildID := range guilds {
		gs := &models.GuildSnapshot{Members: make(map[string]models.MemberRecord)}

		members, err := s.TopN(ctx, guildID, 1<<31-1)
		if err != nil {
			return nil, err
		}
		for _, rec := range members {
			gs.Members[rec.UserID] = *rec
		}

		awards, err := s.RecentAwards(ctx, guildID, s.awardCap)
		if err != nil {
			return nil, err
		}
		// RecentAwards is newest first; snapshots store oldest first.
		for i := len(awards) - 1; i >= 0; i-- {
			gs.Awards = append(gs.Awards, *awards[i])
		}

		settings, err := s.GuildSettings(ctx, guildID)
		if err != nil {
			return nil, err
		}
		gs.Settings = settings

		snap.Guilds[guildID] = gs
	}
	return snap, nil
}

func (s *SqliteStore) Import(ctx context.Context, snapshot *models.LedgerSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.NewStorageError("import", err)
	}
	defer func() { _ = tx.Rollback() }()

	for guildID, gs := range snapshot.Guilds {
		for userID, rec := range gs.Members {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO user_xp (guild_id, user_id, xp, last_award_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(guild_id, user_id) DO UPDATE SET xp = excluded.xp, last_award_at = excluded.last_award_at
			`, guildID, userID, rec.XP, rec.LastAwardAt.UnixMilli())
			if err != nil {
				return models.NewStorageError("import", err)
			}
		}
		for _, a := range gs.Awards {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO award_log (guild_id, user_id, delta, at) VALUES (?, ?, ?, ?)
			`, guildID, a.UserID, a.Delta, a.At.UnixMilli())
			if err != nil {
				return models.NewStorageError("import", err)
			}
		}
		if gs.Settings != nil {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO guild_settings (guild_id, cooldown_seconds, paused, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(guild_id) DO UPDATE SET
					cooldown_seconds = excluded.cooldown_seconds,
					paused = excluded.paused,
					updated_at = excluded.updated_at
			`, guildID, gs.Settings.CooldownSeconds, gs.Settings.Paused, gs.Settings.UpdatedAt.UnixMilli())
			if err != nil {
				return models.NewStorageError("import", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return models.NewStorageError("import", err)
	}
	return nil
}

func (s *SqliteStore) Stats() models.StoreStats {
	var stats models.StoreStats
	err := s.db.QueryRow(`
		SELECT COUNT(DISTINCT guild_id), COUNT(*) FROM user_xp
	`).Scan(&stats.Guilds, &stats.Members)
	if err != nil {
		return models.StoreStats{}
	}
	return stats
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
