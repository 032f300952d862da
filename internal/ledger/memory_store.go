package ledger

import (
	"context"
	"time"

	"xpd/internal/models"
	"xpd/internal/providers"
	"xpd/internal/structures"
)

// MemoryStore keeps the whole ledger in process memory. Durability comes
// from the scheduler's periodic snapshots; awards evicted from a guild's
// ring overflow into the archive when one is configured.
type MemoryStore struct {
	ledger  *models.Ledger
	archive *Archive
	logger  providers.Logger
}

func NewMemoryStore(conf *structures.Config, archive *Archive, logger providers.Logger) *MemoryStore {
	return &MemoryStore{
		ledger:  models.NewLedger(conf.Accrual.AwardsBuffer),
		archive: archive,
		logger:  logger,
	}
}

func (m *MemoryStore) ApplyDelta(_ context.Context, guildID, userID string, delta int64, at time.Time) (int64, int64, error) {
	guild := m.ledger.Guild(guildID)
	oldXP, newXP := guild.ApplyDelta(userID, delta, at)

	evicted := guild.AppendAward(models.Award{GuildID: guildID, UserID: userID, Delta: delta, At: at})
	if evicted != nil && m.archive != nil {
		m.archive.Evict(guildID, *evicted)
	}
	return oldXP, newXP, nil
}

func (m *MemoryStore) Get(_ context.Context, guildID, userID string) (*models.MemberRecord, error) {
	guild, ok := m.ledger.Peek(guildID)
	if !ok {
		return nil, nil
	}
	rec, ok := guild.Get(userID)
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (m *MemoryStore) TopN(_ context.Context, guildID string, n int) ([]*models.MemberRecord, error) {
	guild, ok := m.ledger.Peek(guildID)
	if !ok {
		return []*models.MemberRecord{}, nil
	}
	return guild.TopN(n), nil
}

func (m *MemoryStore) Rank(_ context.Context, guildID, userID string) (int, error) {
	guild, ok := m.ledger.Peek(guildID)
	if !ok {
		return 0, nil
	}
	return guild.Rank(userID), nil
}

func (m *MemoryStore) MemberCount(_ context.Context, guildID string) (int, error) {
	guild, ok := m.ledger.Peek(guildID)
	if !ok {
		return 0, nil
	}
	return guild.MemberCount(), nil
}

func (m *MemoryStore) MemberCounts(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, guildID := range m.ledger.GuildIDs() {
		if guild, ok := m.ledger.Peek(guildID); ok {
			counts[guildID] = guild.MemberCount()
		}
	}
	return counts, nil
}

func (m *MemoryStore) Guilds(_ context.Context) ([]string, error) {
	return m.ledger.GuildIDs(), nil
}

// RecentAwards serves from the in-memory ring first and tops up from the
// archive when the ring holds fewer than n entries. The ring always holds
// the newest awards, so archived entries follow in order.
func (m *MemoryStore) RecentAwards(_ context.Context, guildID string, n int) ([]*models.Award, error) {
	if n <= 0 {
		return []*models.Award{}, nil
	}

	result := []*models.Award{}
	if guild, ok := m.ledger.Peek(guildID); ok {
		result = guild.RecentAwards(n)
	}
	if len(result) < n && m.archive != nil {
		archived, err := m.archive.Awards(guildID, n-len(result))
		if err != nil {
			m.logger.Warnf(providers.TypeStore, "Failed to read archived awards for guild %s: %s", guildID, err)
			return result, nil
		}
		result = append(result, archived...)
	}
	return result, nil
}

func (m *MemoryStore) PruneAwards(_ context.Context, olderThan time.Time) (int, error) {
	removed := 0
	for _, guildID := range m.ledger.GuildIDs() {
		if guild, ok := m.ledger.Peek(guildID); ok {
			removed += guild.PruneAwards(olderThan)
		}
	}
	if m.archive != nil {
		n, err := m.archive.Prune(olderThan)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

func (m *MemoryStore) GuildSettings(_ context.Context, guildID string) (*models.GuildSettings, error) {
	guild, ok := m.ledger.Peek(guildID)
	if !ok {
		return nil, nil
	}
	return guild.Settings(), nil
}

func (m *MemoryStore) PutGuildSettings(_ context.Context, settings *models.GuildSettings) error {
	m.ledger.Guild(settings.GuildID).PutSettings(settings)
	return nil
}

func (m *MemoryStore) Export(_ context.Context) (*models.LedgerSnapshot, error) {
	snap := models.NewLedgerSnapshot()
	for _, guildID := range m.ledger.GuildIDs() {
		guild, ok := m.ledger.Peek(guildID)
		if !ok {
			continue
		}
		snap.Guilds[guildID] = &models.GuildSnapshot{
			Members:  guild.SnapshotMembers(),
			Awards:   guild.SnapshotAwards(),
			Settings: guild.Settings(),
		}
	}
	return snap, nil
}

func (m *MemoryStore) Import(_ context.Context, snapshot *models.LedgerSnapshot) error {
	for guildID, gs := range snapshot.Guilds {
		guild := m.ledger.Guild(guildID)
		guild.PutMembers(gs.Members)
		guild.PutAwards(gs.Awards)
		if gs.Settings != nil {
			guild.PutSettings(gs.Settings)
		}
	}
	return nil
}

func (m *MemoryStore) Stats() models.StoreStats {
	return m.ledger.Stats()
}

func (m *MemoryStore) Close() error {
	if m.archive != nil {
		return m.archive.Close()
	}
	return nil
}
