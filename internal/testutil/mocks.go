package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"xpd/internal/models"
	"xpd/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasLevel reports whether any recorded entry used the given level.
func (m *MockLogger) HasLevel(level string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level {
			return true
		}
	}
	return false
}

// MockLedgerStore implements models.LedgerStore over plain maps. Setting
// FailWith makes every operation return that error.
type MockLedgerStore struct {
	mu       sync.Mutex
	Members  map[string]map[string]*models.MemberRecord
	Awards   map[string][]*models.Award // append order, oldest first
	Settings map[string]*models.GuildSettings
	Imported []*models.LedgerSnapshot
	FailWith error
	Closed   bool
}

func NewMockLedgerStore() *MockLedgerStore {
	return &MockLedgerStore{
		Members:  make(map[string]map[string]*models.MemberRecord),
		Awards:   make(map[string][]*models.Award),
		Settings: make(map[string]*models.GuildSettings),
	}
}

func (m *MockLedgerStore) ApplyDelta(_ context.Context, guildID, userID string, delta int64, at time.Time) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, 0, m.FailWith
	}

	if m.Members[guildID] == nil {
		m.Members[guildID] = make(map[string]*models.MemberRecord)
	}
	rec, ok := m.Members[guildID][userID]
	if !ok {
		rec = &models.MemberRecord{GuildID: guildID, UserID: userID}
		m.Members[guildID][userID] = rec
	}
	old := rec.XP
	rec.XP += delta
	rec.LastAwardAt = at
	m.Awards[guildID] = append(m.Awards[guildID], &models.Award{GuildID: guildID, UserID: userID, Delta: delta, At: at})
	return old, rec.XP, nil
}

func (m *MockLedgerStore) Get(_ context.Context, guildID, userID string) (*models.MemberRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	rec, ok := m.Members[guildID][userID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *MockLedgerStore) TopN(_ context.Context, guildID string, n int) ([]*models.MemberRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	all := make([]*models.MemberRecord, 0, len(m.Members[guildID]))
	for _, rec := range m.Members[guildID] {
		cp := *rec
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].XP != all[j].XP {
			return all[i].XP > all[j].XP
		}
		return all[i].UserID < all[j].UserID
	})
	if n < 0 {
		n = 0
	}
	if n > len(all) {
		n = len(all)
	}
	return all[:n], nil
}

func (m *MockLedgerStore) Rank(_ context.Context, guildID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	me, ok := m.Members[guildID][userID]
	if !ok {
		return 0, nil
	}
	rank := 1
	for uid, rec := range m.Members[guildID] {
		if rec.XP > me.XP || (rec.XP == me.XP && uid < userID) {
			rank++
		}
	}
	return rank, nil
}

func (m *MockLedgerStore) MemberCount(_ context.Context, guildID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	return len(m.Members[guildID]), nil
}

func (m *MockLedgerStore) MemberCounts(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	counts := make(map[string]int, len(m.Members))
	for guildID, members := range m.Members {
		counts[guildID] = len(members)
	}
	return counts, nil
}

func (m *MockLedgerStore) Guilds(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	ids := make([]string, 0, len(m.Members))
	for guildID := range m.Members {
		ids = append(ids, guildID)
	}
	for guildID := range m.Settings {
		if _, ok := m.Members[guildID]; !ok {
			ids = append(ids, guildID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockLedgerStore) RecentAwards(_ context.Context, guildID string, n int) ([]*models.Award, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	awards := m.Awards[guildID]
	if n > len(awards) {
		n = len(awards)
	}
	result := make([]*models.Award, 0, n)
	for i := 0; i < n; i++ {
		cp := *awards[len(awards)-1-i]
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockLedgerStore) PruneAwards(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	removed := 0
	for guildID, awards := range m.Awards {
		kept := awards[:0]
		for _, a := range awards {
			if a.At.After(olderThan) {
				kept = append(kept, a)
			} else {
				removed++
			}
		}
		m.Awards[guildID] = kept
	}
	return removed, nil
}

func (m *MockLedgerStore) GuildSettings(_ context.Context, guildID string) (*models.GuildSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	s, ok := m.Settings[guildID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockLedgerStore) PutGuildSettings(_ context.Context, settings *models.GuildSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	cp := *settings
	m.Settings[cp.GuildID] = &cp
	return nil
}

func (m *MockLedgerStore) Export(_ context.Context) (*models.LedgerSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	snap := models.NewLedgerSnapshot()
	for guildID, members := range m.Members {
		gs := &models.GuildSnapshot{Members: make(map[string]models.MemberRecord, len(members))}
		for userID, rec := range members {
			gs.Members[userID] = *rec
		}
		for _, a := range m.Awards[guildID] {
			gs.Awards = append(gs.Awards, *a)
		}
		if s, ok := m.Settings[guildID]; ok {
			cp := *s
			gs.Settings = &cp
		}
		snap.Guilds[guildID] = gs
	}
	return snap, nil
}

func (m *MockLedgerStore) Import(_ context.Context, snapshot *models.LedgerSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Imported = append(m.Imported, snapshot)
	for guildID, gs := range snapshot.Guilds {
		if m.Members[guildID] == nil {
			m.Members[guildID] = make(map[string]*models.MemberRecord)
		}
		for userID, rec := range gs.Members {
			cp := rec
			cp.GuildID = guildID
			cp.UserID = userID
			m.Members[guildID][userID] = &cp
		}
		for _, a := range gs.Awards {
			cp := a
			m.Awards[guildID] = append(m.Awards[guildID], &cp)
		}
		if gs.Settings != nil {
			cp := *gs.Settings
			m.Settings[guildID] = &cp
		}
	}
	return nil
}

func (m *MockLedgerStore) Stats() models.StoreStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := models.StoreStats{Guilds: len(m.Members)}
	for _, members := range m.Members {
		stats.Members += len(members)
	}
	return stats
}

func (m *MockLedgerStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu            sync.Mutex
	Requests      map[string]int // endpoint
	Grants        map[string]int // result
	XPAwarded     int64
	LevelUps      int
	StorageErrors int
	CacheHits     int
	CacheMisses   int
	Persists      int
	MembersGauge  map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Requests:     make(map[string]int),
		Grants:       make(map[string]int),
		MembersGauge: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[endpoint]++
}

func (m *MockMetrics) ObserveRequestDuration(endpoint string, duration time.Duration) {}

func (m *MockMetrics) IncGrantsTotal(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Grants[result]++
}

func (m *MockMetrics) AddXPAwarded(delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.XPAwarded += delta
}

func (m *MockMetrics) IncLevelUps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LevelUps++
}

func (m *MockMetrics) IncStorageErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StorageErrors++
}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) ObservePersistenceDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
}

func (m *MockMetrics) SetMembersTotal(guildID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MembersGauge[guildID] = count
}

// GrantCount returns the recorded count for one grant result label.
func (m *MockMetrics) GrantCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Grants[result]
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}
