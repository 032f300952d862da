package models

import (
	"sort"
	"sync"
)

// Ledger is the in-memory two-level store: guild ID -> GuildLedger. The
// outer map is guarded by its own RWMutex; per-member operations then
// serialize on the guild's lock, which keeps same-key writes linearizable
// while unrelated guilds proceed in parallel.
type Ledger struct {
	mu       sync.RWMutex
	guilds   map[string]*GuildLedger
	awardCap int
}

func NewLedger(awardCap int) *Ledger {
	return &Ledger{
		guilds:   make(map[string]*GuildLedger),
		awardCap: awardCap,
	}
}

// Guild returns the guild's ledger, creating it on first touch.
func (l *Ledger) Guild(guildID string) *GuildLedger {
	// Fast path: guild already exists (read lock only)
	l.mu.RLock()
	g, ok := l.guilds[guildID]
	l.mu.RUnlock()
	if ok {
		return g
	}

	// Slow path: write lock with double-check
	l.mu.Lock()
	defer l.mu.Unlock()
	if g, ok = l.guilds[guildID]; ok {
		return g
	}
	g = NewGuildLedger(guildID, l.awardCap)
	l.guilds[guildID] = g
	return g
}

// Peek returns the guild's ledger without creating it.
func (l *Ledger) Peek(guildID string) (*GuildLedger, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.guilds[guildID]
	return g, ok
}

func (l *Ledger) GuildIDs() []string {
	l.mu.RLock()
	ids := make([]string, 0, len(l.guilds))
	for id := range l.guilds {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.guilds)
}

// Stats counts guilds and members in one pass.
func (l *Ledger) Stats() StoreStats {
	l.mu.RLock()
	ledgers := make([]*GuildLedger, 0, len(l.guilds))
	for _, g := range l.guilds {
		ledgers = append(ledgers, g)
	}
	l.mu.RUnlock()

	stats := StoreStats{Guilds: len(ledgers)}
	for _, g := range ledgers {
		stats.Members += g.MemberCount()
	}
	return stats
}
