package models

import (
	"sort"
	"sync"
	"time"
)

// GuildLedger holds one guild's ledger state: member totals, the recent
// award ring and the guild's settings row. Records are stored by value and
// copied out, so callers can never mutate shared state.
type GuildLedger struct {
	mu        sync.RWMutex
	guildID   string
	members   map[string]MemberRecord
	awards    []Award // circular once awardCap is reached
	awardHead int
	awardCap  int
	settings  *GuildSettings
}

func NewGuildLedger(guildID string, awardCap int) *GuildLedger {
	return &GuildLedger{
		guildID:  guildID,
		members:  make(map[string]MemberRecord),
		awardCap: awardCap,
	}
}

// ApplyDelta adds delta to the user's total under the guild lock and
// returns the totals before and after. First touch creates the record at
// zero, so old == 0 and new == delta.
func (g *GuildLedger) ApplyDelta(userID string, delta int64, at time.Time) (int64, int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.members[userID]
	if !ok {
		rec = MemberRecord{GuildID: g.guildID, UserID: userID}
	}
	old := rec.XP
	rec.XP += delta
	rec.LastAwardAt = at
	g.members[userID] = rec
	return old, rec.XP
}

func (g *GuildLedger) Get(userID string) (*MemberRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.members[userID]
	if !ok {
		return nil, false
	}
	cp := rec
	return &cp, true
}

// TopN returns up to n records, XP descending, ties by ascending user ID.
func (g *GuildLedger) TopN(n int) []*MemberRecord {
	if n <= 0 {
		return []*MemberRecord{}
	}

	g.mu.RLock()
	all := make([]MemberRecord, 0, len(g.members))
	for _, rec := range g.members {
		all = append(all, rec)
	}
	g.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].XP != all[j].XP {
			return all[i].XP > all[j].XP
		}
		return all[i].UserID < all[j].UserID
	})

	if n > len(all) {
		n = len(all)
	}
	result := make([]*MemberRecord, n)
	for i := 0; i < n; i++ {
		cp := all[i]
		result[i] = &cp
	}
	return result
}

// Rank returns the 1-based position the user would hold in TopN output,
// or 0 when the user is absent.
func (g *GuildLedger) Rank(userID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	me, ok := g.members[userID]
	if !ok {
		return 0
	}
	rank := 1
	for uid, rec := range g.members {
		if rec.XP > me.XP || (rec.XP == me.XP && uid < userID) {
			rank++
		}
	}
	return rank
}

func (g *GuildLedger) MemberCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// AppendAward records a granted award in the ring. When the ring is full
// the oldest entry is evicted and returned so the caller can archive it.
func (g *GuildLedger) AppendAward(a Award) *Award {
	if g.awardCap <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.awards) < g.awardCap {
		g.awards = append(g.awards, a)
		return nil
	}
	evicted := g.awards[g.awardHead]
	g.awards[g.awardHead] = a
	g.awardHead = (g.awardHead + 1) % g.awardCap
	return &evicted
}

// RecentAwards returns up to n awards, newest first.
func (g *GuildLedger) RecentAwards(n int) []*Award {
	if n <= 0 {
		return []*Award{}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	size := len(g.awards)
	if n > size {
		n = size
	}
	result := make([]*Award, 0, n)
	// Newest entry sits just before the head once the ring wrapped,
	// otherwise at the end of the slice.
	newest := size - 1
	if size == g.awardCap {
		newest = (g.awardHead - 1 + size) % size
	}
	for i := 0; i < n; i++ {
		cp := g.awards[(newest-i+size)%size]
		result = append(result, &cp)
	}
	return result
}

// PruneAwards drops ring entries older than the cutoff and returns how many
// were removed. The ring is rebuilt oldest-first.
func (g *GuildLedger) PruneAwards(cutoff time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	size := len(g.awards)
	if size == 0 {
		return 0
	}

	kept := make([]Award, 0, size)
	oldest := 0
	if size == g.awardCap {
		oldest = g.awardHead
	}
	for i := 0; i < size; i++ {
		a := g.awards[(oldest+i)%size]
		if a.At.After(cutoff) {
			kept = append(kept, a)
		}
	}
	removed := size - len(kept)
	g.awards = kept
	g.awardHead = 0
	return removed
}

func (g *GuildLedger) Settings() *GuildSettings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.settings == nil {
		return nil
	}
	cp := *g.settings
	return &cp
}

func (g *GuildLedger) PutSettings(s *GuildSettings) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s == nil {
		g.settings = nil
		return
	}
	cp := *s
	g.settings = &cp
}

// SnapshotAwards copies the ring oldest-first for persistence.
func (g *GuildLedger) SnapshotAwards() []Award {
	g.mu.RLock()
	defer g.mu.RUnlock()

	size := len(g.awards)
	out := make([]Award, 0, size)
	oldest := 0
	if size == g.awardCap {
		oldest = g.awardHead
	}
	for i := 0; i < size; i++ {
		out = append(out, g.awards[(oldest+i)%size])
	}
	return out
}

// PutAwards refills the ring from an oldest-first slice, keeping at most
// the newest awardCap entries.
func (g *GuildLedger) PutAwards(awards []Award) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.awardCap > 0 && len(awards) > g.awardCap {
		awards = awards[len(awards)-g.awardCap:]
	}
	g.awards = append([]Award(nil), awards...)
	g.awardHead = 0
}

// SnapshotMembers copies the member map for persistence.
func (g *GuildLedger) SnapshotMembers() map[string]MemberRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cp := make(map[string]MemberRecord, len(g.members))
	for uid, rec := range g.members {
		cp[uid] = rec
	}
	return cp
}

// PutMembers replaces the member map wholesale; used by snapshot restore.
func (g *GuildLedger) PutMembers(members map[string]MemberRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members = make(map[string]MemberRecord, len(members))
	for uid, rec := range members {
		rec.GuildID = g.guildID
		rec.UserID = uid
		g.members[uid] = rec
	}
}
