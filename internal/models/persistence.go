package models

// SnapshotVersion is the current on-disk snapshot format.
const SnapshotVersion = 2

// GuildSnapshot is one guild's persisted state.
type GuildSnapshot struct {
	Members  map[string]MemberRecord `json:"members"`
	Awards   []Award                 `json:"awards,omitempty"`
	Settings *GuildSettings          `json:"settings,omitempty"`
}

// LedgerSnapshot is the snapshot envelope with an explicit version field.
// The v1 format (bare guild -> user -> total maps, no envelope) is still
// readable; FileManager migrates it on load.
type LedgerSnapshot struct {
	Version int                       `json:"version"`
	Guilds  map[string]*GuildSnapshot `json:"guilds"`
}

func NewLedgerSnapshot() *LedgerSnapshot {
	return &LedgerSnapshot{
		Version: SnapshotVersion,
		Guilds:  make(map[string]*GuildSnapshot),
	}
}

// LegacySnapshotV1 converts the v1 format into the current envelope.
func LegacySnapshotV1(totals map[string]map[string]int64) *LedgerSnapshot {
	snap := NewLedgerSnapshot()
	for guildID, members := range totals {
		gs := &GuildSnapshot{Members: make(map[string]MemberRecord, len(members))}
		for userID, xp := range members {
			gs.Members[userID] = MemberRecord{GuildID: guildID, UserID: userID, XP: xp}
		}
		snap.Guilds[guildID] = gs
	}
	return snap
}
