package models

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"
)

const activityFormatVersion = 1

// ActivityTracker holds one ActivityRecord per guild. It is a statistic,
// not a ledger: losing it costs dashboards, never XP.
type ActivityTracker struct {
	mu     sync.RWMutex
	guilds map[string]*ActivityRecord
}

func NewActivityTracker() *ActivityTracker {
	return &ActivityTracker{
		guilds: make(map[string]*ActivityRecord),
	}
}

// Touch marks the user active in the guild on the day of at.
func (t *ActivityTracker) Touch(guildID, userID string, at time.Time) {
	// Fast path: guild already exists (read lock only)
	t.mu.RLock()
	rec, ok := t.guilds[guildID]
	t.mu.RUnlock()

	if ok {
		rec.Touch(userID, at)
		return
	}

	// Slow path: write lock with double-check
	t.mu.Lock()
	rec, ok = t.guilds[guildID]
	if !ok {
		rec = NewActivityRecord()
		t.guilds[guildID] = rec
	}
	t.mu.Unlock()

	rec.Touch(userID, at)
}

// ActiveCount returns the distinct members of the guild active in the last
// days days, today included. days < 1 counts today only.
func (t *ActivityTracker) ActiveCount(guildID string, days int, now time.Time) int {
	t.mu.RLock()
	rec, ok := t.guilds[guildID]
	t.mu.RUnlock()
	if !ok {
		return 0
	}

	if days < 1 {
		days = 1
	}
	today := DayNumber(now)
	return rec.ActiveCount(today-int32(days)+1, today)
}

// Prune drops day bitmaps older than the retention window across all
// guilds and returns how many were removed.
func (t *ActivityTracker) Prune(now time.Time, retentionDays int) int {
	if retentionDays <= 0 {
		return 0
	}

	t.mu.RLock()
	recs := make([]*ActivityRecord, 0, len(t.guilds))
	for _, rec := range t.guilds {
		recs = append(recs, rec)
	}
	t.mu.RUnlock()

	cutoff := DayNumber(now) - int32(retentionDays) + 1
	removed := 0
	for _, rec := range recs {
		removed += rec.Prune(cutoff)
	}
	return removed
}

func (t *ActivityTracker) GuildCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.guilds)
}

// WriteBinaryTo writes all guild records.
// Format: version(uint32) count(uint32) + for each: guildID(string) record
func (t *ActivityTracker) WriteBinaryTo(w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := binary.Write(w, byteOrder, uint32(activityFormatVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, byteOrder, uint32(len(t.guilds))); err != nil {
		return err
	}
	for guildID, rec := range t.guilds {
		if err := writeString(w, guildID); err != nil {
			return err
		}
		rec.mu.Lock()
		err := writeActivityRecord(w, rec)
		rec.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadBinaryFrom replaces the tracker contents from binary data.
func (t *ActivityTracker) ReadBinaryFrom(r io.Reader) error {
	var version uint32
	if err := binary.Read(r, byteOrder, &version); err != nil {
		return err
	}
	if version != activityFormatVersion {
		return fmt.Errorf("unsupported activity format version %d", version)
	}

	var count uint32
	if err := binary.Read(r, byteOrder, &count); err != nil {
		return err
	}
	guilds := make(map[string]*ActivityRecord, count)
	for i := uint32(0); i < count; i++ {
		guildID, err := readString(r)
		if err != nil {
			return err
		}
		rec, err := readActivityRecord(r)
		if err != nil {
			return err
		}
		guilds[guildID] = rec
	}

	t.mu.Lock()
	t.guilds = guilds
	t.mu.Unlock()
	return nil
}
