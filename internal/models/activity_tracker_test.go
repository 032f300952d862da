package models

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var activityBase = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestDayNumber_UTCBoundary(t *testing.T) {
	endOfDay := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	startOfNext := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, DayNumber(endOfDay)+1, DayNumber(startOfNext))
	assert.Equal(t, DayNumber(endOfDay), DayNumber(activityBase))
}

func TestDayNumber_NormalizesZones(t *testing.T) {
	utc := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	east := utc.In(time.FixedZone("UTC+5", 5*3600))
	assert.Equal(t, DayNumber(utc), DayNumber(east))
}

func TestActivityTracker_TouchAndCount(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "u1", activityBase)
	tr.Touch("g1", "u2", activityBase)

	assert.Equal(t, 2, tr.ActiveCount("g1", 1, activityBase))
}

func TestActivityTracker_SameUserCountedOnce(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "u1", activityBase)
	tr.Touch("g1", "u1", activityBase.Add(time.Hour))
	tr.Touch("g1", "u1", activityBase.Add(2*time.Hour))

	assert.Equal(t, 1, tr.ActiveCount("g1", 1, activityBase))
}

func TestActivityTracker_WindowExcludesOlderDays(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "early", activityBase.AddDate(0, 0, -6))
	tr.Touch("g1", "late", activityBase)

	// 7-day window covers both, 3-day window only the recent one.
	assert.Equal(t, 2, tr.ActiveCount("g1", 7, activityBase))
	assert.Equal(t, 1, tr.ActiveCount("g1", 3, activityBase))
}

func TestActivityTracker_DistinctAcrossDays(t *testing.T) {
	tr := NewActivityTracker()
	// Same user on three different days is still one member.
	tr.Touch("g1", "u1", activityBase.AddDate(0, 0, -2))
	tr.Touch("g1", "u1", activityBase.AddDate(0, 0, -1))
	tr.Touch("g1", "u1", activityBase)
	tr.Touch("g1", "u2", activityBase.AddDate(0, 0, -1))

	assert.Equal(t, 2, tr.ActiveCount("g1", 7, activityBase))
}

func TestActivityTracker_DaysClampedToOne(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "u1", activityBase)

	assert.Equal(t, 1, tr.ActiveCount("g1", 0, activityBase))
	assert.Equal(t, 1, tr.ActiveCount("g1", -5, activityBase))
}

func TestActivityTracker_UnknownGuild(t *testing.T) {
	tr := NewActivityTracker()
	assert.Equal(t, 0, tr.ActiveCount("nope", 7, activityBase))
}

func TestActivityTracker_GuildsAreIsolated(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "u1", activityBase)
	tr.Touch("g2", "u1", activityBase)
	tr.Touch("g2", "u2", activityBase)

	assert.Equal(t, 1, tr.ActiveCount("g1", 1, activityBase))
	assert.Equal(t, 2, tr.ActiveCount("g2", 1, activityBase))
	assert.Equal(t, 2, tr.GuildCount())
}

func TestActivityTracker_Prune(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "old", activityBase.AddDate(0, 0, -30))
	tr.Touch("g1", "new", activityBase)

	removed := tr.Prune(activityBase, 7)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, tr.ActiveCount("g1", 90, activityBase))
}

func TestActivityTracker_PruneZeroRetention(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "u1", activityBase.AddDate(0, 0, -30))
	assert.Equal(t, 0, tr.Prune(activityBase, 0))
}

func TestActivityTracker_BinaryRoundtrip(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "u1", activityBase.AddDate(0, 0, -2))
	tr.Touch("g1", "u2", activityBase)
	tr.Touch("g2", "u1", activityBase)

	var buf bytes.Buffer
	require.NoError(t, tr.WriteBinaryTo(&buf))

	restored := NewActivityTracker()
	require.NoError(t, restored.ReadBinaryFrom(&buf))

	assert.Equal(t, 2, restored.GuildCount())
	assert.Equal(t, 2, restored.ActiveCount("g1", 7, activityBase))
	assert.Equal(t, 1, restored.ActiveCount("g1", 1, activityBase))
	assert.Equal(t, 1, restored.ActiveCount("g2", 1, activityBase))
}

func TestActivityTracker_RoundtripThenTouch(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "u1", activityBase)

	var buf bytes.Buffer
	require.NoError(t, tr.WriteBinaryTo(&buf))

	restored := NewActivityTracker()
	require.NoError(t, restored.ReadBinaryFrom(&buf))

	// Member indexes must survive so new touches reuse them.
	restored.Touch("g1", "u1", activityBase.Add(time.Hour))
	restored.Touch("g1", "u2", activityBase)
	assert.Equal(t, 2, restored.ActiveCount("g1", 1, activityBase))
}

func TestActivityTracker_ReadRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	// version 99, zero guilds
	buf.Write([]byte{99, 0, 0, 0, 0, 0, 0, 0})

	tr := NewActivityTracker()
	err := tr.ReadBinaryFrom(&buf)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestActivityTracker_ReadTruncated(t *testing.T) {
	tr := NewActivityTracker()
	tr.Touch("g1", "u1", activityBase)

	var buf bytes.Buffer
	require.NoError(t, tr.WriteBinaryTo(&buf))
	truncated := buf.Bytes()[:buf.Len()/2]

	restored := NewActivityTracker()
	assert.Error(t, restored.ReadBinaryFrom(bytes.NewReader(truncated)))
}

func TestActivityRecord_PruneKeepsRecentDays(t *testing.T) {
	rec := NewActivityRecord()
	rec.Touch("u1", activityBase.AddDate(0, 0, -10))
	rec.Touch("u1", activityBase.AddDate(0, 0, -1))
	rec.Touch("u1", activityBase)
	assert.Equal(t, 3, rec.DayCount())

	removed := rec.Prune(DayNumber(activityBase) - 1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, rec.DayCount())
}

func TestActivityRecord_LastSeen(t *testing.T) {
	rec := NewActivityRecord()
	rec.Touch("u1", activityBase)
	assert.Equal(t, activityBase, rec.LastSeen())
}

func TestActivityTracker_ConcurrentTouch(t *testing.T) {
	tr := NewActivityTracker()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tr.Touch(fmt.Sprintf("g%d", n%4), fmt.Sprintf("u%d", n), activityBase)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, tr.GuildCount())
	total := 0
	for i := 0; i < 4; i++ {
		total += tr.ActiveCount(fmt.Sprintf("g%d", i), 1, activityBase)
	}
	assert.Equal(t, 100, total)
}

func BenchmarkActivityTracker_Touch(b *testing.B) {
	tr := NewActivityTracker()
	now := time.Now()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Touch("g1", fmt.Sprintf("u%d", i%10000), now)
	}
}

func BenchmarkActivityTracker_ActiveCount(b *testing.B) {
	tr := NewActivityTracker()
	now := time.Now()
	for d := 0; d < 30; d++ {
		for u := 0; u < 1000; u++ {
			tr.Touch("g1", fmt.Sprintf("u%d", u), now.AddDate(0, 0, -d))
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.ActiveCount("g1", 30, now)
	}
}
