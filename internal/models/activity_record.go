package models

import (
	"io"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// ActivityRecord tracks which members of one guild were active on which UTC
// day. Members get a dense uint32 index on first sight; each day keeps a
// roaring bitmap of the indexes seen. Distinct counts over a day range are
// a bitmap union, so a month of activity for a large guild stays cheap.
// Thread-safe: all public methods acquire ar.mu internally.
type ActivityRecord struct {
	mu        sync.Mutex
	memberIdx map[string]uint32
	nextIdx   uint32
	days      map[int32]*roaring.Bitmap
	lastSeen  time.Time
}

func NewActivityRecord() *ActivityRecord {
	return &ActivityRecord{
		memberIdx: make(map[string]uint32),
		days:      make(map[int32]*roaring.Bitmap),
		lastSeen:  time.Now(),
	}
}

// DayNumber maps a timestamp to its UTC day index.
func DayNumber(t time.Time) int32 {
	return int32(t.UTC().Unix() / 86400)
}

// Touch marks the user active on the day of at.
func (ar *ActivityRecord) Touch(userID string, at time.Time) {
	day := DayNumber(at)

	ar.mu.Lock()
	defer ar.mu.Unlock()

	ar.lastSeen = at
	idx, ok := ar.memberIdx[userID]
	if !ok {
		idx = ar.nextIdx
		ar.memberIdx[userID] = idx
		ar.nextIdx++
	}
	bm, ok := ar.days[day]
	if !ok {
		bm = roaring.New()
		ar.days[day] = bm
	}
	bm.Add(idx)
}

// ActiveCount returns the distinct members active in [fromDay, toDay].
func (ar *ActivityRecord) ActiveCount(fromDay, toDay int32) int {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	var bitmaps []*roaring.Bitmap
	for day, bm := range ar.days {
		if day >= fromDay && day <= toDay {
			bitmaps = append(bitmaps, bm)
		}
	}
	if len(bitmaps) == 0 {
		return 0
	}
	return int(roaring.FastOr(bitmaps...).GetCardinality())
}

// Prune drops day bitmaps older than beforeDay and returns how many days
// were removed. Member indexes stay; they are tiny compared to the bitmaps.
func (ar *ActivityRecord) Prune(beforeDay int32) int {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	removed := 0
	for day := range ar.days {
		if day < beforeDay {
			delete(ar.days, day)
			removed++
		}
	}
	return removed
}

func (ar *ActivityRecord) DayCount() int {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return len(ar.days)
}

// LastSeen returns the time of last activity in this guild.
func (ar *ActivityRecord) LastSeen() time.Time {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.lastSeen
}

// WriteBinaryTo writes the record in binary format.
func (ar *ActivityRecord) WriteBinaryTo(w io.Writer) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return writeActivityRecord(w, ar)
}
