package models

import (
	"sync"
	"time"
)

const cooldownShards = 256

// FNV-1a, inlined to keep the hot path allocation-free.
const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

type cooldownShard struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// CooldownTracker is the fixed-window rate limiter guarding accrual. State
// is in-memory only; losing it on restart costs at most one early grant per
// key. Keys are sharded across a fixed array of locked maps so concurrent
// events for different users never contend.
type CooldownTracker struct {
	shards [cooldownShards]cooldownShard
}

func NewCooldownTracker() *CooldownTracker {
	t := &CooldownTracker{}
	for i := range t.shards {
		t.shards[i].entries = make(map[string]time.Time)
	}
	return t
}

func cooldownKey(guildID, userID string) string {
	return guildID + "\x00" + userID
}

func shardIndex(key string) uint32 {
	h := uint32(fnvOffset32)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= fnvPrime32
	}
	return h % cooldownShards
}

// TryConsume grants unless a prior grant for the key lies within interval
// of now. On grant, now becomes the new window start. A zero interval
// always grants. The rejected case reports how long until the window opens.
func (t *CooldownTracker) TryConsume(guildID, userID string, now time.Time, interval time.Duration) (bool, time.Duration) {
	key := cooldownKey(guildID, userID)
	shard := &t.shards[shardIndex(key)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if interval > 0 {
		if last, ok := shard.entries[key]; ok {
			elapsed := now.Sub(last)
			if elapsed < interval {
				return false, interval - elapsed
			}
		}
	}
	shard.entries[key] = now
	return true, 0
}

// Sweep drops entries whose window start is older than the retention
// horizon and returns how many were removed. Run periodically so idle keys
// do not accumulate.
func (t *CooldownTracker) Sweep(now time.Time, olderThan time.Duration) int {
	if olderThan <= 0 {
		return 0
	}
	removed := 0
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.Lock()
		for key, last := range shard.entries {
			if now.Sub(last) >= olderThan {
				delete(shard.entries, key)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

func (t *CooldownTracker) Len() int {
	total := 0
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.Lock()
		total += len(shard.entries)
		shard.mu.Unlock()
	}
	return total
}
