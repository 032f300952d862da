package models

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEvent_WireFormat(t *testing.T) {
	var e MessageEvent
	require.NoError(t, json.Unmarshal([]byte(`{"g":"guild1","u":"user1","l":120,"t":1700000000000}`), &e))

	assert.Equal(t, "guild1", e.GuildID)
	assert.Equal(t, "user1", e.UserID)
	assert.Equal(t, 120, e.Length)
	assert.Equal(t, int64(1700000000000), e.At)
}

func TestMessageEvent_TimeFromMillis(t *testing.T) {
	e := MessageEvent{At: 1700000000000}
	assert.Equal(t, time.UnixMilli(1700000000000), e.Time())
}

func TestMessageEvent_TimeUnsetIsZero(t *testing.T) {
	e := MessageEvent{}
	assert.True(t, e.Time().IsZero())
}

func TestAccrualResult_OmitsEmptyReason(t *testing.T) {
	data, err := json.Marshal(&AccrualResult{Granted: true, XP: 120, Delta: 20})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "reason")
	assert.NotContains(t, string(data), "retry_after_ms")

	data, err = json.Marshal(&AccrualResult{Reason: ReasonCooldown, XP: 100, RetryAfterMs: 30000})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reason":"cooldown"`)
	assert.Contains(t, string(data), `"retry_after_ms":30000`)
}
