package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedgerSnapshot_CurrentVersion(t *testing.T) {
	snap := NewLedgerSnapshot()
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.NotNil(t, snap.Guilds)
}

func TestLegacySnapshotV1_Converts(t *testing.T) {
	snap := LegacySnapshotV1(map[string]map[string]int64{
		"g1": {"u1": 100, "u2": 250},
		"g2": {"u1": 5},
	})

	assert.Equal(t, SnapshotVersion, snap.Version)
	require.Len(t, snap.Guilds, 2)

	g1 := snap.Guilds["g1"]
	require.NotNil(t, g1)
	assert.Equal(t, int64(100), g1.Members["u1"].XP)
	assert.Equal(t, int64(250), g1.Members["u2"].XP)
	assert.Equal(t, "g1", g1.Members["u1"].GuildID)
	assert.Equal(t, "u1", g1.Members["u1"].UserID)
	// v1 carried no awards or settings
	assert.Empty(t, g1.Awards)
	assert.Nil(t, g1.Settings)
}

func TestLegacySnapshotV1_Empty(t *testing.T) {
	snap := LegacySnapshotV1(map[string]map[string]int64{})
	assert.Empty(t, snap.Guilds)
}
