package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServesFreshSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	c := NewCache(map[string]time.Duration{TableDepartures: 30 * time.Second})
	c.now = func() time.Time { return now }

	rows := [][]string{{"1", "Amina"}}
	c.Set(TableDepartures, rows)

	got, ok := c.Get(TableDepartures)
	require.True(t, ok)
	assert.Equal(t, rows, got)
}

func TestCacheExpiresAtTTL(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	c := NewCache(map[string]time.Duration{TableDepartures: 30 * time.Second})
	c.now = func() time.Time { return now }

	c.Set(TableDepartures, [][]string{{"1"}})

	now = now.Add(29 * time.Second)
	_, ok := c.Get(TableDepartures)
	assert.True(t, ok, "still fresh just inside the TTL")

	now = now.Add(time.Second)
	_, ok = c.Get(TableDepartures)
	assert.False(t, ok, "expired exactly at the TTL")
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(map[string]time.Duration{
		TableDepartures: time.Minute,
		TableGroups:     time.Minute,
	})

	c.Set(TableDepartures, [][]string{{"1"}})
	c.Set(TableGroups, [][]string{{"7"}})

	c.Invalidate(TableDepartures)

	_, ok := c.Get(TableDepartures)
	assert.False(t, ok)
	_, ok = c.Get(TableGroups)
	assert.True(t, ok, "other tables keep their snapshots")
}

func TestCacheIgnoresTablesWithoutTTL(t *testing.T) {
	c := NewCache(map[string]time.Duration{TableDepartures: time.Minute})

	c.Set(TableExtensions, [][]string{{"1"}})

	_, ok := c.Get(TableExtensions)
	assert.False(t, ok, "tables without a TTL are never cached")
}
