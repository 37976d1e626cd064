package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/omarshaarawi/legacybot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var format = models.ValuationFormat{Dynasty: true, NumQBs: 1, NumTeam: 12, PPR: 1}

func snap(at time.Time, value float64) models.ValueSnapshot {
	return models.ValueSnapshot{
		Format:  format,
		TakenAt: at,
		Values:  map[string]models.PlayerValue{"p1": {PlayerID: "p1", Value: value}},
	}
}

func TestUsernames(t *testing.T) {
	r := NewRepository()
	_, ok := r.GetUsername(1)
	assert.False(t, ok)

	r.SaveUsername(1, "alice")
	r.SaveUsername(2, "bob")
	got, ok := r.GetUsername(1)
	require.True(t, ok)
	assert.Equal(t, "alice", got)
}

func TestSnapshotsOnePerDay(t *testing.T) {
	r := NewRepository()
	day1 := time.Date(2024, time.May, 1, 6, 0, 0, 0, time.UTC)

	r.SaveSnapshot(snap(day1.Add(24*time.Hour), 200))
	r.SaveSnapshot(snap(day1, 100))
	r.SaveSnapshot(snap(day1.Add(3*time.Hour), 150))

	list := r.GetSnapshots(format)
	require.Len(t, list, 2)
	assert.Equal(t, 150.0, list[0].Values["p1"].Value, "same-day snapshot replaced")
	assert.Equal(t, 200.0, list[1].Values["p1"].Value)

	latest, ok := r.LatestSnapshot(format)
	require.True(t, ok)
	assert.Equal(t, 200.0, latest.Values["p1"].Value)

	other := format
	other.NumQBs = 2
	_, ok = r.LatestSnapshot(other)
	assert.False(t, ok)
	assert.Equal(t, []models.ValuationFormat{format}, r.Formats())
}

func TestSnapshotHistoryIsBounded(t *testing.T) {
	r := NewRepository()
	start := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < maxSnapshots+5; i++ {
		r.SaveSnapshot(snap(start.AddDate(0, 0, i), float64(i)))
	}
	list := r.GetSnapshots(format)
	require.Len(t, list, maxSnapshots)
	assert.Equal(t, 5.0, list[0].Values["p1"].Value)
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRepository()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.SaveSnapshot(snap(time.Unix(int64(i)*86400, 0), float64(i)))
			r.SaveUsername(int64(i), "user")
		}(i)
		go func() {
			defer wg.Done()
			r.GetSnapshots(format)
			r.GetPlayers()
		}()
	}
	wg.Wait()
	assert.Len(t, r.GetSnapshots(format), 20)
}
