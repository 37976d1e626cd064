package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/omarshaarawi/legacybot/internal/models"
)

// maxSnapshots bounds the per-format history, roughly two seasons of daily
// refreshes.
const maxSnapshots = 730

// Repository keeps raw provider data between requests: the username each
// chat is following, the player catalog, and daily value snapshots per
// format. Nothing computed from them is stored here.
type Repository struct {
	mu        sync.RWMutex
	usernames map[int64]string
	snapshots map[models.ValuationFormat][]models.ValueSnapshot
	players   map[string]models.SleeperPlayer
	playersAt time.Time
}

func NewRepository() *Repository {
	return &Repository{
		usernames: make(map[int64]string),
		snapshots: make(map[models.ValuationFormat][]models.ValueSnapshot),
	}
}

func (r *Repository) SaveUsername(chatID int64, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usernames[chatID] = username
}

func (r *Repository) GetUsername(chatID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.usernames[chatID]
	return u, ok
}

// SaveSnapshot stores a snapshot, replacing any other taken the same UTC day
// for the same format.
func (r *Repository) SaveSnapshot(snap models.ValueSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.snapshots[snap.Format]
	day := snap.TakenAt.UTC().Truncate(24 * time.Hour)
	replaced := false
	for i, s := range list {
		if s.TakenAt.UTC().Truncate(24 * time.Hour).Equal(day) {
			list[i] = snap
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, snap)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TakenAt.Before(list[j].TakenAt) })
	if len(list) > maxSnapshots {
		list = list[len(list)-maxSnapshots:]
	}
	r.snapshots[snap.Format] = list
}

func (r *Repository) GetSnapshots(format models.ValuationFormat) []models.ValueSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.snapshots[format]
	out := make([]models.ValueSnapshot, len(list))
	copy(out, list)
	return out
}

func (r *Repository) LatestSnapshot(format models.ValuationFormat) (models.ValueSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.snapshots[format]
	if len(list) == 0 {
		return models.ValueSnapshot{}, false
	}
	return list[len(list)-1], true
}

// Formats lists every format that has been requested at least once.
func (r *Repository) Formats() []models.ValuationFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ValuationFormat, 0, len(r.snapshots))
	for f := range r.snapshots {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.NumTeam != b.NumTeam {
			return a.NumTeam < b.NumTeam
		}
		if a.NumQBs != b.NumQBs {
			return a.NumQBs < b.NumQBs
		}
		if a.PPR != b.PPR {
			return a.PPR < b.PPR
		}
		return !a.Dynasty && b.Dynasty
	})
	return out
}

func (r *Repository) SavePlayers(players map[string]models.SleeperPlayer, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = players
	r.playersAt = at
}

func (r *Repository) GetPlayers() (map[string]models.SleeperPlayer, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players, r.playersAt
}
