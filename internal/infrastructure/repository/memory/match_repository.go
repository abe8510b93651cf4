package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
)

type MatchRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[match.IdentityKey]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		nextID: 1,
		items:  make(map[match.IdentityKey]match.Match),
	}
}

func (r *MatchRepository) FindByIdentity(_ context.Context, key match.IdentityKey) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[key]
	if !ok {
		return match.Match{}, false, nil
	}

	return m, true, nil
}

func (r *MatchRepository) Upsert(_ context.Context, item match.Match) (match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := item.Identity()
	if existing, ok := r.items[key]; ok {
		item.ID = existing.ID
		// The one-way flags survive feed revisions.
		item.Notified = existing.Notified
		item.VoiceRoomCreated = existing.VoiceRoomCreated
	} else {
		item.ID = r.nextID
		r.nextID++
	}

	r.items[key] = item
	return item, nil
}

func (r *MatchRepository) UpdateByIdentity(_ context.Context, item match.Match) (match.Match, error) {
	return r.Upsert(nil, item)
}

func (r *MatchRepository) ListForNotification(_ context.Context, window match.Window) ([]match.Match, error) {
	return r.list(window, func(m match.Match) bool {
		return m.Status == match.StatusScheduled && !m.Notified
	}), nil
}

func (r *MatchRepository) ListForVoiceRoom(_ context.Context, window match.Window) ([]match.Match, error) {
	return r.list(window, func(m match.Match) bool {
		return m.Status == match.StatusScheduled && !m.VoiceRoomCreated
	}), nil
}

func (r *MatchRepository) ListUpcoming(_ context.Context, window match.Window) ([]match.Match, error) {
	return r.list(window, func(m match.Match) bool {
		return m.Status == match.StatusScheduled
	}), nil
}

func (r *MatchRepository) SetNotified(_ context.Context, matchID int64) error {
	return r.setFlag(matchID, func(m *match.Match) { m.Notified = true })
}

func (r *MatchRepository) SetVoiceRoomCreated(_ context.Context, matchID int64) error {
	return r.setFlag(matchID, func(m *match.Match) { m.VoiceRoomCreated = true })
}

func (r *MatchRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[match.IdentityKey]match.Match)
	return nil
}

// Len reports the number of distinct stored matches.
func (r *MatchRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *MatchRepository) list(window match.Window, keep func(match.Match) bool) []match.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, m := range r.items {
		if m.KickoffAt.Before(window.From) || m.KickoffAt.After(window.To) {
			continue
		}
		if !keep(m) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].KickoffAt.Before(out[j].KickoffAt)
	})
	return out
}

func (r *MatchRepository) setFlag(matchID int64, apply func(*match.Match)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, m := range r.items {
		if m.ID != matchID {
			continue
		}
		apply(&m)
		r.items[key] = m
		return nil
	}

	return nil
}
