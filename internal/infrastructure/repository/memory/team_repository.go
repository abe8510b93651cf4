package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/fikstur/fikstur-bot/internal/domain/team"
)

type TeamRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[string]team.Team // keyed by lower-cased name
}

func NewTeamRepository(teams ...team.Team) *TeamRepository {
	items := make(map[string]team.Team, len(teams))
	var maxID int64
	for _, t := range teams {
		items[strings.ToLower(t.Name)] = t
		if t.ID > maxID {
			maxID = t.ID
		}
	}

	return &TeamRepository{
		nextID: maxID + 1,
		items:  items,
	}
}

func (r *TeamRepository) GetByName(_ context.Context, name string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[strings.ToLower(name)]
	if !ok {
		return team.Team{}, false, nil
	}

	return t, true, nil
}

func (r *TeamRepository) UpsertByName(_ context.Context, item team.Team) (team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(item.Name)
	if existing, ok := r.items[key]; ok {
		item.ID = existing.ID
		// Backfill only: stored identity data survives feed noise.
		if existing.Logo != "" {
			item.Logo = existing.Logo
		}
		if existing.ShortName != "" {
			item.ShortName = existing.ShortName
		}
	} else {
		item.ID = r.nextID
		r.nextID++
	}

	r.items[key] = item
	return item, nil
}

// Len reports the number of distinct stored teams.
func (r *TeamRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
