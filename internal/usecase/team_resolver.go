package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fikstur/fikstur-bot/internal/domain/team"
	"github.com/fikstur/fikstur-bot/internal/platform/cache"
	"github.com/fikstur/fikstur-bot/internal/platform/logging"
)

// TeamResolver maps a raw team name from the feed to a canonical stored
// team. Resolution fires once per side per fixture per club query, and
// concurrent club syncs routinely name the same team (a derby is reported
// by both clubs' queries), so lookups for one lower-cased name collapse
// into a single in-flight request via the cache's singleflight loader.
type TeamResolver struct {
	repo   team.Repository
	search TeamSearchProvider
	cache  *cache.Store
	logger *logging.Logger
}

func NewTeamResolver(repo team.Repository, search TeamSearchProvider, ttl time.Duration, logger *logging.Logger) *TeamResolver {
	if logger == nil {
		logger = logging.Default()
	}

	return &TeamResolver{
		repo:   repo,
		search: search,
		cache:  cache.NewStore(ttl),
		logger: logger,
	}
}

// Resolve finds or creates the team for the given feed name. Enrichment
// failure is recoverable: the team is synthesized from the name alone. Only
// a storage failure surfaces as an error.
func (r *TeamResolver) Resolve(ctx context.Context, name, feedLogo string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamResolver.Resolve")
	defer span.End()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return team.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	value, err := r.cache.GetOrLoad(ctx, strings.ToLower(trimmed), func(ctx context.Context) (any, error) {
		return r.resolveUncached(ctx, trimmed, feedLogo)
	})
	if err != nil {
		return team.Team{}, err
	}

	resolved, ok := value.(team.Team)
	if !ok {
		return team.Team{}, fmt.Errorf("unexpected cached value for team %q", trimmed)
	}

	return resolved, nil
}

func (r *TeamResolver) resolveUncached(ctx context.Context, name, feedLogo string) (team.Team, error) {
	existing, found, err := r.repo.GetByName(ctx, name)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team by name %q: %w", name, err)
	}
	if found {
		return existing, nil
	}

	candidate := team.Team{
		Name:      name,
		Logo:      feedLogo,
		ShortName: team.FallbackShortName(name),
	}

	if r.search != nil {
		profile, ok, searchErr := r.search.SearchTeam(ctx, name)
		if searchErr != nil {
			r.logger.WarnContext(ctx, "team enrichment lookup failed, falling back to feed data",
				"team", name, "error", searchErr)
		} else if ok {
			if profile.Logo != "" {
				candidate.Logo = profile.Logo
			}
			if profile.ShortName != "" {
				candidate.ShortName = profile.ShortName
			}
		}
	}

	created, err := r.repo.UpsertByName(ctx, candidate)
	if err != nil {
		return team.Team{}, fmt.Errorf("upsert team %q: %w", name, err)
	}
	r.logger.InfoContext(ctx, "team created", "team", created.Name, "short_name", created.ShortName)

	return created, nil
}
