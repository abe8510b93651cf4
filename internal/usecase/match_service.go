package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
	"github.com/fikstur/fikstur-bot/internal/fixturetime"
	"github.com/fikstur/fikstur-bot/internal/platform/cache"
	"github.com/fikstur/fikstur-bot/internal/platform/logging"
)

const matchCachePrefix = "matches:"

type MatchServiceConfig struct {
	NotificationLead time.Duration // how far before kickoff a match becomes notifiable
	VoiceRoomLead    time.Duration // shorter window for voice-room creation
	CacheTTL         time.Duration
}

func (c MatchServiceConfig) withDefaults() MatchServiceConfig {
	if c.NotificationLead <= 0 {
		c.NotificationLead = time.Hour
	}
	if c.VoiceRoomLead <= 0 {
		c.VoiceRoomLead = 15 * time.Minute
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 2 * time.Minute
	}
	return c
}

// MatchService owns the upsert/dedup engine and the query contract consumed
// by the notification side of the bot.
type MatchService struct {
	repo   match.Repository
	cache  *cache.Store
	cfg    MatchServiceConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewMatchService(repo match.Repository, cfg MatchServiceConfig, logger *logging.Logger) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	cfg = cfg.withDefaults()

	return &MatchService{
		repo:   repo,
		cache:  cache.NewStore(cfg.CacheTTL),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// UpsertMatch persists one normalized fixture. The storage upsert conflicts
// on the identity key, which excludes kickoff time-of-day, so a feed that
// merely revises the time updates the existing row in place. When the
// conflict-safe write itself fails mid-race, a force-update by identity runs
// as a last resort before the fixture is declared failed.
func (s *MatchService) UpsertMatch(ctx context.Context, item match.Match) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.UpsertMatch")
	defer span.End()

	if err := item.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item.Status = match.NormalizeStatus(item.Status)
	item.KickoffAt = item.KickoffAt.In(fixturetime.Location)
	item.KickoffTime = item.KickoffAt.Format("15:04")
	if item.HomeWinProb != nil && item.AwayWinProb != nil && item.DrawProb != nil {
		home, away, draw := match.NormalizeProbabilities(*item.HomeWinProb, *item.AwayWinProb, *item.DrawProb)
		item.HomeWinProb, item.AwayWinProb, item.DrawProb = &home, &away, &draw
	}

	stored, err := s.repo.Upsert(ctx, item)
	if err != nil {
		s.logger.WarnContext(ctx, "match upsert conflicted, retrying as forced update",
			"home_team_id", item.HomeTeamID,
			"away_team_id", item.AwayTeamID,
			"match_day", item.Identity().MatchDay,
			"error", err,
		)
		stored, err = s.repo.UpdateByIdentity(ctx, item)
		if err != nil {
			return match.Match{}, fmt.Errorf("force update match after conflict: %w", err)
		}
	}

	s.cache.DeletePrefix(ctx, matchCachePrefix)
	return stored, nil
}

// MatchesForNotification returns scheduled, not-yet-notified matches whose
// kickoff falls inside the notification lead window.
func (s *MatchService) MatchesForNotification(ctx context.Context) ([]match.Match, error) {
	return s.cachedList(ctx, matchCachePrefix+"notification", func(ctx context.Context) ([]match.Match, error) {
		now := s.now()
		return s.repo.ListForNotification(ctx, match.Window{From: now, To: now.Add(s.cfg.NotificationLead)})
	})
}

// MatchesForVoiceRoom is the same shape over the shorter voice-room window.
func (s *MatchService) MatchesForVoiceRoom(ctx context.Context) ([]match.Match, error) {
	return s.cachedList(ctx, matchCachePrefix+"voice-room", func(ctx context.Context) ([]match.Match, error) {
		now := s.now()
		return s.repo.ListForVoiceRoom(ctx, match.Window{From: now, To: now.Add(s.cfg.VoiceRoomLead)})
	})
}

// UpcomingMatches lists all scheduled matches within the next N days,
// ascending by kickoff.
func (s *MatchService) UpcomingMatches(ctx context.Context, days int) ([]match.Match, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}

	key := fmt.Sprintf("%supcoming:%d", matchCachePrefix, days)
	return s.cachedList(ctx, key, func(ctx context.Context) ([]match.Match, error) {
		now := s.now()
		return s.repo.ListUpcoming(ctx, match.Window{From: now, To: now.AddDate(0, 0, days)})
	})
}

// TodayMatches lists the scheduled matches left on the current match day
// in the canonical offset.
func (s *MatchService) TodayMatches(ctx context.Context) ([]match.Match, error) {
	return s.cachedList(ctx, matchCachePrefix+"today", func(ctx context.Context) ([]match.Match, error) {
		now := s.now().In(fixturetime.Location)
		dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, fixturetime.Location)
		return s.repo.ListUpcoming(ctx, match.Window{From: now, To: dayEnd})
	})
}

// MarkNotified flips the one-way notified flag.
func (s *MatchService) MarkNotified(ctx context.Context, matchID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.MarkNotified")
	defer span.End()

	if matchID <= 0 {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if err := s.repo.SetNotified(ctx, matchID); err != nil {
		return fmt.Errorf("mark match %d notified: %w", matchID, err)
	}

	s.cache.DeletePrefix(ctx, matchCachePrefix)
	return nil
}

// MarkVoiceRoomCreated flips the one-way voice-room flag.
func (s *MatchService) MarkVoiceRoomCreated(ctx context.Context, matchID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.MarkVoiceRoomCreated")
	defer span.End()

	if matchID <= 0 {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if err := s.repo.SetVoiceRoomCreated(ctx, matchID); err != nil {
		return fmt.Errorf("mark match %d voice room created: %w", matchID, err)
	}

	s.cache.DeletePrefix(ctx, matchCachePrefix)
	return nil
}

// DeleteAll wipes every match row. Full-resync mode runs this before
// repopulating; it is an intentional rebuild, not an error path, and it is
// the only way the notified/voice-room flags ever reset.
func (s *MatchService) DeleteAll(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.DeleteAll")
	defer span.End()

	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all matches: %w", err)
	}

	s.cache.DeletePrefix(ctx, matchCachePrefix)
	return nil
}

func (s *MatchService) cachedList(ctx context.Context, key string, loader func(context.Context) ([]match.Match, error)) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.cachedList")
	defer span.End()

	value, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return nil, err
	}

	matches, ok := value.([]match.Match)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value for %q", key)
	}

	return matches, nil
}
