package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
	"github.com/fikstur/fikstur-bot/internal/platform/id"
	"github.com/fikstur/fikstur-bot/internal/platform/logging"
)

const (
	clubSyncStatusSuccess = "success"
	clubSyncStatusFailed  = "failed"
	clubSyncStatusSkipped = "skipped"
)

type SyncConfig struct {
	Roster     []ClubQuery
	WindowDays int
	MaxWorkers int
	// WipeBeforeSync drops every match row first and rebuilds from the feed.
	// Off by default because it also resets the notified flags.
	WipeBeforeSync bool
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.WindowDays <= 0 {
		c.WindowDays = 7
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 4
	}
	return c
}

type SyncReport struct {
	RunID        string           `json:"run_id"`
	ClubCount    int              `json:"club_count"`
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	SkippedCount int              `json:"skipped_count"`
	MatchCount   int              `json:"match_count"`
	WorkerCount  int              `json:"worker_count"`
	Wiped        bool             `json:"wiped"`
	Clubs        []ClubSyncResult `json:"clubs"`
}

type ClubSyncResult struct {
	Club       string `json:"club"`
	Status     string `json:"status"`
	Matches    int    `json:"matches"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// SyncService pulls fixtures for every tracked club and funnels them through
// the resolver and the match upsert engine. Clubs sync independently: one
// club's feed outage never blocks the rest, and the run errors only when
// every club fails.
type SyncService struct {
	feed     FixtureFeedProvider
	odds     OddsProvider
	resolver *TeamResolver
	matches  *MatchService
	cfg      SyncConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewSyncService(
	feed FixtureFeedProvider,
	odds OddsProvider,
	resolver *TeamResolver,
	matches *MatchService,
	cfg SyncConfig,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SyncService{
		feed:     feed,
		odds:     odds,
		resolver: resolver,
		matches:  matches,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// SyncAll runs one full sync pass over the configured roster.
func (s *SyncService) SyncAll(ctx context.Context) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncAll")
	defer span.End()

	if s.feed == nil || s.resolver == nil || s.matches == nil {
		return SyncReport{}, fmt.Errorf("%w: fixture sync is not fully configured", ErrDependencyUnavailable)
	}

	roster := make([]ClubQuery, 0, len(s.cfg.Roster))
	for _, club := range s.cfg.Roster {
		if strings.TrimSpace(club.Name) == "" {
			continue
		}
		roster = append(roster, club)
	}

	workerCount := s.cfg.MaxWorkers
	if workerCount > len(roster) && len(roster) > 0 {
		workerCount = len(roster)
	}

	report := SyncReport{
		RunID:       id.New("sync"),
		ClubCount:   len(roster),
		WorkerCount: workerCount,
		Clubs:       make([]ClubSyncResult, 0, len(roster)),
	}
	if len(roster) == 0 {
		return report, fmt.Errorf("%w: club roster is empty", ErrInvalidInput)
	}

	logger := s.logger.With("run_id", report.RunID)
	logger.InfoContext(ctx, "fixture sync started",
		"clubs", len(roster), "window_days", s.cfg.WindowDays, "wipe", s.cfg.WipeBeforeSync)

	if s.cfg.WipeBeforeSync {
		if err := s.matches.DeleteAll(ctx); err != nil {
			return report, fmt.Errorf("wipe matches before sync: %w", err)
		}
		report.Wiped = true
	}

	window := FixtureWindow{Now: s.now(), Days: s.cfg.WindowDays}
	results := make(chan ClubSyncResult, len(roster))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32
	var matchCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return report, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, club := range roster {
		club := club
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := ClubSyncResult{Club: club.Name}

			upserted, syncErr := s.syncClub(ctx, logger, club, window)
			row.Matches = upserted
			row.DurationMs = time.Since(start).Milliseconds()
			matchCount.Add(int32(upserted))

			switch {
			case syncErr != nil:
				row.Status = clubSyncStatusFailed
				row.Message = syncErr.Error()
				failedCount.Add(1)
				logger.ErrorContext(ctx, "club sync failed", "club", club.Name, "error", syncErr)
			case upserted == 0:
				row.Status = clubSyncStatusSkipped
				row.Message = "no fixtures in window"
				skippedCount.Add(1)
			default:
				row.Status = clubSyncStatusSuccess
				successCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return report, fmt.Errorf("submit club sync to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		report.Clubs = append(report.Clubs, row)
	}
	sort.SliceStable(report.Clubs, func(i, j int) bool {
		return report.Clubs[i].Club < report.Clubs[j].Club
	})

	report.SuccessCount = int(successCount.Load())
	report.FailedCount = int(failedCount.Load())
	report.SkippedCount = int(skippedCount.Load())
	report.MatchCount = int(matchCount.Load())

	logger.InfoContext(ctx, "fixture sync finished",
		"success", report.SuccessCount,
		"failed", report.FailedCount,
		"skipped", report.SkippedCount,
		"matches", report.MatchCount,
	)

	if report.FailedCount == report.ClubCount {
		return report, fmt.Errorf("%w: all %d club syncs failed", ErrDependencyUnavailable, report.ClubCount)
	}
	return report, nil
}

func (s *SyncService) syncClub(ctx context.Context, logger *logging.Logger, club ClubQuery, window FixtureWindow) (int, error) {
	candidates, err := s.feed.FetchFixtures(ctx, club, window)
	if err != nil {
		return 0, fmt.Errorf("fetch fixtures for %s: %w", club.Name, err)
	}

	upserted := 0
	for _, candidate := range candidates {
		item, ok := s.buildMatch(ctx, logger, club, candidate)
		if !ok {
			continue
		}
		if _, err := s.matches.UpsertMatch(ctx, item); err != nil {
			logger.WarnContext(ctx, "fixture upsert failed",
				"club", club.Name,
				"home", candidate.HomeTeamName,
				"away", candidate.AwayTeamName,
				"error", err,
			)
			continue
		}
		upserted++
	}

	return upserted, nil
}

// buildMatch turns one feed candidate into a persistable match. A resolver
// failure on either side drops only this candidate, never the club run.
func (s *SyncService) buildMatch(ctx context.Context, logger *logging.Logger, club ClubQuery, candidate FixtureCandidate) (match.Match, bool) {
	home, err := s.resolver.Resolve(ctx, candidate.HomeTeamName, candidate.HomeLogo)
	if err != nil {
		logger.WarnContext(ctx, "home team resolution failed, skipping fixture",
			"club", club.Name, "team", candidate.HomeTeamName, "error", err)
		return match.Match{}, false
	}
	away, err := s.resolver.Resolve(ctx, candidate.AwayTeamName, candidate.AwayLogo)
	if err != nil {
		logger.WarnContext(ctx, "away team resolution failed, skipping fixture",
			"club", club.Name, "team", candidate.AwayTeamName, "error", err)
		return match.Match{}, false
	}
	if home.ID == away.ID {
		logger.WarnContext(ctx, "both sides resolved to the same team, skipping fixture",
			"club", club.Name, "home", candidate.HomeTeamName, "away", candidate.AwayTeamName)
		return match.Match{}, false
	}

	league := strings.TrimSpace(candidate.League)
	if league == "" {
		league = club.Name
	}

	item := match.Match{
		HomeTeamID:       home.ID,
		AwayTeamID:       away.ID,
		HomeTeam:         &home,
		AwayTeam:         &away,
		KickoffAt:        candidate.Kickoff.At,
		KickoffTime:      candidate.Kickoff.Clock(),
		League:           league,
		Status:           match.NormalizeStatus(candidate.Status),
		GoogleLink:       candidate.VideoLink,
		BroadcastChannel: candidate.Venue,
	}

	if s.odds != nil {
		odds, oddsErr := s.odds.MatchOdds(ctx, home.Name, away.Name)
		if oddsErr != nil {
			// Odds are decoration. The fixture persists without them.
			logger.WarnContext(ctx, "odds lookup failed",
				"home", home.Name, "away", away.Name, "error", oddsErr)
		} else {
			item.HomeWinProb = &odds.HomeWin
			item.AwayWinProb = &odds.AwayWin
			item.DrawProb = &odds.Draw
		}
	}

	return item, true
}
