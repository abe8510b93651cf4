package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
	"github.com/fikstur/fikstur-bot/internal/platform/logging"
)

// Announcer is the chat-platform boundary. The scheduler only decides WHEN
// a match needs attention; delivery lives entirely behind this interface.
type Announcer interface {
	AnnounceMatch(ctx context.Context, item match.Match) error
	CreateVoiceRoom(ctx context.Context, item match.Match) error
}

// LogAnnouncer is the default sink when no chat integration is wired. It
// keeps the scheduler honest in tests and headless deployments.
type LogAnnouncer struct {
	Logger *logging.Logger
}

func (a LogAnnouncer) AnnounceMatch(ctx context.Context, item match.Match) error {
	logger := a.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.InfoContext(ctx, "match announcement",
		"match_id", item.ID,
		"league", item.League,
		"kickoff_at", item.KickoffAt,
	)
	return nil
}

func (a LogAnnouncer) CreateVoiceRoom(ctx context.Context, item match.Match) error {
	logger := a.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.InfoContext(ctx, "voice room requested",
		"match_id", item.ID,
		"league", item.League,
		"kickoff_at", item.KickoffAt,
	)
	return nil
}

type SchedulerConfig struct {
	CheckInterval time.Duration // how often the notification windows are scanned
	SyncInterval  time.Duration // zero disables the periodic full sync loop
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 3 * time.Minute
	}
	return c
}

// SchedulerService drives the background loops: a frequent match-check loop
// that fires announcements and voice rooms, and an optional slower loop that
// re-syncs the roster from the feed.
type SchedulerService struct {
	matches   *MatchService
	sync      *SyncService
	announcer Announcer
	cfg       SchedulerConfig
	logger    *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

func NewSchedulerService(
	matches *MatchService,
	syncService *SyncService,
	announcer Announcer,
	cfg SchedulerConfig,
	logger *logging.Logger,
) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	if announcer == nil {
		announcer = LogAnnouncer{Logger: logger}
	}

	return &SchedulerService{
		matches:   matches,
		sync:      syncService,
		announcer: announcer,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Start launches the loops. Calling Start on a running scheduler is an error;
// Stop it first.
func (s *SchedulerService) Start(ctx context.Context) error {
	if s.matches == nil {
		return fmt.Errorf("%w: scheduler requires a match service", ErrDependencyUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("scheduler is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Go(func() { s.runMatchCheckLoop(loopCtx) })
	if s.sync != nil && s.cfg.SyncInterval > 0 {
		s.wg.Go(func() { s.runSyncLoop(loopCtx) })
	}

	s.logger.InfoContext(ctx, "scheduler started",
		"check_interval", s.cfg.CheckInterval,
		"sync_interval", s.cfg.SyncInterval,
	)
	return nil
}

// Stop cancels the loops and blocks until they drain.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *SchedulerService) runMatchCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		s.CheckMatches(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *SchedulerService) runSyncLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, err := s.sync.SyncAll(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled fixture sync failed", "error", err)
		}
	}
}

// CheckMatches runs one scan over both lead windows. Each match is handled
// independently so one failed announcement never starves the rest, and the
// flag flips only after delivery succeeds.
func (s *SchedulerService) CheckMatches(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.CheckMatches")
	defer span.End()

	due, err := s.matches.MatchesForNotification(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list matches for notification failed", "error", err)
	} else {
		for _, item := range due {
			if err := s.announcer.AnnounceMatch(ctx, item); err != nil {
				s.logger.ErrorContext(ctx, "match announcement failed", "match_id", item.ID, "error", err)
				continue
			}
			if err := s.matches.MarkNotified(ctx, item.ID); err != nil {
				s.logger.ErrorContext(ctx, "mark notified failed", "match_id", item.ID, "error", err)
			}
		}
	}

	rooms, err := s.matches.MatchesForVoiceRoom(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list matches for voice room failed", "error", err)
		return
	}
	for _, item := range rooms {
		if err := s.announcer.CreateVoiceRoom(ctx, item); err != nil {
			s.logger.ErrorContext(ctx, "voice room creation failed", "match_id", item.ID, "error", err)
			continue
		}
		if err := s.matches.MarkVoiceRoomCreated(ctx, item.ID); err != nil {
			s.logger.ErrorContext(ctx, "mark voice room created failed", "match_id", item.ID, "error", err)
		}
	}
}
