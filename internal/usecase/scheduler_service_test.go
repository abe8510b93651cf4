package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
	"github.com/fikstur/fikstur-bot/internal/infrastructure/repository/memory"
)

type recordingAnnouncer struct {
	mu          sync.Mutex
	announced   []int64
	rooms       []int64
	announceErr error
}

func (a *recordingAnnouncer) AnnounceMatch(_ context.Context, item match.Match) error {
	if a.announceErr != nil {
		return a.announceErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.announced = append(a.announced, item.ID)
	return nil
}

func (a *recordingAnnouncer) CreateVoiceRoom(_ context.Context, item match.Match) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rooms = append(a.rooms, item.ID)
	return nil
}

func TestSchedulerService_CheckMatches_AnnouncesAndFlags(t *testing.T) {
	repo := memory.NewMatchRepository()
	now := kickoff(t, "2025-08-24 18:50")
	matches := newMatchService(repo, now)

	stored, err := matches.UpsertMatch(t.Context(), match.Match{
		HomeTeamID: 1, AwayTeamID: 2,
		KickoffAt: kickoff(t, "2025-08-24 19:00"),
		League:    "Süper Lig",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	announcer := &recordingAnnouncer{}
	scheduler := NewSchedulerService(matches, nil, announcer, SchedulerConfig{}, nil)

	scheduler.CheckMatches(t.Context())

	if len(announcer.announced) != 1 || announcer.announced[0] != stored.ID {
		t.Fatalf("expected one announcement for match %d, got %v", stored.ID, announcer.announced)
	}
	// Ten minutes out also sits inside the voice room lead.
	if len(announcer.rooms) != 1 {
		t.Fatalf("expected one voice room, got %v", announcer.rooms)
	}

	// A second scan must be a no-op: both flags flipped.
	scheduler.CheckMatches(t.Context())
	if len(announcer.announced) != 1 || len(announcer.rooms) != 1 {
		t.Fatalf("flags did not stick: announced=%v rooms=%v", announcer.announced, announcer.rooms)
	}
}

func TestSchedulerService_CheckMatches_AnnouncementFailureKeepsFlag(t *testing.T) {
	repo := memory.NewMatchRepository()
	now := kickoff(t, "2025-08-24 18:30")
	matches := newMatchService(repo, now)

	stored, err := matches.UpsertMatch(t.Context(), match.Match{
		HomeTeamID: 1, AwayTeamID: 2,
		KickoffAt: kickoff(t, "2025-08-24 19:00"),
		League:    "Süper Lig",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	announcer := &recordingAnnouncer{announceErr: errors.New("channel gone")}
	scheduler := NewSchedulerService(matches, nil, announcer, SchedulerConfig{}, nil)

	scheduler.CheckMatches(t.Context())

	found, ok, err := repo.FindByIdentity(t.Context(), stored.Identity())
	if err != nil || !ok {
		t.Fatalf("lookup failed: ok=%v err=%v", ok, err)
	}
	if found.Notified {
		t.Fatalf("failed announcement must not flip the notified flag")
	}

	// Delivery recovers; the retry on the next scan succeeds.
	announcer.announceErr = nil
	scheduler.CheckMatches(t.Context())
	if len(announcer.announced) != 1 {
		t.Fatalf("expected retry announcement, got %v", announcer.announced)
	}
}

func TestSchedulerService_StartStop(t *testing.T) {
	repo := memory.NewMatchRepository()
	matches := newMatchService(repo, kickoff(t, "2025-08-10 12:00"))
	scheduler := NewSchedulerService(matches, nil, &recordingAnnouncer{}, SchedulerConfig{
		CheckInterval: 50 * time.Millisecond,
	}, nil)

	if err := scheduler.Start(t.Context()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := scheduler.Start(t.Context()); err == nil {
		t.Fatalf("double start must fail")
	}

	scheduler.Stop()
	// Stopping again is a safe no-op.
	scheduler.Stop()

	if err := scheduler.Start(t.Context()); err != nil {
		t.Fatalf("restart after stop failed: %v", err)
	}
	scheduler.Stop()
}

func TestSchedulerService_Start_RequiresMatchService(t *testing.T) {
	scheduler := NewSchedulerService(nil, nil, nil, SchedulerConfig{}, nil)
	if err := scheduler.Start(t.Context()); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
