package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
	"github.com/fikstur/fikstur-bot/internal/platform/logging"
	"github.com/fikstur/fikstur-bot/internal/usecase"
)

const defaultUpcomingDays = 7

// ReadinessChecker reports whether the storage backend answers. *sqlx.DB
// satisfies it.
type ReadinessChecker interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	matchService *usecase.MatchService
	syncService  *usecase.SyncService
	readiness    ReadinessChecker
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	syncService *usecase.SyncService,
	readiness ReadinessChecker,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService: matchService,
		syncService:  syncService,
		readiness:    readiness,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	if h.readiness != nil {
		if err := h.readiness.PingContext(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness ping failed", "error", err)
			writeError(ctx, w, fmt.Errorf("%w: storage is unreachable", usecase.ErrDependencyUnavailable))
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

type upcomingMatchesRequest struct {
	Days int `validate:"required,min=1,max=30"`
}

func (h *Handler) ListUpcomingMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingMatches")
	defer span.End()

	days := defaultUpcomingDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: days must be an integer", usecase.ErrInvalidInput))
			return
		}
		days = parsed
	}
	if err := h.validateRequest(ctx, upcomingMatchesRequest{Days: days}); err != nil {
		writeError(ctx, w, err)
		return
	}

	matches, err := h.matchService.UpcomingMatches(ctx, days)
	if err != nil {
		h.logger.WarnContext(ctx, "list upcoming matches failed", "days", days, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTOs(matches))
}

func (h *Handler) ListTodayMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTodayMatches")
	defer span.End()

	matches, err := h.matchService.TodayMatches(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list today matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTOs(matches))
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type matchDTO struct {
	ID               int64    `json:"id"`
	HomeTeam         *teamDTO `json:"home_team,omitempty"`
	AwayTeam         *teamDTO `json:"away_team,omitempty"`
	KickoffAt        string   `json:"kickoff_at"`
	KickoffTime      string   `json:"kickoff_time"`
	MatchDay         string   `json:"match_day"`
	League           string   `json:"league"`
	Status           string   `json:"status"`
	GoogleLink       string   `json:"google_link,omitempty"`
	BroadcastChannel string   `json:"broadcast_channel,omitempty"`
	HomeWinProb      *int     `json:"home_win_prob,omitempty"`
	AwayWinProb      *int     `json:"away_win_prob,omitempty"`
	DrawProb         *int     `json:"draw_prob,omitempty"`
}

type teamDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Logo      string `json:"logo,omitempty"`
	ShortName string `json:"short_name,omitempty"`
}

func matchesToDTOs(matches []match.Match) []matchDTO {
	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(m))
	}
	return items
}

func matchToDTO(m match.Match) matchDTO {
	dto := matchDTO{
		ID:               m.ID,
		KickoffAt:        m.KickoffAt.Format("2006-01-02T15:04:05-07:00"),
		KickoffTime:      m.KickoffTime,
		MatchDay:         m.Identity().MatchDay,
		League:           m.League,
		Status:           m.Status,
		GoogleLink:       m.GoogleLink,
		BroadcastChannel: m.BroadcastChannel,
		HomeWinProb:      m.HomeWinProb,
		AwayWinProb:      m.AwayWinProb,
		DrawProb:         m.DrawProb,
	}
	if m.HomeTeam != nil {
		dto.HomeTeam = &teamDTO{ID: m.HomeTeam.ID, Name: m.HomeTeam.Name, Logo: m.HomeTeam.Logo, ShortName: m.HomeTeam.ShortName}
	}
	if m.AwayTeam != nil {
		dto.AwayTeam = &teamDTO{ID: m.AwayTeam.ID, Name: m.AwayTeam.Name, Logo: m.AwayTeam.Logo, ShortName: m.AwayTeam.ShortName}
	}
	return dto
}
