package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
	qb "github.com/fikstur/fikstur-bot/internal/platform/querybuilder"
)

// matchReturningColumns is shared by every write that hands the row back.
const matchReturningColumns = `id, home_team_id, away_team_id, kickoff_at, kickoff_time, match_day,
league, status, google_link, broadcast_channel, home_win_prob, away_win_prob, draw_prob,
notified, voice_room_created, created_at, updated_at`

var matchListColumns = []string{
	"m.id", "m.home_team_id", "m.away_team_id", "m.kickoff_at", "m.kickoff_time", "m.match_day",
	"m.league", "m.status", "m.google_link", "m.broadcast_channel",
	"m.home_win_prob", "m.away_win_prob", "m.draw_prob",
	"m.notified", "m.voice_room_created", "m.created_at", "m.updated_at",
	"ht.name AS home_name", "ht.logo AS home_logo", "ht.short_name AS home_short_name",
	"aw.name AS away_name", "aw.logo AS away_logo", "aw.short_name AS away_short_name",
}

const matchJoinedTables = `matches m
JOIN teams ht ON ht.id = m.home_team_id
JOIN teams aw ON aw.id = m.away_team_id`

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

var _ match.Repository = (*MatchRepository)(nil)

func (r *MatchRepository) FindByIdentity(ctx context.Context, key match.IdentityKey) (match.Match, bool, error) {
	query, args, err := qb.Select(matchListColumns...).
		From(matchJoinedTables).
		Where(
			qb.Eq("m.home_team_id", key.HomeTeamID),
			qb.Eq("m.away_team_id", key.AwayTeamID),
			qb.Eq("m.match_day", key.MatchDay),
			qb.Eq("m.league", key.League),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by identity query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match by identity: %w", err)
	}

	return row.toDomain(), true, nil
}

// Upsert writes one fixture keyed on its identity. A conflicting row takes
// the fresh kickoff, status and metadata; the notified and voice-room flags
// are deliberately left out of the update so a revised kickoff time never
// re-fires an announcement.
func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, error) {
	query, args, err := qb.InsertModel("matches", matchToInsertModel(item), `ON CONFLICT (home_team_id, away_team_id, match_day, league)
DO UPDATE SET
    kickoff_at = EXCLUDED.kickoff_at,
    kickoff_time = EXCLUDED.kickoff_time,
    status = EXCLUDED.status,
    google_link = EXCLUDED.google_link,
    broadcast_channel = EXCLUDED.broadcast_channel,
    home_win_prob = COALESCE(EXCLUDED.home_win_prob, matches.home_win_prob),
    away_win_prob = COALESCE(EXCLUDED.away_win_prob, matches.away_win_prob),
    draw_prob = COALESCE(EXCLUDED.draw_prob, matches.draw_prob),
    updated_at = NOW()
RETURNING `+matchReturningColumns)
	if err != nil {
		return match.Match{}, fmt.Errorf("build upsert match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return match.Match{}, fmt.Errorf("upsert match: %w", err)
	}

	out := row.toDomain()
	out.HomeTeam = item.HomeTeam
	out.AwayTeam = item.AwayTeam
	return out, nil
}

// UpdateByIdentity is the forced-update path used when the conflict-safe
// insert lost a race. It touches only the feed-owned columns.
func (r *MatchRepository) UpdateByIdentity(ctx context.Context, item match.Match) (match.Match, error) {
	key := item.Identity()
	query, args, err := qb.Update("matches").
		Set("kickoff_at", item.KickoffAt).
		Set("kickoff_time", item.KickoffTime).
		Set("status", item.Status).
		Set("google_link", item.GoogleLink).
		Set("broadcast_channel", item.BroadcastChannel).
		SetExpr("home_win_prob", "COALESCE(?, matches.home_win_prob)", nullableInt(item.HomeWinProb)).
		SetExpr("away_win_prob", "COALESCE(?, matches.away_win_prob)", nullableInt(item.AwayWinProb)).
		SetExpr("draw_prob", "COALESCE(?, matches.draw_prob)", nullableInt(item.DrawProb)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("home_team_id", key.HomeTeamID),
			qb.Eq("away_team_id", key.AwayTeamID),
			qb.Eq("match_day", key.MatchDay),
			qb.Eq("league", key.League),
		).
		Suffix("RETURNING " + matchReturningColumns).
		ToSQL()
	if err != nil {
		return match.Match{}, fmt.Errorf("build update match by identity query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return match.Match{}, fmt.Errorf("update match by identity: %w", err)
	}

	out := row.toDomain()
	out.HomeTeam = item.HomeTeam
	out.AwayTeam = item.AwayTeam
	return out, nil
}

func (r *MatchRepository) ListForNotification(ctx context.Context, window match.Window) ([]match.Match, error) {
	return r.listWindow(ctx, window, qb.Expr("m.notified = FALSE"))
}

func (r *MatchRepository) ListForVoiceRoom(ctx context.Context, window match.Window) ([]match.Match, error) {
	return r.listWindow(ctx, window, qb.Expr("m.voice_room_created = FALSE"))
}

func (r *MatchRepository) ListUpcoming(ctx context.Context, window match.Window) ([]match.Match, error) {
	return r.listWindow(ctx, window)
}

func (r *MatchRepository) listWindow(ctx context.Context, window match.Window, extra ...qb.Condition) ([]match.Match, error) {
	conditions := []qb.Condition{
		qb.Eq("m.status", match.StatusScheduled),
		qb.Gte("m.kickoff_at", window.From),
		qb.Lte("m.kickoff_at", window.To),
	}
	conditions = append(conditions, extra...)

	query, args, err := qb.Select(matchListColumns...).
		From(matchJoinedTables).
		Where(conditions...).
		OrderBy("m.kickoff_at", "m.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *MatchRepository) SetNotified(ctx context.Context, matchID int64) error {
	return r.setFlag(ctx, matchID, "notified")
}

func (r *MatchRepository) SetVoiceRoomCreated(ctx context.Context, matchID int64) error {
	return r.setFlag(ctx, matchID, "voice_room_created")
}

func (r *MatchRepository) setFlag(ctx context.Context, matchID int64, column string) error {
	query, args, err := qb.Update("matches").
		Set(column, true).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set %s query: %w", column, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set match %s: %w", column, err)
	}

	return nil
}

func (r *MatchRepository) DeleteAll(ctx context.Context) error {
	query, args, err := qb.DeleteFrom("matches").ToSQL()
	if err != nil {
		return fmt.Errorf("build delete matches query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}

	return nil
}
