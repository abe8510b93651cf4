package postgres

import (
	"database/sql"
	"time"

	"github.com/fikstur/fikstur-bot/internal/domain/match"
	"github.com/fikstur/fikstur-bot/internal/domain/team"
)

type matchTableModel struct {
	ID               int64          `db:"id"`
	HomeTeamID       int64          `db:"home_team_id"`
	AwayTeamID       int64          `db:"away_team_id"`
	KickoffAt        time.Time      `db:"kickoff_at"`
	KickoffTime      string         `db:"kickoff_time"`
	MatchDay         string         `db:"match_day"`
	League           string         `db:"league"`
	Status           string         `db:"status"`
	GoogleLink       string         `db:"google_link"`
	BroadcastChannel string         `db:"broadcast_channel"`
	HomeWinProb      sql.NullInt64  `db:"home_win_prob"`
	AwayWinProb      sql.NullInt64  `db:"away_win_prob"`
	DrawProb         sql.NullInt64  `db:"draw_prob"`
	Notified         bool           `db:"notified"`
	VoiceRoomCreated bool           `db:"voice_room_created"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	HomeName         sql.NullString `db:"home_name"`
	HomeLogo         sql.NullString `db:"home_logo"`
	HomeShortName    sql.NullString `db:"home_short_name"`
	AwayName         sql.NullString `db:"away_name"`
	AwayLogo         sql.NullString `db:"away_logo"`
	AwayShortName    sql.NullString `db:"away_short_name"`
}

type matchInsertModel struct {
	HomeTeamID       int64         `db:"home_team_id"`
	AwayTeamID       int64         `db:"away_team_id"`
	KickoffAt        time.Time     `db:"kickoff_at"`
	KickoffTime      string        `db:"kickoff_time"`
	MatchDay         string        `db:"match_day"`
	League           string        `db:"league"`
	Status           string        `db:"status"`
	GoogleLink       string        `db:"google_link"`
	BroadcastChannel string        `db:"broadcast_channel"`
	HomeWinProb      sql.NullInt64 `db:"home_win_prob"`
	AwayWinProb      sql.NullInt64 `db:"away_win_prob"`
	DrawProb         sql.NullInt64 `db:"draw_prob"`
}

func (m matchTableModel) toDomain() match.Match {
	out := match.Match{
		ID:               m.ID,
		HomeTeamID:       m.HomeTeamID,
		AwayTeamID:       m.AwayTeamID,
		KickoffAt:        m.KickoffAt,
		KickoffTime:      m.KickoffTime,
		League:           m.League,
		Status:           m.Status,
		GoogleLink:       m.GoogleLink,
		BroadcastChannel: m.BroadcastChannel,
		HomeWinProb:      intPointer(m.HomeWinProb),
		AwayWinProb:      intPointer(m.AwayWinProb),
		DrawProb:         intPointer(m.DrawProb),
		Notified:         m.Notified,
		VoiceRoomCreated: m.VoiceRoomCreated,
	}

	if m.HomeName.Valid {
		out.HomeTeam = &team.Team{
			ID:        m.HomeTeamID,
			Name:      m.HomeName.String,
			Logo:      m.HomeLogo.String,
			ShortName: m.HomeShortName.String,
		}
	}
	if m.AwayName.Valid {
		out.AwayTeam = &team.Team{
			ID:        m.AwayTeamID,
			Name:      m.AwayName.String,
			Logo:      m.AwayLogo.String,
			ShortName: m.AwayShortName.String,
		}
	}

	return out
}

func matchToInsertModel(item match.Match) matchInsertModel {
	return matchInsertModel{
		HomeTeamID:       item.HomeTeamID,
		AwayTeamID:       item.AwayTeamID,
		KickoffAt:        item.KickoffAt,
		KickoffTime:      item.KickoffTime,
		MatchDay:         item.Identity().MatchDay,
		League:           item.League,
		Status:           item.Status,
		GoogleLink:       item.GoogleLink,
		BroadcastChannel: item.BroadcastChannel,
		HomeWinProb:      nullableInt(item.HomeWinProb),
		AwayWinProb:      nullableInt(item.AwayWinProb),
		DrawProb:         nullableInt(item.DrawProb),
	}
}
