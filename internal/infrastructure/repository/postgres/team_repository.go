package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fikstur/fikstur-bot/internal/domain/team"
	qb "github.com/fikstur/fikstur-bot/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

var _ team.Repository = (*TeamRepository)(nil)

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	query, args, err := qb.Select("id", "name", "logo", "short_name", "created_at", "updated_at").
		From("teams").
		Where(qb.Expr("lower(name) = lower(?)", name)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team by name query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team by name: %w", err)
	}

	return row.toDomain(), true, nil
}

// UpsertByName keys on the case-insensitive team name. On conflict it only
// backfills empty logo and short-name fields; a value the row already has is
// never overwritten by later feed noise.
func (r *TeamRepository) UpsertByName(ctx context.Context, item team.Team) (team.Team, error) {
	if err := item.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("validate team: %w", err)
	}

	insertModel := teamInsertModel{
		Name:      item.Name,
		Logo:      item.Logo,
		ShortName: item.ShortName,
	}

	query, args, err := qb.InsertModel("teams", insertModel, `ON CONFLICT (lower(name))
DO UPDATE SET
    logo = COALESCE(NULLIF(teams.logo, ''), NULLIF(EXCLUDED.logo, ''), ''),
    short_name = COALESCE(NULLIF(teams.short_name, ''), NULLIF(EXCLUDED.short_name, ''), ''),
    updated_at = NOW()
RETURNING id, name, logo, short_name, created_at, updated_at`)
	if err != nil {
		return team.Team{}, fmt.Errorf("build upsert team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return team.Team{}, fmt.Errorf("upsert team: %w", err)
	}

	return row.toDomain(), nil
}
