package postgres

import (
	"time"

	"github.com/fikstur/fikstur-bot/internal/domain/team"
)

type teamTableModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Logo      string    `db:"logo"`
	ShortName string    `db:"short_name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type teamInsertModel struct {
	Name      string `db:"name"`
	Logo      string `db:"logo"`
	ShortName string `db:"short_name"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:        m.ID,
		Name:      m.Name,
		Logo:      m.Logo,
		ShortName: m.ShortName,
	}
}
