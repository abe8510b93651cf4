package postgres

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fikstur/fikstur-bot/internal/domain/team"
)

func teamRowColumns() []string {
	return []string{"id", "name", "logo", "short_name", "created_at", "updated_at"}
}

func TestTeamRepository_GetByName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeamRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, name, logo, short_name, created_at, updated_at FROM teams WHERE lower\(name\) = lower\(\$1\) LIMIT 1`).
		WithArgs("galatasaray").
		WillReturnRows(sqlmock.NewRows(teamRowColumns()).AddRow(
			int64(7), "Galatasaray", "gs.png", "GAL", now, now,
		))

	found, ok, err := repo.GetByName(t.Context(), "galatasaray")
	if err != nil {
		t.Fatalf("get by name failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected team to be found")
	}
	if found.ID != 7 || found.Name != "Galatasaray" || found.ShortName != "GAL" {
		t.Fatalf("unexpected team: %+v", found)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTeamRepository_GetByName_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeamRepository(db)

	mock.ExpectQuery(`SELECT id, name, logo, short_name, created_at, updated_at FROM teams`).
		WithArgs("nobody fc").
		WillReturnRows(sqlmock.NewRows(teamRowColumns()))

	_, ok, err := repo.GetByName(t.Context(), "nobody fc")
	if err != nil {
		t.Fatalf("get by name failed: %v", err)
	}
	if ok {
		t.Fatalf("expected team to be absent")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTeamRepository_UpsertByName_BackfillsOnlyEmptyFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeamRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO teams \(name, logo, short_name\) VALUES \(\$1, \$2, \$3\) ON CONFLICT \(lower\(name\)\)\nDO UPDATE SET\n    logo = COALESCE\(NULLIF\(teams\.logo, ''\), NULLIF\(EXCLUDED\.logo, ''\), ''\),\n    short_name = COALESCE\(NULLIF\(teams\.short_name, ''\), NULLIF\(EXCLUDED\.short_name, ''\), ''\),\n    updated_at = NOW\(\)\nRETURNING id, name, logo, short_name, created_at, updated_at`).
		WithArgs("Galatasaray", "new.png", "NEW").
		WillReturnRows(sqlmock.NewRows(teamRowColumns()).AddRow(
			int64(7), "Galatasaray", "gs.png", "GAL", now, now,
		))

	stored, err := repo.UpsertByName(t.Context(), team.Team{
		Name:      "Galatasaray",
		Logo:      "new.png",
		ShortName: "NEW",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	// The stored identity data wins over the fresh feed values.
	if stored.Logo != "gs.png" || stored.ShortName != "GAL" {
		t.Fatalf("unexpected team: %+v", stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTeamRepository_UpsertByName_RejectsInvalid(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewTeamRepository(db)

	if _, err := repo.UpsertByName(t.Context(), team.Team{}); err == nil {
		t.Fatalf("expected validation error")
	}
}
