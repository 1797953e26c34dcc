package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
)

func TestDossierRepository_CreateCommitsDossierAndTasks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewDossierRepository(mock)

	now := time.Now().UTC()
	dossier := domain.Dossier{
		ID:        "dos-1",
		Reference: "DAO-2026-001",
		Title:     "Fourniture de serveurs",
		Authority: "Ministère des Finances",
		Status:    domain.DossierStatusDraft,
		CreatedBy: "user-1",
		CreatedAt: now,
		UpdatedAt: now,
		Tasks: []domain.DossierTask{
			{ID: "task-1", Label: "Analyse du cahier des charges", UpdatedAt: now},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO dossiers`).
		WithArgs(
			"dos-1",
			"DAO-2026-001",
			"Fourniture de serveurs",
			"Ministère des Finances",
			domain.DossierStatusDraft,
			(*time.Time)(nil),
			"user-1",
			now,
			now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO dossier_tasks`).
		WithArgs("task-1", "dos-1", "Analyse du cahier des charges", 0, (*string)(nil), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), dossier); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDossierRepository_CreateRollsBackOnTaskFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewDossierRepository(mock)

	now := time.Now().UTC()
	dossier := domain.Dossier{
		ID:        "dos-1",
		Reference: "DAO-2026-001",
		Title:     "Fourniture de serveurs",
		Authority: "Ministère des Finances",
		Status:    domain.DossierStatusDraft,
		CreatedBy: "user-1",
		CreatedAt: now,
		UpdatedAt: now,
		Tasks: []domain.DossierTask{
			{ID: "task-1", Label: "Analyse du cahier des charges", UpdatedAt: now},
		},
	}

	// A failed task insert must not leave the dossier row behind.
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO dossiers`).
		WithArgs(
			"dos-1",
			"DAO-2026-001",
			"Fourniture de serveurs",
			"Ministère des Finances",
			domain.DossierStatusDraft,
			(*time.Time)(nil),
			"user-1",
			now,
			now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO dossier_tasks`).
		WithArgs("task-1", "dos-1", "Analyse du cahier des charges", 0, (*string)(nil), now).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if err := repo.Create(context.Background(), dossier); err == nil {
		t.Fatal("expected Create to fail when a task insert fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
