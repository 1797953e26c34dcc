package port

import (
	"context"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
)

// DossierFilter narrows dossier listings.
type DossierFilter struct {
	Status     domain.DossierStatus
	AssignedTo string
	Limit      int
	Offset     int
}

// DossierRepository exposes persistence behavior for dossiers, their
// assignments, and per-task completion tracking.
type DossierRepository interface {
	Create(ctx context.Context, dossier domain.Dossier) error
	GetByID(ctx context.Context, id string) (*domain.Dossier, error)
	List(ctx context.Context, filter DossierFilter) ([]domain.Dossier, error)
	UpdateStatus(ctx context.Context, id string, status domain.DossierStatus) error
	AddAssignee(ctx context.Context, dossierID, userID string) error
	RemoveAssignee(ctx context.Context, dossierID, userID string) error
	AddTask(ctx context.Context, task domain.DossierTask) error
	UpdateTaskCompletion(ctx context.Context, dossierID, taskID string, completion int) error
}
