package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

// DossierRepository is a mutex-guarded in-memory implementation of
// port.DossierRepository.
type DossierRepository struct {
	mu          sync.RWMutex
	dossiers    map[string]domain.Dossier
	byReference map[string]string
}

// NewDossierRepository constructs an empty in-memory dossier store.
func NewDossierRepository() *DossierRepository {
	return &DossierRepository{
		dossiers:    make(map[string]domain.Dossier),
		byReference: make(map[string]string),
	}
}

// Create stores a dossier. References are unique.
func (r *DossierRepository) Create(_ context.Context, dossier domain.Dossier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dossiers[dossier.ID]; exists {
		return repository.ErrConflict
	}
	if _, exists := r.byReference[dossier.Reference]; exists {
		return repository.ErrConflict
	}

	dossier.Assignees = append([]string(nil), dossier.Assignees...)
	dossier.Tasks = append([]domain.DossierTask(nil), dossier.Tasks...)
	for i := range dossier.Tasks {
		dossier.Tasks[i].DossierID = dossier.ID
		dossier.Tasks[i].Completion = domain.ClampCompletion(dossier.Tasks[i].Completion)
	}

	r.dossiers[dossier.ID] = dossier
	r.byReference[dossier.Reference] = dossier.ID

	return nil
}

// GetByID retrieves a dossier with its assignees and tasks.
func (r *DossierRepository) GetByID(_ context.Context, id string) (*domain.Dossier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dossier, ok := r.dossiers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	copied := dossier
	copied.Assignees = append([]string(nil), dossier.Assignees...)
	copied.Tasks = append([]domain.DossierTask(nil), dossier.Tasks...)

	return &copied, nil
}

// List returns dossiers matching the filter, newest first.
func (r *DossierRepository) List(_ context.Context, filter port.DossierFilter) ([]domain.Dossier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dossiers := make([]domain.Dossier, 0, len(r.dossiers))
	for _, dossier := range r.dossiers {
		if filter.Status != "" && dossier.Status != filter.Status {
			continue
		}
		if filter.AssignedTo != "" && !dossier.IsAssigned(filter.AssignedTo) {
			continue
		}
		copied := dossier
		copied.Assignees = append([]string(nil), dossier.Assignees...)
		copied.Tasks = append([]domain.DossierTask(nil), dossier.Tasks...)
		dossiers = append(dossiers, copied)
	}

	sort.Slice(dossiers, func(i, j int) bool {
		return dossiers[i].CreatedAt.After(dossiers[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(dossiers) {
			return []domain.Dossier{}, nil
		}
		dossiers = dossiers[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(dossiers) {
		dossiers = dossiers[:filter.Limit]
	}

	return dossiers, nil
}

// UpdateStatus advances the dossier lifecycle.
func (r *DossierRepository) UpdateStatus(_ context.Context, id string, status domain.DossierStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dossier, ok := r.dossiers[id]
	if !ok {
		return repository.ErrNotFound
	}

	dossier.Status = status
	dossier.UpdatedAt = time.Now().UTC()
	r.dossiers[id] = dossier

	return nil
}

// AddAssignee links a user to the dossier. Re-adding an assignee is a no-op.
func (r *DossierRepository) AddAssignee(_ context.Context, dossierID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dossier, ok := r.dossiers[dossierID]
	if !ok {
		return repository.ErrNotFound
	}

	if dossier.IsAssigned(userID) {
		return nil
	}

	dossier.Assignees = append(append([]string(nil), dossier.Assignees...), userID)
	dossier.UpdatedAt = time.Now().UTC()
	r.dossiers[dossierID] = dossier

	return nil
}

// RemoveAssignee unlinks a user from the dossier.
func (r *DossierRepository) RemoveAssignee(_ context.Context, dossierID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dossier, ok := r.dossiers[dossierID]
	if !ok {
		return repository.ErrNotFound
	}

	assignees := make([]string, 0, len(dossier.Assignees))
	for _, id := range dossier.Assignees {
		if id != userID {
			assignees = append(assignees, id)
		}
	}

	dossier.Assignees = assignees
	dossier.UpdatedAt = time.Now().UTC()
	r.dossiers[dossierID] = dossier

	return nil
}

// AddTask appends a task to the dossier.
func (r *DossierRepository) AddTask(_ context.Context, task domain.DossierTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dossier, ok := r.dossiers[task.DossierID]
	if !ok {
		return repository.ErrNotFound
	}

	task.Completion = domain.ClampCompletion(task.Completion)
	dossier.Tasks = append(append([]domain.DossierTask(nil), dossier.Tasks...), task)
	dossier.UpdatedAt = time.Now().UTC()
	r.dossiers[task.DossierID] = dossier

	return nil
}

// UpdateTaskCompletion sets a task's completion percentage.
func (r *DossierRepository) UpdateTaskCompletion(_ context.Context, dossierID, taskID string, completion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dossier, ok := r.dossiers[dossierID]
	if !ok {
		return repository.ErrNotFound
	}

	tasks := append([]domain.DossierTask(nil), dossier.Tasks...)
	for i := range tasks {
		if tasks[i].ID != taskID {
			continue
		}
		tasks[i].Completion = domain.ClampCompletion(completion)
		tasks[i].UpdatedAt = time.Now().UTC()
		dossier.Tasks = tasks
		dossier.UpdatedAt = tasks[i].UpdatedAt
		r.dossiers[dossierID] = dossier
		return nil
	}

	return repository.ErrNotFound
}

var _ port.DossierRepository = (*DossierRepository)(nil)
