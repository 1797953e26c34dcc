package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

// RegisterDossierInput carries the fields needed to open a dossier.
type RegisterDossierInput struct {
	Reference string
	Title     string
	Authority string
	Deadline  *time.Time
	Tasks     []string
}

// DossierService manages tender dossiers, their assignments, and task
// completion tracking.
type DossierService struct {
	dossiers port.DossierRepository
	users    port.UserRepository
	log      *zap.Logger
	now      func() time.Time
}

// NewDossierService constructs a DossierService.
func NewDossierService(dossiers port.DossierRepository, users port.UserRepository, log *zap.Logger) (*DossierService, error) {
	if dossiers == nil {
		return nil, fmt.Errorf("dossier repository is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &DossierService{
		dossiers: dossiers,
		users:    users,
		log:      log,
		now:      time.Now,
	}, nil
}

// WithClock overrides the time source, used in tests.
func (s *DossierService) WithClock(now func() time.Time) *DossierService {
	if now != nil {
		s.now = now
	}
	return s
}

// Register opens a dossier in draft state with its initial task list.
func (s *DossierService) Register(ctx context.Context, actor domain.User, input RegisterDossierInput) (*domain.Dossier, error) {
	if !actor.Role.Can(domain.CapEditDossiers) {
		return nil, ErrPermissionDenied
	}

	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, fmt.Errorf("reference is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	now := s.now().UTC()
	dossier := domain.Dossier{
		ID:        uuid.NewString(),
		Reference: reference,
		Title:     title,
		Authority: strings.TrimSpace(input.Authority),
		Status:    domain.DossierStatusDraft,
		Deadline:  input.Deadline,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, label := range input.Tasks {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		dossier.Tasks = append(dossier.Tasks, domain.DossierTask{
			ID:        uuid.NewString(),
			DossierID: dossier.ID,
			Label:     label,
			UpdatedAt: now,
		})
	}

	if err := s.dossiers.Create(ctx, dossier); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrReferenceTaken
		}
		return nil, fmt.Errorf("create dossier: %w", err)
	}

	s.log.Info("dossier registered",
		zap.String("dossier_id", dossier.ID),
		zap.String("reference", reference),
		zap.String("created_by", actor.ID),
	)

	return &dossier, nil
}

// Get returns a dossier with its assignees and tasks.
func (s *DossierService) Get(ctx context.Context, actor domain.User, id string) (*domain.Dossier, error) {
	if !actor.Role.Can(domain.CapViewDossiers) {
		return nil, ErrPermissionDenied
	}

	dossier, err := s.dossiers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDossierNotFound
		}
		return nil, fmt.Errorf("lookup dossier: %w", err)
	}

	return dossier, nil
}

// List returns dossiers matching the filter.
func (s *DossierService) List(ctx context.Context, actor domain.User, filter port.DossierFilter) ([]domain.Dossier, error) {
	if !actor.Role.Can(domain.CapViewDossiers) {
		return nil, ErrPermissionDenied
	}

	dossiers, err := s.dossiers.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list dossiers: %w", err)
	}

	return dossiers, nil
}

// UpdateStatus advances the dossier lifecycle.
func (s *DossierService) UpdateStatus(ctx context.Context, actor domain.User, id string, status domain.DossierStatus) error {
	if !actor.Role.Can(domain.CapEditDossiers) {
		return ErrPermissionDenied
	}

	switch status {
	case domain.DossierStatusDraft, domain.DossierStatusOpen, domain.DossierStatusSubmitted, domain.DossierStatusClosed:
	default:
		return fmt.Errorf("unknown dossier status %q", status)
	}

	if err := s.dossiers.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDossierNotFound
		}
		return fmt.Errorf("update dossier status: %w", err)
	}

	s.log.Info("dossier status updated",
		zap.String("dossier_id", id),
		zap.String("status", string(status)),
		zap.String("updated_by", actor.ID),
	)

	return nil
}

// Assign links an active user to the dossier. Deactivated users cannot take
// assignments.
func (s *DossierService) Assign(ctx context.Context, actor domain.User, dossierID, userID string) error {
	if !actor.Role.Can(domain.CapEditDossiers) {
		return ErrPermissionDenied
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return ErrUserNotFound
	}

	if err := s.dossiers.AddAssignee(ctx, dossierID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDossierNotFound
		}
		return fmt.Errorf("add assignee: %w", err)
	}

	s.log.Info("dossier assignee added",
		zap.String("dossier_id", dossierID),
		zap.String("user_id", userID),
		zap.String("assigned_by", actor.ID),
	)

	return nil
}

// Unassign removes a user from the dossier.
func (s *DossierService) Unassign(ctx context.Context, actor domain.User, dossierID, userID string) error {
	if !actor.Role.Can(domain.CapEditDossiers) {
		return ErrPermissionDenied
	}

	if err := s.dossiers.RemoveAssignee(ctx, dossierID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDossierNotFound
		}
		return fmt.Errorf("remove assignee: %w", err)
	}

	return nil
}

// AddTask appends a task to an existing dossier.
func (s *DossierService) AddTask(ctx context.Context, actor domain.User, dossierID, label string) (*domain.DossierTask, error) {
	if !actor.Role.Can(domain.CapEditDossiers) {
		return nil, ErrPermissionDenied
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("label is required")
	}

	task := domain.DossierTask{
		ID:        uuid.NewString(),
		DossierID: dossierID,
		Label:     label,
		UpdatedAt: s.now().UTC(),
	}

	if err := s.dossiers.AddTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDossierNotFound
		}
		return nil, fmt.Errorf("add task: %w", err)
	}

	return &task, nil
}

// UpdateTaskProgress sets a task's completion percentage, clamped to
// [0, 100]. Only admins and dossier assignees may report progress.
func (s *DossierService) UpdateTaskProgress(ctx context.Context, actor domain.User, dossierID, taskID string, completion int) error {
	dossier, err := s.dossiers.GetByID(ctx, dossierID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDossierNotFound
		}
		return fmt.Errorf("lookup dossier: %w", err)
	}

	if actor.Role != domain.RoleAdmin && !dossier.IsAssigned(actor.ID) {
		return ErrPermissionDenied
	}

	if err := s.dossiers.UpdateTaskCompletion(ctx, dossierID, taskID, domain.ClampCompletion(completion)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("update task completion: %w", err)
	}

	return nil
}

// Summary computes aggregate completion figures for a dossier.
func (s *DossierService) Summary(ctx context.Context, actor domain.User, dossierID string) (*domain.DossierSummary, error) {
	dossier, err := s.Get(ctx, actor, dossierID)
	if err != nil {
		return nil, err
	}

	summary := dossier.Summarize()
	return &summary, nil
}
