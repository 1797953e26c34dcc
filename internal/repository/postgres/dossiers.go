package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/repository"
)

// pgBeginner is the subset of pgxpool.Pool used to open transactions.
type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DossierRepository implements port.DossierRepository using PostgreSQL.
type DossierRepository struct {
	exec    pgExecutor
	begin   pgBeginner
	builder squirrel.StatementBuilderType
}

// NewDossierRepository wires a PostgreSQL-backed dossier repository.
func NewDossierRepository(exec pgExecutor) *DossierRepository {
	repo := &DossierRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if beginner, ok := exec.(pgBeginner); ok {
		repo.begin = beginner
	}
	return repo
}

// Create inserts a dossier with its initial task rows. Dossier and tasks
// commit atomically so a failed task insert cannot leave an orphan dossier.
func (d *DossierRepository) Create(ctx context.Context, dossier domain.Dossier) error {
	if d.begin == nil {
		return d.create(ctx, d.exec, dossier)
	}

	return pgx.BeginFunc(ctx, d.begin, func(tx pgx.Tx) error {
		return d.create(ctx, tx, dossier)
	})
}

func (d *DossierRepository) create(ctx context.Context, exec pgExecutor, dossier domain.Dossier) error {
	stmt, args, err := d.builder.Insert("dossiers").
		Columns("id", "reference", "title", "authority", "status", "deadline", "created_by", "created_at", "updated_at").
		Values(
			dossier.ID,
			dossier.Reference,
			dossier.Title,
			dossier.Authority,
			dossier.Status,
			dossier.Deadline,
			dossier.CreatedBy,
			dossier.CreatedAt,
			dossier.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert dossier sql: %w", err)
	}

	if _, err := exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert dossier: %w", err)
	}

	for _, task := range dossier.Tasks {
		task.DossierID = dossier.ID
		if err := d.addTask(ctx, exec, task); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a dossier with its assignees and tasks.
func (d *DossierRepository) GetByID(ctx context.Context, id string) (*domain.Dossier, error) {
	stmt, args, err := d.builder.
		Select("id", "reference", "title", "authority", "status", "deadline", "created_by", "created_at", "updated_at").
		From("dossiers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select dossier sql: %w", err)
	}

	var (
		dossier  domain.Dossier
		deadline *time.Time
	)

	if err := d.exec.QueryRow(ctx, stmt, args...).Scan(
		&dossier.ID,
		&dossier.Reference,
		&dossier.Title,
		&dossier.Authority,
		&dossier.Status,
		&deadline,
		&dossier.CreatedBy,
		&dossier.CreatedAt,
		&dossier.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan dossier: %w", err)
	}

	dossier.Deadline = deadline

	assignees, err := d.listAssignees(ctx, id)
	if err != nil {
		return nil, err
	}
	dossier.Assignees = assignees

	tasks, err := d.listTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	dossier.Tasks = tasks

	return &dossier, nil
}

func (d *DossierRepository) listAssignees(ctx context.Context, dossierID string) ([]string, error) {
	stmt, args, err := d.builder.Select("user_id").
		From("dossier_assignees").
		Where(squirrel.Eq{"dossier_id": dossierID}).
		OrderBy("assigned_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select assignees sql: %w", err)
	}

	rows, err := d.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignees: %w", err)
	}
	defer rows.Close()

	assignees := make([]string, 0)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		assignees = append(assignees, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignees: %w", err)
	}

	return assignees, nil
}

func (d *DossierRepository) listTasks(ctx context.Context, dossierID string) ([]domain.DossierTask, error) {
	stmt, args, err := d.builder.Select("id", "dossier_id", "label", "completion", "assigned_to", "updated_at").
		From("dossier_tasks").
		Where(squirrel.Eq{"dossier_id": dossierID}).
		OrderBy("updated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tasks sql: %w", err)
	}

	rows, err := d.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.DossierTask, 0)
	for rows.Next() {
		var task domain.DossierTask
		if err := rows.Scan(&task.ID, &task.DossierID, &task.Label, &task.Completion, &task.AssignedTo, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// List returns dossiers matching the filter, without task details.
func (d *DossierRepository) List(ctx context.Context, filter port.DossierFilter) ([]domain.Dossier, error) {
	query := d.builder.
		Select("d.id", "d.reference", "d.title", "d.authority", "d.status", "d.deadline", "d.created_by", "d.created_at", "d.updated_at").
		From("dossiers d").
		OrderBy("d.created_at DESC")

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"d.status": filter.Status})
	}

	if filter.AssignedTo != "" {
		query = query.
			Join("dossier_assignees da ON da.dossier_id = d.id").
			Where(squirrel.Eq{"da.user_id": filter.AssignedTo})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list dossiers sql: %w", err)
	}

	rows, err := d.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query dossiers: %w", err)
	}
	defer rows.Close()

	dossiers := make([]domain.Dossier, 0)
	for rows.Next() {
		var (
			dossier  domain.Dossier
			deadline *time.Time
		)

		if err := rows.Scan(
			&dossier.ID,
			&dossier.Reference,
			&dossier.Title,
			&dossier.Authority,
			&dossier.Status,
			&deadline,
			&dossier.CreatedBy,
			&dossier.CreatedAt,
			&dossier.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan dossier: %w", err)
		}

		dossier.Deadline = deadline
		dossiers = append(dossiers, dossier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dossiers: %w", err)
	}

	return dossiers, nil
}

// UpdateStatus advances the dossier lifecycle.
func (d *DossierRepository) UpdateStatus(ctx context.Context, id string, status domain.DossierStatus) error {
	stmt, args, err := d.builder.Update("dossiers").
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update dossier status sql: %w", err)
	}

	ct, err := d.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update dossier status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AddAssignee links a user to the dossier. Re-adding an existing assignee is a no-op.
func (d *DossierRepository) AddAssignee(ctx context.Context, dossierID, userID string) error {
	stmt, args, err := d.builder.Insert("dossier_assignees").
		Columns("dossier_id", "user_id", "assigned_at").
		Values(dossierID, userID, time.Now().UTC()).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build add assignee sql: %w", err)
	}

	if _, err := d.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("add assignee: %w", err)
	}

	return nil
}

// RemoveAssignee unlinks a user from the dossier.
func (d *DossierRepository) RemoveAssignee(ctx context.Context, dossierID, userID string) error {
	stmt, args, err := d.builder.Delete("dossier_assignees").
		Where(squirrel.Eq{"dossier_id": dossierID}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build remove assignee sql: %w", err)
	}

	if _, err := d.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("remove assignee: %w", err)
	}

	return nil
}

// AddTask inserts a task row under the dossier.
func (d *DossierRepository) AddTask(ctx context.Context, task domain.DossierTask) error {
	return d.addTask(ctx, d.exec, task)
}

func (d *DossierRepository) addTask(ctx context.Context, exec pgExecutor, task domain.DossierTask) error {
	stmt, args, err := d.builder.Insert("dossier_tasks").
		Columns("id", "dossier_id", "label", "completion", "assigned_to", "updated_at").
		Values(
			task.ID,
			task.DossierID,
			task.Label,
			domain.ClampCompletion(task.Completion),
			task.AssignedTo,
			task.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert task sql: %w", err)
	}

	if _, err := exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return nil
}

// UpdateTaskCompletion sets a task's completion percentage.
func (d *DossierRepository) UpdateTaskCompletion(ctx context.Context, dossierID, taskID string, completion int) error {
	stmt, args, err := d.builder.Update("dossier_tasks").
		Set("completion", domain.ClampCompletion(completion)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": taskID}).
		Where(squirrel.Eq{"dossier_id": dossierID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update task completion sql: %w", err)
	}

	ct, err := d.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update task completion: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.DossierRepository = (*DossierRepository)(nil)
