package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const exerciseColumns = `id, plan_id, library_id, name, sets, reps, load, rest_seconds, ordinal,
	group_id, group_kind, group_ordinal, inter_group_rest_seconds,
	completed, completed_at, deleted_at, created_at`

type CreateExerciseInput struct {
	PlanID                int64
	LibraryID             *int64
	Name                  string
	Sets                  int
	Reps                  string
	Load                  string
	RestSeconds           int
	GroupID               *uuid.UUID
	GroupKind             models.GroupKind
	GroupOrdinal          *int
	InterGroupRestSeconds *int
}

type ExerciseRepository struct {
	db DBTX
}

func NewExerciseRepository(db DBTX) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// Create appends the exercise after the last live exercise of the plan.
func (r *ExerciseRepository) Create(ctx context.Context, input CreateExerciseInput) (*models.Exercise, error) {
	kind := input.GroupKind
	if kind == "" {
		kind = models.GroupKindNone
	}

	query := `
		INSERT INTO plan_exercises (
			plan_id, library_id, name, sets, reps, load, rest_seconds, ordinal,
			group_id, group_kind, group_ordinal, inter_group_rest_seconds
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(ordinal) + 1, 0) FROM plan_exercises
			 WHERE plan_id = $1 AND deleted_at IS NULL),
			$8, $9, $10, $11
		)
		RETURNING ` + exerciseColumns
	return scanExercise(r.db.QueryRow(
		ctx,
		query,
		input.PlanID,
		input.LibraryID,
		input.Name,
		input.Sets,
		input.Reps,
		input.Load,
		input.RestSeconds,
		input.GroupID,
		kind,
		input.GroupOrdinal,
		input.InterGroupRestSeconds,
	))
}

func (r *ExerciseRepository) GetByID(ctx context.Context, exerciseID int64) (*models.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM plan_exercises WHERE id = $1`
	return scanExercise(r.db.QueryRow(ctx, query, exerciseID))
}

func (r *ExerciseRepository) GetByIDForUpdate(ctx context.Context, exerciseID int64) (*models.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM plan_exercises WHERE id = $1 FOR UPDATE`
	return scanExercise(r.db.QueryRow(ctx, query, exerciseID))
}

// ListByPlan returns live exercises in overall ordinal order.
func (r *ExerciseRepository) ListByPlan(ctx context.Context, planID int64) ([]models.Exercise, error) {
	query := `
		SELECT ` + exerciseColumns + `
		FROM plan_exercises
		WHERE plan_id = $1 AND deleted_at IS NULL
		ORDER BY ordinal ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanExercise)
}

func (r *ExerciseRepository) ListByPlanForUpdate(ctx context.Context, planID int64) ([]models.Exercise, error) {
	query := `
		SELECT ` + exerciseColumns + `
		FROM plan_exercises
		WHERE plan_id = $1 AND deleted_at IS NULL
		ORDER BY ordinal ASC, id ASC
		FOR UPDATE
	`
	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanExercise)
}

func (r *ExerciseRepository) ListByIDs(ctx context.Context, exerciseIDs []int64) ([]models.Exercise, error) {
	query := `
		SELECT ` + exerciseColumns + `
		FROM plan_exercises
		WHERE id = ANY($1)
		ORDER BY ordinal ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, exerciseIDs)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanExercise)
}

func (r *ExerciseRepository) ListByGroupForUpdate(ctx context.Context, groupID uuid.UUID) ([]models.Exercise, error) {
	query := `
		SELECT ` + exerciseColumns + `
		FROM plan_exercises
		WHERE group_id = $1 AND deleted_at IS NULL
		ORDER BY group_ordinal ASC, ordinal ASC
		FOR UPDATE
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanExercise)
}

// Resequence assigns plan ordinals 0..n-1 following orderedIDs.
func (r *ExerciseRepository) Resequence(ctx context.Context, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	query := `
		UPDATE plan_exercises AS e
		SET ordinal = o.ord - 1
		FROM unnest($1::bigint[]) WITH ORDINALITY AS o(id, ord)
		WHERE e.id = o.id
	`
	_, err := r.db.Exec(ctx, query, orderedIDs)
	return err
}

// AssignGroup writes group membership; group ordinals follow memberIDs.
func (r *ExerciseRepository) AssignGroup(
	ctx context.Context,
	memberIDs []int64,
	groupID uuid.UUID,
	kind models.GroupKind,
	interGroupRestSeconds int,
) error {
	query := `
		UPDATE plan_exercises AS e
		SET group_id = $2,
		    group_kind = $3,
		    inter_group_rest_seconds = $4,
		    group_ordinal = o.ord - 1
		FROM unnest($1::bigint[]) WITH ORDINALITY AS o(id, ord)
		WHERE e.id = o.id
	`
	_, err := r.db.Exec(ctx, query, memberIDs, groupID, kind, interGroupRestSeconds)
	return err
}

// ClearGroup removes every member from the group and reports how many rows
// were touched. Overall ordinals are left alone.
func (r *ExerciseRepository) ClearGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	query := `
		UPDATE plan_exercises
		SET group_id = NULL, group_kind = 'none', group_ordinal = NULL, inter_group_rest_seconds = NULL
		WHERE group_id = $1
	`
	tag, err := r.db.Exec(ctx, query, groupID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ExerciseRepository) SetCompleted(
	ctx context.Context,
	exerciseID int64,
	completed bool,
	completedAt *time.Time,
) (*models.Exercise, error) {
	query := `
		UPDATE plan_exercises
		SET completed = $2, completed_at = $3
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + exerciseColumns
	return scanExercise(r.db.QueryRow(ctx, query, exerciseID, completed, completedAt))
}

// SoftDelete also drops group membership so a restored exercise comes back
// standalone.
func (r *ExerciseRepository) SoftDelete(ctx context.Context, exerciseID int64, deletedAt time.Time) (*models.Exercise, error) {
	query := `
		UPDATE plan_exercises
		SET deleted_at = $2,
		    group_id = NULL, group_kind = 'none', group_ordinal = NULL, inter_group_rest_seconds = NULL
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + exerciseColumns
	return scanExercise(r.db.QueryRow(ctx, query, exerciseID, deletedAt))
}

func (r *ExerciseRepository) Restore(ctx context.Context, exerciseID int64) (*models.Exercise, error) {
	query := `
		UPDATE plan_exercises AS e
		SET deleted_at = NULL,
		    ordinal = (
		        SELECT COALESCE(MAX(p.ordinal) + 1, 0)
		        FROM plan_exercises p
		        WHERE p.plan_id = e.plan_id AND p.deleted_at IS NULL AND p.id <> e.id
		    )
		WHERE e.id = $1 AND e.deleted_at IS NOT NULL
		RETURNING ` + exerciseColumns
	return scanExercise(r.db.QueryRow(ctx, query, exerciseID))
}

func scanExercise(row rowScanner) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := row.Scan(
		&exercise.ID,
		&exercise.PlanID,
		&exercise.LibraryID,
		&exercise.Name,
		&exercise.Sets,
		&exercise.Reps,
		&exercise.Load,
		&exercise.RestSeconds,
		&exercise.Ordinal,
		&exercise.GroupID,
		&exercise.GroupKind,
		&exercise.GroupOrdinal,
		&exercise.InterGroupRestSeconds,
		&exercise.Completed,
		&exercise.CompletedAt,
		&exercise.DeletedAt,
		&exercise.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &exercise, nil
}
