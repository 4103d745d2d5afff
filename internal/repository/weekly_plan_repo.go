package repository

import (
	"context"
	"time"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const weeklyPlanColumns = `id, client_id, trainer_id, week_start, day_of_week, template_id, name, notes,
	ordinal, completed, completed_at, created_at, updated_at`

type CreateWeeklyPlanInput struct {
	ClientID   int64
	TrainerID  int64
	WeekStart  time.Time
	DayOfWeek  int
	TemplateID *int64
	Name       string
	Notes      *string
}

type WeeklyPlanRepository struct {
	db DBTX
}

func NewWeeklyPlanRepository(db DBTX) *WeeklyPlanRepository {
	return &WeeklyPlanRepository{db: db}
}

// Create places the plan after the other plans of the same day.
func (r *WeeklyPlanRepository) Create(ctx context.Context, input CreateWeeklyPlanInput) (*models.WeeklyPlan, error) {
	query := `
		INSERT INTO weekly_plans (client_id, trainer_id, week_start, day_of_week, template_id, name, notes, ordinal)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(ordinal) + 1, 0) FROM weekly_plans
			 WHERE trainer_id = $2 AND client_id = $1 AND week_start = $3 AND day_of_week = $4)
		)
		RETURNING ` + weeklyPlanColumns
	return scanWeeklyPlan(r.db.QueryRow(
		ctx,
		query,
		input.ClientID,
		input.TrainerID,
		input.WeekStart,
		input.DayOfWeek,
		input.TemplateID,
		input.Name,
		input.Notes,
	))
}

func (r *WeeklyPlanRepository) GetByID(ctx context.Context, planID int64) (*models.WeeklyPlan, error) {
	query := `SELECT ` + weeklyPlanColumns + ` FROM weekly_plans WHERE id = $1`
	return scanWeeklyPlan(r.db.QueryRow(ctx, query, planID))
}

// GetByIDForUpdate locks the plan row. Structural writes take it first so
// they serialize even when the rows they reorder do not exist yet.
func (r *WeeklyPlanRepository) GetByIDForUpdate(ctx context.Context, planID int64) (*models.WeeklyPlan, error) {
	query := `SELECT ` + weeklyPlanColumns + ` FROM weekly_plans WHERE id = $1 FOR UPDATE`
	return scanWeeklyPlan(r.db.QueryRow(ctx, query, planID))
}

func (r *WeeklyPlanRepository) ListByClientWeek(
	ctx context.Context,
	clientID int64,
	weekStart time.Time,
) ([]models.WeeklyPlan, error) {
	query := `
		SELECT ` + weeklyPlanColumns + `
		FROM weekly_plans
		WHERE client_id = $1 AND week_start = $2
		ORDER BY day_of_week ASC, ordinal ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, clientID, weekStart)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWeeklyPlan)
}

func (r *WeeklyPlanRepository) SetCompleted(
	ctx context.Context,
	planID int64,
	completed bool,
	completedAt *time.Time,
) (*models.WeeklyPlan, error) {
	query := `
		UPDATE weekly_plans
		SET completed = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + weeklyPlanColumns
	return scanWeeklyPlan(r.db.QueryRow(ctx, query, planID, completed, completedAt))
}

func (r *WeeklyPlanRepository) Delete(ctx context.Context, planID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM weekly_plans WHERE id = $1`, planID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanWeeklyPlan(row rowScanner) (*models.WeeklyPlan, error) {
	var plan models.WeeklyPlan
	if err := row.Scan(
		&plan.ID,
		&plan.ClientID,
		&plan.TrainerID,
		&plan.WeekStart,
		&plan.DayOfWeek,
		&plan.TemplateID,
		&plan.Name,
		&plan.Notes,
		&plan.Ordinal,
		&plan.Completed,
		&plan.CompletedAt,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}
