package repository

import (
	"context"
	"time"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const workoutSessionColumns = `id, plan_id, client_id, trainer_id, status, started_at, paused_at, ended_at,
	paused_seconds, rest_seconds, notes, created_at, updated_at`

type CreateWorkoutSessionInput struct {
	PlanID    int64
	ClientID  int64
	TrainerID int64
	StartedAt time.Time
}

type WorkoutSessionRepository struct {
	db DBTX
}

func NewWorkoutSessionRepository(db DBTX) *WorkoutSessionRepository {
	return &WorkoutSessionRepository{db: db}
}

// Create inserts a running session. A second active session for the same
// (client, plan) trips uq_workout_sessions_active.
func (r *WorkoutSessionRepository) Create(
	ctx context.Context,
	input CreateWorkoutSessionInput,
) (*models.WorkoutSession, error) {
	query := `
		INSERT INTO workout_sessions (plan_id, client_id, trainer_id, status, started_at)
		VALUES ($1, $2, $3, 'running', $4)
		RETURNING ` + workoutSessionColumns
	return scanWorkoutSession(r.db.QueryRow(
		ctx,
		query,
		input.PlanID,
		input.ClientID,
		input.TrainerID,
		input.StartedAt,
	))
}

func (r *WorkoutSessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.WorkoutSession, error) {
	query := `SELECT ` + workoutSessionColumns + ` FROM workout_sessions WHERE id = $1`
	return scanWorkoutSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *WorkoutSessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.WorkoutSession, error) {
	query := `SELECT ` + workoutSessionColumns + ` FROM workout_sessions WHERE id = $1 FOR UPDATE`
	return scanWorkoutSession(r.db.QueryRow(ctx, query, sessionID))
}

// GetLatestByPlan prefers an active session and otherwise the newest one.
func (r *WorkoutSessionRepository) GetLatestByPlan(
	ctx context.Context,
	clientID int64,
	planID int64,
) (*models.WorkoutSession, error) {
	query := `
		SELECT ` + workoutSessionColumns + `
		FROM workout_sessions
		WHERE client_id = $1 AND plan_id = $2
		ORDER BY (status IN ('running', 'paused')) DESC, started_at DESC, id DESC
		LIMIT 1
	`
	return scanWorkoutSession(r.db.QueryRow(ctx, query, clientID, planID))
}

// ListByPlan pages through a plan's sessions, newest first, and reports the
// total across all pages.
func (r *WorkoutSessionRepository) ListByPlan(
	ctx context.Context,
	planID int64,
	limit int,
	offset int,
) ([]models.WorkoutSession, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workout_sessions WHERE plan_id = $1`, planID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + workoutSessionColumns + `
		FROM workout_sessions
		WHERE plan_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, planID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	sessions, err := collect(rows, scanWorkoutSession)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListActiveStartedBefore finds sessions still running or paused that began
// before cutoff.
func (r *WorkoutSessionRepository) ListActiveStartedBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]models.WorkoutSession, error) {
	query := `
		SELECT ` + workoutSessionColumns + `
		FROM workout_sessions
		WHERE status IN ('running', 'paused') AND started_at < $1
		ORDER BY started_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWorkoutSession)
}

// UpdateIfStatus persists a transition only while the row still has
// currentStatus; a lost race yields pgx.ErrNoRows.
func (r *WorkoutSessionRepository) UpdateIfStatus(
	ctx context.Context,
	session models.WorkoutSession,
	currentStatus models.SessionStatus,
) (*models.WorkoutSession, error) {
	query := `
		UPDATE workout_sessions
		SET status = $3,
		    paused_at = $4,
		    ended_at = $5,
		    paused_seconds = $6,
		    rest_seconds = $7,
		    notes = $8,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + workoutSessionColumns
	return scanWorkoutSession(r.db.QueryRow(
		ctx,
		query,
		session.ID,
		currentStatus,
		session.Status,
		session.PausedAt,
		session.EndedAt,
		session.PausedSeconds,
		session.RestSeconds,
		session.Notes,
	))
}

func (r *WorkoutSessionRepository) AddRestSeconds(
	ctx context.Context,
	sessionID int64,
	seconds int64,
) (*models.WorkoutSession, error) {
	query := `
		UPDATE workout_sessions
		SET rest_seconds = rest_seconds + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + workoutSessionColumns
	return scanWorkoutSession(r.db.QueryRow(ctx, query, sessionID, seconds))
}

// ActivityTimes lists completion stamps of the plan's blocks and exercises
// that fall inside [from, to].
func (r *WorkoutSessionRepository) ActivityTimes(
	ctx context.Context,
	planID int64,
	from time.Time,
	to time.Time,
) ([]time.Time, error) {
	query := `
		SELECT completed_at FROM plan_exercises
		WHERE plan_id = $1 AND deleted_at IS NULL AND completed_at BETWEEN $2 AND $3
		UNION ALL
		SELECT completed_at FROM plan_blocks
		WHERE plan_id = $1 AND deleted_at IS NULL AND completed_at BETWEEN $2 AND $3
	`
	rows, err := r.db.Query(ctx, query, planID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	times := make([]time.Time, 0)
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, err
		}
		times = append(times, at)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return times, nil
}

func scanWorkoutSession(row rowScanner) (*models.WorkoutSession, error) {
	var session models.WorkoutSession
	if err := row.Scan(
		&session.ID,
		&session.PlanID,
		&session.ClientID,
		&session.TrainerID,
		&session.Status,
		&session.StartedAt,
		&session.PausedAt,
		&session.EndedAt,
		&session.PausedSeconds,
		&session.RestSeconds,
		&session.Notes,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &session, nil
}
