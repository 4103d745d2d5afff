package repository

import (
	"context"
	"time"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

type ActiveWeekRepository struct {
	db DBTX
}

func NewActiveWeekRepository(db DBTX) *ActiveWeekRepository {
	return &ActiveWeekRepository{db: db}
}

// GetLatestByClient returns the most recently moved pointer across the
// client's trainers.
func (r *ActiveWeekRepository) GetLatestByClient(ctx context.Context, clientID int64) (*models.ActiveWeekPointer, error) {
	query := `
		SELECT client_id, trainer_id, week_start, updated_at
		FROM active_week_pointers
		WHERE client_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return scanActiveWeek(r.db.QueryRow(ctx, query, clientID))
}

func (r *ActiveWeekRepository) Get(ctx context.Context, clientID, trainerID int64) (*models.ActiveWeekPointer, error) {
	query := `
		SELECT client_id, trainer_id, week_start, updated_at
		FROM active_week_pointers
		WHERE client_id = $1 AND trainer_id = $2
	`
	return scanActiveWeek(r.db.QueryRow(ctx, query, clientID, trainerID))
}

func (r *ActiveWeekRepository) Upsert(
	ctx context.Context,
	clientID int64,
	trainerID int64,
	weekStart time.Time,
) (*models.ActiveWeekPointer, error) {
	query := `
		INSERT INTO active_week_pointers (client_id, trainer_id, week_start)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id, trainer_id)
		DO UPDATE SET week_start = EXCLUDED.week_start, updated_at = NOW()
		RETURNING client_id, trainer_id, week_start, updated_at
	`
	return scanActiveWeek(r.db.QueryRow(ctx, query, clientID, trainerID, weekStart))
}

// Advance moves the pointer one week forward in a single statement, so
// concurrent advances each count. A missing pointer starts one week after
// currentWeek.
func (r *ActiveWeekRepository) Advance(
	ctx context.Context,
	clientID int64,
	trainerID int64,
	currentWeek time.Time,
) (*models.ActiveWeekPointer, error) {
	query := `
		INSERT INTO active_week_pointers (client_id, trainer_id, week_start)
		VALUES ($1, $2, $3::date + 7)
		ON CONFLICT (client_id, trainer_id)
		DO UPDATE SET week_start = active_week_pointers.week_start + 7, updated_at = NOW()
		RETURNING client_id, trainer_id, week_start, updated_at
	`
	return scanActiveWeek(r.db.QueryRow(ctx, query, clientID, trainerID, currentWeek))
}

func scanActiveWeek(row rowScanner) (*models.ActiveWeekPointer, error) {
	var pointer models.ActiveWeekPointer
	if err := row.Scan(&pointer.ClientID, &pointer.TrainerID, &pointer.WeekStart, &pointer.UpdatedAt); err != nil {
		return nil, err
	}
	return &pointer, nil
}
