package repository

import (
	"context"
	"time"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const restIntervalColumns = `id, session_id, kind, started_at, ended_at, duration_seconds`

type RestIntervalRepository struct {
	db DBTX
}

func NewRestIntervalRepository(db DBTX) *RestIntervalRepository {
	return &RestIntervalRepository{db: db}
}

// Create opens an interval. uq_rest_intervals_open rejects a second open one.
func (r *RestIntervalRepository) Create(
	ctx context.Context,
	sessionID int64,
	kind models.RestKind,
	startedAt time.Time,
) (*models.RestInterval, error) {
	query := `
		INSERT INTO rest_intervals (session_id, kind, started_at)
		VALUES ($1, $2, $3)
		RETURNING ` + restIntervalColumns
	return scanRestInterval(r.db.QueryRow(ctx, query, sessionID, kind, startedAt))
}

func (r *RestIntervalRepository) GetOpenForUpdate(ctx context.Context, sessionID int64) (*models.RestInterval, error) {
	query := `
		SELECT ` + restIntervalColumns + `
		FROM rest_intervals
		WHERE session_id = $1 AND ended_at IS NULL
		FOR UPDATE
	`
	return scanRestInterval(r.db.QueryRow(ctx, query, sessionID))
}

func (r *RestIntervalRepository) Close(
	ctx context.Context,
	intervalID int64,
	endedAt time.Time,
	durationSeconds int64,
) (*models.RestInterval, error) {
	query := `
		UPDATE rest_intervals
		SET ended_at = $2, duration_seconds = $3
		WHERE id = $1 AND ended_at IS NULL
		RETURNING ` + restIntervalColumns
	return scanRestInterval(r.db.QueryRow(ctx, query, intervalID, endedAt, durationSeconds))
}

// ListBySessions returns the intervals of every given session keyed by
// session id.
func (r *RestIntervalRepository) ListBySessions(ctx context.Context, sessionIDs []int64) (map[int64][]models.RestInterval, error) {
	grouped := make(map[int64][]models.RestInterval, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return grouped, nil
	}

	query := `
		SELECT ` + restIntervalColumns + `
		FROM rest_intervals
		WHERE session_id = ANY($1)
		ORDER BY started_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	intervals, err := collect(rows, scanRestInterval)
	if err != nil {
		return nil, err
	}
	for _, interval := range intervals {
		grouped[interval.SessionID] = append(grouped[interval.SessionID], interval)
	}
	return grouped, nil
}

func scanRestInterval(row rowScanner) (*models.RestInterval, error) {
	var interval models.RestInterval
	if err := row.Scan(
		&interval.ID,
		&interval.SessionID,
		&interval.Kind,
		&interval.StartedAt,
		&interval.EndedAt,
		&interval.DurationSeconds,
	); err != nil {
		return nil, err
	}
	return &interval, nil
}
