package repository

import (
	"context"
	"time"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const sessionPauseColumns = `id, session_id, started_at, ended_at`

type SessionPauseRepository struct {
	db DBTX
}

func NewSessionPauseRepository(db DBTX) *SessionPauseRepository {
	return &SessionPauseRepository{db: db}
}

// Open records the start of a pause. uq_session_pauses_open rejects a second
// open pause for the same session.
func (r *SessionPauseRepository) Open(ctx context.Context, sessionID int64, startedAt time.Time) (*models.SessionPause, error) {
	query := `
		INSERT INTO session_pauses (session_id, started_at)
		VALUES ($1, $2)
		RETURNING ` + sessionPauseColumns
	return scanSessionPause(r.db.QueryRow(ctx, query, sessionID, startedAt))
}

// CloseOpen ends the session's open pause, if any.
func (r *SessionPauseRepository) CloseOpen(ctx context.Context, sessionID int64, endedAt time.Time) error {
	query := `
		UPDATE session_pauses
		SET ended_at = $2
		WHERE session_id = $1 AND ended_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, sessionID, endedAt)
	return err
}

// ListBySessions returns the pauses of every given session keyed by session id.
func (r *SessionPauseRepository) ListBySessions(ctx context.Context, sessionIDs []int64) (map[int64][]models.SessionPause, error) {
	grouped := make(map[int64][]models.SessionPause, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return grouped, nil
	}

	query := `
		SELECT ` + sessionPauseColumns + `
		FROM session_pauses
		WHERE session_id = ANY($1)
		ORDER BY started_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	pauses, err := collect(rows, scanSessionPause)
	if err != nil {
		return nil, err
	}
	for _, pause := range pauses {
		grouped[pause.SessionID] = append(grouped[pause.SessionID], pause)
	}
	return grouped, nil
}

func scanSessionPause(row rowScanner) (*models.SessionPause, error) {
	var pause models.SessionPause
	if err := row.Scan(
		&pause.ID,
		&pause.SessionID,
		&pause.StartedAt,
		&pause.EndedAt,
	); err != nil {
		return nil, err
	}
	return &pause, nil
}
