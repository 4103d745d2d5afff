package repository

import (
	"context"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

// ExerciseLibraryRepository reads the shared exercise library. Entries are
// maintained elsewhere.
type ExerciseLibraryRepository struct {
	db DBTX
}

func NewExerciseLibraryRepository(db DBTX) *ExerciseLibraryRepository {
	return &ExerciseLibraryRepository{db: db}
}

func (r *ExerciseLibraryRepository) ListByIDs(
	ctx context.Context,
	ids []int64,
) (map[int64]models.ExerciseLibraryEntry, error) {
	entries := make(map[int64]models.ExerciseLibraryEntry, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}

	query := `
		SELECT id, name, muscle_group, equipment, video_url
		FROM exercise_library
		WHERE id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.ExerciseLibraryEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.MuscleGroup, &entry.Equipment, &entry.VideoURL); err != nil {
			return nil, err
		}
		entries[entry.ID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
