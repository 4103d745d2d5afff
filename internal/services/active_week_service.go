package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/repository"
)

type ActiveWeekService struct {
	db       database
	location *time.Location
	now      func() time.Time
}

func NewActiveWeekService(db *pgxpool.Pool, location *time.Location) *ActiveWeekService {
	if location == nil {
		location = time.UTC
	}
	return &ActiveWeekService{db: db, location: location, now: time.Now}
}

// GetActiveWeek returns the week a client is viewing. Clients get their most
// recently moved pointer and trainers get their own; either falls back to the
// current calendar week.
func (s *ActiveWeekService) GetActiveWeek(
	ctx context.Context,
	actorID int64,
	role string,
	clientID int64,
) (*models.ActiveWeek, error) {
	weeks := repository.NewActiveWeekRepository(s.db)

	var pointer *models.ActiveWeekPointer
	var err error
	switch role {
	case RoleUser:
		if clientID != actorID {
			return nil, ErrForbidden
		}
		pointer, err = weeks.GetLatestByClient(ctx, clientID)
	case RoleCoach:
		pointer, err = weeks.Get(ctx, clientID, actorID)
	default:
		return nil, ErrForbidden
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &models.ActiveWeek{
			ClientID:  clientID,
			WeekStart: s.currentWeek(),
			Default:   true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return activeWeek(pointer), nil
}

// SetActiveWeek moves the pointer to the week containing weekStart.
func (s *ActiveWeekService) SetActiveWeek(
	ctx context.Context,
	actorID int64,
	role string,
	clientID int64,
	weekStart time.Time,
) (*models.ActiveWeek, error) {
	if role != RoleCoach {
		return nil, ErrForbidden
	}
	if clientID <= 0 {
		return nil, validationError("client is required")
	}
	if weekStart.IsZero() {
		return nil, validationError("week start is required")
	}

	pointer, err := repository.NewActiveWeekRepository(s.db).Upsert(ctx, clientID, actorID, WeekStart(weekStart))
	if err != nil {
		return nil, err
	}
	return activeWeek(pointer), nil
}

// AdvanceWeek moves the trainer's pointer for the client forward by one week.
func (s *ActiveWeekService) AdvanceWeek(
	ctx context.Context,
	actorID int64,
	role string,
	clientID int64,
) (*models.ActiveWeek, error) {
	if role != RoleCoach {
		return nil, ErrForbidden
	}
	if clientID <= 0 {
		return nil, validationError("client is required")
	}

	pointer, err := repository.NewActiveWeekRepository(s.db).Advance(ctx, clientID, actorID, s.currentWeek())
	if err != nil {
		return nil, err
	}
	return activeWeek(pointer), nil
}

func (s *ActiveWeekService) currentWeek() time.Time {
	return WeekStart(s.now().In(s.location))
}

func activeWeek(pointer *models.ActiveWeekPointer) *models.ActiveWeek {
	trainerID := pointer.TrainerID
	return &models.ActiveWeek{
		ClientID:  pointer.ClientID,
		TrainerID: &trainerID,
		WeekStart: pointer.WeekStart,
	}
}
