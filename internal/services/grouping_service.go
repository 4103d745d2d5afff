package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/repository"
)

type GroupingService struct {
	db     database
	logger *slog.Logger
}

type CreateGroupInput struct {
	ExerciseIDs           []int64
	Kind                  models.GroupKind
	InterGroupRestSeconds int
}

func NewGroupingService(db *pgxpool.Pool, logger *slog.Logger) *GroupingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupingService{db: db, logger: logger}
}

// CreateGroup binds the given exercises into one group, moving them next to
// each other at the position of the earliest member.
func (s *GroupingService) CreateGroup(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	input CreateGroupInput,
) ([]models.ExecutionUnit, error) {
	var groupID uuid.UUID
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := lockAuthorablePlan(ctx, tx, actorID, role, planID); err != nil {
			return err
		}

		exercises := repository.NewExerciseRepository(tx)
		active, err := exercises.ListByPlanForUpdate(ctx, planID)
		if err != nil {
			return err
		}
		rows, err := exercises.ListByIDs(ctx, input.ExerciseIDs)
		if err != nil {
			return err
		}
		if err := validateGroupMembers(planID, input.ExerciseIDs, input.Kind, input.InterGroupRestSeconds, rows); err != nil {
			return err
		}

		if err := exercises.Resequence(ctx, contiguousOrder(active, input.ExerciseIDs)); err != nil {
			return err
		}
		groupID = uuid.New()
		return exercises.AssignGroup(ctx, input.ExerciseIDs, groupID, input.Kind, input.InterGroupRestSeconds)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("exercise group created",
		"plan_id", planID,
		"group_id", groupID,
		"kind", input.Kind,
		"members", len(input.ExerciseIDs),
	)
	return loadExecutionUnits(ctx, s.db, planID)
}

// DissolveGroup ungroups every member and leaves overall ordinals as they
// are. Dissolving a group that no longer exists changes nothing.
func (s *GroupingService) DissolveGroup(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	groupID uuid.UUID,
) ([]models.ExecutionUnit, error) {
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := lockAuthorablePlan(ctx, tx, actorID, role, planID); err != nil {
			return err
		}

		exercises := repository.NewExerciseRepository(tx)
		members, err := exercises.ListByGroupForUpdate(ctx, groupID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		for _, member := range members {
			if member.PlanID != planID {
				return validationError("group %s belongs to another plan", groupID)
			}
		}
		_, err = exercises.ClearGroup(ctx, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loadExecutionUnits(ctx, s.db, planID)
}

func (s *GroupingService) Materialize(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
) ([]models.ExecutionUnit, error) {
	if _, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, planID); err != nil {
		return nil, err
	}
	return loadExecutionUnits(ctx, s.db, planID)
}

// ReorderExercises moves exercises and whole groups. orderedIDs must hold
// every live exercise once with each group's members adjacent and in group
// order; otherwise nothing changes.
func (s *GroupingService) ReorderExercises(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	orderedIDs []int64,
) ([]models.ExecutionUnit, error) {
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := lockAuthorablePlan(ctx, tx, actorID, role, planID); err != nil {
			return err
		}

		exercises := repository.NewExerciseRepository(tx)
		active, err := exercises.ListByPlanForUpdate(ctx, planID)
		if err != nil {
			return err
		}
		if err := validateExerciseOrder(active, orderedIDs); err != nil {
			return err
		}
		return exercises.Resequence(ctx, orderedIDs)
	})
	if err != nil {
		return nil, err
	}
	return loadExecutionUnits(ctx, s.db, planID)
}

// loadExecutionUnits materializes the plan's live exercises and attaches
// exercise library entries where one is linked.
func loadExecutionUnits(ctx context.Context, db repository.DBTX, planID int64) ([]models.ExecutionUnit, error) {
	exercises, err := repository.NewExerciseRepository(db).ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	libraryIDs := make([]int64, 0)
	for _, exercise := range exercises {
		if exercise.LibraryID != nil {
			libraryIDs = append(libraryIDs, *exercise.LibraryID)
		}
	}
	if len(libraryIDs) > 0 {
		entries, err := repository.NewExerciseLibraryRepository(db).ListByIDs(ctx, libraryIDs)
		if err != nil {
			return nil, err
		}
		for i := range exercises {
			if exercises[i].LibraryID == nil {
				continue
			}
			if entry, ok := entries[*exercises[i].LibraryID]; ok {
				exercises[i].Library = &entry
			}
		}
	}
	return MaterializeExercises(exercises), nil
}
