package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/repository"
)

const (
	RoleCoach = "coach"
	RoleUser  = "user"
)

type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// database is what services hold: reads go straight through it and writes
// open a transaction. *pgxpool.Pool satisfies it.
type database interface {
	repository.DBTX
	txStarter
}

func runInTx(ctx context.Context, db txStarter, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type planReader interface {
	GetByID(ctx context.Context, planID int64) (*models.WeeklyPlan, error)
}

func canReadPlan(role string, actorID int64, plan *models.WeeklyPlan) bool {
	switch role {
	case RoleCoach:
		return plan.TrainerID == actorID
	case RoleUser:
		return plan.ClientID == actorID
	default:
		return false
	}
}

// canAuthorPlan covers structural edits: only the owning trainer.
func canAuthorPlan(role string, actorID int64, plan *models.WeeklyPlan) bool {
	return role == RoleCoach && plan.TrainerID == actorID
}

func loadPlan(ctx context.Context, plans planReader, planID int64) (*models.WeeklyPlan, error) {
	plan, err := plans.GetByID(ctx, planID)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	return plan, nil
}

func readablePlan(ctx context.Context, plans planReader, actorID int64, role string, planID int64) (*models.WeeklyPlan, error) {
	plan, err := loadPlan(ctx, plans, planID)
	if err != nil {
		return nil, err
	}
	if !canReadPlan(role, actorID, plan) {
		return nil, ErrForbidden
	}
	return plan, nil
}

func authorablePlan(ctx context.Context, plans planReader, actorID int64, role string, planID int64) (*models.WeeklyPlan, error) {
	plan, err := loadPlan(ctx, plans, planID)
	if err != nil {
		return nil, err
	}
	if !canAuthorPlan(role, actorID, plan) {
		return nil, ErrForbidden
	}
	return plan, nil
}

// lockAuthorablePlan is authorablePlan inside a transaction: it holds the
// plan row lock until tx ends.
func lockAuthorablePlan(ctx context.Context, tx pgx.Tx, actorID int64, role string, planID int64) (*models.WeeklyPlan, error) {
	plan, err := repository.NewWeeklyPlanRepository(tx).GetByIDForUpdate(ctx, planID)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	if !canAuthorPlan(role, actorID, plan) {
		return nil, ErrForbidden
	}
	return plan, nil
}
