package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/repository"
)

type BlockService struct {
	db  database
	now func() time.Time
}

func NewBlockService(db *pgxpool.Pool) *BlockService {
	return &BlockService{db: db, now: time.Now}
}

func (s *BlockService) ListOrganized(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
) (*models.OrganizedBlocks, error) {
	if _, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, planID); err != nil {
		return nil, err
	}
	return organizedBlocks(ctx, s.db, planID)
}

func (s *BlockService) GetBlock(ctx context.Context, actorID int64, role string, blockID int64) (*models.Block, error) {
	block, err := repository.NewBlockRepository(s.db).GetByID(ctx, blockID)
	if err != nil {
		return nil, notFound(err, "block")
	}
	if _, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, block.PlanID); err != nil {
		return nil, err
	}
	return block, nil
}

// AddBlock appends an ad hoc block to the end of its partition.
func (s *BlockService) AddBlock(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	input TemplateBlockInput,
) (*models.Block, error) {
	normalized, err := normalizeBlockInput(input)
	if err != nil {
		return nil, err
	}

	var created *models.Block
	err = runInTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := lockAuthorablePlan(ctx, tx, actorID, role, planID); err != nil {
			return err
		}
		created, err = repository.NewBlockRepository(tx).Create(ctx, repository.CreateBlockInput{
			PlanID:           planID,
			Type:             normalized.Type,
			Position:         normalized.Position,
			Config:           normalized.Config,
			EstimatedSeconds: normalized.EstimatedSeconds,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// InstantiateFromTemplate copies a template block into the plan. position
// overrides the template block's own position when set.
func (s *BlockService) InstantiateFromTemplate(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	templateBlockID int64,
	position *models.BlockPosition,
) (*models.Block, error) {
	if position != nil && !position.Valid() {
		return nil, validationError("block position must be start or end")
	}

	var created *models.Block
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := lockAuthorablePlan(ctx, tx, actorID, role, planID); err != nil {
			return err
		}

		templates := repository.NewPlanTemplateRepository(tx)
		source, err := templates.GetBlock(ctx, templateBlockID)
		if err != nil {
			return notFound(err, "template block")
		}
		if _, err := ownedTemplate(ctx, templates, actorID, role, source.TemplateID); err != nil {
			return err
		}

		target := source.Position
		if position != nil {
			target = *position
		}
		created, err = repository.NewBlockRepository(tx).Create(ctx, repository.CreateBlockInput{
			PlanID:           planID,
			Type:             source.Type,
			Position:         target,
			Config:           source.Config,
			EstimatedSeconds: source.EstimatedSeconds,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Reorder rewrites one partition's ordinals to follow orderedIDs, which must
// be exactly the partition's live blocks.
func (s *BlockService) Reorder(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	position models.BlockPosition,
	orderedIDs []int64,
) (*models.OrganizedBlocks, error) {
	if !position.Valid() {
		return nil, validationError("block position must be start or end")
	}

	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := lockAuthorablePlan(ctx, tx, actorID, role, planID); err != nil {
			return err
		}
		blocks := repository.NewBlockRepository(tx)
		current, err := blocks.LockPartition(ctx, planID, position)
		if err != nil {
			return err
		}
		if err := validateExactIDSet(current, orderedIDs); err != nil {
			return err
		}
		return blocks.Resequence(ctx, orderedIDs)
	})
	if err != nil {
		return nil, err
	}
	return organizedBlocks(ctx, s.db, planID)
}

// MarkCompleted toggles one block. Nothing else in the plan is touched.
func (s *BlockService) MarkCompleted(
	ctx context.Context,
	actorID int64,
	role string,
	blockID int64,
	completed bool,
) (*models.Block, error) {
	blocks := repository.NewBlockRepository(s.db)
	block, err := blocks.GetByID(ctx, blockID)
	if err != nil {
		return nil, notFound(err, "block")
	}
	if _, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, block.PlanID); err != nil {
		return nil, err
	}
	if block.Deleted() {
		return nil, conflictError("block %d is deleted", blockID)
	}

	var completedAt *time.Time
	if completed {
		now := s.now()
		completedAt = &now
	}
	updated, err := blocks.SetCompleted(ctx, blockID, completed, completedAt)
	if err != nil {
		return nil, notFound(err, "block")
	}
	return updated, nil
}

// SoftDelete hides the block and closes the gap in its partition. Deleting an
// already deleted block returns it unchanged.
func (s *BlockService) SoftDelete(ctx context.Context, actorID int64, role string, blockID int64) (*models.Block, error) {
	var deleted *models.Block
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		blocks := repository.NewBlockRepository(tx)
		block, err := lockedBlock(ctx, tx, blocks, actorID, role, blockID)
		if err != nil {
			return err
		}
		if block.Deleted() {
			deleted = block
			return nil
		}

		partition, err := blocks.LockPartition(ctx, block.PlanID, block.Position)
		if err != nil {
			return err
		}
		deleted, err = blocks.SoftDelete(ctx, blockID, s.now())
		if err != nil {
			return notFound(err, "block")
		}
		return blocks.Resequence(ctx, withoutID(partition, blockID))
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Restore brings a deleted block back at the end of its partition.
func (s *BlockService) Restore(ctx context.Context, actorID int64, role string, blockID int64) (*models.Block, error) {
	var restored *models.Block
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		blocks := repository.NewBlockRepository(tx)
		block, err := lockedBlock(ctx, tx, blocks, actorID, role, blockID)
		if err != nil {
			return err
		}
		if !block.Deleted() {
			restored = block
			return nil
		}
		restored, err = blocks.Restore(ctx, blockID)
		return notFound(err, "block")
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// lockedBlock locks the block's plan and then the block itself. The plan lock
// always comes first so block writes cannot deadlock with appends.
func lockedBlock(
	ctx context.Context,
	tx pgx.Tx,
	blocks *repository.BlockRepository,
	actorID int64,
	role string,
	blockID int64,
) (*models.Block, error) {
	block, err := blocks.GetByID(ctx, blockID)
	if err != nil {
		return nil, notFound(err, "block")
	}
	if _, err := lockAuthorablePlan(ctx, tx, actorID, role, block.PlanID); err != nil {
		return nil, err
	}
	block, err = blocks.GetByIDForUpdate(ctx, blockID)
	if err != nil {
		return nil, notFound(err, "block")
	}
	return block, nil
}

func organizedBlocks(ctx context.Context, db repository.DBTX, planID int64) (*models.OrganizedBlocks, error) {
	blocks, err := repository.NewBlockRepository(db).ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	organized := OrganizeBlocks(blocks)
	return &organized, nil
}
