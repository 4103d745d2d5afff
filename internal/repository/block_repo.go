package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const blockColumns = `id, plan_id, block_type, position, ordinal, config, estimated_seconds,
	completed, completed_at, deleted_at, created_at`

type CreateBlockInput struct {
	PlanID           int64
	Type             models.BlockType
	Position         models.BlockPosition
	Config           models.BlockConfig
	EstimatedSeconds int
}

type BlockRepository struct {
	db DBTX
}

func NewBlockRepository(db DBTX) *BlockRepository {
	return &BlockRepository{db: db}
}

// Create appends the block at the end of its (plan, position) partition.
func (r *BlockRepository) Create(ctx context.Context, input CreateBlockInput) (*models.Block, error) {
	config, err := json.Marshal(input.Config)
	if err != nil {
		return nil, fmt.Errorf("encode block config: %w", err)
	}

	query := `
		INSERT INTO plan_blocks (plan_id, block_type, position, ordinal, config, estimated_seconds)
		VALUES (
			$1, $2, $3,
			(SELECT COALESCE(MAX(ordinal) + 1, 0) FROM plan_blocks
			 WHERE plan_id = $1 AND position = $3 AND deleted_at IS NULL),
			$4::jsonb, $5
		)
		RETURNING ` + blockColumns
	return scanBlock(r.db.QueryRow(
		ctx,
		query,
		input.PlanID,
		input.Type,
		input.Position,
		string(config),
		input.EstimatedSeconds,
	))
}

// GetByID returns the block even when it is soft-deleted.
func (r *BlockRepository) GetByID(ctx context.Context, blockID int64) (*models.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM plan_blocks WHERE id = $1`
	return scanBlock(r.db.QueryRow(ctx, query, blockID))
}

func (r *BlockRepository) GetByIDForUpdate(ctx context.Context, blockID int64) (*models.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM plan_blocks WHERE id = $1 FOR UPDATE`
	return scanBlock(r.db.QueryRow(ctx, query, blockID))
}

func (r *BlockRepository) ListByPlan(ctx context.Context, planID int64) ([]models.Block, error) {
	query := `
		SELECT ` + blockColumns + `
		FROM plan_blocks
		WHERE plan_id = $1 AND deleted_at IS NULL
		ORDER BY position DESC, ordinal ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBlock)
}

// LockPartition returns the live block ids of a partition in ordinal order and
// holds their row locks until the surrounding transaction ends.
func (r *BlockRepository) LockPartition(
	ctx context.Context,
	planID int64,
	position models.BlockPosition,
) ([]int64, error) {
	query := `
		SELECT id
		FROM plan_blocks
		WHERE plan_id = $1 AND position = $2 AND deleted_at IS NULL
		ORDER BY ordinal ASC, id ASC
		FOR UPDATE
	`
	rows, err := r.db.Query(ctx, query, planID, position)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Resequence assigns ordinals 0..n-1 following orderedIDs in one statement.
func (r *BlockRepository) Resequence(ctx context.Context, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	query := `
		UPDATE plan_blocks AS b
		SET ordinal = o.ord - 1
		FROM unnest($1::bigint[]) WITH ORDINALITY AS o(id, ord)
		WHERE b.id = o.id
	`
	_, err := r.db.Exec(ctx, query, orderedIDs)
	return err
}

func (r *BlockRepository) SetCompleted(
	ctx context.Context,
	blockID int64,
	completed bool,
	completedAt *time.Time,
) (*models.Block, error) {
	query := `
		UPDATE plan_blocks
		SET completed = $2, completed_at = $3
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + blockColumns
	return scanBlock(r.db.QueryRow(ctx, query, blockID, completed, completedAt))
}

func (r *BlockRepository) SoftDelete(ctx context.Context, blockID int64, deletedAt time.Time) (*models.Block, error) {
	query := `
		UPDATE plan_blocks
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + blockColumns
	return scanBlock(r.db.QueryRow(ctx, query, blockID, deletedAt))
}

// Restore clears deleted_at and moves the block to the end of its partition.
func (r *BlockRepository) Restore(ctx context.Context, blockID int64) (*models.Block, error) {
	query := `
		UPDATE plan_blocks AS b
		SET deleted_at = NULL,
		    ordinal = (
		        SELECT COALESCE(MAX(p.ordinal) + 1, 0)
		        FROM plan_blocks p
		        WHERE p.plan_id = b.plan_id AND p.position = b.position
		          AND p.deleted_at IS NULL AND p.id <> b.id
		    )
		WHERE b.id = $1 AND b.deleted_at IS NOT NULL
		RETURNING ` + blockColumns
	return scanBlock(r.db.QueryRow(ctx, query, blockID))
}

func scanBlock(row rowScanner) (*models.Block, error) {
	var (
		block  models.Block
		config []byte
	)
	if err := row.Scan(
		&block.ID,
		&block.PlanID,
		&block.Type,
		&block.Position,
		&block.Ordinal,
		&config,
		&block.EstimatedSeconds,
		&block.Completed,
		&block.CompletedAt,
		&block.DeletedAt,
		&block.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &block.Config); err != nil {
			return nil, fmt.Errorf("decode block config: %w", err)
		}
	}
	return &block, nil
}
