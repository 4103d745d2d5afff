package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const (
	templateColumns         = `id, owner_id, folder_id, name, category, created_at, updated_at`
	templateBlockColumns    = `id, template_id, block_type, position, ordinal, config, estimated_seconds`
	templateExerciseColumns = `id, template_id, library_id, name, sets, reps, load, rest_seconds, ordinal,
	group_key, group_kind, group_ordinal, inter_group_rest_seconds`
)

type CreateTemplateInput struct {
	OwnerID  int64
	FolderID *int64
	Name     string
	Category string
}

type CreateTemplateBlockInput struct {
	TemplateID       int64
	Type             models.BlockType
	Position         models.BlockPosition
	Config           models.BlockConfig
	EstimatedSeconds int
}

type CreateTemplateExerciseInput struct {
	TemplateID            int64
	LibraryID             *int64
	Name                  string
	Sets                  int
	Reps                  string
	Load                  string
	RestSeconds           int
	GroupKey              *string
	GroupKind             models.GroupKind
	GroupOrdinal          *int
	InterGroupRestSeconds *int
}

type PlanTemplateRepository struct {
	db DBTX
}

func NewPlanTemplateRepository(db DBTX) *PlanTemplateRepository {
	return &PlanTemplateRepository{db: db}
}

func (r *PlanTemplateRepository) CreateFolder(ctx context.Context, ownerID int64, name string) (*models.TemplateFolder, error) {
	query := `
		INSERT INTO template_folders (owner_id, name)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, owner_id, name, created_at
	`
	var folder models.TemplateFolder
	if err := r.db.QueryRow(ctx, query, ownerID, name).Scan(
		&folder.ID,
		&folder.OwnerID,
		&folder.Name,
		&folder.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *PlanTemplateRepository) ListFolders(ctx context.Context, ownerID int64) ([]models.TemplateFolder, error) {
	query := `
		SELECT id, owner_id, name, created_at
		FROM template_folders
		WHERE owner_id = $1
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row rowScanner) (*models.TemplateFolder, error) {
		var folder models.TemplateFolder
		if err := row.Scan(&folder.ID, &folder.OwnerID, &folder.Name, &folder.CreatedAt); err != nil {
			return nil, err
		}
		return &folder, nil
	})
}

func (r *PlanTemplateRepository) Create(ctx context.Context, input CreateTemplateInput) (*models.PlanTemplate, error) {
	query := `
		INSERT INTO plan_templates (owner_id, folder_id, name, category)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + templateColumns
	return scanTemplate(r.db.QueryRow(ctx, query, input.OwnerID, input.FolderID, input.Name, input.Category))
}

func (r *PlanTemplateRepository) GetByID(ctx context.Context, templateID int64) (*models.PlanTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM plan_templates WHERE id = $1`
	return scanTemplate(r.db.QueryRow(ctx, query, templateID))
}

func (r *PlanTemplateRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.PlanTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM plan_templates
		WHERE owner_id = $1
		ORDER BY category ASC, name ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTemplate)
}

// Delete fails with a foreign key violation while live plans reference the template.
func (r *PlanTemplateRepository) Delete(ctx context.Context, templateID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM plan_templates WHERE id = $1`, templateID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PlanTemplateRepository) AddBlock(ctx context.Context, input CreateTemplateBlockInput) (*models.TemplateBlock, error) {
	config, err := json.Marshal(input.Config)
	if err != nil {
		return nil, fmt.Errorf("encode template block config: %w", err)
	}

	query := `
		INSERT INTO template_blocks (template_id, block_type, position, ordinal, config, estimated_seconds)
		VALUES (
			$1, $2, $3,
			(SELECT COALESCE(MAX(ordinal) + 1, 0) FROM template_blocks WHERE template_id = $1 AND position = $3),
			$4::jsonb, $5
		)
		RETURNING ` + templateBlockColumns
	return scanTemplateBlock(r.db.QueryRow(
		ctx,
		query,
		input.TemplateID,
		input.Type,
		input.Position,
		string(config),
		input.EstimatedSeconds,
	))
}

func (r *PlanTemplateRepository) GetBlock(ctx context.Context, templateBlockID int64) (*models.TemplateBlock, error) {
	query := `SELECT ` + templateBlockColumns + ` FROM template_blocks WHERE id = $1`
	return scanTemplateBlock(r.db.QueryRow(ctx, query, templateBlockID))
}

func (r *PlanTemplateRepository) ListBlocks(ctx context.Context, templateID int64) ([]models.TemplateBlock, error) {
	query := `
		SELECT ` + templateBlockColumns + `
		FROM template_blocks
		WHERE template_id = $1
		ORDER BY position DESC, ordinal ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTemplateBlock)
}

func (r *PlanTemplateRepository) AddExercise(
	ctx context.Context,
	input CreateTemplateExerciseInput,
) (*models.TemplateExercise, error) {
	kind := input.GroupKind
	if kind == "" {
		kind = models.GroupKindNone
	}

	query := `
		INSERT INTO template_exercises (
			template_id, library_id, name, sets, reps, load, rest_seconds, ordinal,
			group_key, group_kind, group_ordinal, inter_group_rest_seconds
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(ordinal) + 1, 0) FROM template_exercises WHERE template_id = $1),
			$8, $9, $10, $11
		)
		RETURNING ` + templateExerciseColumns
	return scanTemplateExercise(r.db.QueryRow(
		ctx,
		query,
		input.TemplateID,
		input.LibraryID,
		input.Name,
		input.Sets,
		input.Reps,
		input.Load,
		input.RestSeconds,
		input.GroupKey,
		kind,
		input.GroupOrdinal,
		input.InterGroupRestSeconds,
	))
}

func (r *PlanTemplateRepository) ListExercises(ctx context.Context, templateID int64) ([]models.TemplateExercise, error) {
	query := `
		SELECT ` + templateExerciseColumns + `
		FROM template_exercises
		WHERE template_id = $1
		ORDER BY ordinal ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTemplateExercise)
}

func scanTemplate(row rowScanner) (*models.PlanTemplate, error) {
	var template models.PlanTemplate
	if err := row.Scan(
		&template.ID,
		&template.OwnerID,
		&template.FolderID,
		&template.Name,
		&template.Category,
		&template.CreatedAt,
		&template.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &template, nil
}

func scanTemplateBlock(row rowScanner) (*models.TemplateBlock, error) {
	var (
		block  models.TemplateBlock
		config []byte
	)
	if err := row.Scan(
		&block.ID,
		&block.TemplateID,
		&block.Type,
		&block.Position,
		&block.Ordinal,
		&config,
		&block.EstimatedSeconds,
	); err != nil {
		return nil, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &block.Config); err != nil {
			return nil, fmt.Errorf("decode template block config: %w", err)
		}
	}
	return &block, nil
}

func scanTemplateExercise(row rowScanner) (*models.TemplateExercise, error) {
	var exercise models.TemplateExercise
	if err := row.Scan(
		&exercise.ID,
		&exercise.TemplateID,
		&exercise.LibraryID,
		&exercise.Name,
		&exercise.Sets,
		&exercise.Reps,
		&exercise.Load,
		&exercise.RestSeconds,
		&exercise.Ordinal,
		&exercise.GroupKey,
		&exercise.GroupKind,
		&exercise.GroupOrdinal,
		&exercise.InterGroupRestSeconds,
	); err != nil {
		return nil, err
	}
	return &exercise, nil
}
