package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/repository"
)

type TemplateService struct {
	db database
}

type CreateTemplateInput struct {
	FolderID *int64
	Name     string
	Category string
}

type TemplateBlockInput struct {
	Type             models.BlockType
	Position         models.BlockPosition
	Config           models.BlockConfig
	EstimatedSeconds int
}

type ExerciseInput struct {
	LibraryID   *int64
	Name        string
	Sets        int
	Reps        string
	Load        string
	RestSeconds int
}

type TemplateExerciseInput struct {
	ExerciseInput
	GroupKey              *string
	GroupKind             models.GroupKind
	InterGroupRestSeconds *int
}

func NewTemplateService(db *pgxpool.Pool) *TemplateService {
	return &TemplateService{db: db}
}

func (s *TemplateService) CreateFolder(
	ctx context.Context,
	actorID int64,
	role string,
	name string,
) (*models.TemplateFolder, error) {
	if role != RoleCoach {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("folder name is required")
	}
	return repository.NewPlanTemplateRepository(s.db).CreateFolder(ctx, actorID, name)
}

func (s *TemplateService) ListFolders(ctx context.Context, actorID int64, role string) ([]models.TemplateFolder, error) {
	if role != RoleCoach {
		return nil, ErrForbidden
	}
	return repository.NewPlanTemplateRepository(s.db).ListFolders(ctx, actorID)
}

func (s *TemplateService) CreateTemplate(
	ctx context.Context,
	actorID int64,
	role string,
	input CreateTemplateInput,
) (*models.PlanTemplate, error) {
	if role != RoleCoach {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("template name is required")
	}

	templates := repository.NewPlanTemplateRepository(s.db)
	if input.FolderID != nil {
		if err := ownsFolder(ctx, templates, actorID, *input.FolderID); err != nil {
			return nil, err
		}
	}
	return templates.Create(ctx, repository.CreateTemplateInput{
		OwnerID:  actorID,
		FolderID: input.FolderID,
		Name:     name,
		Category: strings.TrimSpace(input.Category),
	})
}

func (s *TemplateService) AddTemplateBlock(
	ctx context.Context,
	actorID int64,
	role string,
	templateID int64,
	input TemplateBlockInput,
) (*models.TemplateBlock, error) {
	templates := repository.NewPlanTemplateRepository(s.db)
	if _, err := ownedTemplate(ctx, templates, actorID, role, templateID); err != nil {
		return nil, err
	}

	blockInput, err := normalizeBlockInput(input)
	if err != nil {
		return nil, err
	}
	return templates.AddBlock(ctx, repository.CreateTemplateBlockInput{
		TemplateID:       templateID,
		Type:             blockInput.Type,
		Position:         blockInput.Position,
		Config:           blockInput.Config,
		EstimatedSeconds: blockInput.EstimatedSeconds,
	})
}

func (s *TemplateService) AddTemplateExercise(
	ctx context.Context,
	actorID int64,
	role string,
	templateID int64,
	input TemplateExerciseInput,
) (*models.TemplateExercise, error) {
	templates := repository.NewPlanTemplateRepository(s.db)
	if _, err := ownedTemplate(ctx, templates, actorID, role, templateID); err != nil {
		return nil, err
	}

	exercise, err := normalizeExerciseInput(input.ExerciseInput)
	if err != nil {
		return nil, err
	}

	kind := models.GroupKindNone
	var groupKey *string
	var groupOrdinal *int
	var interGroupRest *int
	if input.GroupKey != nil && strings.TrimSpace(*input.GroupKey) != "" {
		key := strings.TrimSpace(*input.GroupKey)
		if !input.GroupKind.Valid() || input.GroupKind == models.GroupKindNone {
			return nil, validationError("grouped template exercise needs a group kind")
		}
		if input.InterGroupRestSeconds != nil && *input.InterGroupRestSeconds < 0 {
			return nil, validationError("inter-group rest must not be negative")
		}

		existing, err := templates.ListExercises(ctx, templateID)
		if err != nil {
			return nil, err
		}
		members := 0
		for _, other := range existing {
			if other.GroupKey == nil || *other.GroupKey != key {
				continue
			}
			if other.GroupKind != input.GroupKind {
				return nil, validationError("group %q is already a %s", key, other.GroupKind)
			}
			members++
		}

		kind = input.GroupKind
		groupKey = &key
		groupOrdinal = &members
		interGroupRest = input.InterGroupRestSeconds
	}

	return templates.AddExercise(ctx, repository.CreateTemplateExerciseInput{
		TemplateID:            templateID,
		LibraryID:             exercise.LibraryID,
		Name:                  exercise.Name,
		Sets:                  exercise.Sets,
		Reps:                  exercise.Reps,
		Load:                  exercise.Load,
		RestSeconds:           exercise.RestSeconds,
		GroupKey:              groupKey,
		GroupKind:             kind,
		GroupOrdinal:          groupOrdinal,
		InterGroupRestSeconds: interGroupRest,
	})
}

func (s *TemplateService) GetTemplate(
	ctx context.Context,
	actorID int64,
	role string,
	templateID int64,
) (*models.TemplateDetail, error) {
	templates := repository.NewPlanTemplateRepository(s.db)
	template, err := ownedTemplate(ctx, templates, actorID, role, templateID)
	if err != nil {
		return nil, err
	}
	return loadTemplateDetail(ctx, templates, template)
}

func (s *TemplateService) ListTemplates(ctx context.Context, actorID int64, role string) ([]models.PlanTemplate, error) {
	if role != RoleCoach {
		return nil, ErrForbidden
	}
	return repository.NewPlanTemplateRepository(s.db).ListByOwner(ctx, actorID)
}

// DeleteTemplate refuses while weekly plans still point at the template.
func (s *TemplateService) DeleteTemplate(ctx context.Context, actorID int64, role string, templateID int64) error {
	templates := repository.NewPlanTemplateRepository(s.db)
	if _, err := ownedTemplate(ctx, templates, actorID, role, templateID); err != nil {
		return err
	}

	deleted, err := templates.Delete(ctx, templateID)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return conflictError("template is still used by weekly plans")
		}
		return err
	}
	if !deleted {
		return notFound(pgx.ErrNoRows, "template")
	}
	return nil
}

func ownedTemplate(
	ctx context.Context,
	templates *repository.PlanTemplateRepository,
	actorID int64,
	role string,
	templateID int64,
) (*models.PlanTemplate, error) {
	if role != RoleCoach {
		return nil, ErrForbidden
	}
	template, err := templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, notFound(err, "template")
	}
	if template.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return template, nil
}

func ownsFolder(ctx context.Context, templates *repository.PlanTemplateRepository, actorID, folderID int64) error {
	folders, err := templates.ListFolders(ctx, actorID)
	if err != nil {
		return err
	}
	for _, folder := range folders {
		if folder.ID == folderID {
			return nil
		}
	}
	return validationError("folder %d does not exist", folderID)
}

func loadTemplateDetail(
	ctx context.Context,
	templates *repository.PlanTemplateRepository,
	template *models.PlanTemplate,
) (*models.TemplateDetail, error) {
	blocks, err := templates.ListBlocks(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	exercises, err := templates.ListExercises(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	return &models.TemplateDetail{
		PlanTemplate: *template,
		Blocks:       blocks,
		Exercises:    exercises,
	}, nil
}

func normalizeBlockInput(input TemplateBlockInput) (TemplateBlockInput, error) {
	if !input.Type.Valid() {
		return input, validationError("unknown block type %q", input.Type)
	}
	if !input.Position.Valid() {
		return input, validationError("block position must be start or end")
	}
	if input.EstimatedSeconds < 0 {
		return input, validationError("estimated seconds must not be negative")
	}
	config, err := input.Config.Normalize(input.Type)
	if err != nil {
		if errors.Is(err, models.ErrBlockConfigMismatch) {
			return input, validationError("%s", err.Error())
		}
		return input, err
	}
	input.Config = config
	input.EstimatedSeconds = estimatedSeconds(input.EstimatedSeconds, config)
	return input, nil
}

func normalizeExerciseInput(input ExerciseInput) (ExerciseInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, validationError("exercise name is required")
	}
	if input.Sets < 0 || input.RestSeconds < 0 {
		return input, validationError("sets and rest must not be negative")
	}
	input.Reps = strings.TrimSpace(input.Reps)
	input.Load = strings.TrimSpace(input.Load)
	return input, nil
}
