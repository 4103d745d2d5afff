package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/repository"
	"gopkg.in/yaml.v3"
)

// TemplateDocument is the YAML shape trainers use to keep templates in files.
type TemplateDocument struct {
	Name      string                     `yaml:"name"`
	Category  string                     `yaml:"category"`
	Folder    string                     `yaml:"folder"`
	Blocks    []TemplateBlockDocument    `yaml:"blocks"`
	Exercises []TemplateExerciseDocument `yaml:"exercises"`
}

type TemplateBlockDocument struct {
	Type             models.BlockType     `yaml:"type"`
	Position         models.BlockPosition `yaml:"position"`
	EstimatedSeconds int                  `yaml:"estimated_seconds"`
	Config           models.BlockConfig   `yaml:"config"`
}

type TemplateExerciseDocument struct {
	LibraryID             *int64           `yaml:"library_id"`
	Name                  string           `yaml:"name"`
	Sets                  int              `yaml:"sets"`
	Reps                  string           `yaml:"reps"`
	Load                  string           `yaml:"load"`
	RestSeconds           int              `yaml:"rest_seconds"`
	Group                 string           `yaml:"group"`
	GroupKind             models.GroupKind `yaml:"group_kind"`
	InterGroupRestSeconds *int             `yaml:"inter_group_rest_seconds"`
}

// DecodeTemplateDocuments reads every document of a multi-document YAML stream.
func DecodeTemplateDocuments(r io.Reader) ([]TemplateDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	docs := make([]TemplateDocument, 0)
	for {
		var doc TemplateDocument
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decode template document %d: %v", ErrValidation, len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

type templateImport struct {
	name      string
	blocks    []TemplateBlockInput
	exercises []repository.CreateTemplateExerciseInput
}

// ValidateTemplateDocument checks a document without touching the database.
func ValidateTemplateDocument(doc TemplateDocument) error {
	_, err := prepareTemplateImport(doc)
	return err
}

func prepareTemplateImport(doc TemplateDocument) (templateImport, error) {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return templateImport{}, validationError("template name is required")
	}

	blocks := make([]TemplateBlockInput, 0, len(doc.Blocks))
	for i, block := range doc.Blocks {
		normalized, err := normalizeBlockInput(TemplateBlockInput{
			Type:             block.Type,
			Position:         block.Position,
			Config:           block.Config,
			EstimatedSeconds: block.EstimatedSeconds,
		})
		if err != nil {
			return templateImport{}, fmt.Errorf("block %d: %w", i+1, err)
		}
		blocks = append(blocks, normalized)
	}

	exercises := make([]repository.CreateTemplateExerciseInput, 0, len(doc.Exercises))
	groupKinds := make(map[string]models.GroupKind)
	groupSizes := make(map[string]int)
	for i, item := range doc.Exercises {
		exercise, err := normalizeExerciseInput(ExerciseInput{
			LibraryID:   item.LibraryID,
			Name:        item.Name,
			Sets:        item.Sets,
			Reps:        item.Reps,
			Load:        item.Load,
			RestSeconds: item.RestSeconds,
		})
		if err != nil {
			return templateImport{}, fmt.Errorf("exercise %d: %w", i+1, err)
		}

		input := repository.CreateTemplateExerciseInput{
			LibraryID:   exercise.LibraryID,
			Name:        exercise.Name,
			Sets:        exercise.Sets,
			Reps:        exercise.Reps,
			Load:        exercise.Load,
			RestSeconds: exercise.RestSeconds,
			GroupKind:   models.GroupKindNone,
		}
		if key := strings.TrimSpace(item.Group); key != "" {
			if !item.GroupKind.Valid() || item.GroupKind == models.GroupKindNone {
				return templateImport{}, fmt.Errorf("exercise %d: %w", i+1, validationError("group %q needs a group kind", key))
			}
			if kind, seen := groupKinds[key]; seen && kind != item.GroupKind {
				return templateImport{}, fmt.Errorf("exercise %d: %w", i+1, validationError("group %q is already a %s", key, kind))
			}
			groupKinds[key] = item.GroupKind

			groupOrdinal := groupSizes[key]
			groupSizes[key]++
			input.GroupKey = &key
			input.GroupKind = item.GroupKind
			input.GroupOrdinal = &groupOrdinal
			input.InterGroupRestSeconds = item.InterGroupRestSeconds
		}
		exercises = append(exercises, input)
	}
	for key, size := range groupSizes {
		if size < 2 {
			return templateImport{}, validationError("group %q needs at least two exercises", key)
		}
	}

	return templateImport{name: name, blocks: blocks, exercises: exercises}, nil
}

// ImportTemplate creates a template with all its blocks and exercises in one
// transaction. A named folder is created when missing.
func (s *TemplateService) ImportTemplate(
	ctx context.Context,
	ownerID int64,
	doc TemplateDocument,
) (*models.TemplateDetail, error) {
	prepared, err := prepareTemplateImport(doc)
	if err != nil {
		return nil, err
	}

	var detail *models.TemplateDetail
	err = runInTx(ctx, s.db, func(tx pgx.Tx) error {
		templates := repository.NewPlanTemplateRepository(tx)

		var folderID *int64
		if folder := strings.TrimSpace(doc.Folder); folder != "" {
			created, err := templates.CreateFolder(ctx, ownerID, folder)
			if err != nil {
				return err
			}
			folderID = &created.ID
		}

		template, err := templates.Create(ctx, repository.CreateTemplateInput{
			OwnerID:  ownerID,
			FolderID: folderID,
			Name:     prepared.name,
			Category: strings.TrimSpace(doc.Category),
		})
		if err != nil {
			return err
		}

		for _, block := range prepared.blocks {
			if _, err := templates.AddBlock(ctx, repository.CreateTemplateBlockInput{
				TemplateID:       template.ID,
				Type:             block.Type,
				Position:         block.Position,
				Config:           block.Config,
				EstimatedSeconds: block.EstimatedSeconds,
			}); err != nil {
				return err
			}
		}
		for _, exercise := range prepared.exercises {
			exercise.TemplateID = template.ID
			if _, err := templates.AddExercise(ctx, exercise); err != nil {
				return err
			}
		}

		detail, err = loadTemplateDetail(ctx, templates, template)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}
