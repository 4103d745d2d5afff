package handlers

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

const maxTemplateImportBytes = 1 << 20

type templateApplicationService interface {
	CreateFolder(ctx context.Context, actorID int64, role string, name string) (*models.TemplateFolder, error)
	ListFolders(ctx context.Context, actorID int64, role string) ([]models.TemplateFolder, error)
	CreateTemplate(ctx context.Context, actorID int64, role string, input services.CreateTemplateInput) (*models.PlanTemplate, error)
	ListTemplates(ctx context.Context, actorID int64, role string) ([]models.PlanTemplate, error)
	GetTemplate(ctx context.Context, actorID int64, role string, templateID int64) (*models.TemplateDetail, error)
	DeleteTemplate(ctx context.Context, actorID int64, role string, templateID int64) error
	AddTemplateBlock(
		ctx context.Context,
		actorID int64,
		role string,
		templateID int64,
		input services.TemplateBlockInput,
	) (*models.TemplateBlock, error)
	AddTemplateExercise(
		ctx context.Context,
		actorID int64,
		role string,
		templateID int64,
		input services.TemplateExerciseInput,
	) (*models.TemplateExercise, error)
	ImportTemplate(ctx context.Context, ownerID int64, doc services.TemplateDocument) (*models.TemplateDetail, error)
}

type TemplateHandler struct {
	service templateApplicationService
}

func NewTemplateHandler(service templateApplicationService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

type createFolderRequest struct {
	Name string `json:"name"`
}

type createTemplateRequest struct {
	FolderID *int64 `json:"folder_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type blockRequest struct {
	Type             models.BlockType     `json:"type"`
	Position         models.BlockPosition `json:"position"`
	Config           models.BlockConfig   `json:"config"`
	EstimatedSeconds int                  `json:"estimated_seconds"`
}

func (r blockRequest) input() services.TemplateBlockInput {
	return services.TemplateBlockInput{
		Type:             r.Type,
		Position:         r.Position,
		Config:           r.Config,
		EstimatedSeconds: r.EstimatedSeconds,
	}
}

type exerciseRequest struct {
	LibraryID   *int64 `json:"library_id"`
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	Load        string `json:"load"`
	RestSeconds int    `json:"rest_seconds"`
}

func (r exerciseRequest) input() services.ExerciseInput {
	return services.ExerciseInput{
		LibraryID:   r.LibraryID,
		Name:        r.Name,
		Sets:        r.Sets,
		Reps:        r.Reps,
		Load:        r.Load,
		RestSeconds: r.RestSeconds,
	}
}

type templateExerciseRequest struct {
	exerciseRequest
	GroupKey              *string          `json:"group_key"`
	GroupKind             models.GroupKind `json:"group_kind"`
	InterGroupRestSeconds *int             `json:"inter_group_rest_seconds"`
}

func (h *TemplateHandler) CreateFolder(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	folder, err := h.service.CreateFolder(c.Context(), actorID, role, req.Name)
	if err != nil {
		return mapTemplateError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"folder": folder})
}

func (h *TemplateHandler) ListFolders(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}

	folders, err := h.service.ListFolders(c.Context(), actorID, role)
	if err != nil {
		return mapTemplateError(c, err)
	}
	if folders == nil {
		folders = []models.TemplateFolder{}
	}
	return c.JSON(fiber.Map{"folders": folders})
}

func (h *TemplateHandler) CreateTemplate(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}

	var req createTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(c, "name is required")
	}

	template, err := h.service.CreateTemplate(c.Context(), actorID, role, services.CreateTemplateInput{
		FolderID: req.FolderID,
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		return mapTemplateError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"template": template})
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}

	templates, err := h.service.ListTemplates(c.Context(), actorID, role)
	if err != nil {
		return mapTemplateError(c, err)
	}
	if templates == nil {
		templates = []models.PlanTemplate{}
	}
	return c.JSON(fiber.Map{"templates": templates})
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	templateID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return nil
	}

	template, err := h.service.GetTemplate(c.Context(), actorID, role, templateID)
	if err != nil {
		return mapTemplateError(c, err)
	}
	return c.JSON(fiber.Map{"template": template})
}

func (h *TemplateHandler) DeleteTemplate(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	templateID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return nil
	}

	if err := h.service.DeleteTemplate(c.Context(), actorID, role, templateID); err != nil {
		return mapTemplateError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TemplateHandler) AddBlock(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	templateID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return nil
	}

	var req blockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	block, err := h.service.AddTemplateBlock(c.Context(), actorID, role, templateID, req.input())
	if err != nil {
		return mapTemplateError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"block": block})
}

func (h *TemplateHandler) AddExercise(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	templateID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return nil
	}

	var req templateExerciseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	exercise, err := h.service.AddTemplateExercise(c.Context(), actorID, role, templateID, services.TemplateExerciseInput{
		ExerciseInput:         req.input(),
		GroupKey:              req.GroupKey,
		GroupKind:             req.GroupKind,
		InterGroupRestSeconds: req.InterGroupRestSeconds,
	})
	if err != nil {
		return mapTemplateError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"exercise": exercise})
}

// ImportTemplates accepts one or more YAML template documents in the body and
// creates each of them for the calling trainer.
func (h *TemplateHandler) ImportTemplates(c *fiber.Ctx) error {
	actorID, _, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}

	body := c.Body()
	if len(body) == 0 {
		return badRequest(c, "template document is required")
	}
	if len(body) > maxTemplateImportBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "template document exceeds 1MB limit"})
	}

	docs, err := services.DecodeTemplateDocuments(bytes.NewReader(body))
	if err != nil {
		return mapTemplateError(c, err)
	}
	if len(docs) == 0 {
		return badRequest(c, "template document is required")
	}

	imported := make([]*models.TemplateDetail, 0, len(docs))
	for _, doc := range docs {
		detail, err := h.service.ImportTemplate(c.Context(), actorID, doc)
		if err != nil {
			return mapTemplateError(c, err)
		}
		imported = append(imported, detail)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"templates": imported})
}

func mapTemplateError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template or related resource not found"})
	}
	return respondServiceError(c, err, "Failed to process template request")
}
