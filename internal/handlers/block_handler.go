package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

type blockApplicationService interface {
	ListOrganized(ctx context.Context, actorID int64, role string, planID int64) (*models.OrganizedBlocks, error)
	GetBlock(ctx context.Context, actorID int64, role string, blockID int64) (*models.Block, error)
	AddBlock(ctx context.Context, actorID int64, role string, planID int64, input services.TemplateBlockInput) (*models.Block, error)
	InstantiateFromTemplate(
		ctx context.Context,
		actorID int64,
		role string,
		planID int64,
		templateBlockID int64,
		position *models.BlockPosition,
	) (*models.Block, error)
	Reorder(
		ctx context.Context,
		actorID int64,
		role string,
		planID int64,
		position models.BlockPosition,
		orderedIDs []int64,
	) (*models.OrganizedBlocks, error)
	MarkCompleted(ctx context.Context, actorID int64, role string, blockID int64, completed bool) (*models.Block, error)
	SoftDelete(ctx context.Context, actorID int64, role string, blockID int64) (*models.Block, error)
	Restore(ctx context.Context, actorID int64, role string, blockID int64) (*models.Block, error)
}

type BlockHandler struct {
	service blockApplicationService
}

func NewBlockHandler(service blockApplicationService) *BlockHandler {
	return &BlockHandler{service: service}
}

type blockFromTemplateRequest struct {
	TemplateBlockID int64                 `json:"template_block_id"`
	Position        *models.BlockPosition `json:"position"`
}

type reorderBlocksRequest struct {
	Position models.BlockPosition `json:"position"`
	IDs      []int64              `json:"ids"`
}

func (h *BlockHandler) ListBlocks(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	organized, err := h.service.ListOrganized(c.Context(), actorID, role, planID)
	if err != nil {
		return mapBlockError(c, err)
	}
	return c.JSON(fiber.Map{"blocks": organized})
}

func (h *BlockHandler) GetBlock(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	blockID, ok := parseIDParam(c, "id", "block")
	if !ok {
		return nil
	}

	block, err := h.service.GetBlock(c.Context(), actorID, role, blockID)
	if err != nil {
		return mapBlockError(c, err)
	}
	return c.JSON(fiber.Map{"block": block})
}

func (h *BlockHandler) AddBlock(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	var req blockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	block, err := h.service.AddBlock(c.Context(), actorID, role, planID, req.input())
	if err != nil {
		return mapBlockError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"block": block})
}

func (h *BlockHandler) AddFromTemplate(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	var req blockFromTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.TemplateBlockID <= 0 {
		return badRequest(c, "template_block_id must be a positive integer")
	}

	block, err := h.service.InstantiateFromTemplate(c.Context(), actorID, role, planID, req.TemplateBlockID, req.Position)
	if err != nil {
		return mapBlockError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"block": block})
}

func (h *BlockHandler) ReorderBlocks(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	var req reorderBlocksRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	organized, err := h.service.Reorder(c.Context(), actorID, role, planID, req.Position, req.IDs)
	if err != nil {
		return mapBlockError(c, err)
	}
	return c.JSON(fiber.Map{"blocks": organized})
}

func (h *BlockHandler) SetCompleted(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	blockID, ok := parseIDParam(c, "id", "block")
	if !ok {
		return nil
	}
	completed, ok := parseCompletion(c)
	if !ok {
		return nil
	}

	block, err := h.service.MarkCompleted(c.Context(), actorID, role, blockID, completed)
	if err != nil {
		return mapBlockError(c, err)
	}
	return c.JSON(fiber.Map{"block": block})
}

func (h *BlockHandler) DeleteBlock(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	blockID, ok := parseIDParam(c, "id", "block")
	if !ok {
		return nil
	}

	block, err := h.service.SoftDelete(c.Context(), actorID, role, blockID)
	if err != nil {
		return mapBlockError(c, err)
	}
	return c.JSON(fiber.Map{"block": block})
}

func (h *BlockHandler) RestoreBlock(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	blockID, ok := parseIDParam(c, "id", "block")
	if !ok {
		return nil
	}

	block, err := h.service.Restore(c.Context(), actorID, role, blockID)
	if err != nil {
		return mapBlockError(c, err)
	}
	return c.JSON(fiber.Map{"block": block})
}

func mapBlockError(c *fiber.Ctx, err error) error {
	return respondServiceError(c, err, "Failed to process block request")
}
