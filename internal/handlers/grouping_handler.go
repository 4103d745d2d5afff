package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

type groupingApplicationService interface {
	Materialize(ctx context.Context, actorID int64, role string, planID int64) ([]models.ExecutionUnit, error)
	CreateGroup(ctx context.Context, actorID int64, role string, planID int64, input services.CreateGroupInput) ([]models.ExecutionUnit, error)
	DissolveGroup(ctx context.Context, actorID int64, role string, planID int64, groupID uuid.UUID) ([]models.ExecutionUnit, error)
	ReorderExercises(ctx context.Context, actorID int64, role string, planID int64, orderedIDs []int64) ([]models.ExecutionUnit, error)
}

type GroupingHandler struct {
	service groupingApplicationService
}

func NewGroupingHandler(service groupingApplicationService) *GroupingHandler {
	return &GroupingHandler{service: service}
}

type createGroupRequest struct {
	ExerciseIDs           []int64          `json:"exercise_ids"`
	Kind                  models.GroupKind `json:"kind"`
	InterGroupRestSeconds int              `json:"inter_group_rest_seconds"`
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *GroupingHandler) ListUnits(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	units, err := h.service.Materialize(c.Context(), actorID, role, planID)
	if err != nil {
		return mapGroupingError(c, err)
	}
	return c.JSON(fiber.Map{"units": nonNilUnits(units)})
}

func (h *GroupingHandler) CreateGroup(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(req.ExerciseIDs) < 2 {
		return badRequest(c, "a group needs at least two exercises")
	}

	units, err := h.service.CreateGroup(c.Context(), actorID, role, planID, services.CreateGroupInput{
		ExerciseIDs:           req.ExerciseIDs,
		Kind:                  req.Kind,
		InterGroupRestSeconds: req.InterGroupRestSeconds,
	})
	if err != nil {
		return mapGroupingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"units": nonNilUnits(units)})
}

func (h *GroupingHandler) DissolveGroup(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}
	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return badRequest(c, "Invalid group id")
	}

	units, err := h.service.DissolveGroup(c.Context(), actorID, role, planID, groupID)
	if err != nil {
		return mapGroupingError(c, err)
	}
	return c.JSON(fiber.Map{"units": nonNilUnits(units)})
}

func (h *GroupingHandler) ReorderExercises(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	units, err := h.service.ReorderExercises(c.Context(), actorID, role, planID, req.IDs)
	if err != nil {
		return mapGroupingError(c, err)
	}
	return c.JSON(fiber.Map{"units": nonNilUnits(units)})
}

func nonNilUnits(units []models.ExecutionUnit) []models.ExecutionUnit {
	if units == nil {
		return []models.ExecutionUnit{}
	}
	return units
}

func mapGroupingError(c *fiber.Ctx, err error) error {
	return respondServiceError(c, err, "Failed to process exercise grouping request")
}
