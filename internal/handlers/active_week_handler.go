package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

type activeWeekApplicationService interface {
	GetActiveWeek(ctx context.Context, actorID int64, role string, clientID int64) (*models.ActiveWeek, error)
	SetActiveWeek(ctx context.Context, actorID int64, role string, clientID int64, weekStart time.Time) (*models.ActiveWeek, error)
	AdvanceWeek(ctx context.Context, actorID int64, role string, clientID int64) (*models.ActiveWeek, error)
}

type ActiveWeekHandler struct {
	service activeWeekApplicationService
}

func NewActiveWeekHandler(service activeWeekApplicationService) *ActiveWeekHandler {
	return &ActiveWeekHandler{service: service}
}

type setActiveWeekRequest struct {
	WeekStart string `json:"week_start"`
}

func (h *ActiveWeekHandler) GetActiveWeek(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	clientID, ok := parseIDParam(c, "clientId", "client")
	if !ok {
		return nil
	}

	week, err := h.service.GetActiveWeek(c.Context(), actorID, role, clientID)
	if err != nil {
		return mapActiveWeekError(c, err)
	}
	return c.JSON(fiber.Map{"active_week": week})
}

func (h *ActiveWeekHandler) SetActiveWeek(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	clientID, ok := parseIDParam(c, "clientId", "client")
	if !ok {
		return nil
	}

	var req setActiveWeekRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	weekStart, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return badRequest(c, "week_start must be a YYYY-MM-DD date")
	}

	week, err := h.service.SetActiveWeek(c.Context(), actorID, role, clientID, weekStart)
	if err != nil {
		return mapActiveWeekError(c, err)
	}
	return c.JSON(fiber.Map{"active_week": week})
}

func (h *ActiveWeekHandler) AdvanceWeek(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	clientID, ok := parseIDParam(c, "clientId", "client")
	if !ok {
		return nil
	}

	week, err := h.service.AdvanceWeek(c.Context(), actorID, role, clientID)
	if err != nil {
		return mapActiveWeekError(c, err)
	}
	return c.JSON(fiber.Map{"active_week": week})
}

func mapActiveWeekError(c *fiber.Ctx, err error) error {
	return respondServiceError(c, err, "Failed to process active week request")
}
