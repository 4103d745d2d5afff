package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

type planApplicationService interface {
	CreatePlan(ctx context.Context, actorID int64, role string, input services.CreatePlanInput) (*models.WeeklyPlan, error)
	InstantiatePlan(ctx context.Context, actorID int64, role string, input services.InstantiatePlanInput) (*models.PlanDetail, error)
	GetPlan(ctx context.Context, actorID int64, role string, planID int64) (*models.PlanDetail, error)
	ListWeek(ctx context.Context, actorID int64, role string, clientID int64, weekStart time.Time) ([]models.WeeklyPlan, error)
	SetPlanCompleted(ctx context.Context, actorID int64, role string, planID int64, completed bool) (*models.WeeklyPlan, error)
	DeletePlan(ctx context.Context, actorID int64, role string, planID int64) error
	AddExercise(ctx context.Context, actorID int64, role string, planID int64, input services.ExerciseInput) (*models.Exercise, error)
	SoftDeleteExercise(ctx context.Context, actorID int64, role string, exerciseID int64) (*models.Exercise, error)
	RestoreExercise(ctx context.Context, actorID int64, role string, exerciseID int64) (*models.Exercise, error)
}

type PlanHandler struct {
	service planApplicationService
	now     func() time.Time
}

func NewPlanHandler(service planApplicationService) *PlanHandler {
	return &PlanHandler{service: service, now: time.Now}
}

type createPlanRequest struct {
	ClientID   int64   `json:"client_id"`
	TemplateID int64   `json:"template_id"`
	WeekStart  string  `json:"week_start"`
	DayOfWeek  int     `json:"day_of_week"`
	Name       string  `json:"name"`
	Notes      *string `json:"notes"`
}

type completionRequest struct {
	Completed *bool `json:"completed"`
}

func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}

	req, weekStart, ok := parseCreatePlanRequest(c)
	if !ok {
		return nil
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(c, "name is required")
	}

	plan, err := h.service.CreatePlan(c.Context(), actorID, role, services.CreatePlanInput{
		ClientID:  req.ClientID,
		WeekStart: weekStart,
		DayOfWeek: req.DayOfWeek,
		Name:      req.Name,
		Notes:     req.Notes,
	})
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) CreateFromTemplate(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}

	req, weekStart, ok := parseCreatePlanRequest(c)
	if !ok {
		return nil
	}
	if req.TemplateID <= 0 {
		return badRequest(c, "template_id must be a positive integer")
	}

	detail, err := h.service.InstantiatePlan(c.Context(), actorID, role, services.InstantiatePlanInput{
		TemplateID: req.TemplateID,
		ClientID:   req.ClientID,
		WeekStart:  weekStart,
		DayOfWeek:  req.DayOfWeek,
		Name:       req.Name,
		Notes:      req.Notes,
	})
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": detail})
}

// ListWeek serves a client's plans for one week. week_start defaults to the
// current week and may be any day inside the wanted week.
func (h *PlanHandler) ListWeek(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	clientID, ok := parseIDParam(c, "clientId", "client")
	if !ok {
		return nil
	}

	weekStart := services.WeekStart(h.now())
	if raw := strings.TrimSpace(c.Query("week_start")); raw != "" {
		parsed, err := parseWeekStart(raw)
		if err != nil {
			return badRequest(c, "week_start must be a YYYY-MM-DD date")
		}
		weekStart = services.WeekStart(parsed)
	}

	plans, err := h.service.ListWeek(c.Context(), actorID, role, clientID, weekStart)
	if err != nil {
		return mapPlanError(c, err)
	}
	if plans == nil {
		plans = []models.WeeklyPlan{}
	}
	return c.JSON(fiber.Map{
		"client_id":  clientID,
		"week_start": weekStart.Format(weekStartLayout),
		"plans":      plans,
	})
}

func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	detail, err := h.service.GetPlan(c.Context(), actorID, role, planID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": detail})
}

func (h *PlanHandler) SetCompleted(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}
	completed, ok := parseCompletion(c)
	if !ok {
		return nil
	}

	plan, err := h.service.SetPlanCompleted(c.Context(), actorID, role, planID, completed)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	if err := h.service.DeletePlan(c.Context(), actorID, role, planID); err != nil {
		return mapPlanError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PlanHandler) AddExercise(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	var req exerciseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	exercise, err := h.service.AddExercise(c.Context(), actorID, role, planID, req.input())
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"exercise": exercise})
}

func (h *PlanHandler) DeleteExercise(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	exerciseID, ok := parseIDParam(c, "id", "exercise")
	if !ok {
		return nil
	}

	exercise, err := h.service.SoftDeleteExercise(c.Context(), actorID, role, exerciseID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"exercise": exercise})
}

func (h *PlanHandler) RestoreExercise(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleCoach)
	if !ok {
		return nil
	}
	exerciseID, ok := parseIDParam(c, "id", "exercise")
	if !ok {
		return nil
	}

	exercise, err := h.service.RestoreExercise(c.Context(), actorID, role, exerciseID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"exercise": exercise})
}

func parseCreatePlanRequest(c *fiber.Ctx) (createPlanRequest, time.Time, bool) {
	var req createPlanRequest
	if err := c.BodyParser(&req); err != nil {
		_ = badRequest(c, "Invalid request body")
		return req, time.Time{}, false
	}
	if req.ClientID <= 0 {
		_ = badRequest(c, "client_id must be a positive integer")
		return req, time.Time{}, false
	}
	weekStart, err := parseWeekStart(req.WeekStart)
	if err != nil {
		_ = badRequest(c, "week_start must be a YYYY-MM-DD date")
		return req, time.Time{}, false
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		_ = badRequest(c, "day_of_week must be between 0 and 6")
		return req, time.Time{}, false
	}
	return req, weekStart, true
}

func parseCompletion(c *fiber.Ctx) (bool, bool) {
	var req completionRequest
	if err := c.BodyParser(&req); err != nil || req.Completed == nil {
		_ = badRequest(c, "completed must be true or false")
		return false, false
	}
	return *req.Completed, true
}

func mapPlanError(c *fiber.Ctx, err error) error {
	return respondServiceError(c, err, "Failed to process plan request")
}
