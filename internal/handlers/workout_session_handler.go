package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

type workoutSessionApplicationService interface {
	Start(ctx context.Context, actorID int64, role string, planID int64) (*models.SessionSummary, error)
	Pause(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error)
	Resume(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error)
	Finish(ctx context.Context, actorID int64, role string, sessionID int64, notes *string) (*models.SessionSummary, error)
	Abandon(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error)
	LogRestStart(ctx context.Context, actorID int64, role string, sessionID int64, kind models.RestKind) (*models.RestInterval, error)
	LogRestEnd(ctx context.Context, actorID int64, role string, sessionID int64) (*models.RestInterval, error)
	MarkExerciseCompleted(ctx context.Context, actorID int64, role string, exerciseID int64, completed bool) (*models.Exercise, error)
	GetSession(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error)
	GetPlanSessionStatus(ctx context.Context, actorID int64, role string, planID int64) (*models.PlanSessionStatus, error)
	ListPlanSessions(ctx context.Context, actorID int64, role string, planID int64, page int, limit int) ([]models.SessionSummary, int, error)
}

type WorkoutSessionHandler struct {
	service workoutSessionApplicationService
}

func NewWorkoutSessionHandler(service workoutSessionApplicationService) *WorkoutSessionHandler {
	return &WorkoutSessionHandler{service: service}
}

type finishSessionRequest struct {
	Notes *string `json:"notes"`
}

type restStartRequest struct {
	Kind models.RestKind `json:"kind"`
}

type sessionTransition func(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error)

func (h *WorkoutSessionHandler) StartSession(c *fiber.Ctx) error {
	actorID, role, ok := authorizedActor(c, services.RoleUser)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	summary, err := h.service.Start(c.Context(), actorID, role, planID)
	if err != nil {
		return mapWorkoutSessionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": summary})
}

func (h *WorkoutSessionHandler) PlanStatus(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}

	status, err := h.service.GetPlanSessionStatus(c.Context(), actorID, role, planID)
	if err != nil {
		return mapWorkoutSessionError(c, err)
	}
	return c.JSON(status)
}

// ListPlanSessions pages through a plan's session history, newest first.
func (h *WorkoutSessionHandler) ListPlanSessions(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	planID, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return nil
	}
	page, limit, ok := parsePagination(c)
	if !ok {
		return nil
	}

	sessions, total, err := h.service.ListPlanSessions(c.Context(), actorID, role, planID, page, limit)
	if err != nil {
		return mapWorkoutSessionError(c, err)
	}
	if sessions == nil {
		sessions = []models.SessionSummary{}
	}
	return c.JSON(fiber.Map{
		"sessions":   sessions,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *WorkoutSessionHandler) GetSession(c *fiber.Ctx) error {
	return h.respondTransition(c, h.service.GetSession)
}

func (h *WorkoutSessionHandler) PauseSession(c *fiber.Ctx) error {
	return h.respondTransition(c, h.service.Pause)
}

func (h *WorkoutSessionHandler) ResumeSession(c *fiber.Ctx) error {
	return h.respondTransition(c, h.service.Resume)
}

func (h *WorkoutSessionHandler) AbandonSession(c *fiber.Ctx) error {
	return h.respondTransition(c, h.service.Abandon)
}

func (h *WorkoutSessionHandler) FinishSession(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	sessionID, ok := parseIDParam(c, "id", "session")
	if !ok {
		return nil
	}

	var req finishSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	if req.Notes != nil && strings.TrimSpace(*req.Notes) == "" {
		req.Notes = nil
	}

	summary, err := h.service.Finish(c.Context(), actorID, role, sessionID, req.Notes)
	if err != nil {
		return mapWorkoutSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": summary})
}

func (h *WorkoutSessionHandler) StartRest(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	sessionID, ok := parseIDParam(c, "id", "session")
	if !ok {
		return nil
	}

	var req restStartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	rest, err := h.service.LogRestStart(c.Context(), actorID, role, sessionID, req.Kind)
	if err != nil {
		return mapWorkoutSessionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"rest": rest})
}

// EndRest answers with a null rest when nothing was open.
func (h *WorkoutSessionHandler) EndRest(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	sessionID, ok := parseIDParam(c, "id", "session")
	if !ok {
		return nil
	}

	rest, err := h.service.LogRestEnd(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapWorkoutSessionError(c, err)
	}
	return c.JSON(fiber.Map{"rest": rest})
}

func (h *WorkoutSessionHandler) SetExerciseCompleted(c *fiber.Ctx) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	exerciseID, ok := parseIDParam(c, "id", "exercise")
	if !ok {
		return nil
	}
	completed, ok := parseCompletion(c)
	if !ok {
		return nil
	}

	exercise, err := h.service.MarkExerciseCompleted(c.Context(), actorID, role, exerciseID, completed)
	if err != nil {
		return mapWorkoutSessionError(c, err)
	}
	return c.JSON(fiber.Map{"exercise": exercise})
}

func (h *WorkoutSessionHandler) respondTransition(c *fiber.Ctx, apply sessionTransition) error {
	actorID, role, ok := anyActor(c)
	if !ok {
		return nil
	}
	sessionID, ok := parseIDParam(c, "id", "session")
	if !ok {
		return nil
	}

	summary, err := apply(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapWorkoutSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": summary})
}

func mapWorkoutSessionError(c *fiber.Ctx, err error) error {
	return respondServiceError(c, err, "Failed to process workout session request")
}
