package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

const weekStartLayout = "2006-01-02"

func parseActorID(c *fiber.Ctx) (int64, error) {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userID, 10, 64)
}

// authorizedActor writes the rejection itself; callers return nil when ok is
// false.
func authorizedActor(c *fiber.Ctx, roles ...string) (int64, string, bool) {
	role, _ := c.Locals("role").(string)
	allowed := false
	for _, candidate := range roles {
		if role == candidate {
			allowed = true
			break
		}
	}
	if !allowed {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, "", false
	}

	actorID, err := parseActorID(c)
	if err != nil || actorID <= 0 {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return 0, "", false
	}
	return actorID, role, true
}

func anyActor(c *fiber.Ctx) (int64, string, bool) {
	return authorizedActor(c, services.RoleCoach, services.RoleUser)
}

func parseIDParam(c *fiber.Ctx, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + label + " id"})
		return 0, false
	}
	return id, true
}

func parseWeekStart(raw string) (time.Time, error) {
	return time.Parse(weekStartLayout, strings.TrimSpace(raw))
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// respondServiceError maps service sentinels to statuses. Validation and
// conflict messages are safe to show; anything unknown gets fallback.
func respondServiceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
