package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

func newActorApp(role, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	return app
}

func TestRespondServiceErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: fmt.Errorf("%w: bad kind", services.ErrValidation), want: http.StatusBadRequest},
		{name: "forbidden", err: services.ErrForbidden, want: http.StatusForbidden},
		{name: "conflict", err: fmt.Errorf("%w: already running", services.ErrConflict), want: http.StatusConflict},
		{name: "not found", err: fmt.Errorf("%w: plan", services.ErrNotFound), want: http.StatusNotFound},
		{name: "no rows", err: pgx.ErrNoRows, want: http.StatusNotFound},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondServiceError(c, tt.err, "failed")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestAuthorizedActorRejectsWrongRoleAndBadToken(t *testing.T) {
	handler := func(c *fiber.Ctx) error {
		if _, _, ok := authorizedActor(c, services.RoleCoach); !ok {
			return nil
		}
		return c.SendStatus(fiber.StatusNoContent)
	}

	userApp := newActorApp("user", "42")
	userApp.Get("/", handler)
	resp, err := userApp.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", resp.StatusCode)
	}

	badTokenApp := newActorApp("coach", "not-a-number")
	badTokenApp.Get("/", handler)
	resp, err = badTokenApp.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unparsable user id, got %d", resp.StatusCode)
	}
}

func TestBuildPaginationMeta(t *testing.T) {
	tests := []struct {
		page, limit, total int
		totalPages         int
	}{
		{page: 2, limit: 2, total: 5, totalPages: 3},
		{page: 1, limit: 10, total: 0, totalPages: 0},
		{page: 1, limit: 10, total: 10, totalPages: 1},
	}

	for _, tt := range tests {
		meta := buildPaginationMeta(tt.page, tt.limit, tt.total)
		if meta.TotalPages != tt.totalPages || meta.Page != tt.page || meta.Total != tt.total {
			t.Fatalf("buildPaginationMeta(%d, %d, %d) = %+v; want %d pages",
				tt.page, tt.limit, tt.total, meta, tt.totalPages)
		}
	}
}
