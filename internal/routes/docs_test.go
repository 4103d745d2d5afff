package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/config"
)

func TestRegisterDocsRoutesServesRouteIndex(t *testing.T) {
	app := fiber.New()
	cfg := &config.Config{AppEnv: "development", EnableDocs: true}

	if err := registerDocsRoutes(app, cfg); err != nil {
		t.Fatalf("registerDocsRoutes: %v", err)
	}
	app.Get("/api/v1/plans/:id", func(c *fiber.Ctx) error { return nil })
	app.Post("/api/v1/sessions/:id/pause", func(c *fiber.Ctx) error { return nil })

	pageReq := httptest.NewRequest(http.MethodGet, "/docs", nil)
	pageResp, err := app.Test(pageReq)
	if err != nil {
		t.Fatalf("app.Test docs page: %v", err)
	}
	defer pageResp.Body.Close()

	if pageResp.StatusCode != http.StatusOK {
		t.Fatalf("expected docs page status 200, got %d", pageResp.StatusCode)
	}
	if got := pageResp.Header.Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'none'") {
		t.Fatalf("expected restrictive CSP, got %q", got)
	}

	jsonReq := httptest.NewRequest(http.MethodGet, "/docs/routes.json", nil)
	jsonResp, err := app.Test(jsonReq)
	if err != nil {
		t.Fatalf("app.Test routes json: %v", err)
	}
	defer jsonResp.Body.Close()

	if jsonResp.StatusCode != http.StatusOK {
		t.Fatalf("expected routes status 200, got %d", jsonResp.StatusCode)
	}

	var body struct {
		Routes []docsRoute `json:"routes"`
	}
	if err := json.NewDecoder(jsonResp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Routes) != 2 {
		t.Fatalf("expected the two api routes, got %+v", body.Routes)
	}
	if body.Routes[0].Path != "/api/v1/plans/:id" || body.Routes[1].Method != http.MethodPost {
		t.Fatalf("unexpected route order %+v", body.Routes)
	}
}

func TestRegisterDocsRoutesSkipsWhenDisabled(t *testing.T) {
	app := fiber.New()
	cfg := &config.Config{AppEnv: "production", EnableDocs: true}

	if err := registerDocsRoutes(app, cfg); err != nil {
		t.Fatalf("registerDocsRoutes: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 when docs are not in development, got %d", resp.StatusCode)
	}
}
