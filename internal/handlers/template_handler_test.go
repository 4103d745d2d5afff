package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

type stubTemplateService struct {
	deleteErr      error
	lastActorID    int64
	lastTemplateID int64
	lastCreate     services.CreateTemplateInput
	lastExercise   services.TemplateExerciseInput
	imported       []services.TemplateDocument
	nextID         int64
}

func (s *stubTemplateService) CreateFolder(_ context.Context, actorID int64, _ string, name string) (*models.TemplateFolder, error) {
	s.lastActorID = actorID
	return &models.TemplateFolder{ID: 1, OwnerID: actorID, Name: name}, nil
}

func (s *stubTemplateService) ListFolders(_ context.Context, actorID int64, _ string) ([]models.TemplateFolder, error) {
	s.lastActorID = actorID
	return nil, nil
}

func (s *stubTemplateService) CreateTemplate(
	_ context.Context,
	actorID int64,
	_ string,
	input services.CreateTemplateInput,
) (*models.PlanTemplate, error) {
	s.lastActorID = actorID
	s.lastCreate = input
	return &models.PlanTemplate{ID: 10, OwnerID: actorID, Name: input.Name}, nil
}

func (s *stubTemplateService) ListTemplates(_ context.Context, actorID int64, _ string) ([]models.PlanTemplate, error) {
	s.lastActorID = actorID
	return []models.PlanTemplate{{ID: 10}}, nil
}

func (s *stubTemplateService) GetTemplate(_ context.Context, _ int64, _ string, templateID int64) (*models.TemplateDetail, error) {
	s.lastTemplateID = templateID
	return &models.TemplateDetail{PlanTemplate: models.PlanTemplate{ID: templateID}}, nil
}

func (s *stubTemplateService) DeleteTemplate(_ context.Context, _ int64, _ string, templateID int64) error {
	s.lastTemplateID = templateID
	return s.deleteErr
}

func (s *stubTemplateService) AddTemplateBlock(
	_ context.Context,
	_ int64,
	_ string,
	templateID int64,
	input services.TemplateBlockInput,
) (*models.TemplateBlock, error) {
	s.lastTemplateID = templateID
	return &models.TemplateBlock{ID: 4, TemplateID: templateID, Type: input.Type}, nil
}

func (s *stubTemplateService) AddTemplateExercise(
	_ context.Context,
	_ int64,
	_ string,
	templateID int64,
	input services.TemplateExerciseInput,
) (*models.TemplateExercise, error) {
	s.lastTemplateID = templateID
	s.lastExercise = input
	return &models.TemplateExercise{ID: 5, TemplateID: templateID, Name: input.Name}, nil
}

func (s *stubTemplateService) ImportTemplate(
	_ context.Context,
	ownerID int64,
	doc services.TemplateDocument,
) (*models.TemplateDetail, error) {
	s.lastActorID = ownerID
	s.imported = append(s.imported, doc)
	s.nextID++
	return &models.TemplateDetail{PlanTemplate: models.PlanTemplate{ID: s.nextID, OwnerID: ownerID, Name: doc.Name}}, nil
}

func TestAddTemplateExerciseFlattensPrescription(t *testing.T) {
	service := &stubTemplateService{}
	handler := NewTemplateHandler(service)

	app := newActorApp("coach", "7")
	app.Post("/api/v1/templates/:id/exercises", handler.AddExercise)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/10/exercises", strings.NewReader(`{
		"name": "Bench press",
		"sets": 3,
		"reps": "10",
		"group_key": "a",
		"group_kind": "superset",
		"inter_group_rest_seconds": 120
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	got := service.lastExercise
	if got.Name != "Bench press" || got.Sets != 3 || got.GroupKey == nil || *got.GroupKey != "a" {
		t.Fatalf("unexpected exercise input %+v", got)
	}
	if got.GroupKind != models.GroupKindSuperset || got.InterGroupRestSeconds == nil || *got.InterGroupRestSeconds != 120 {
		t.Fatalf("unexpected group fields %+v", got)
	}
}

func TestDeleteTemplateInUseReturnsConflict(t *testing.T) {
	service := &stubTemplateService{deleteErr: fmt.Errorf("%w: template is used by weekly plans", services.ErrConflict)}
	handler := NewTemplateHandler(service)

	app := newActorApp("coach", "7")
	app.Delete("/api/v1/templates/:id", handler.DeleteTemplate)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/templates/10", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if service.lastTemplateID != 10 {
		t.Fatalf("expected template 10, got %d", service.lastTemplateID)
	}
}

func TestListFoldersReturnsEmptyArray(t *testing.T) {
	handler := NewTemplateHandler(&stubTemplateService{})

	app := newActorApp("coach", "7")
	app.Get("/api/v1/templates/folders", handler.ListFolders)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/templates/folders", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(body["folders"]) != "[]" {
		t.Fatalf("expected empty folders array, got %s", body["folders"])
	}
}

func TestImportTemplatesReadsEveryDocument(t *testing.T) {
	service := &stubTemplateService{}
	handler := NewTemplateHandler(service)

	app := newActorApp("coach", "7")
	app.Post("/api/v1/templates/import", handler.ImportTemplates)

	body := `name: Upper A
category: strength
exercises:
  - name: Bench press
    sets: 4
    reps: "8"
---
name: Lower A
category: strength
exercises:
  - name: Squat
    sets: 5
    reps: "5"
`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/yaml")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(service.imported) != 2 || service.imported[1].Name != "Lower A" {
		t.Fatalf("unexpected imported documents %+v", service.imported)
	}
	if service.lastActorID != 7 {
		t.Fatalf("expected owner 7, got %d", service.lastActorID)
	}
}

func TestImportTemplatesRejectsUnknownFields(t *testing.T) {
	service := &stubTemplateService{}
	handler := NewTemplateHandler(service)

	app := newActorApp("coach", "7")
	app.Post("/api/v1/templates/import", handler.ImportTemplates)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/import", strings.NewReader("name: Upper A\ncolour: red\n"))
	req.Header.Set("Content-Type", "application/yaml")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(service.imported) != 0 {
		t.Fatal("nothing should be imported")
	}
}
