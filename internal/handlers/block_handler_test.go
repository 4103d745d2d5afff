package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

type stubBlockService struct {
	organized     *models.OrganizedBlocks
	block         *models.Block
	err           error
	lastPlanID    int64
	lastBlockID   int64
	lastInput     services.TemplateBlockInput
	lastTemplate  int64
	lastPosition  *models.BlockPosition
	lastPartition models.BlockPosition
	lastOrder     []int64
	lastCompleted bool
}

func (s *stubBlockService) ListOrganized(_ context.Context, _ int64, _ string, planID int64) (*models.OrganizedBlocks, error) {
	s.lastPlanID = planID
	return s.organized, s.err
}

func (s *stubBlockService) GetBlock(_ context.Context, _ int64, _ string, blockID int64) (*models.Block, error) {
	s.lastBlockID = blockID
	return s.block, s.err
}

func (s *stubBlockService) AddBlock(
	_ context.Context,
	_ int64,
	_ string,
	planID int64,
	input services.TemplateBlockInput,
) (*models.Block, error) {
	s.lastPlanID = planID
	s.lastInput = input
	return s.block, s.err
}

func (s *stubBlockService) InstantiateFromTemplate(
	_ context.Context,
	_ int64,
	_ string,
	planID int64,
	templateBlockID int64,
	position *models.BlockPosition,
) (*models.Block, error) {
	s.lastPlanID = planID
	s.lastTemplate = templateBlockID
	s.lastPosition = position
	return s.block, s.err
}

func (s *stubBlockService) Reorder(
	_ context.Context,
	_ int64,
	_ string,
	planID int64,
	position models.BlockPosition,
	orderedIDs []int64,
) (*models.OrganizedBlocks, error) {
	s.lastPlanID = planID
	s.lastPartition = position
	s.lastOrder = orderedIDs
	return s.organized, s.err
}

func (s *stubBlockService) MarkCompleted(_ context.Context, _ int64, _ string, blockID int64, completed bool) (*models.Block, error) {
	s.lastBlockID = blockID
	s.lastCompleted = completed
	return s.block, s.err
}

func (s *stubBlockService) SoftDelete(_ context.Context, _ int64, _ string, blockID int64) (*models.Block, error) {
	s.lastBlockID = blockID
	return s.block, s.err
}

func (s *stubBlockService) Restore(_ context.Context, _ int64, _ string, blockID int64) (*models.Block, error) {
	s.lastBlockID = blockID
	return s.block, s.err
}

func TestAddBlockDecodesTypedConfig(t *testing.T) {
	service := &stubBlockService{block: &models.Block{ID: 2, Type: models.BlockTypeCardio}}
	handler := NewBlockHandler(service)

	app := newActorApp("coach", "7")
	app.Post("/api/v1/plans/:id/blocks", handler.AddBlock)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/5/blocks", strings.NewReader(`{
		"type": "cardio",
		"position": "end",
		"config": {"cardio": {"modality": "bike", "intervals": {"work_seconds": 30, "rest_seconds": 30, "rounds": 10}}}
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
	cardio := service.lastInput.Config.Cardio
	if cardio == nil || cardio.Modality != "bike" || cardio.Intervals == nil || cardio.Intervals.Rounds != 10 {
		t.Fatalf("unexpected config %+v", service.lastInput.Config)
	}
	if service.lastInput.Position != models.BlockPositionEnd {
		t.Fatalf("expected end position, got %q", service.lastInput.Position)
	}
}

func TestAddFromTemplateKeepsOptionalPosition(t *testing.T) {
	service := &stubBlockService{block: &models.Block{ID: 9}}
	handler := NewBlockHandler(service)

	app := newActorApp("coach", "7")
	app.Post("/api/v1/plans/:id/blocks/from-template", handler.AddFromTemplate)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/5/blocks/from-template", strings.NewReader(`{"template_block_id": 21}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastTemplate != 21 || service.lastPosition != nil {
		t.Fatalf("unexpected template %d position %v", service.lastTemplate, service.lastPosition)
	}
}

func TestReorderBlocksForwardsPartition(t *testing.T) {
	service := &stubBlockService{organized: &models.OrganizedBlocks{}}
	handler := NewBlockHandler(service)

	app := newActorApp("coach", "7")
	app.Put("/api/v1/plans/:id/blocks/order", handler.ReorderBlocks)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/plans/5/blocks/order", strings.NewReader(`{"position":"start","ids":[4,2]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastPartition != models.BlockPositionStart || len(service.lastOrder) != 2 || service.lastOrder[0] != 4 {
		t.Fatalf("unexpected partition %q order %v", service.lastPartition, service.lastOrder)
	}
}

func TestCompleteDeletedBlockReturnsConflict(t *testing.T) {
	service := &stubBlockService{err: fmt.Errorf("%w: block 3 is deleted", services.ErrConflict)}
	handler := NewBlockHandler(service)

	app := newActorApp("user", "42")
	app.Patch("/api/v1/blocks/:id/completion", handler.SetCompleted)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/blocks/3/completion", strings.NewReader(`{"completed":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if service.lastBlockID != 3 || !service.lastCompleted {
		t.Fatalf("unexpected call on %d completed=%v", service.lastBlockID, service.lastCompleted)
	}
}

func TestDeleteBlockRequiresTrainer(t *testing.T) {
	service := &stubBlockService{}
	handler := NewBlockHandler(service)

	app := newActorApp("user", "42")
	app.Delete("/api/v1/blocks/:id", handler.DeleteBlock)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/blocks/3", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastBlockID != 0 {
		t.Fatal("service should not be called")
	}
}
