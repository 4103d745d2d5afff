package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
)

type stubWorkoutSessionService struct {
	summary       *models.SessionSummary
	transitionErr error
	rest          *models.RestInterval
	restErr       error
	status        *models.PlanSessionStatus
	history       []models.SessionSummary
	historyTotal  int
	lastPage      int
	lastLimit     int
	exercise      *models.Exercise
	lastActorID   int64
	lastRole      string
	lastID        int64
	lastAction    string
	lastNotes     *string
	lastKind      models.RestKind
	lastCompleted bool
}

func (s *stubWorkoutSessionService) record(action string, actorID int64, role string, id int64) {
	s.lastAction = action
	s.lastActorID = actorID
	s.lastRole = role
	s.lastID = id
}

func (s *stubWorkoutSessionService) Start(_ context.Context, actorID int64, role string, planID int64) (*models.SessionSummary, error) {
	s.record("start", actorID, role, planID)
	return s.summary, s.transitionErr
}

func (s *stubWorkoutSessionService) Pause(_ context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error) {
	s.record("pause", actorID, role, sessionID)
	return s.summary, s.transitionErr
}

func (s *stubWorkoutSessionService) Resume(_ context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error) {
	s.record("resume", actorID, role, sessionID)
	return s.summary, s.transitionErr
}

func (s *stubWorkoutSessionService) Finish(
	_ context.Context,
	actorID int64,
	role string,
	sessionID int64,
	notes *string,
) (*models.SessionSummary, error) {
	s.record("finish", actorID, role, sessionID)
	s.lastNotes = notes
	return s.summary, s.transitionErr
}

func (s *stubWorkoutSessionService) Abandon(_ context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error) {
	s.record("abandon", actorID, role, sessionID)
	return s.summary, s.transitionErr
}

func (s *stubWorkoutSessionService) LogRestStart(
	_ context.Context,
	actorID int64,
	role string,
	sessionID int64,
	kind models.RestKind,
) (*models.RestInterval, error) {
	s.record("rest_start", actorID, role, sessionID)
	s.lastKind = kind
	return s.rest, s.restErr
}

func (s *stubWorkoutSessionService) LogRestEnd(_ context.Context, actorID int64, role string, sessionID int64) (*models.RestInterval, error) {
	s.record("rest_end", actorID, role, sessionID)
	return s.rest, s.restErr
}

func (s *stubWorkoutSessionService) MarkExerciseCompleted(
	_ context.Context,
	actorID int64,
	role string,
	exerciseID int64,
	completed bool,
) (*models.Exercise, error) {
	s.record("exercise_completed", actorID, role, exerciseID)
	s.lastCompleted = completed
	return s.exercise, nil
}

func (s *stubWorkoutSessionService) GetSession(_ context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error) {
	s.record("get", actorID, role, sessionID)
	return s.summary, s.transitionErr
}

func (s *stubWorkoutSessionService) GetPlanSessionStatus(
	_ context.Context,
	actorID int64,
	role string,
	planID int64,
) (*models.PlanSessionStatus, error) {
	s.record("status", actorID, role, planID)
	return s.status, nil
}

func (s *stubWorkoutSessionService) ListPlanSessions(
	_ context.Context,
	actorID int64,
	role string,
	planID int64,
	page int,
	limit int,
) ([]models.SessionSummary, int, error) {
	s.record("list", actorID, role, planID)
	s.lastPage = page
	s.lastLimit = limit
	return s.history, s.historyTotal, nil
}

func TestStartSessionOnlyForClients(t *testing.T) {
	service := &stubWorkoutSessionService{}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("coach", "7")
	app.Post("/api/v1/plans/:id/sessions", handler.StartSession)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/plans/3/sessions", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastAction != "" {
		t.Fatalf("service should not be called, got %q", service.lastAction)
	}
}

func TestStartSessionReturnsConflictWhenAlreadyRunning(t *testing.T) {
	service := &stubWorkoutSessionService{
		transitionErr: fmt.Errorf("%w: a session is already in progress for this plan", services.ErrConflict),
	}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("user", "42")
	app.Post("/api/v1/plans/:id/sessions", handler.StartSession)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/plans/3/sessions", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !strings.Contains(body["error"], "already in progress") {
		t.Fatalf("expected conflict message, got %q", body["error"])
	}
}

func TestSessionTransitionsRouteToService(t *testing.T) {
	service := &stubWorkoutSessionService{
		summary: &models.SessionSummary{
			WorkoutSession: models.WorkoutSession{ID: 8, Status: models.SessionPaused},
			ElapsedSeconds: 540,
		},
	}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("user", "42")
	app.Post("/api/v1/sessions/:id/pause", handler.PauseSession)
	app.Post("/api/v1/sessions/:id/resume", handler.ResumeSession)
	app.Post("/api/v1/sessions/:id/abandon", handler.AbandonSession)

	for _, action := range []string{"pause", "resume", "abandon"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/8/"+action, nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", action, resp.StatusCode)
		}
		if service.lastAction != action || service.lastID != 8 || service.lastActorID != 42 {
			t.Fatalf("%s: unexpected call %q on %d by %d", action, service.lastAction, service.lastID, service.lastActorID)
		}
	}
}

func TestFinishSessionForwardsNotes(t *testing.T) {
	service := &stubWorkoutSessionService{
		summary: &models.SessionSummary{WorkoutSession: models.WorkoutSession{ID: 8, Status: models.SessionFinished}},
	}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("user", "42")
	app.Post("/api/v1/sessions/:id/finish", handler.FinishSession)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/8/finish", strings.NewReader(`{"notes":"felt strong"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastNotes == nil || *service.lastNotes != "felt strong" {
		t.Fatalf("expected notes to be forwarded, got %v", service.lastNotes)
	}
}

func TestFinishSessionWithoutBody(t *testing.T) {
	service := &stubWorkoutSessionService{
		summary: &models.SessionSummary{WorkoutSession: models.WorkoutSession{ID: 8, Status: models.SessionFinished}},
	}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("user", "42")
	app.Post("/api/v1/sessions/:id/finish", handler.FinishSession)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/8/finish", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastNotes != nil {
		t.Fatalf("expected no notes, got %q", *service.lastNotes)
	}
}

func TestStartRestRejectsUnknownKind(t *testing.T) {
	service := &stubWorkoutSessionService{
		restErr: fmt.Errorf("%w: rest kind must be between_sets or between_groups", services.ErrValidation),
	}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("user", "42")
	app.Post("/api/v1/sessions/:id/rests", handler.StartRest)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/8/rests", strings.NewReader(`{"kind":"nap"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastKind != "nap" {
		t.Fatalf("expected kind to be forwarded, got %q", service.lastKind)
	}
}

func TestEndRestWithNothingOpenReturnsNull(t *testing.T) {
	service := &stubWorkoutSessionService{}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("user", "42")
	app.Post("/api/v1/sessions/:id/rests/end", handler.EndRest)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/8/rests/end", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(body["rest"]) != "null" {
		t.Fatalf("expected null rest, got %s", body["rest"])
	}
}

func TestPlanStatusReportsNotStarted(t *testing.T) {
	service := &stubWorkoutSessionService{
		status: &models.PlanSessionStatus{PlanID: 3, Status: models.SessionNotStarted},
	}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("coach", "7")
	app.Get("/api/v1/plans/:id/session-status", handler.PlanStatus)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/plans/3/session-status", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var body models.PlanSessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Status != models.SessionNotStarted || body.Session != nil {
		t.Fatalf("unexpected status %+v", body)
	}
}

func TestListPlanSessionsPaginates(t *testing.T) {
	history := []models.SessionSummary{
		{WorkoutSession: models.WorkoutSession{ID: 3}},
		{WorkoutSession: models.WorkoutSession{ID: 2}},
	}
	service := &stubWorkoutSessionService{history: history, historyTotal: 5}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("coach", "7")
	app.Get("/api/v1/plans/:id/sessions", handler.ListPlanSessions)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/plans/3/sessions?page=2&limit=2", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Sessions   []models.SessionSummary `json:"sessions"`
		Pagination models.PaginationMeta   `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Sessions) != 2 || body.Sessions[0].ID != 3 || body.Sessions[1].ID != 2 {
		t.Fatalf("unexpected page %+v", body.Sessions)
	}
	if body.Pagination.Total != 5 || body.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination %+v", body.Pagination)
	}
	if service.lastPage != 2 || service.lastLimit != 2 {
		t.Fatalf("expected page 2 limit 2 passed through, got %d/%d", service.lastPage, service.lastLimit)
	}
}

func TestListPlanSessionsHugePageReturnsEmptyPage(t *testing.T) {
	service := &stubWorkoutSessionService{historyTotal: 3}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("user", "42")
	app.Get("/api/v1/plans/:id/sessions", handler.ListPlanSessions)

	url := "/api/v1/plans/3/sessions?page=" + strconv.Itoa(math.MaxInt) + "&limit=10"
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Sessions   []models.SessionSummary `json:"sessions"`
		Pagination models.PaginationMeta   `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Sessions == nil || len(body.Sessions) != 0 || body.Pagination.Total != 3 {
		t.Fatalf("unexpected response %+v", body)
	}
	if service.lastPage != math.MaxInt {
		t.Fatalf("expected page to reach the service, got %d", service.lastPage)
	}
}

func TestSetExerciseCompleted(t *testing.T) {
	service := &stubWorkoutSessionService{exercise: &models.Exercise{ID: 14, Completed: true}}
	handler := NewWorkoutSessionHandler(service)

	app := newActorApp("user", "42")
	app.Patch("/api/v1/exercises/:id/completion", handler.SetExerciseCompleted)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/exercises/14/completion", strings.NewReader(`{"completed":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastID != 14 || !service.lastCompleted {
		t.Fatalf("unexpected call on %d completed=%v", service.lastID, service.lastCompleted)
	}
}
