package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/repository"
)

const (
	EventSessionStarted   = "session.started"
	EventSessionPaused    = "session.paused"
	EventSessionResumed   = "session.resumed"
	EventSessionFinished  = "session.finished"
	EventSessionAbandoned = "session.abandoned"
	EventRestStarted      = "rest.started"
	EventRestEnded        = "rest.ended"
)

// SessionEventPublisher fans session changes out to connected users.
type SessionEventPublisher interface {
	PublishSessionEvent(userIDs []int64, event models.SessionEvent)
}

type WorkoutSessionService struct {
	db     database
	events SessionEventPublisher
	logger *slog.Logger
	policy SessionPolicy
	now    func() time.Time
}

func NewWorkoutSessionService(
	db *pgxpool.Pool,
	events SessionEventPublisher,
	logger *slog.Logger,
	policy SessionPolicy,
) *WorkoutSessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkoutSessionService{
		db:     db,
		events: events,
		logger: logger,
		policy: policy,
		now:    time.Now,
	}
}

// Start opens a running session for the client on one of their plans. A
// second running or paused session for the same plan is a conflict.
func (s *WorkoutSessionService) Start(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
) (*models.SessionSummary, error) {
	if role != RoleUser {
		return nil, ErrForbidden
	}
	plan, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, planID)
	if err != nil {
		return nil, err
	}

	session, err := repository.NewWorkoutSessionRepository(s.db).Create(ctx, repository.CreateWorkoutSessionInput{
		PlanID:    plan.ID,
		ClientID:  plan.ClientID,
		TrainerID: plan.TrainerID,
		StartedAt: s.now(),
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflictError("a session is already in progress for this plan")
		}
		return nil, err
	}

	s.logger.Info("workout session started", "session_id", session.ID, "plan_id", plan.ID, "client_id", plan.ClientID)
	s.publish(*session, EventSessionStarted, nil)
	return s.summary(ctx, *session)
}

func (s *WorkoutSessionService) Pause(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error) {
	return s.transition(ctx, actorID, role, sessionID, EventSessionPaused, false, pauseSession)
}

func (s *WorkoutSessionService) Resume(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error) {
	return s.transition(ctx, actorID, role, sessionID, EventSessionResumed, false, resumeSession)
}

// Finish ends the session, resuming it first when paused and closing any
// open rest interval at the same instant.
func (s *WorkoutSessionService) Finish(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	notes *string,
) (*models.SessionSummary, error) {
	return s.transition(ctx, actorID, role, sessionID, EventSessionFinished, true, func(session models.WorkoutSession, now time.Time) (models.WorkoutSession, error) {
		return finishSession(session, now, notes)
	})
}

// Abandon ends the session without finishing it. The trainer may abandon a
// client's session too.
func (s *WorkoutSessionService) Abandon(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionSummary, error) {
	return s.transition(ctx, actorID, role, sessionID, EventSessionAbandoned, true, abandonSession)
}

type sessionTransition func(session models.WorkoutSession, now time.Time) (models.WorkoutSession, error)

func (s *WorkoutSessionService) transition(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	eventType string,
	closing bool,
	apply sessionTransition,
) (*models.SessionSummary, error) {
	var updated *models.WorkoutSession
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		sessions := repository.NewWorkoutSessionRepository(tx)
		session, err := sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return notFound(err, "session")
		}
		if !canDriveSession(role, actorID, session, eventType == EventSessionAbandoned) {
			return ErrForbidden
		}

		updated, err = s.applyTransition(ctx, tx, *session, closing, apply)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workout session transition",
		"session_id", updated.ID,
		"event", eventType,
		"status", updated.Status,
		"paused_seconds", updated.PausedSeconds,
	)
	s.publish(*updated, eventType, nil)
	summary, err := s.summary(ctx, *updated)
	if err != nil {
		return nil, err
	}
	if closing && summary.Discrepant {
		s.logger.Warn("session duration discrepancy",
			"session_id", summary.ID,
			"elapsed_seconds", summary.ElapsedSeconds,
			"derived_seconds", summary.DerivedSeconds,
		)
	}
	return summary, nil
}

// applyTransition runs apply and persists the result with a conditional
// write. A closing transition also ends the open rest interval.
func (s *WorkoutSessionService) applyTransition(
	ctx context.Context,
	tx pgx.Tx,
	session models.WorkoutSession,
	closing bool,
	apply sessionTransition,
) (*models.WorkoutSession, error) {
	now := s.now()
	next, err := apply(session, now)
	if err != nil {
		return nil, err
	}

	pauses := repository.NewSessionPauseRepository(tx)
	switch {
	case session.Status == models.SessionRunning && next.Status == models.SessionPaused:
		if _, err := pauses.Open(ctx, session.ID, now); err != nil {
			if repository.IsUniqueViolation(err) {
				return nil, conflictError("session is already paused")
			}
			return nil, err
		}
	case session.Status == models.SessionPaused && next.Status != models.SessionPaused:
		if err := pauses.CloseOpen(ctx, session.ID, now); err != nil {
			return nil, err
		}
	}

	if closing {
		rests := repository.NewRestIntervalRepository(tx)
		open, err := rests.GetOpenForUpdate(ctx, session.ID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return nil, err
		default:
			duration := wholeSeconds(now.Sub(open.StartedAt))
			if _, err := rests.Close(ctx, open.ID, now, duration); err != nil {
				return nil, err
			}
			next.RestSeconds += duration
		}
	}

	persisted, err := repository.NewWorkoutSessionRepository(tx).UpdateIfStatus(ctx, next, session.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, conflictError("session changed while updating, reload and retry")
		}
		return nil, err
	}
	return persisted, nil
}

// LogRestStart opens a rest interval. Only one may be open per session.
func (s *WorkoutSessionService) LogRestStart(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	kind models.RestKind,
) (*models.RestInterval, error) {
	if !kind.Valid() {
		return nil, validationError("rest kind must be between_sets or between_groups")
	}

	var session *models.WorkoutSession
	var rest *models.RestInterval
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		session, err = repository.NewWorkoutSessionRepository(tx).GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return notFound(err, "session")
		}
		if !canDriveSession(role, actorID, session, false) {
			return ErrForbidden
		}
		if !session.Status.Active() {
			return conflictError("session is %s, rest can only be logged while it is open", session.Status)
		}

		rests := repository.NewRestIntervalRepository(tx)
		_, err = rests.GetOpenForUpdate(ctx, sessionID)
		switch {
		case err == nil:
			return conflictError("a rest interval is already open")
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		rest, err = rests.Create(ctx, sessionID, kind, s.now())
		if err != nil && repository.IsUniqueViolation(err) {
			return conflictError("a rest interval is already open")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(*session, EventRestStarted, rest)
	return rest, nil
}

// LogRestEnd closes the open rest interval and adds its length to the
// session. With nothing open it returns nil and changes nothing.
func (s *WorkoutSessionService) LogRestEnd(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.RestInterval, error) {
	var session *models.WorkoutSession
	var rest *models.RestInterval
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		sessions := repository.NewWorkoutSessionRepository(tx)
		var err error
		session, err = sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return notFound(err, "session")
		}
		if !canDriveSession(role, actorID, session, false) {
			return ErrForbidden
		}

		rests := repository.NewRestIntervalRepository(tx)
		open, err := rests.GetOpenForUpdate(ctx, sessionID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		now := s.now()
		duration := wholeSeconds(now.Sub(open.StartedAt))
		rest, err = rests.Close(ctx, open.ID, now, duration)
		if err != nil {
			return err
		}
		session, err = sessions.AddRestSeconds(ctx, sessionID, duration)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, nil
	}

	s.publish(*session, EventRestEnded, rest)
	return rest, nil
}

// MarkExerciseCompleted toggles one exercise. Groups and the plan are left
// alone.
func (s *WorkoutSessionService) MarkExerciseCompleted(
	ctx context.Context,
	actorID int64,
	role string,
	exerciseID int64,
	completed bool,
) (*models.Exercise, error) {
	exercises := repository.NewExerciseRepository(s.db)
	exercise, err := exercises.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, notFound(err, "exercise")
	}
	if _, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, exercise.PlanID); err != nil {
		return nil, err
	}
	if exercise.Deleted() {
		return nil, conflictError("exercise %d is deleted", exerciseID)
	}

	var completedAt *time.Time
	if completed {
		now := s.now()
		completedAt = &now
	}
	updated, err := exercises.SetCompleted(ctx, exerciseID, completed, completedAt)
	if err != nil {
		return nil, notFound(err, "exercise")
	}
	return updated, nil
}

func (s *WorkoutSessionService) GetSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.SessionSummary, error) {
	session, err := repository.NewWorkoutSessionRepository(s.db).GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "session")
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	return s.summary(ctx, *session)
}

// GetPlanSessionStatus reports the plan's current or latest session, or
// not_started when the client never opened one.
func (s *WorkoutSessionService) GetPlanSessionStatus(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
) (*models.PlanSessionStatus, error) {
	plan, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, planID)
	if err != nil {
		return nil, err
	}

	session, err := repository.NewWorkoutSessionRepository(s.db).GetLatestByPlan(ctx, plan.ClientID, planID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.PlanSessionStatus{PlanID: planID, Status: models.SessionNotStarted}, nil
	}
	if err != nil {
		return nil, err
	}

	summary, err := s.summary(ctx, *session)
	if err != nil {
		return nil, err
	}
	return &models.PlanSessionStatus{PlanID: planID, Status: session.Status, Session: summary}, nil
}

// ListPlanSessions returns one page of the plan's sessions, newest first,
// with the total across all pages.
func (s *WorkoutSessionService) ListPlanSessions(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	page int,
	limit int,
) ([]models.SessionSummary, int, error) {
	if page < 1 || limit < 1 {
		return nil, 0, validationError("page and limit must be positive")
	}
	if _, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, planID); err != nil {
		return nil, 0, err
	}

	sessions, total, err := repository.NewWorkoutSessionRepository(s.db).ListByPlan(ctx, planID, limit, pageOffset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	summaries, err := s.summaries(ctx, sessions)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// AbandonStale abandons every session left open longer than the configured
// maximum age and reports how many it closed.
func (s *WorkoutSessionService) AbandonStale(ctx context.Context) (int, error) {
	if s.policy.MaxAge <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-s.policy.MaxAge)
	stale, err := repository.NewWorkoutSessionRepository(s.db).ListActiveStartedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	abandoned := 0
	for _, candidate := range stale {
		var updated *models.WorkoutSession
		err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
			session, err := repository.NewWorkoutSessionRepository(tx).GetByIDForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !session.Status.Active() {
				return nil
			}
			updated, err = s.applyTransition(ctx, tx, *session, true, abandonSession)
			return err
		})
		if err != nil {
			s.logger.Error("abandon stale session", "session_id", candidate.ID, "error", err)
			continue
		}
		if updated == nil {
			continue
		}

		abandoned++
		s.logger.Info("stale workout session abandoned", "session_id", updated.ID, "started_at", updated.StartedAt)
		s.publish(*updated, EventSessionAbandoned, nil)
	}
	return abandoned, nil
}

func (s *WorkoutSessionService) summary(ctx context.Context, session models.WorkoutSession) (*models.SessionSummary, error) {
	summaries, err := s.summaries(ctx, []models.WorkoutSession{session})
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

// summaries loads rests, pauses and completion stamps for all sessions in
// three queries. Every session passed in must belong to the same plan.
func (s *WorkoutSessionService) summaries(ctx context.Context, sessions []models.WorkoutSession) ([]models.SessionSummary, error) {
	result := make([]models.SessionSummary, 0, len(sessions))
	if len(sessions) == 0 {
		return result, nil
	}

	now := s.now()
	ids := make([]int64, 0, len(sessions))
	from := sessions[0].StartedAt
	to := sessionWindowEnd(sessions[0], now)
	for _, session := range sessions {
		ids = append(ids, session.ID)
		if session.StartedAt.Before(from) {
			from = session.StartedAt
		}
		if end := sessionWindowEnd(session, now); end.After(to) {
			to = end
		}
	}

	rests, err := repository.NewRestIntervalRepository(s.db).ListBySessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	pauses, err := repository.NewSessionPauseRepository(s.db).ListBySessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	activity, err := repository.NewWorkoutSessionRepository(s.db).ActivityTimes(ctx, sessions[0].PlanID, from, to)
	if err != nil {
		return nil, err
	}

	for _, session := range sessions {
		end := sessionWindowEnd(session, now)
		window := make([]time.Time, 0, len(activity))
		for _, at := range activity {
			if !at.Before(session.StartedAt) && !at.After(end) {
				window = append(window, at)
			}
		}
		result = append(result, summarizeSession(session, rests[session.ID], pauses[session.ID], window, now, s.policy))
	}
	return result, nil
}

// pageOffset is the row offset of page, saturating instead of overflowing for
// absurd page numbers.
func pageOffset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func sessionWindowEnd(session models.WorkoutSession, now time.Time) time.Time {
	if session.EndedAt != nil {
		return *session.EndedAt
	}
	return now
}

func (s *WorkoutSessionService) publish(session models.WorkoutSession, eventType string, rest *models.RestInterval) {
	if s.events == nil {
		return
	}
	s.events.PublishSessionEvent([]int64{session.ClientID, session.TrainerID}, models.SessionEvent{
		Type:      eventType,
		SessionID: session.ID,
		PlanID:    session.PlanID,
		Status:    session.Status,
		Rest:      rest,
		At:        s.now(),
	})
}

func canAccessSession(role string, actorID int64, session *models.WorkoutSession) bool {
	switch role {
	case RoleUser:
		return session.ClientID == actorID
	case RoleCoach:
		return session.TrainerID == actorID
	default:
		return false
	}
}

// canDriveSession allows the client to run their own session. The trainer
// may only abandon it.
func canDriveSession(role string, actorID int64, session *models.WorkoutSession, abandoning bool) bool {
	if role == RoleUser {
		return session.ClientID == actorID
	}
	return abandoning && role == RoleCoach && session.TrainerID == actorID
}
