package services

import (
	"time"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

// SessionPolicy bounds how long a session may stay open and how far the
// session clock may drift from the recorded activity before it is flagged.
type SessionPolicy struct {
	MaxAge               time.Duration
	DiscrepancyTolerance time.Duration
}

func pauseSession(session models.WorkoutSession, now time.Time) (models.WorkoutSession, error) {
	if session.Status != models.SessionRunning {
		return session, conflictError("session is %s, only a running session can be paused", session.Status)
	}
	pausedAt := now
	session.Status = models.SessionPaused
	session.PausedAt = &pausedAt
	return session, nil
}

func resumeSession(session models.WorkoutSession, now time.Time) (models.WorkoutSession, error) {
	if session.Status != models.SessionPaused {
		return session, conflictError("session is %s, only a paused session can be resumed", session.Status)
	}
	if session.PausedAt != nil {
		session.PausedSeconds += wholeSeconds(now.Sub(*session.PausedAt))
	}
	session.Status = models.SessionRunning
	session.PausedAt = nil
	return session, nil
}

// finishSession closes a running or paused session. A paused one is resumed
// first so the open pause is counted.
func finishSession(session models.WorkoutSession, now time.Time, notes *string) (models.WorkoutSession, error) {
	if !session.Status.Active() {
		return session, conflictError("session is already %s", session.Status)
	}
	if session.Status == models.SessionPaused {
		resumed, err := resumeSession(session, now)
		if err != nil {
			return session, err
		}
		session = resumed
	}
	endedAt := now
	session.Status = models.SessionFinished
	session.EndedAt = &endedAt
	if notes != nil {
		session.Notes = notes
	}
	return session, nil
}

func abandonSession(session models.WorkoutSession, now time.Time) (models.WorkoutSession, error) {
	if !session.Status.Active() {
		return session, conflictError("session is already %s", session.Status)
	}
	if session.Status == models.SessionPaused {
		resumed, err := resumeSession(session, now)
		if err != nil {
			return session, err
		}
		session = resumed
	}
	endedAt := now
	session.Status = models.SessionAbandoned
	session.EndedAt = &endedAt
	return session, nil
}

// derivedDurationSeconds rebuilds the training time from the records a
// session leaves behind: rest intervals and completion stamps. It runs from the
// session start to the last recorded activity, less the pause time that falls
// inside that window. A pause taken after the last activity does not count.
func derivedDurationSeconds(
	session models.WorkoutSession,
	rests []models.RestInterval,
	pauses []models.SessionPause,
	activity []time.Time,
) int64 {
	var last time.Time
	consider := func(at time.Time) {
		if at.After(last) {
			last = at
		}
	}
	for _, rest := range rests {
		consider(rest.StartedAt)
		if rest.EndedAt != nil {
			consider(*rest.EndedAt)
		}
	}
	for _, at := range activity {
		consider(at)
	}

	if last.IsZero() || !last.After(session.StartedAt) {
		return 0
	}

	window := last.Sub(session.StartedAt)
	for _, pause := range pauses {
		from := pause.StartedAt
		if from.Before(session.StartedAt) {
			from = session.StartedAt
		}
		to := last
		if pause.EndedAt != nil && pause.EndedAt.Before(last) {
			to = *pause.EndedAt
		}
		if to.After(from) {
			window -= to.Sub(from)
		}
	}
	return wholeSeconds(window)
}

func summarizeSession(
	session models.WorkoutSession,
	rests []models.RestInterval,
	pauses []models.SessionPause,
	activity []time.Time,
	now time.Time,
	policy SessionPolicy,
) models.SessionSummary {
	summary := models.SessionSummary{
		WorkoutSession: session,
		ElapsedSeconds: session.ElapsedSeconds(now),
		DerivedSeconds: derivedDurationSeconds(session, rests, pauses, activity),
		RestCount:      len(rests),
	}
	summary.DiscrepancySeconds = summary.ElapsedSeconds - summary.DerivedSeconds

	// An open session's derived time always trails the clock.
	if !session.Status.Active() {
		diff := summary.DiscrepancySeconds
		if diff < 0 {
			diff = -diff
		}
		summary.Discrepant = diff > wholeSeconds(policy.DiscrepancyTolerance)
	}
	if session.Status.Active() && policy.MaxAge > 0 {
		summary.Stale = now.Sub(session.StartedAt) > policy.MaxAge
	}
	for i := range rests {
		if rests[i].Open() {
			open := rests[i]
			summary.OpenRest = &open
			break
		}
	}
	return summary
}

func wholeSeconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// WeekStart returns the Monday of t's ISO week as a UTC date.
func WeekStart(t time.Time) time.Time {
	year, month, day := t.Date()
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}
