package models

import "time"

type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionRunning    SessionStatus = "running"
	SessionPaused     SessionStatus = "paused"
	SessionFinished   SessionStatus = "finished"
	SessionAbandoned  SessionStatus = "abandoned"
)

func (s SessionStatus) Active() bool {
	return s == SessionRunning || s == SessionPaused
}

// WorkoutSession is one timed execution attempt of a weekly plan.
type WorkoutSession struct {
	ID            int64         `json:"id"`
	PlanID        int64         `json:"plan_id"`
	ClientID      int64         `json:"client_id"`
	TrainerID     int64         `json:"trainer_id"`
	Status        SessionStatus `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	PausedAt      *time.Time    `json:"-"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	PausedSeconds int64         `json:"paused_seconds"`
	RestSeconds   int64         `json:"rest_seconds"`
	Notes         *string       `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ElapsedSeconds is wall time since start minus accumulated pauses. A paused
// session stops counting at the pause instant.
func (s WorkoutSession) ElapsedSeconds(now time.Time) int64 {
	end := now
	switch {
	case s.EndedAt != nil:
		end = *s.EndedAt
	case s.Status == SessionPaused && s.PausedAt != nil:
		end = *s.PausedAt
	}
	elapsed := int64(end.Sub(s.StartedAt)/time.Second) - s.PausedSeconds
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

type RestKind string

const (
	RestBetweenSets   RestKind = "between_sets"
	RestBetweenGroups RestKind = "between_groups"
)

func (k RestKind) Valid() bool {
	return k == RestBetweenSets || k == RestBetweenGroups
}

type RestInterval struct {
	ID              int64      `json:"id"`
	SessionID       int64      `json:"session_id"`
	Kind            RestKind   `json:"kind"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
}

func (r RestInterval) Open() bool {
	return r.EndedAt == nil
}

// SessionPause is one stretch of time a session spent paused. EndedAt is nil
// while the pause is open.
type SessionPause struct {
	ID        int64      `json:"id"`
	SessionID int64      `json:"session_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// SessionSummary reports the session clock next to the duration derived from
// rest and completion records so callers can see when they disagree.
type SessionSummary struct {
	WorkoutSession
	ElapsedSeconds     int64         `json:"elapsed_seconds"`
	DerivedSeconds     int64         `json:"derived_seconds"`
	DiscrepancySeconds int64         `json:"discrepancy_seconds"`
	Discrepant         bool          `json:"discrepant"`
	Stale              bool          `json:"stale"`
	RestCount          int           `json:"rest_count"`
	OpenRest           *RestInterval `json:"open_rest,omitempty"`
}

type PlanSessionStatus struct {
	PlanID  int64           `json:"plan_id"`
	Status  SessionStatus   `json:"status"`
	Session *SessionSummary `json:"session,omitempty"`
}

type SessionEvent struct {
	Type      string        `json:"type"`
	SessionID int64         `json:"session_id"`
	PlanID    int64         `json:"plan_id"`
	Status    SessionStatus `json:"status"`
	Rest      *RestInterval `json:"rest,omitempty"`
	At        time.Time     `json:"at"`
}
