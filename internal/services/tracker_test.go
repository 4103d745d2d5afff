package services

import (
	"errors"
	"testing"
	"time"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

var trackerEpoch = time.Date(2030, 1, 7, 6, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return trackerEpoch.Add(time.Duration(seconds) * time.Second)
}

func runningSession() models.WorkoutSession {
	return models.WorkoutSession{ID: 1, PlanID: 1, ClientID: 2, TrainerID: 3, Status: models.SessionRunning, StartedAt: at(0)}
}

func TestSessionPauseResumeFinishAccounting(t *testing.T) {
	session := runningSession()

	session, err := pauseSession(session, at(300))
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if got := session.ElapsedSeconds(at(330)); got != 300 {
		t.Fatalf("paused clock should stop at 300, got %d", got)
	}

	session, err = resumeSession(session, at(360))
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if session.PausedSeconds != 60 || session.PausedAt != nil {
		t.Fatalf("expected 60 paused seconds, got %+v", session)
	}

	notes := "felt strong"
	session, err = finishSession(session, at(600), &notes)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if session.Status != models.SessionFinished || session.EndedAt == nil || !session.EndedAt.Equal(at(600)) {
		t.Fatalf("unexpected finished session %+v", session)
	}
	if got := session.ElapsedSeconds(at(9999)); got != 540 {
		t.Fatalf("expected 540 elapsed seconds, got %d", got)
	}
	if session.Notes == nil || *session.Notes != notes {
		t.Fatalf("expected notes to be kept, got %v", session.Notes)
	}
}

func TestFinishSessionWhilePausedCountsOpenPause(t *testing.T) {
	session, err := pauseSession(runningSession(), at(100))
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	session, err = finishSession(session, at(160), nil)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if session.PausedSeconds != 60 || session.ElapsedSeconds(at(160)) != 100 {
		t.Fatalf("unexpected accounting %+v", session)
	}
}

func TestSessionTransitionsRejectWrongState(t *testing.T) {
	running := runningSession()
	paused, _ := pauseSession(running, at(10))
	finished, _ := finishSession(running, at(20), nil)
	abandoned, _ := abandonSession(running, at(20))

	tests := []struct {
		name  string
		apply func() error
	}{
		{name: "resume running", apply: func() error { _, err := resumeSession(running, at(30)); return err }},
		{name: "pause paused", apply: func() error { _, err := pauseSession(paused, at(30)); return err }},
		{name: "pause finished", apply: func() error { _, err := pauseSession(finished, at(30)); return err }},
		{name: "finish finished", apply: func() error { _, err := finishSession(finished, at(30), nil); return err }},
		{name: "finish abandoned", apply: func() error { _, err := finishSession(abandoned, at(30), nil); return err }},
		{name: "abandon finished", apply: func() error { _, err := abandonSession(finished, at(30)); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.apply(); !errors.Is(err, ErrConflict) {
				t.Fatalf("expected conflict, got %v", err)
			}
		})
	}
}

func TestDerivedDurationUsesLastActivity(t *testing.T) {
	session := runningSession()
	session.PausedSeconds = 30
	restEnd := at(200)
	pauseEnd := at(330)
	rests := []models.RestInterval{{StartedAt: at(140), EndedAt: &restEnd}}
	pauses := []models.SessionPause{{StartedAt: at(300), EndedAt: &pauseEnd}}
	activity := []time.Time{at(90), at(420)}

	if got := derivedDurationSeconds(session, rests, pauses, activity); got != 390 {
		t.Fatalf("expected 390 derived seconds, got %d", got)
	}
	if got := derivedDurationSeconds(session, nil, nil, nil); got != 0 {
		t.Fatalf("expected 0 without activity, got %d", got)
	}
}

func TestDerivedDurationIgnoresPauseAfterLastActivity(t *testing.T) {
	session := runningSession()
	session, _ = pauseSession(session, at(510))
	session, _ = resumeSession(session, at(1510))
	session, _ = finishSession(session, at(1515), nil)

	pauseEnd := at(1510)
	pauses := []models.SessionPause{{StartedAt: at(510), EndedAt: &pauseEnd}}
	activity := []time.Time{at(500)}
	policy := SessionPolicy{DiscrepancyTolerance: time.Minute}

	summary := summarizeSession(session, nil, pauses, activity, at(2000), policy)
	if summary.ElapsedSeconds != 515 || summary.DerivedSeconds != 500 {
		t.Fatalf("unexpected durations %+v", summary)
	}
	if summary.Discrepant {
		t.Fatalf("expected no discrepancy, got %+v", summary)
	}
}

func TestDerivedDurationClipsPauseOverlappingLastActivity(t *testing.T) {
	session := runningSession()
	pauseEnd := at(700)
	pauses := []models.SessionPause{
		{StartedAt: at(100), EndedAt: &pauseEnd},
		{StartedAt: at(900)},
	}
	activity := []time.Time{at(400)}

	if got := derivedDurationSeconds(session, nil, pauses, activity); got != 100 {
		t.Fatalf("expected 100 derived seconds, got %d", got)
	}
}

func TestSummarizeSessionFlagsDiscrepancy(t *testing.T) {
	session, _ := finishSession(runningSession(), at(3600), nil)
	activity := []time.Time{at(1200)}
	policy := SessionPolicy{DiscrepancyTolerance: 10 * time.Minute}

	summary := summarizeSession(session, nil, nil, activity, at(4000), policy)
	if summary.ElapsedSeconds != 3600 || summary.DerivedSeconds != 1200 {
		t.Fatalf("unexpected durations %+v", summary)
	}
	if summary.DiscrepancySeconds != 2400 || !summary.Discrepant {
		t.Fatalf("expected discrepancy to be flagged, got %+v", summary)
	}

	activity = []time.Time{at(3300)}
	summary = summarizeSession(session, nil, nil, activity, at(4000), policy)
	if summary.Discrepant {
		t.Fatalf("expected 300s difference to be tolerated, got %+v", summary)
	}
}

func TestSummarizeSessionStaleAndOpenRest(t *testing.T) {
	session := runningSession()
	rests := []models.RestInterval{{ID: 9, StartedAt: at(60)}}
	policy := SessionPolicy{MaxAge: time.Hour}

	summary := summarizeSession(session, rests, nil, nil, at(2*3600), policy)
	if !summary.Stale {
		t.Fatal("expected a two hour old running session to be stale")
	}
	if summary.OpenRest == nil || summary.OpenRest.ID != 9 || summary.RestCount != 1 {
		t.Fatalf("expected open rest 9, got %+v", summary.OpenRest)
	}
	if summary.Discrepant {
		t.Fatal("open sessions are never flagged as discrepant")
	}

	summary = summarizeSession(session, nil, nil, nil, at(1800), policy)
	if summary.Stale {
		t.Fatal("expected a 30 minute session not to be stale")
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{in: time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC), want: time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)},
		{in: time.Date(2030, 5, 9, 17, 30, 0, 0, time.UTC), want: time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)},
		{in: time.Date(2030, 5, 12, 23, 59, 0, 0, time.UTC), want: time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)},
		{in: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC), want: time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		if got := WeekStart(tt.in); !got.Equal(tt.want) {
			t.Fatalf("WeekStart(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}

	saoPaulo := time.FixedZone("BRT", -3*3600)
	local := time.Date(2030, 5, 12, 22, 0, 0, 0, saoPaulo)
	if got := WeekStart(local); !got.Equal(time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected local Sunday to stay in its week, got %s", got)
	}
}
