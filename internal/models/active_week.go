package models

import "time"

type ActiveWeekPointer struct {
	ClientID  int64     `json:"client_id"`
	TrainerID int64     `json:"trainer_id"`
	WeekStart time.Time `json:"week_start"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveWeek is what readers get back: either a stored pointer or the
// calendar default when the client has none yet.
type ActiveWeek struct {
	ClientID  int64     `json:"client_id"`
	TrainerID *int64    `json:"trainer_id,omitempty"`
	WeekStart time.Time `json:"week_start"`
	Default   bool      `json:"default"`
}
