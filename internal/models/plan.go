package models

import (
	"time"

	"github.com/google/uuid"
)

type GroupKind string

const (
	GroupKindNone     GroupKind = "none"
	GroupKindSuperset GroupKind = "superset"
	GroupKindCircuit  GroupKind = "circuit"
	GroupKindDropset  GroupKind = "dropset"
	GroupKindBiset    GroupKind = "biset"
	GroupKindTriset   GroupKind = "triset"
)

func (k GroupKind) Valid() bool {
	switch k {
	case GroupKindNone, GroupKindSuperset, GroupKindCircuit, GroupKindDropset, GroupKindBiset, GroupKindTriset:
		return true
	default:
		return false
	}
}

// WeeklyPlan is one day's training assignment for one client in one week.
// DayOfWeek is the offset from WeekStart, so 0 is Monday.
type WeeklyPlan struct {
	ID          int64      `json:"id"`
	ClientID    int64      `json:"client_id"`
	TrainerID   int64      `json:"trainer_id"`
	WeekStart   time.Time  `json:"week_start"`
	DayOfWeek   int        `json:"day_of_week"`
	TemplateID  *int64     `json:"template_id,omitempty"`
	Name        string     `json:"name"`
	Notes       *string    `json:"notes,omitempty"`
	Ordinal     int        `json:"ordinal"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Date returns the calendar day the plan is scheduled for.
func (p WeeklyPlan) Date() time.Time {
	return p.WeekStart.AddDate(0, 0, p.DayOfWeek)
}

type Exercise struct {
	ID                    int64                 `json:"id"`
	PlanID                int64                 `json:"plan_id"`
	LibraryID             *int64                `json:"library_id,omitempty"`
	Name                  string                `json:"name"`
	Sets                  int                   `json:"sets"`
	Reps                  string                `json:"reps"`
	Load                  string                `json:"load"`
	RestSeconds           int                   `json:"rest_seconds"`
	Ordinal               int                   `json:"ordinal"`
	GroupID               *uuid.UUID            `json:"group_id,omitempty"`
	GroupKind             GroupKind             `json:"group_kind"`
	GroupOrdinal          *int                  `json:"group_ordinal,omitempty"`
	InterGroupRestSeconds *int                  `json:"inter_group_rest_seconds,omitempty"`
	Completed             bool                  `json:"completed"`
	CompletedAt           *time.Time            `json:"completed_at,omitempty"`
	DeletedAt             *time.Time            `json:"deleted_at,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
	Library               *ExerciseLibraryEntry `json:"library,omitempty"`
}

func (e Exercise) Deleted() bool {
	return e.DeletedAt != nil
}

func (e Exercise) Grouped() bool {
	return e.GroupID != nil
}

// ExecutionUnit is either a single exercise or a group of exercises performed
// back to back. Ordinal is the lowest member ordinal.
type ExecutionUnit struct {
	Ordinal               int        `json:"ordinal"`
	GroupID               *uuid.UUID `json:"group_id,omitempty"`
	GroupKind             GroupKind  `json:"group_kind"`
	InterGroupRestSeconds *int       `json:"inter_group_rest_seconds,omitempty"`
	Exercises             []Exercise `json:"exercises"`
}

func (u ExecutionUnit) IsGroup() bool {
	return u.GroupID != nil
}

type ExerciseLibraryEntry struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	MuscleGroup *string `json:"muscle_group,omitempty"`
	Equipment   *string `json:"equipment,omitempty"`
	VideoURL    *string `json:"video_url,omitempty"`
}

// PlanDetail is the read model rendered for both trainer and client.
type PlanDetail struct {
	WeeklyPlan
	Blocks OrganizedBlocks `json:"blocks"`
	Units  []ExecutionUnit `json:"units"`
}
