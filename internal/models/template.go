package models

import "time"

type TemplateFolder struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type PlanTemplate struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	FolderID  *int64    `json:"folder_id,omitempty"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TemplateBlock struct {
	ID               int64         `json:"id"`
	TemplateID       int64         `json:"template_id"`
	Type             BlockType     `json:"type"`
	Position         BlockPosition `json:"position"`
	Ordinal          int           `json:"ordinal"`
	Config           BlockConfig   `json:"config"`
	EstimatedSeconds int           `json:"estimated_seconds"`
}

// TemplateExercise groups by a free-form GroupKey; instantiating a template
// turns each distinct key into a fresh group id.
type TemplateExercise struct {
	ID                    int64     `json:"id"`
	TemplateID            int64     `json:"template_id"`
	LibraryID             *int64    `json:"library_id,omitempty"`
	Name                  string    `json:"name"`
	Sets                  int       `json:"sets"`
	Reps                  string    `json:"reps"`
	Load                  string    `json:"load"`
	RestSeconds           int       `json:"rest_seconds"`
	Ordinal               int       `json:"ordinal"`
	GroupKey              *string   `json:"group_key,omitempty"`
	GroupKind             GroupKind `json:"group_kind"`
	GroupOrdinal          *int      `json:"group_ordinal,omitempty"`
	InterGroupRestSeconds *int      `json:"inter_group_rest_seconds,omitempty"`
}

type TemplateDetail struct {
	PlanTemplate
	Blocks    []TemplateBlock    `json:"blocks"`
	Exercises []TemplateExercise `json:"exercises"`
}
