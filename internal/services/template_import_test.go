package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

const templateYAML = `
name: Push day
category: strength
folder: Hypertrophy
blocks:
  - type: warmup
    position: start
    config:
      warmup:
        activities: [arm circles, band pull-aparts]
        intensity: light
  - type: stretch
    position: end
    config:
      stretch:
        stretches:
          - name: chest opener
            hold_seconds: 30
            sides: 2
exercises:
  - name: Bench press
    sets: 4
    reps: 8
    group: a
    group_kind: superset
    inter_group_rest_seconds: 120
  - name: Push-up
    sets: 4
    reps: max
    group: a
    group_kind: superset
  - name: Lateral raise
    sets: 3
    reps: 15
---
name: Pull day
exercises:
  - name: Row
    sets: 3
    reps: 10
`

func TestDecodeTemplateDocuments(t *testing.T) {
	docs, err := DecodeTemplateDocuments(strings.NewReader(templateYAML))
	if err != nil {
		t.Fatalf("DecodeTemplateDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	push := docs[0]
	if push.Name != "Push day" || push.Folder != "Hypertrophy" || len(push.Blocks) != 2 || len(push.Exercises) != 3 {
		t.Fatalf("unexpected document %+v", push)
	}
	if push.Blocks[0].Config.Warmup == nil || len(push.Blocks[0].Config.Warmup.Activities) != 2 {
		t.Fatalf("expected warmup activities, got %+v", push.Blocks[0].Config)
	}
	if push.Blocks[1].Config.Stretch.Stretches[0].HoldSeconds != 30 {
		t.Fatalf("unexpected stretch config %+v", push.Blocks[1].Config.Stretch)
	}
	bench := push.Exercises[0]
	if bench.Reps != "8" || bench.Group != "a" || bench.GroupKind != models.GroupKindSuperset {
		t.Fatalf("unexpected exercise %+v", bench)
	}
	if bench.InterGroupRestSeconds == nil || *bench.InterGroupRestSeconds != 120 {
		t.Fatalf("expected inter-group rest 120, got %v", bench.InterGroupRestSeconds)
	}
}

func TestDecodeTemplateDocumentsRejectsUnknownFields(t *testing.T) {
	_, err := DecodeTemplateDocuments(strings.NewReader("name: x\nduration: 10\n"))
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestTemplateExercisePlanKeepsGroupsTogether(t *testing.T) {
	key := "a"
	lonely := "b"
	first, second := 0, 1
	rest := 90
	exercises := []models.TemplateExercise{
		{ID: 1, Name: "Squat", Ordinal: 0, GroupKey: &key, GroupKind: models.GroupKindSuperset, GroupOrdinal: &first, InterGroupRestSeconds: &rest},
		{ID: 2, Name: "Plank", Ordinal: 1},
		{ID: 3, Name: "Jump", Ordinal: 2, GroupKey: &key, GroupKind: models.GroupKindSuperset, GroupOrdinal: &second},
		{ID: 4, Name: "Curl", Ordinal: 3, GroupKey: &lonely, GroupKind: models.GroupKindDropset},
	}

	inputs := templateExercisePlan(42, exercises)
	names := make([]string, 0, len(inputs))
	for _, input := range inputs {
		names = append(names, input.Name)
	}
	if strings.Join(names, ",") != "Squat,Jump,Plank,Curl" {
		t.Fatalf("unexpected order %v", names)
	}

	squat, jump := inputs[0], inputs[1]
	if squat.GroupID == nil || jump.GroupID == nil || *squat.GroupID != *jump.GroupID {
		t.Fatalf("expected a shared group id, got %v and %v", squat.GroupID, jump.GroupID)
	}
	if *squat.GroupOrdinal != 0 || *jump.GroupOrdinal != 1 {
		t.Fatalf("unexpected group ordinals %d, %d", *squat.GroupOrdinal, *jump.GroupOrdinal)
	}
	if jump.InterGroupRestSeconds == nil || *jump.InterGroupRestSeconds != 90 {
		t.Fatalf("expected group rest copied to every member, got %v", jump.InterGroupRestSeconds)
	}
	if inputs[2].GroupID != nil || inputs[3].GroupID != nil || inputs[3].GroupKind != models.GroupKindNone {
		t.Fatalf("expected ungrouped singles, got %+v %+v", inputs[2], inputs[3])
	}
	for _, input := range inputs {
		if input.PlanID != 42 {
			t.Fatalf("expected plan 42, got %d", input.PlanID)
		}
	}
}

func TestValidateTemplateDocumentGroups(t *testing.T) {
	tests := []struct {
		name    string
		doc     TemplateDocument
		wantErr bool
	}{
		{
			name: "paired group",
			doc: TemplateDocument{Name: "Upper", Exercises: []TemplateExerciseDocument{
				{Name: "Bench", Sets: 3, Reps: "10", Group: "a", GroupKind: models.GroupKindSuperset},
				{Name: "Row", Sets: 3, Reps: "10", Group: "a", GroupKind: models.GroupKindSuperset},
			}},
		},
		{
			name: "lonely member",
			doc: TemplateDocument{Name: "Upper", Exercises: []TemplateExerciseDocument{
				{Name: "Bench", Sets: 3, Reps: "10", Group: "a", GroupKind: models.GroupKindSuperset},
				{Name: "Row", Sets: 3, Reps: "10"},
			}},
			wantErr: true,
		},
		{
			name: "mixed kinds",
			doc: TemplateDocument{Name: "Upper", Exercises: []TemplateExerciseDocument{
				{Name: "Bench", Sets: 3, Reps: "10", Group: "a", GroupKind: models.GroupKindSuperset},
				{Name: "Row", Sets: 3, Reps: "10", Group: "a", GroupKind: models.GroupKindCircuit},
			}},
			wantErr: true,
		},
		{
			name:    "missing name",
			doc:     TemplateDocument{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplateDocument(tt.doc)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
