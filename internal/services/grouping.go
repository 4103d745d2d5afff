package services

import (
	"sort"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

// MaterializeExercises collapses runs of consecutive exercises sharing a group
// id into one unit. It makes a single pass in ordinal order and does not
// regroup members that are not adjacent; such rows come out as separate units
// carrying the same group metadata.
func MaterializeExercises(exercises []models.Exercise) []models.ExecutionUnit {
	active := make([]models.Exercise, 0, len(exercises))
	for _, exercise := range exercises {
		if !exercise.Deleted() {
			active = append(active, exercise)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Ordinal < active[j].Ordinal
	})

	units := make([]models.ExecutionUnit, 0, len(active))
	for i := 0; i < len(active); {
		head := active[i]
		if head.GroupID == nil {
			units = append(units, models.ExecutionUnit{
				Ordinal:   head.Ordinal,
				GroupKind: models.GroupKindNone,
				Exercises: []models.Exercise{head},
			})
			i++
			continue
		}

		j := i + 1
		for j < len(active) && active[j].GroupID != nil && *active[j].GroupID == *head.GroupID {
			j++
		}

		members := make([]models.Exercise, j-i)
		copy(members, active[i:j])
		sort.SliceStable(members, func(a, b int) bool {
			return groupOrdinal(members[a]) < groupOrdinal(members[b])
		})

		groupID := *head.GroupID
		units = append(units, models.ExecutionUnit{
			Ordinal:               head.Ordinal,
			GroupID:               &groupID,
			GroupKind:             head.GroupKind,
			InterGroupRestSeconds: head.InterGroupRestSeconds,
			Exercises:             members,
		})
		i = j
	}
	return units
}

func groupOrdinal(exercise models.Exercise) int {
	if exercise.GroupOrdinal == nil {
		return exercise.Ordinal
	}
	return *exercise.GroupOrdinal
}

// validateGroupMembers checks a createGroup request against the rows loaded
// for memberIDs.
func validateGroupMembers(
	planID int64,
	memberIDs []int64,
	kind models.GroupKind,
	interGroupRestSeconds int,
	rows []models.Exercise,
) error {
	if !kind.Valid() || kind == models.GroupKindNone {
		return validationError("group kind %q is not a grouping", kind)
	}
	if len(memberIDs) < 2 {
		return validationError("a group needs at least two exercises")
	}
	if interGroupRestSeconds < 0 {
		return validationError("inter-group rest must not be negative")
	}

	byID := make(map[int64]models.Exercise, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	seen := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup {
			return validationError("exercise %d is listed more than once", id)
		}
		seen[id] = struct{}{}

		exercise, ok := byID[id]
		if !ok || exercise.Deleted() {
			return validationError("exercise %d does not exist", id)
		}
		if exercise.PlanID != planID {
			return validationError("exercise %d belongs to another plan", id)
		}
		if exercise.Grouped() {
			return validationError("exercise %d is already grouped", id)
		}
	}
	return nil
}

// contiguousOrder returns the plan's exercise ids with memberIDs pulled
// together, in the given order, at the position of the earliest member.
// Everything else keeps its relative order.
func contiguousOrder(active []models.Exercise, memberIDs []int64) []int64 {
	members := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	ordered := make([]int64, 0, len(active))
	placed := false
	for _, exercise := range active {
		if _, ok := members[exercise.ID]; ok {
			if !placed {
				ordered = append(ordered, memberIDs...)
				placed = true
			}
			continue
		}
		ordered = append(ordered, exercise.ID)
	}
	return ordered
}

// validateExerciseOrder accepts orderedIDs only if it is exactly the live
// exercise set and keeps every group together in group order.
func validateExerciseOrder(active []models.Exercise, orderedIDs []int64) error {
	if err := validateExactIDSet(exerciseIDs(active), orderedIDs); err != nil {
		return err
	}

	position := make(map[int64]int, len(orderedIDs))
	for i, id := range orderedIDs {
		position[id] = i
	}

	groups := make(map[string][]models.Exercise)
	for _, exercise := range active {
		if exercise.GroupID == nil {
			continue
		}
		key := exercise.GroupID.String()
		groups[key] = append(groups[key], exercise)
	}
	for _, members := range groups {
		sort.SliceStable(members, func(a, b int) bool {
			return groupOrdinal(members[a]) < groupOrdinal(members[b])
		})
		first := position[members[0].ID]
		for k, member := range members {
			if position[member.ID] != first+k {
				return validationError("grouped exercises must stay together in group order")
			}
		}
	}
	return nil
}

// validateExactIDSet rejects requested unless it is a permutation of current.
func validateExactIDSet(current []int64, requested []int64) error {
	if len(current) != len(requested) {
		return validationError("expected %d ids, got %d", len(current), len(requested))
	}

	expected := make(map[int64]struct{}, len(current))
	for _, id := range current {
		expected[id] = struct{}{}
	}
	seen := make(map[int64]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := expected[id]; !ok {
			return validationError("id %d is not part of this set", id)
		}
		if _, dup := seen[id]; dup {
			return validationError("id %d is listed more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func exerciseIDs(exercises []models.Exercise) []int64 {
	ids := make([]int64, 0, len(exercises))
	for _, exercise := range exercises {
		ids = append(ids, exercise.ID)
	}
	return ids
}

func withoutID(ids []int64, drop int64) []int64 {
	kept := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			kept = append(kept, id)
		}
	}
	return kept
}
