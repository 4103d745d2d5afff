package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/repository"
)

type PlanService struct {
	db     database
	logger *slog.Logger
	now    func() time.Time
}

type CreatePlanInput struct {
	ClientID  int64
	WeekStart time.Time
	DayOfWeek int
	Name      string
	Notes     *string
}

type InstantiatePlanInput struct {
	TemplateID int64
	ClientID   int64
	WeekStart  time.Time
	DayOfWeek  int
	Name       string
	Notes      *string
}

func NewPlanService(db *pgxpool.Pool, logger *slog.Logger) *PlanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanService{db: db, logger: logger, now: time.Now}
}

func (s *PlanService) CreatePlan(
	ctx context.Context,
	actorID int64,
	role string,
	input CreatePlanInput,
) (*models.WeeklyPlan, error) {
	if role != RoleCoach {
		return nil, ErrForbidden
	}
	create, err := planInput(actorID, input)
	if err != nil {
		return nil, err
	}
	plan, err := repository.NewWeeklyPlanRepository(s.db).Create(ctx, create)
	if err != nil {
		return nil, planCreateError(err)
	}
	return plan, nil
}

// InstantiatePlan copies a template into a new weekly plan. Each template
// group key becomes a fresh group id and its members are laid out together.
func (s *PlanService) InstantiatePlan(
	ctx context.Context,
	actorID int64,
	role string,
	input InstantiatePlanInput,
) (*models.PlanDetail, error) {
	var planID int64
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		templates := repository.NewPlanTemplateRepository(tx)
		template, err := ownedTemplate(ctx, templates, actorID, role, input.TemplateID)
		if err != nil {
			return err
		}
		detail, err := loadTemplateDetail(ctx, templates, template)
		if err != nil {
			return err
		}

		name := input.Name
		if strings.TrimSpace(name) == "" {
			name = template.Name
		}
		create, err := planInput(actorID, CreatePlanInput{
			ClientID:  input.ClientID,
			WeekStart: input.WeekStart,
			DayOfWeek: input.DayOfWeek,
			Name:      name,
			Notes:     input.Notes,
		})
		if err != nil {
			return err
		}
		create.TemplateID = &template.ID

		plan, err := repository.NewWeeklyPlanRepository(tx).Create(ctx, create)
		err = planCreateError(err)
		if err != nil {
			return err
		}
		planID = plan.ID

		blocks := repository.NewBlockRepository(tx)
		for _, block := range detail.Blocks {
			if _, err := blocks.Create(ctx, repository.CreateBlockInput{
				PlanID:           plan.ID,
				Type:             block.Type,
				Position:         block.Position,
				Config:           block.Config,
				EstimatedSeconds: block.EstimatedSeconds,
			}); err != nil {
				return err
			}
		}

		exercises := repository.NewExerciseRepository(tx)
		for _, exercise := range templateExercisePlan(plan.ID, detail.Exercises) {
			if _, err := exercises.Create(ctx, exercise); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("plan instantiated from template", "plan_id", planID, "template_id", input.TemplateID)
	return s.planDetail(ctx, planID)
}

func (s *PlanService) GetPlan(ctx context.Context, actorID int64, role string, planID int64) (*models.PlanDetail, error) {
	if _, err := readablePlan(ctx, repository.NewWeeklyPlanRepository(s.db), actorID, role, planID); err != nil {
		return nil, err
	}
	return s.planDetail(ctx, planID)
}

// ListWeek returns a client's plans for the week containing weekStart. A
// trainer only sees the plans they authored.
func (s *PlanService) ListWeek(
	ctx context.Context,
	actorID int64,
	role string,
	clientID int64,
	weekStart time.Time,
) ([]models.WeeklyPlan, error) {
	switch role {
	case RoleUser:
		if clientID != actorID {
			return nil, ErrForbidden
		}
	case RoleCoach:
	default:
		return nil, ErrForbidden
	}

	plans, err := repository.NewWeeklyPlanRepository(s.db).ListByClientWeek(ctx, clientID, WeekStart(weekStart))
	if err != nil {
		return nil, err
	}
	if role == RoleUser {
		return plans, nil
	}
	own := make([]models.WeeklyPlan, 0, len(plans))
	for _, plan := range plans {
		if plan.TrainerID == actorID {
			own = append(own, plan)
		}
	}
	return own, nil
}

// SetPlanCompleted records completion as an explicit choice of either party;
// it is never derived from exercises or sessions.
func (s *PlanService) SetPlanCompleted(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	completed bool,
) (*models.WeeklyPlan, error) {
	plans := repository.NewWeeklyPlanRepository(s.db)
	if _, err := readablePlan(ctx, plans, actorID, role, planID); err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if completed {
		now := s.now()
		completedAt = &now
	}
	plan, err := plans.SetCompleted(ctx, planID, completed, completedAt)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	return plan, nil
}

func (s *PlanService) DeletePlan(ctx context.Context, actorID int64, role string, planID int64) error {
	plans := repository.NewWeeklyPlanRepository(s.db)
	if _, err := authorablePlan(ctx, plans, actorID, role, planID); err != nil {
		return err
	}
	deleted, err := plans.Delete(ctx, planID)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound(pgx.ErrNoRows, "plan")
	}
	return nil
}

func (s *PlanService) AddExercise(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	input ExerciseInput,
) (*models.Exercise, error) {
	exercise, err := normalizeExerciseInput(input)
	if err != nil {
		return nil, err
	}

	var created *models.Exercise
	err = runInTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := lockAuthorablePlan(ctx, tx, actorID, role, planID); err != nil {
			return err
		}
		created, err = repository.NewExerciseRepository(tx).Create(ctx, repository.CreateExerciseInput{
			PlanID:      planID,
			LibraryID:   exercise.LibraryID,
			Name:        exercise.Name,
			Sets:        exercise.Sets,
			Reps:        exercise.Reps,
			Load:        exercise.Load,
			RestSeconds: exercise.RestSeconds,
			GroupKind:   models.GroupKindNone,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SoftDeleteExercise hides an exercise and closes the gap it leaves. A group
// left with a single member is dissolved.
func (s *PlanService) SoftDeleteExercise(
	ctx context.Context,
	actorID int64,
	role string,
	exerciseID int64,
) (*models.Exercise, error) {
	var deleted *models.Exercise
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		exercises := repository.NewExerciseRepository(tx)
		exercise, err := lockedExercise(ctx, tx, exercises, actorID, role, exerciseID)
		if err != nil {
			return err
		}
		if exercise.Deleted() {
			deleted = exercise
			return nil
		}

		active, err := exercises.ListByPlanForUpdate(ctx, exercise.PlanID)
		if err != nil {
			return err
		}
		deleted, err = exercises.SoftDelete(ctx, exerciseID, s.now())
		if err != nil {
			return notFound(err, "exercise")
		}
		if err := exercises.Resequence(ctx, withoutID(exerciseIDs(active), exerciseID)); err != nil {
			return err
		}

		if exercise.GroupID == nil {
			return nil
		}
		remaining, err := exercises.ListByGroupForUpdate(ctx, *exercise.GroupID)
		if err != nil {
			return err
		}
		if len(remaining) < 2 {
			_, err := exercises.ClearGroup(ctx, *exercise.GroupID)
			return err
		}
		interGroupRest := 0
		if exercise.InterGroupRestSeconds != nil {
			interGroupRest = *exercise.InterGroupRestSeconds
		}
		return exercises.AssignGroup(ctx, groupMemberOrder(remaining), *exercise.GroupID, exercise.GroupKind, interGroupRest)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// RestoreExercise brings a deleted exercise back, ungrouped, at the end.
func (s *PlanService) RestoreExercise(
	ctx context.Context,
	actorID int64,
	role string,
	exerciseID int64,
) (*models.Exercise, error) {
	var restored *models.Exercise
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		exercises := repository.NewExerciseRepository(tx)
		exercise, err := lockedExercise(ctx, tx, exercises, actorID, role, exerciseID)
		if err != nil {
			return err
		}
		if !exercise.Deleted() {
			restored = exercise
			return nil
		}
		restored, err = exercises.Restore(ctx, exerciseID)
		return notFound(err, "exercise")
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// lockedExercise locks the exercise's plan and then the exercise, in that
// order, like every other structural write on a plan.
func lockedExercise(
	ctx context.Context,
	tx pgx.Tx,
	exercises *repository.ExerciseRepository,
	actorID int64,
	role string,
	exerciseID int64,
) (*models.Exercise, error) {
	exercise, err := exercises.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, notFound(err, "exercise")
	}
	if _, err := lockAuthorablePlan(ctx, tx, actorID, role, exercise.PlanID); err != nil {
		return nil, err
	}
	exercise, err = exercises.GetByIDForUpdate(ctx, exerciseID)
	if err != nil {
		return nil, notFound(err, "exercise")
	}
	return exercise, nil
}

func (s *PlanService) planDetail(ctx context.Context, planID int64) (*models.PlanDetail, error) {
	plan, err := loadPlan(ctx, repository.NewWeeklyPlanRepository(s.db), planID)
	if err != nil {
		return nil, err
	}
	blocks, err := repository.NewBlockRepository(s.db).ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	units, err := loadExecutionUnits(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	return &models.PlanDetail{
		WeeklyPlan: *plan,
		Blocks:     OrganizeBlocks(blocks),
		Units:      units,
	}, nil
}

// planCreateError turns a lost race for the day's next plan slot into a
// conflict the caller can retry.
func planCreateError(err error) error {
	if err != nil && repository.IsUniqueViolation(err) {
		return conflictError("another plan was added to that day at the same time, retry")
	}
	return err
}

func planInput(trainerID int64, input CreatePlanInput) (repository.CreateWeeklyPlanInput, error) {
	name := strings.TrimSpace(input.Name)
	switch {
	case input.ClientID <= 0:
		return repository.CreateWeeklyPlanInput{}, validationError("client is required")
	case input.WeekStart.IsZero():
		return repository.CreateWeeklyPlanInput{}, validationError("week start is required")
	case input.DayOfWeek < 0 || input.DayOfWeek > 6:
		return repository.CreateWeeklyPlanInput{}, validationError("day of week must be between 0 and 6")
	case name == "":
		return repository.CreateWeeklyPlanInput{}, validationError("plan name is required")
	}
	return repository.CreateWeeklyPlanInput{
		ClientID:  input.ClientID,
		TrainerID: trainerID,
		WeekStart: WeekStart(input.WeekStart),
		DayOfWeek: input.DayOfWeek,
		Name:      name,
		Notes:     input.Notes,
	}, nil
}

// templateExercisePlan orders template exercises for insertion. Members of a
// group key are emitted together, in group order, where the first of them
// sits. Keys with a single exercise come out ungrouped.
func templateExercisePlan(planID int64, exercises []models.TemplateExercise) []repository.CreateExerciseInput {
	sorted := make([]models.TemplateExercise, len(exercises))
	copy(sorted, exercises)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ordinal < sorted[j].Ordinal
	})

	members := make(map[string][]models.TemplateExercise)
	for _, exercise := range sorted {
		if exercise.GroupKey != nil {
			members[*exercise.GroupKey] = append(members[*exercise.GroupKey], exercise)
		}
	}

	inputs := make([]repository.CreateExerciseInput, 0, len(sorted))
	emitted := make(map[string]bool)
	for _, exercise := range sorted {
		if exercise.GroupKey == nil || len(members[*exercise.GroupKey]) < 2 {
			inputs = append(inputs, templateExerciseInput(planID, exercise))
			continue
		}
		key := *exercise.GroupKey
		if emitted[key] {
			continue
		}
		emitted[key] = true

		group := members[key]
		sort.SliceStable(group, func(a, b int) bool {
			return templateGroupOrdinal(group[a]) < templateGroupOrdinal(group[b])
		})
		groupID := uuid.New()
		for position, member := range group {
			input := templateExerciseInput(planID, member)
			groupOrdinal := position
			input.GroupID = &groupID
			input.GroupKind = group[0].GroupKind
			input.GroupOrdinal = &groupOrdinal
			input.InterGroupRestSeconds = group[0].InterGroupRestSeconds
			inputs = append(inputs, input)
		}
	}
	return inputs
}

func templateExerciseInput(planID int64, exercise models.TemplateExercise) repository.CreateExerciseInput {
	return repository.CreateExerciseInput{
		PlanID:      planID,
		LibraryID:   exercise.LibraryID,
		Name:        exercise.Name,
		Sets:        exercise.Sets,
		Reps:        exercise.Reps,
		Load:        exercise.Load,
		RestSeconds: exercise.RestSeconds,
		GroupKind:   models.GroupKindNone,
	}
}

func templateGroupOrdinal(exercise models.TemplateExercise) int {
	if exercise.GroupOrdinal == nil {
		return exercise.Ordinal
	}
	return *exercise.GroupOrdinal
}

func groupMemberOrder(members []models.Exercise) []int64 {
	sorted := make([]models.Exercise, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return groupOrdinal(sorted[i]) < groupOrdinal(sorted[j])
	})
	return exerciseIDs(sorted)
}
