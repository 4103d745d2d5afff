package routes

import (
	"errors"
	"log/slog"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/config"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/handlers"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/middleware"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
	sessionws "github.com/victor-vianna/fit-consult-hub-sub000/internal/websocket"
)

// Dependencies are built by the entrypoint because the background sweeper
// shares the session service and the live feed hub with the HTTP layer.
type Dependencies struct {
	DB       *pgxpool.Pool
	Hub      *sessionws.Hub
	Sessions *services.WorkoutSessionService
	Logger   *slog.Logger
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, deps Dependencies) error {
	if deps.DB == nil || deps.Hub == nil || deps.Sessions == nil {
		return errors.New("routes: database, hub and session service are required")
	}

	templateHandler := handlers.NewTemplateHandler(services.NewTemplateService(deps.DB))
	planHandler := handlers.NewPlanHandler(services.NewPlanService(deps.DB, deps.Logger))
	groupingHandler := handlers.NewGroupingHandler(services.NewGroupingService(deps.DB, deps.Logger))
	blockHandler := handlers.NewBlockHandler(services.NewBlockService(deps.DB))
	sessionHandler := handlers.NewWorkoutSessionHandler(deps.Sessions)
	activeWeekHandler := handlers.NewActiveWeekHandler(services.NewActiveWeekService(deps.DB, cfg.Timezone))
	liveFeedHandler := handlers.NewLiveFeedHandler(deps.Hub, cfg.JWTSecret)

	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	api := app.Group("/api")

	api.Use("/v1/ws", liveFeedHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(liveFeedHandler.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))
	coachOnly := middleware.RequireRole(services.RoleCoach)

	templates := authProtected.Group("/templates", coachOnly)
	templates.Get("/folders", templateHandler.ListFolders)
	templates.Post("/folders", templateHandler.CreateFolder)
	templates.Post("/import", templateHandler.ImportTemplates)
	templates.Get("", templateHandler.ListTemplates)
	templates.Post("", templateHandler.CreateTemplate)
	templates.Get("/:id", templateHandler.GetTemplate)
	templates.Delete("/:id", templateHandler.DeleteTemplate)
	templates.Post("/:id/blocks", templateHandler.AddBlock)
	templates.Post("/:id/exercises", templateHandler.AddExercise)

	clients := authProtected.Group("/clients")
	clients.Get("/:clientId/plans", planHandler.ListWeek)
	clients.Get("/:clientId/active-week", activeWeekHandler.GetActiveWeek)
	clients.Put("/:clientId/active-week", coachOnly, activeWeekHandler.SetActiveWeek)
	clients.Post("/:clientId/active-week/advance", coachOnly, activeWeekHandler.AdvanceWeek)

	plans := authProtected.Group("/plans")
	plans.Post("", coachOnly, planHandler.CreatePlan)
	plans.Post("/from-template", coachOnly, planHandler.CreateFromTemplate)
	plans.Get("/:id", planHandler.GetPlan)
	plans.Delete("/:id", coachOnly, planHandler.DeletePlan)
	plans.Patch("/:id/completion", planHandler.SetCompleted)
	plans.Post("/:id/exercises", coachOnly, planHandler.AddExercise)
	plans.Get("/:id/units", groupingHandler.ListUnits)
	plans.Post("/:id/groups", coachOnly, groupingHandler.CreateGroup)
	plans.Delete("/:id/groups/:groupId", coachOnly, groupingHandler.DissolveGroup)
	plans.Put("/:id/exercise-order", coachOnly, groupingHandler.ReorderExercises)
	plans.Get("/:id/blocks", blockHandler.ListBlocks)
	plans.Post("/:id/blocks", coachOnly, blockHandler.AddBlock)
	plans.Post("/:id/blocks/from-template", coachOnly, blockHandler.AddFromTemplate)
	plans.Put("/:id/blocks/order", coachOnly, blockHandler.ReorderBlocks)
	plans.Post("/:id/sessions", sessionHandler.StartSession)
	plans.Get("/:id/sessions", sessionHandler.ListPlanSessions)
	plans.Get("/:id/session-status", sessionHandler.PlanStatus)

	exercises := authProtected.Group("/exercises")
	exercises.Delete("/:id", coachOnly, planHandler.DeleteExercise)
	exercises.Post("/:id/restore", coachOnly, planHandler.RestoreExercise)
	exercises.Patch("/:id/completion", sessionHandler.SetExerciseCompleted)

	blocks := authProtected.Group("/blocks")
	blocks.Get("/:id", blockHandler.GetBlock)
	blocks.Patch("/:id/completion", blockHandler.SetCompleted)
	blocks.Delete("/:id", coachOnly, blockHandler.DeleteBlock)
	blocks.Post("/:id/restore", coachOnly, blockHandler.RestoreBlock)

	sessions := authProtected.Group("/sessions")
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Post("/:id/pause", sessionHandler.PauseSession)
	sessions.Post("/:id/resume", sessionHandler.ResumeSession)
	sessions.Post("/:id/finish", sessionHandler.FinishSession)
	sessions.Post("/:id/abandon", sessionHandler.AbandonSession)
	sessions.Post("/:id/rests", sessionHandler.StartRest)
	sessions.Post("/:id/rests/end", sessionHandler.EndRest)

	return nil
}
