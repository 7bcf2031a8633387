package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/habitforge/habitforge-api/internal/handlers"
	"github.com/habitforge/habitforge-api/internal/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	users := protected.Group("/users")
	users.Get("/me", handlers.GetMe)
	users.Put("/profile", handlers.UpdateProfile)
	users.Get("/profile/:id", handlers.GetUserProfile)
	users.Get("/search", handlers.SearchUsers)
	users.Delete("/account", handlers.DeleteAccount)

	habits := protected.Group("/habits")
	habits.Get("/", handlers.GetHabits)
	habits.Post("/", handlers.CreateHabit)
	habits.Get("/stats", handlers.GetHabitStats)
	habits.Post("/:id/complete", handlers.CompleteHabit)
	habits.Put("/:id", handlers.UpdateHabit)
	habits.Delete("/:id", handlers.ArchiveHabit)

	squads := protected.Group("/squads")
	squads.Get("/", handlers.GetSquads)
	squads.Post("/", handlers.CreateSquad)
	squads.Get("/:id", handlers.GetSquad)
	squads.Put("/:id", handlers.UpdateSquad)
	squads.Post("/:id/join", handlers.JoinSquad)
	squads.Post("/:id/leave", handlers.LeaveSquad)
	squads.Get("/:id/leaderboard", handlers.GetLeaderboard)

	activities := protected.Group("/activities")
	activities.Get("/squad/:id", handlers.GetSquadActivity)
	activities.Get("/user/:id", handlers.GetUserActivity)
	activities.Post("/:id/cheer", handlers.CheerActivity)
}
