package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"interview-scheduler/controllers"
	"interview-scheduler/middlewares"
)

// Register wires all HTTP routes. db backs the idempotency guard and may be
// nil, in which case mutating requests are not deduplicated.
func Register(app *fiber.App, api *controllers.API, db *gorm.DB) {
	public := app.Group("/api")
	public.Get("/health", api.Health)

	// Public auth endpoints
	public.Post("/registration", api.Register)
	public.Post("/login", api.Login)
	public.Post("/logout", api.Logout)

	// Protected endpoints (JWT auth)
	protected := public.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader(api.JWTSecret))
	protected.Use(middlewares.Idempotency(db, api.Log))

	// Candidates
	protected.Get("/candidates", api.GetCandidates)
	protected.Post("/candidates", api.CreateCandidate)
	protected.Get("/candidates/:id", api.GetCandidate)
	protected.Put("/candidates/:id", api.UpdateCandidate)
	protected.Delete("/candidates/:id", api.DeleteCandidate)

	// Interviews
	protected.Get("/interviews", api.GetInterviews)
	protected.Post("/interviews", api.CreateInterview)
	protected.Put("/interviews/:id", api.UpdateInterview)
	protected.Delete("/interviews/:id", api.DeleteInterview)

	// Schedule
	protected.Get("/schedule/available-slots", api.AvailableSlots)
	protected.Get("/schedule/summary", api.ScheduleSummary)
	protected.Post("/schedule/conflicts", api.CheckConflicts)

	// Assistant
	protected.Post("/agent/chat", api.Chat)
}
