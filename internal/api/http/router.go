package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticktraq/field-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Session   *handlers.SessionHandler
	Tickets   *handlers.TicketsHandler
	Inventory *handlers.InventoryHandler
	Logs      *handlers.LogsHandler
	// Identify resolves an optional bearer token. Nil leaves every
	// request anonymous.
	Identify fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	if cfg.Identify != nil {
		api.Use(cfg.Identify)
	}

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Session.Login)
	authGroup.Post("/logout", cfg.Session.Logout)
	authGroup.Get("/session", cfg.Session.Check)
	authGroup.Get("/me", cfg.Session.Me)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/fetch", cfg.Tickets.FetchTickets)
	tickets.Patch("/", cfg.Tickets.BulkUpdate)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)

	inventory := api.Group("/inventory")
	inventory.Get("/", cfg.Inventory.View)
	inventory.Get("/catalog", cfg.Inventory.SearchCatalog)
	inventory.Post("/requests/fetch", cfg.Inventory.FetchRequests)
	inventory.Post("/requests", cfg.Inventory.AddRequest)
	inventory.Delete("/requests/:id", cfg.Inventory.DeleteRequest)
	inventory.Post("/received/fetch", cfg.Inventory.FetchReceived)
	inventory.Post("/received/:id/accept", cfg.Inventory.AcceptItem)
	inventory.Post("/received/:id/apply", cfg.Inventory.ApplyItem)
	inventory.Post("/received/:id/return", cfg.Inventory.ReturnItem)
	inventory.Post("/returns/fetch", cfg.Inventory.FetchReturns)

	logs := api.Group("/logs")
	logs.Get("/", cfg.Logs.View)
	logs.Post("/", cfg.Logs.AddRow)
	logs.Patch("/:id", cfg.Logs.UpdateRow)
	logs.Delete("/:id", cfg.Logs.DeleteRow)
	logs.Post("/:id/save", cfg.Logs.SaveRow)
	logs.Post("/:id/edit", cfg.Logs.BeginEdit)
	logs.Post("/:id/cancel", cfg.Logs.CancelEdit)
	logs.Post("/:id/attachment", cfg.Logs.AttachDocument)
}
