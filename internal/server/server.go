package server

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"

	"github.com/papersync/papersync/internal/controllers"
	"github.com/papersync/papersync/internal/middlewares"
)

type HTTPServerDependencies struct {
	Controller *controllers.HTTPController
}

func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName:      "papersync",
		ErrorHandler: middlewares.ErrorHandler,
	})

	router.Use(cors.New())
	router.Use(middlewares.RequestLoggerMiddleware())

	// Liveness probe (no authentication required)
	router.Get("/", deps.Controller.Health)

	notion := router.Group("/notion")

	notion.Get("/connect", deps.Controller.Connect)
	notion.Get("/callback", deps.Controller.Callback)
	notion.Post("/webhook", deps.Controller.Webhook)
	notion.Post("/refresh-token", deps.Controller.RefreshToken)

	return router
}
