package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tsunagi-works/tsunagi/app/repository"
	"github.com/tsunagi-works/tsunagi/internal/pkg/cache"
	"github.com/tsunagi-works/tsunagi/internal/pkg/database"
	"github.com/tsunagi-works/tsunagi/internal/pkg/env"
	"github.com/tsunagi-works/tsunagi/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName: "tsunagi",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// the browser client is a static SPA bundle
	app.Static("/", "./public", fiber.Static{
		Compress: true,
	})

	// ROUTER
	router.InstallRouter(app)

	return app
}
