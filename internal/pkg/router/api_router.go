package router

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/tsunagi-works/tsunagi/app/controllers"
	"github.com/tsunagi-works/tsunagi/app/repository"
	"github.com/tsunagi-works/tsunagi/internal/pkg/billing"
	"github.com/tsunagi-works/tsunagi/internal/pkg/fincode"
	"github.com/tsunagi-works/tsunagi/internal/pkg/middleware"
	"github.com/tsunagi-works/tsunagi/internal/pkg/session"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Session store, repositories and the gateway client live for the
	// process; a missing gateway credential is a startup failure, not a
	// per-request one.
	manager := session.NewManager(session.NewRedisStore())
	repos := repository.GetGlobalFactory().GetRepositories()

	gateway, err := fincode.NewClientFromEnv()
	if err != nil {
		log.Fatalf("fincode client setup failed: %v", err)
	}

	svc := billing.NewService(repos.Subscription, repos.User, gateway, billing.ConfigFromEnv())

	controllers.InitializeAuthController(repos.User, manager, svc)
	controllers.InitializeSubscriptionController(svc)

	app.Use(middleware.SessionContextMiddleware(manager))

	api := app.Group("/api", limiter.New())

	api.Post("/register", controllers.HandleRegister)
	api.Post("/login", controllers.HandleLogin)
	api.Post("/logout", controllers.HandleLogout)
	api.Get("/session-status", controllers.HandleSessionStatus)
	api.Get("/user", middleware.RequireAPISessionAuth, controllers.HandleGetUser)

	sub := api.Group("/subscription", middleware.RequireAPISessionAuth)
	sub.Get("/", controllers.HandleGetSubscription)
	sub.Get("/plans", controllers.HandleGetPlans)
	sub.Get("/cards", controllers.HandleGetCards)
	sub.Post("/card", controllers.HandleRegisterCard)
	sub.Post("/", controllers.HandleSubscribe)
	sub.Delete("/cards/:cardId", controllers.HandleDeleteCard)
	sub.Delete("/", controllers.HandleCancelSubscription)
}
