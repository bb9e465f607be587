package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/handlers"
	customMiddleware "picotask-rush-backend/pkg/middleware"
	"picotask-rush-backend/pkg/notify"
	"picotask-rush-backend/pkg/payments"
	"picotask-rush-backend/pkg/utils"
)

// New assembles the full route table. Each route declares its guards
// explicitly, composed in a fixed order: authentication first, then role.
func New(cfg *config.Config, store database.Store, intents payments.IntentCreator, dispatcher *notify.Dispatcher) *chi.Mux {
	router := chi.NewRouter()
	setupMiddleware(router, cfg)

	jwtService := utils.NewJWTService(cfg.AccessTokenSecret)

	authHandler := handlers.NewAuthHandler(cfg, jwtService, store)
	userHandler := handlers.NewUserHandler(cfg, store)
	taskHandler := handlers.NewTaskHandler(cfg, store)
	submissionHandler := handlers.NewSubmissionHandler(cfg, store, dispatcher)
	paymentHandler := handlers.NewPaymentHandler(cfg, store, intents)
	notificationHandler := handlers.NewNotificationHandler(cfg, store)

	authenticate := customMiddleware.Authenticator(jwtService)
	requireAdmin := customMiddleware.RequireAdmin(store)
	requireTaskCreator := customMiddleware.RequireTaskCreator(store)

	router.Get("/", authHandler.HealthCheck)
	router.Post("/jwt", authHandler.IssueToken)

	router.Route("/users", func(r chi.Router) {
		r.Put("/", userHandler.LoginUpsert)
		r.Get("/{email}", userHandler.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			// self-match enforced in the handler
			r.Get("/admin/{email}", userHandler.CheckAdmin)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate, requireAdmin)
			r.Get("/", userHandler.ListUsers)
			r.Patch("/admin/{id}", userHandler.PromoteAdmin)
			r.Patch("/update/{email}", userHandler.PatchUser)
			r.Delete("/{id}", userHandler.DeleteUser)
		})
	})

	router.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.ListTasks)
		r.Get("/{id}", taskHandler.GetTask)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", taskHandler.CreateTask)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate, requireTaskCreator)
			r.Put("/{id}", taskHandler.UpdateTask)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate, requireAdmin)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})
	})

	router.Route("/submission", func(r chi.Router) {
		r.Post("/", submissionHandler.CreateSubmission)
		r.Get("/", submissionHandler.ListSubmissions)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/create-payment-intent", paymentHandler.CreateIntent)
	})

	router.Route("/payment", func(r chi.Router) {
		r.Use(authenticate, requireTaskCreator)
		r.Get("/", paymentHandler.ListPayments)
		r.Post("/", paymentHandler.RecordPayment)
	})

	router.Route("/notification", func(r chi.Router) {
		r.Get("/", notificationHandler.ListNotifications)
		r.Post("/", notificationHandler.AppendNotification)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(customMiddleware.Logger(cfg))
	router.Use(customMiddleware.Recovery(cfg))
	router.Use(customMiddleware.CORS(cfg))

	// External calls (database, Stripe, SMTP) inherit this bound via the
	// request context.
	router.Use(middleware.Timeout(25 * time.Second))
	router.Use(middleware.Compress(5))
	router.Use(customMiddleware.MaxBodySize(1 << 20))
	router.Use(customMiddleware.ContentTypeJSON)

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}
