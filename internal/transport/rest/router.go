package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/frahmantamala/subscription-sales/internal/auth"
	"github.com/frahmantamala/subscription-sales/internal/plan"
	"github.com/frahmantamala/subscription-sales/internal/sale"
	"github.com/frahmantamala/subscription-sales/internal/transport/middleware"
)

const BasePath = "/api/v1"

type Handlers struct {
	Health *HealthHandler
	Auth   *auth.Handler
	Sale   *sale.Handler
	Plan   *plan.Handler
}

type Options struct {
	AllowedOrigins []string
	// OpenAPISpec enables request validation and the swagger UI when set.
	OpenAPISpec []byte
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) error {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Apply global middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", chiMiddleware.RequestIDHeader},
		ExposedHeaders: []string{chiMiddleware.RequestIDHeader},
		MaxAge:         300,
	}))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestLogger)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger, "/swagger", "/openapi.yml", BasePath+"/health", BasePath+"/ping"))

	var validate func(http.Handler) http.Handler
	if len(opts.OpenAPISpec) > 0 {
		doc, err := middleware.LoadOpenAPI(opts.OpenAPISpec)
		if err != nil {
			return err
		}
		validate, err = middleware.OpenAPIValidator(doc, BasePath, logger)
		if err != nil {
			return err
		}

		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(opts.OpenAPISpec)
		})
		router.Handle("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yml")))
	}

	router.Route(BasePath, func(r chi.Router) {
		if validate != nil {
			r.Use(validate)
		}

		if h.Health != nil {
			r.Get("/health", h.Health.HealthCheckHandler)
			r.Get("/ping", h.Health.PingHandler)
		}

		if h.Plan != nil {
			r.Get("/plans", h.Plan.GetPlans)
			r.Get("/plans/{id}", h.Plan.GetPlan)
		}

		if h.Sale == nil {
			return
		}

		// purchase is anonymous
		r.Post("/sales", h.Sale.CreateSale)

		if h.Auth != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)
				pr.Use(h.Auth.RequireRoles(auth.RoleAdmin, auth.RoleBackOffice, auth.RoleSeller))

				pr.Get("/sales", h.Sale.ListSales)
				pr.Get("/sales/{id}", h.Sale.GetSale)
				pr.Get("/sales/{id}/subscription", h.Sale.GetSubscription)
			})
		}
	})

	return nil
}
