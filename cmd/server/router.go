package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/wondercards-api/internal/api"
	apiMiddleware "github.com/phrazzld/wondercards-api/internal/api/middleware"
)

// setupRouter creates the application router with middleware, API routes
// and the health endpoint.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(apiMiddleware.CORS(app.config.Server.CORSOrigins))

	courseHandler := api.NewCourseHandler(app.courseService, app.renderer, app.logger)
	api.RegisterRoutes(r, courseHandler)

	checks := map[string]api.HealthCheck{}
	if app.db != nil {
		checks["database"] = app.db.PingContext
	}
	if app.cache != nil {
		checks["cache"] = app.cache.Ping
	}
	r.Method(http.MethodGet, "/health", api.NewHealthHandler(checks, app.logger))

	return r
}
