// Package httpapi assembles the chi router and middleware chain.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"listify/internal/http/handlers"
	"listify/internal/infra"
	"listify/internal/middleware"
)

func NewRouter(cfg *infra.Config, app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(*app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, lookup),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.Generate)
		r.Get("/{id}", app.RunStatus)
		r.Get("/{id}/archive", app.Archive)
	})

	r.Get("/v1/assets/*", app.Asset)

	r.Route("/v1/credentials/gemini", func(r chi.Router) {
		r.Put("/", app.SetGeminiCredential)
		r.Get("/", app.GeminiCredentialStatus)
	})

	return r
}
