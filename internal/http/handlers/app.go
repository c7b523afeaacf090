// Package handlers implements the HTTP surface of the listing generator.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"listify/internal/infra"
	"listify/internal/infra/credentials"
	"listify/internal/pipeline"
	"listify/internal/storage"
)

// App is the handler container; everything a route needs gets injected here.
type App struct {
	Runner      *pipeline.Runner
	Store       *storage.FileStore
	Credentials credentials.Store
	Logger      *infra.Logger

	validate *validator.Validate
}

func NewApp(runner *pipeline.Runner, store *storage.FileStore, creds credentials.Store, logger *infra.Logger) *App {
	return &App{
		Runner:      runner,
		Store:       store,
		Credentials: creds,
		Logger:      logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
