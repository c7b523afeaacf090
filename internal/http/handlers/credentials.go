package handlers

import (
	"encoding/json"
	"net/http"
)

type credentialRequest struct {
	APIKey string `json:"api_key" validate:"required,min=10"`
}

// SetGeminiCredential stores the Gemini API key used by all subsequent runs.
// With a database configured the key survives restarts; otherwise it lives
// for the process lifetime.
func (a *App) SetGeminiCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "api_key is required")
		return
	}
	if err := a.Credentials.SetGeminiAPIKey(r.Context(), req.APIKey); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: store gemini credential")
		a.error(w, http.StatusInternalServerError, "failed to store credential")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "stored"})
}

// GeminiCredentialStatus reports whether a key is configured, without ever
// echoing the key itself.
func (a *App) GeminiCredentialStatus(w http.ResponseWriter, r *http.Request) {
	key, err := a.Credentials.GeminiAPIKey(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: read gemini credential")
		a.error(w, http.StatusInternalServerError, "failed to read credential")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"configured": key != ""})
}
