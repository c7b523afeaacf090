package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Asset serves one stored image by its storage key.
func (a *App) Asset(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		a.error(w, http.StatusBadRequest, "asset key is required")
		return
	}
	data, err := a.Store.Read(r.Context(), key)
	if err != nil {
		a.error(w, http.StatusNotFound, "asset not found")
		return
	}
	w.Header().Set("Content-Type", mimeForKey(key))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func mimeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}
