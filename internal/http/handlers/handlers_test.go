package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"listify/internal/domain"
	"listify/internal/genai"
	"listify/internal/imaging"
	"listify/internal/infra"
	"listify/internal/infra/credentials"
	"listify/internal/pipeline"
	"listify/internal/storage"
)

type stubContent struct{}

func (stubContent) GenerateContent(ctx context.Context, req genai.ContentRequest) (string, error) {
	return `{"name":"Caneca","description":"350ml","price":49.9}`, nil
}

type stubImages struct{}

func (stubImages) GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageAsset, error) {
	return &genai.ImageAsset{Data: []byte{0xAA}, MIME: "image/png"}, nil
}

func newTestApp(t *testing.T) (*App, http.Handler) {
	t.Helper()
	logger := infra.Logger(zerolog.New(io.Discard))
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	coordinator := pipeline.NewCoordinator(stubImages{}, store, &logger)
	runner := pipeline.NewRunner(stubContent{}, coordinator, imaging.NewFetcher(nil), 1024, &logger)
	app := NewApp(runner, store, credentials.NewMemoryStore(""), &logger)

	r := chi.NewRouter()
	r.Get("/v1/healthz", app.Health)
	r.Post("/v1/generations", app.Generate)
	r.Get("/v1/generations/{id}", app.RunStatus)
	r.Get("/v1/generations/{id}/archive", app.Archive)
	r.Get("/v1/assets/*", app.Asset)
	r.Put("/v1/credentials/gemini", app.SetGeminiCredential)
	r.Get("/v1/credentials/gemini", app.GeminiCredentialStatus)
	return app, r
}

func multipartBody(t *testing.T, fields map[string]string) (*strings.Reader, string) {
	t.Helper()
	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return strings.NewReader(buf.String()), mw.FormDataContentType()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	_, router := newTestApp(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
}

func TestGenerateAndPoll(t *testing.T) {
	_, router := newTestApp(t)

	body, contentType := multipartBody(t, map[string]string{"title": "Caneca Térmica", "keywords": "inox, 350ml"})
	req := httptest.NewRequest(http.MethodPost, "/v1/generations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit: got %d: %s", w.Code, w.Body.String())
	}
	var submitted map[string]string
	decodeBody(t, w, &submitted)
	id := submitted["id"]
	if id == "" {
		t.Fatalf("missing run id in %v", submitted)
	}

	deadline := time.Now().Add(3 * time.Second)
	var view struct {
		Stage   string                 `json:"stage"`
		Content *domain.ProductContent `json:"content"`
	}
	for time.Now().Before(deadline) {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/generations/"+id, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("poll: got %d", w.Code)
		}
		decodeBody(t, w, &view)
		if view.Stage == string(domain.StageDone) || view.Stage == string(domain.StageError) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if view.Stage != string(domain.StageDone) {
		t.Fatalf("run never finished: stage %q", view.Stage)
	}
	if view.Content == nil || view.Content.Name != "Caneca" {
		t.Fatalf("unexpected content: %+v", view.Content)
	}
}

func TestGenerateRejectsEmptySubmission(t *testing.T) {
	_, router := newTestApp(t)
	body, contentType := multipartBody(t, map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/v1/generations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d", w.Code)
	}
}

func TestGenerateRejectsBadURL(t *testing.T) {
	_, router := newTestApp(t)
	body, contentType := multipartBody(t, map[string]string{"url": "not a url"})
	req := httptest.NewRequest(http.MethodPost, "/v1/generations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d", w.Code)
	}
}

func TestRunStatusUnknownRun(t *testing.T) {
	_, router := newTestApp(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/generations/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d", w.Code)
	}
}

func TestArchiveWithoutImagesConflicts(t *testing.T) {
	_, router := newTestApp(t)

	body, contentType := multipartBody(t, map[string]string{"title": "Caneca"})
	req := httptest.NewRequest(http.MethodPost, "/v1/generations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var submitted map[string]string
	decodeBody(t, w, &submitted)
	id := submitted["id"]

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/generations/"+id, nil))
		var view struct {
			Stage string `json:"stage"`
		}
		decodeBody(t, w, &view)
		if view.Stage == string(domain.StageDone) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/generations/"+id+"/archive", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("text-only run archive: got %d", w.Code)
	}
}

func TestCredentialLifecycle(t *testing.T) {
	_, router := newTestApp(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/credentials/gemini", nil))
	var status map[string]bool
	decodeBody(t, w, &status)
	if status["configured"] {
		t.Fatalf("fresh store should have no key")
	}

	req := httptest.NewRequest(http.MethodPut, "/v1/credentials/gemini", strings.NewReader(`{"api_key":"AIza-test-key"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("store key: got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/credentials/gemini", nil))
	decodeBody(t, w, &status)
	if !status["configured"] {
		t.Fatalf("key should be configured after PUT")
	}
}

func TestCredentialRejectsShortKey(t *testing.T) {
	_, router := newTestApp(t)
	req := httptest.NewRequest(http.MethodPut, "/v1/credentials/gemini", strings.NewReader(`{"api_key":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d", w.Code)
	}
}

func TestAssetNotFound(t *testing.T) {
	_, router := newTestApp(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/assets/generated/none/missing.png", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d", w.Code)
	}
}

func TestAssetServesStoredBytes(t *testing.T) {
	app, router := newTestApp(t)
	key, err := app.Store.Write(context.Background(), "generated/run/primary-01.png", []byte{9, 9, 9})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/assets/"+key, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("got content type %q", got)
	}
	if w.Body.Len() != 3 {
		t.Fatalf("got %d bytes", w.Body.Len())
	}
}
