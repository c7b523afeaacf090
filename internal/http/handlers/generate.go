package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"listify/internal/imaging"
	"listify/internal/middleware"
	"listify/internal/pipeline"
)

// maxUploadBytes caps the product photo size, matching the URL fetch cap.
const maxUploadBytes = 20 << 20

type generateRequest struct {
	Title    string   `validate:"omitempty,max=200"`
	URL      string   `validate:"omitempty,url"`
	Keywords []string `validate:"omitempty,max=20,dive,min=1,max=60"`
}

// Generate accepts a multipart submission (photo, reference URL, or bare
// title) and starts an asynchronous run. The response carries the run ID the
// client polls.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req := generateRequest{
		Title:    strings.TrimSpace(r.FormValue("title")),
		URL:      strings.TrimSpace(r.FormValue("url")),
		Keywords: splitKeywords(r.FormValue("keywords")),
	}
	if err := a.validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid submission: "+err.Error())
		return
	}

	image, err := readUpload(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == "" && req.URL == "" && image.IsZero() {
		a.error(w, http.StatusBadRequest, "provide a product photo, a reference url, or a title")
		return
	}

	id, err := a.Runner.Submit(pipeline.Submission{
		Title:    req.Title,
		URL:      req.URL,
		Keywords: req.Keywords,
		Locale:   middleware.LocaleFromContext(r.Context()),
		Image:    image,
	})
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"id": id})
}

// readUpload extracts the optional product photo from the "image" form part.
func readUpload(r *http.Request) (*imaging.File, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, errors.New("failed to read image upload")
	}
	if len(data) > maxUploadBytes {
		return nil, errors.New("image upload exceeds the 20MB limit")
	}
	mime := detectMIME(header, data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, errors.New("uploaded file is not an image")
	}
	return &imaging.File{Name: header.Filename, MIME: mime, Data: data}, nil
}

func detectMIME(header *multipart.FileHeader, data []byte) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(data)
}

func splitKeywords(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
