package handlers

import (
	"fmt"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"listify/internal/domain"
	"listify/pkg/zip"
)

type slotView struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

type runView struct {
	ID      string                 `json:"id"`
	Stage   string                 `json:"stage"`
	Content *domain.ProductContent `json:"content,omitempty"`
	Images  *imagesView            `json:"images,omitempty"`
	Error   *errorView             `json:"error,omitempty"`
}

type imagesView struct {
	Primary slotView   `json:"primary"`
	Slots   []slotView `json:"slots"`
}

type errorView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RunStatus returns the poll view of one run: current stage, whatever content
// and images exist so far, and the user-facing error when the run failed.
func (a *App) RunStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.Runner.Snapshot(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusNotFound, "run not found")
		return
	}

	view := runView{ID: snap.ID, Stage: string(snap.Stage), Content: snap.Content}
	if !snap.Images.Empty() {
		view.Images = imagesToView(snap.Images)
	}
	if snap.ErrorKind != domain.KindNone {
		view.Error = &errorView{Kind: string(snap.ErrorKind), Message: snap.ErrorMessage}
	}
	a.json(w, http.StatusOK, view)
}

// Archive bundles every succeeded image of a finished run into one zip
// download.
func (a *App) Archive(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.Runner.Snapshot(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusNotFound, "run not found")
		return
	}
	if snap.Stage != domain.StageDone || snap.Images.Empty() {
		a.error(w, http.StatusConflict, "run has no finished images to download")
		return
	}

	var assets []zip.Asset
	for _, slot := range append([]domain.ImageSlot{snap.Images.Primary}, snap.Images.Slots...) {
		if slot.Status != domain.SlotSucceeded || slot.StorageKey == "" {
			continue
		}
		data, err := a.Store.Read(r.Context(), slot.StorageKey)
		if err != nil {
			a.Logger.Error().Err(err).Str("key", slot.StorageKey).Msg("handlers: read asset for archive")
			continue
		}
		assets = append(assets, zip.Asset{Filename: path.Base(slot.StorageKey), MIME: slot.MIME, Data: data})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusConflict, "run has no finished images to download")
		return
	}

	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "listing-"+snap.ID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func imagesToView(set *domain.ImageSet) *imagesView {
	view := &imagesView{Primary: slotToView(set.Primary)}
	view.Slots = make([]slotView, 0, len(set.Slots))
	for _, slot := range set.Slots {
		view.Slots = append(view.Slots, slotToView(slot))
	}
	return view
}

func slotToView(slot domain.ImageSlot) slotView {
	view := slotView{Index: slot.Index, Kind: slot.Kind, Status: string(slot.Status)}
	if slot.Status == domain.SlotSucceeded && slot.StorageKey != "" {
		view.URL = "/v1/assets/" + slot.StorageKey
	}
	return view
}
