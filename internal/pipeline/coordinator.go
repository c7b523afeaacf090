// Package pipeline owns the generation run sequencing: the content stage,
// the image fan-out, and the stage bookkeeping the UI polls.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"listify/internal/domain"
	"listify/internal/genai"
	"listify/internal/imaging"
	"listify/internal/infra"
	"listify/internal/prompt"
	"listify/internal/storage"
)

// ImageGenerator is the single image capability the coordinator fans out
// over.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageAsset, error)
}

// Coordinator turns one ProductContent plus an optional source photo into a
// best-effort set of marketing images.
type Coordinator struct {
	images ImageGenerator
	store  *storage.FileStore
	logger *infra.Logger
}

func NewCoordinator(images ImageGenerator, store *storage.FileStore, logger *infra.Logger) *Coordinator {
	return &Coordinator{images: images, store: store, logger: logger}
}

// GenerateImages runs the staged fan-out:
//
//  1. gate: without a source photo there is nothing to do;
//  2. primary studio re-render, sequential and gating;
//  3. dependent style/mockup/banner requests, concurrent, all-settle.
//
// A failed dependent slot degrades to SlotFailed in place; only a primary
// failure stops the run's image work, and even that reports partial success
// rather than an error.
func (c *Coordinator) GenerateImages(ctx context.Context, runID string, content *domain.ProductContent, source *imaging.File) *domain.ImageSet {
	set := &domain.ImageSet{}
	if source.IsZero() {
		return set
	}

	set.Primary = domain.ImageSlot{Kind: domain.SlotKindPrimary, Status: domain.SlotPending}
	primary, err := c.images.GenerateImage(ctx, genai.ImageRequest{
		Instruction: prompt.PrimaryImageInstruction(content),
		BaseImage:   source,
	})
	if err != nil || primary == nil {
		c.logger.Warn().Err(err).Str("run_id", runID).Msg("pipeline: primary image failed, skipping dependent stage")
		set.Primary.Status = domain.SlotFailed
		return set
	}
	key, err := c.persist(ctx, runID, domain.SlotKindPrimary, 0, primary)
	if err != nil {
		c.logger.Error().Err(err).Str("run_id", runID).Msg("pipeline: persist primary image failed")
		set.Primary.Status = domain.SlotFailed
		return set
	}
	set.Primary.Status = domain.SlotSucceeded
	set.Primary.StorageKey = key
	set.Primary.MIME = primary.MIME

	// Every dependent request conditions on the enhanced primary image, not
	// the raw upload.
	base := &imaging.File{Name: "primary" + extensionForMIME(primary.MIME), MIME: primary.MIME, Data: primary.Data}

	specs := prompt.DependentImageSpecs(content)
	slots := make([]domain.ImageSlot, len(specs))
	for i, spec := range specs {
		slots[i] = domain.ImageSlot{Index: i, Kind: spec.Kind, Status: domain.SlotPending}
	}

	var g errgroup.Group
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			asset, err := c.images.GenerateImage(ctx, genai.ImageRequest{
				Instruction: spec.Instruction,
				BaseImage:   base,
			})
			if err != nil || asset == nil {
				c.logger.Warn().Err(err).
					Str("run_id", runID).
					Str("kind", spec.Kind).
					Int("slot", i).
					Msg("pipeline: dependent image failed")
				slots[i].Status = domain.SlotFailed
				return nil
			}
			key, err := c.persist(ctx, runID, spec.Kind, i, asset)
			if err != nil {
				c.logger.Error().Err(err).Str("run_id", runID).Str("kind", spec.Kind).Msg("pipeline: persist image failed")
				slots[i].Status = domain.SlotFailed
				return nil
			}
			slots[i].Status = domain.SlotSucceeded
			slots[i].StorageKey = key
			slots[i].MIME = asset.MIME
			return nil
		})
	}
	// Goroutines never return errors; Wait is purely a join so one failed
	// slot cannot abort its siblings.
	_ = g.Wait()

	set.Slots = slots
	return set
}

func (c *Coordinator) persist(ctx context.Context, runID, kind string, index int, asset *genai.ImageAsset) (string, error) {
	key := fmt.Sprintf("generated/%s/%s-%02d%s", runID, kind, index+1, extensionForMIME(asset.MIME))
	return c.store.Write(ctx, key, asset.Data)
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
