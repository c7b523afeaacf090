package domain

// SlotStatus tags one position in a batch of image requests. Callers must
// never infer status from slice length; a failed generation keeps its slot.
type SlotStatus string

const (
	SlotPending   SlotStatus = "pending"
	SlotSucceeded SlotStatus = "succeeded"
	SlotFailed    SlotStatus = "failed"
)

// Slot kinds for the dependent fan-out. The primary image is tracked
// separately because every dependent request is conditioned on it.
const (
	SlotKindPrimary      = "primary"
	SlotKindOverlayText  = "overlay-text"
	SlotKindCleanBG      = "clean-background"
	SlotKindLifestyle    = "lifestyle"
	SlotKindMockup       = "mockup"
	SlotKindCouponBanner = "coupon-banner"
)

// ImageSlot is one generated (or attempted) image.
type ImageSlot struct {
	Index      int        `json:"index"`
	Kind       string     `json:"kind"`
	Status     SlotStatus `json:"status"`
	StorageKey string     `json:"storage_key,omitempty"`
	MIME       string     `json:"mime,omitempty"`
}

// ImageSet aggregates one run's image generation results. Slots holds the
// dependent fan-out in dispatch order with a fixed length; absence of a
// usable image at a position is expressed through the slot status, never by
// shrinking the slice.
type ImageSet struct {
	Primary ImageSlot   `json:"primary"`
	Slots   []ImageSlot `json:"slots"`
}

// Empty reports whether no image work was attempted at all (the text-only
// submission path).
func (s *ImageSet) Empty() bool {
	return s == nil || (s.Primary.Status == "" && len(s.Slots) == 0)
}

// PrimaryFailed reports whether the gating image could not be produced.
func (s *ImageSet) PrimaryFailed() bool {
	return s != nil && s.Primary.Status == SlotFailed
}
