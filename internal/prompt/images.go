package prompt

import (
	"fmt"
	"strings"

	"listify/internal/domain"
)

// ImageSpec pairs a slot kind with the instruction dispatched for it. Each
// instruction is self-contained: no conversation state is shared between
// image calls, so product context is embedded in every prompt.
type ImageSpec struct {
	Kind        string
	Instruction string
}

// PrimaryImageInstruction is the gating "studio re-render" request. The
// product itself must survive the edit untouched.
func PrimaryImageInstruction(content *domain.ProductContent) string {
	var b strings.Builder
	b.WriteString("Re-render this product photo with professional studio presentation: neutral seamless backdrop, soft key lighting, subtle shadow.")
	b.WriteString(" Preserve the product itself exactly as photographed: shape, colors, texture, and any logos must not change.")
	writeProductContext(&b, content)
	return b.String()
}

// DependentImageSpecs builds the fan-out batch issued once the primary image
// exists. The slice order fixes slot identity; the coupon banner is only
// included when the content carries both a coupon code and phrase.
func DependentImageSpecs(content *domain.ProductContent) []ImageSpec {
	specs := []ImageSpec{
		{domain.SlotKindOverlayText, overlayTextInstruction(content)},
		{domain.SlotKindCleanBG, cleanBackgroundInstruction(content)},
		{domain.SlotKindLifestyle, lifestyleInstruction(content)},
		{domain.SlotKindMockup, mockupInstruction(content)},
	}
	if content != nil && content.Coupon.HasBanner() {
		specs = append(specs, ImageSpec{domain.SlotKindCouponBanner, couponBannerInstruction(content)})
	}
	return specs
}

func overlayTextInstruction(content *domain.ProductContent) string {
	var b strings.Builder
	b.WriteString("Create a promotional version of this product image with short marketing text overlaid.")
	if content != nil {
		if slogan := strings.TrimSpace(content.PromotionalSlogan); slogan != "" {
			fmt.Fprintf(&b, " Use the slogan %q as the headline.", slogan)
		}
		if len(content.ImageTextSuggestions) > 0 {
			fmt.Fprintf(&b, " Candidate phrases: %s.", strings.Join(content.ImageTextSuggestions, "; "))
		}
	}
	b.WriteString(" Keep typography clean and readable; do not cover the product.")
	writeProductContext(&b, content)
	return b.String()
}

func cleanBackgroundInstruction(content *domain.ProductContent) string {
	var b strings.Builder
	b.WriteString("Replace the background with a clean, pure white e-commerce backdrop while keeping the product lighting natural.")
	b.WriteString(" No text, no props, product centered.")
	writeProductContext(&b, content)
	return b.String()
}

func lifestyleInstruction(content *domain.ProductContent) string {
	var b strings.Builder
	b.WriteString("Place this product in a modern lifestyle scene that suits its category, photographed as if in real use.")
	if isApparel(content) {
		b.WriteString(" Show the product worn by a human model in a natural pose.")
	}
	writeProductContext(&b, content)
	return b.String()
}

func mockupInstruction(content *domain.ProductContent) string {
	var b strings.Builder
	b.WriteString("Create a marketing mockup variant of this product image suitable for a storefront banner: generous negative space on one side for copy.")
	writeProductContext(&b, content)
	return b.String()
}

func couponBannerInstruction(content *domain.ProductContent) string {
	var b strings.Builder
	b.WriteString("Design a promotional banner featuring this product together with a discount coupon.")
	fmt.Fprintf(&b, " Coupon code: %q. Supporting phrase: %q.", content.Coupon.Code, content.Coupon.Phrase)
	b.WriteString(" The code must be large and legible.")
	writeProductContext(&b, content)
	return b.String()
}

func writeProductContext(b *strings.Builder, content *domain.ProductContent) {
	if content == nil {
		return
	}
	var parts []string
	if name := strings.TrimSpace(content.Name); name != "" {
		parts = append(parts, fmt.Sprintf("product %q", name))
	}
	if category := strings.TrimSpace(content.Category); category != "" {
		parts = append(parts, fmt.Sprintf("category %q", category))
	}
	if slogan := strings.TrimSpace(content.PromotionalSlogan); slogan != "" {
		parts = append(parts, fmt.Sprintf("slogan %q", slogan))
	}
	if desc := excerpt(content.Description, 160); desc != "" {
		parts = append(parts, fmt.Sprintf("description excerpt %q", desc))
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " Context: %s.", strings.Join(parts, ", "))
	}
}

func excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

var apparelHints = []string{
	"apparel", "clothing", "roupa", "vestuário", "camiseta", "camisa",
	"vestido", "moda", "shirt", "t-shirt", "dress", "jacket", "calça",
}

func isApparel(content *domain.ProductContent) bool {
	if content == nil {
		return false
	}
	category := strings.ToLower(content.Category)
	for _, hint := range apparelHints {
		if strings.Contains(category, hint) {
			return true
		}
	}
	return false
}
