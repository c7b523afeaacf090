package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ProductContent is the structured output of one content generation run. It
// is created fresh on every run and fully replaces the previous instance;
// nothing here is merged back into the model.
type ProductContent struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Brand            string `json:"brand,omitempty"`
	SKU              string `json:"sku,omitempty"`
	Slug             string `json:"slug,omitempty"`
	MetaTitle        string `json:"metaTitle,omitempty"`
	MetaDescription  string `json:"metaDescription,omitempty"`
	ImageAltText     string `json:"imageAltText,omitempty"`
	Price            float64 `json:"price"`
	PromotionalPrice float64 `json:"promotionalPrice,omitempty"`

	Keywords   []string           `json:"keywords"`
	Variations []ProductVariation `json:"variations"`

	PromotionalSlogan             string   `json:"promotionalSlogan,omitempty"`
	ImageTextSuggestions          []string `json:"imageTextSuggestions"`
	ImageTextPlacementSuggestions string   `json:"imageTextPlacementSuggestions,omitempty"`
	Hashtags                      []string `json:"hashtags"`
	Coupon                        Coupon   `json:"coupon"`
	SocialMediaPost               string   `json:"socialMediaPost,omitempty"`
	VideoScript                   VideoScript `json:"videoScript"`
}

// ProductVariation describes one sellable variant. All fields are optional.
type ProductVariation struct {
	Color string  `json:"color,omitempty"`
	Size  string  `json:"size,omitempty"`
	Stock int     `json:"stock,omitempty"`
	Price float64 `json:"price,omitempty"`
}

type Coupon struct {
	Code   string `json:"code"`
	Phrase string `json:"phrase"`
}

func (c Coupon) IsZero() bool {
	return strings.TrimSpace(c.Code) == "" && strings.TrimSpace(c.Phrase) == ""
}

// HasBanner reports whether there is enough coupon material to render a
// promotional banner: both the code and the phrase must be present.
func (c Coupon) HasBanner() bool {
	return strings.TrimSpace(c.Code) != "" && strings.TrimSpace(c.Phrase) != ""
}

type VideoScript struct {
	Title  string       `json:"title"`
	Scenes []VideoScene `json:"scenes"`
}

type VideoScene struct {
	Scene       string `json:"scene"`
	Description string `json:"description"`
}

// Normalize fills the defaults display code relies on: every optional
// sequence is at least an empty slice, composites are zero-valued rather
// than nil, and derived fields (slug, meta title, stock floors) are
// populated when the model omitted them. Keyword order is preserved and
// duplicates are kept, per the content contract.
func (p *ProductContent) Normalize() {
	if p == nil {
		return
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.Variations == nil {
		p.Variations = []ProductVariation{}
	}
	if p.ImageTextSuggestions == nil {
		p.ImageTextSuggestions = []string{}
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	if p.VideoScript.Scenes == nil {
		p.VideoScript.Scenes = []VideoScene{}
	}
	for i := range p.Variations {
		if p.Variations[i].Stock < 0 {
			p.Variations[i].Stock = 0
		}
	}
	// The upstream contract never enforced promotionalPrice <= price; we
	// clamp instead of rejecting so a sloppy model response stays usable.
	if p.PromotionalPrice > p.Price {
		p.PromotionalPrice = p.Price
	}
	if p.PromotionalPrice < 0 {
		p.PromotionalPrice = 0
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.MetaTitle == "" && strings.TrimSpace(p.Name) != "" {
		p.MetaTitle = cases.Title(language.Und).String(strings.TrimSpace(p.Name))
	}
	if p.ImageAltText == "" {
		p.ImageAltText = strings.TrimSpace(p.Name)
	}
}

// Slugify lowercases the input and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
