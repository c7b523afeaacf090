// Package prompt builds the model-facing instructions for content and image
// generation. The content schema declared here is the single source of truth
// for the fields the response parser requires or defaults.
package prompt

import (
	"fmt"
	"strings"
)

// Field documents one field the content model must return.
type Field struct {
	Name        string
	Type        string
	Description string
}

// ContentSchema lists every field of the structured product content, in the
// order they should appear in the response.
func ContentSchema() []Field {
	return []Field{
		{"name", "string", "short, sellable product name"},
		{"description", "string", "persuasive e-commerce description, 2-4 paragraphs"},
		{"category", "string", "single product category"},
		{"brand", "string", "brand name if identifiable, else empty"},
		{"sku", "string", "suggested SKU code"},
		{"slug", "string", "url-friendly slug derived from the name"},
		{"metaTitle", "string", "SEO title, at most 60 characters"},
		{"metaDescription", "string", "SEO description, at most 160 characters"},
		{"imageAltText", "string", "alt text describing the product photo"},
		{"price", "number", "suggested retail price in BRL, required"},
		{"promotionalPrice", "number", "optional promotional price, must not exceed price"},
		{"keywords", "string[]", "search keywords, most relevant first"},
		{"variations", "{color?:string,size?:string,stock?:integer,price?:number}[]", "sellable variants; empty array when the product has none"},
		{"promotionalSlogan", "string", "short slogan for banners"},
		{"imageTextSuggestions", "string[]", "short phrases suitable for overlaying on images"},
		{"imageTextPlacementSuggestions", "string", "numbered steps describing where to place overlay text"},
		{"hashtags", "string[]", "social media hashtags"},
		{"coupon", "{code:string,phrase:string}", "optional discount coupon; empty strings when none applies"},
		{"socialMediaPost", "string", "ready-to-publish social media caption"},
		{"videoScript", "{title:string,scenes:[{scene:string,description:string}]}", "short promotional video script"},
	}
}

// renderSchemaShape emits the compact JSON shape included in the instruction
// so the model knows the exact structure expected back.
func renderSchemaShape(fields []Field) string {
	var b strings.Builder
	b.WriteString("{")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%q:%s", f.Name, f.Type)
	}
	b.WriteString("}")
	return b.String()
}

// renderFieldGuide emits one line per field with its constraint, appended to
// the instruction below the shape.
func renderFieldGuide(fields []Field) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", f.Name, f.Type, f.Description))
	}
	return strings.Join(lines, "\n")
}
