package prompt

import (
	"fmt"
	"strings"
)

// Mode selects which kind of input the user supplied.
type Mode string

const (
	ModeImage Mode = "image"
	ModeText  Mode = "text"
	ModeURL   Mode = "url"
)

// ContentInput carries the user-supplied material for one content request.
type ContentInput struct {
	Mode     Mode
	Title    string
	URL      string
	Keywords []string
	Locale   string
}

// BuildContentInstruction produces the natural-language instruction block
// for the content model. Field names stay in English to match the schema;
// the generated copy itself is requested in the target language.
func BuildContentInstruction(in ContentInput) string {
	fields := ContentSchema()
	var b strings.Builder

	b.WriteString("You are an e-commerce listing specialist. ")
	switch in.Mode {
	case ModeImage:
		b.WriteString("Analyze the attached product photo and produce a complete product listing for it.")
	case ModeURL:
		fmt.Fprintf(&b, "Produce a complete product listing for the product referenced at %s.", strings.TrimSpace(in.URL))
	default:
		fmt.Fprintf(&b, "Produce a complete product listing for a product titled %q.", strings.TrimSpace(in.Title))
	}
	b.WriteString("\n")

	if title := strings.TrimSpace(in.Title); title != "" && in.Mode != ModeText {
		fmt.Fprintf(&b, "The seller calls the product %q; keep the name consistent with that.\n", title)
	}
	if kws := cleanKeywords(in.Keywords); len(kws) > 0 {
		fmt.Fprintf(&b, "Weave these keywords into the copy: %s.\n", strings.Join(kws, ", "))
	}

	fmt.Fprintf(&b, "Write all customer-facing text in %s. Prices are in BRL.\n", languageName(in.Locale))
	b.WriteString("Tone: persuasive but concise, no hype words, no invented certifications.\n")
	b.WriteString("Respond strictly with a single JSON object matching this schema, no prose around it:\n")
	b.WriteString(renderSchemaShape(fields))
	b.WriteString("\nField constraints:\n")
	b.WriteString(renderFieldGuide(fields))
	return b.String()
}

func cleanKeywords(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func languageName(locale string) string {
	switch {
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), "pt"):
		return "Brazilian Portuguese"
	default:
		return "English"
	}
}
