// Package parser extracts structured product content from raw model output.
// Retrying belongs to the transport layer; a response that decoded here as
// structurally invalid is terminal for the run.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"listify/internal/domain"
)

// Parse handles the three observed response shapes: a bare JSON object, JSON
// wrapped in a fenced code block, and malformed text. The first two yield a
// normalized ProductContent; the third fails with ErrMalformedResponse and
// never returns a partial object.
func Parse(raw string) (*domain.ProductContent, error) {
	fragment := extractJSONObject(raw)
	if fragment == "" {
		return nil, fmt.Errorf("%w: no JSON object found in %d bytes of output", domain.ErrMalformedResponse, len(raw))
	}

	var content domain.ProductContent
	if err := json.Unmarshal([]byte(fragment), &content); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(content.Name) == "" && strings.TrimSpace(content.Description) == "" {
		return nil, fmt.Errorf("%w: decoded object carries no product fields", domain.ErrMalformedResponse)
	}

	content.Normalize()
	return &content, nil
}

// extractJSONObject locates the JSON payload inside the raw text. Fenced
// blocks are found by scanning for matching ``` delimiters rather than
// assuming the fence spans the whole string; outside a fence the first
// balanced {...} group wins.
func extractJSONObject(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if fenced := insideFence(text); fenced != "" {
		text = fenced
	}
	return balancedObject(text)
}

func insideFence(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	rest := text[start+3:]
	// Skip the language tag on the opening fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || isFenceTag(tag) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

func isFenceTag(tag string) bool {
	switch strings.ToLower(tag) {
	case "json", "javascript", "js":
		return true
	default:
		return false
	}
}

// balancedObject returns the first top-level {...} group, respecting string
// literals and escapes.
func balancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
