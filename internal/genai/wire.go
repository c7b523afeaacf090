package genai

import (
	"fmt"
	"strings"

	"listify/internal/domain"
)

type wireRequest struct {
	Contents         []wireContent         `json:"contents"`
	Tools            []wireTool            `json:"tools,omitempty"`
	GenerationConfig *wireGenerationConfig `json:"generationConfig,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts,omitempty"`
}

type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inlineData,omitempty"`
}

type wireInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type wireTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type wireGenerationConfig struct {
	CandidateCount     int      `json:"candidateCount,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type wireCandidate struct {
	Content      wireContent `json:"content"`
	FinishReason string      `json:"finishReason,omitempty"`
}

type wirePromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type wireResponse struct {
	Candidates     []wireCandidate     `json:"candidates"`
	PromptFeedback *wirePromptFeedback `json:"promptFeedback,omitempty"`
}

// policyError surfaces safety blocks that arrive inside an HTTP 200 body,
// either as a prompt-level block reason or a candidate finish reason.
func (r *wireResponse) policyError() error {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("genai: %w: prompt blocked (%s)", domain.ErrPolicyBlocked, r.PromptFeedback.BlockReason)
	}
	for _, cand := range r.Candidates {
		switch strings.ToUpper(cand.FinishReason) {
		case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST":
			return fmt.Errorf("genai: %w: candidate blocked (%s)", domain.ErrPolicyBlocked, cand.FinishReason)
		}
	}
	return nil
}

func (r *wireResponse) joinedText() string {
	var b strings.Builder
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				b.WriteString(part.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
