package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"credential sentinel", fmt.Errorf("call: %w", ErrCredentialMissing), KindCredential},
		{"policy sentinel", fmt.Errorf("call: %w", ErrPolicyBlocked), KindPolicy},
		{"rate limit sentinel", fmt.Errorf("call: %w", ErrRateLimited), KindRateLimit},
		{"malformed sentinel", fmt.Errorf("call: %w", ErrMalformedResponse), KindMalformed},
		{"api key text", errors.New("status 400: API key not valid"), KindCredential},
		{"unauthorized text", errors.New("401 Unauthorized"), KindCredential},
		{"safety text", errors.New("response blocked for SAFETY"), KindPolicy},
		{"quota text", errors.New("RESOURCE EXHAUSTED: quota exceeded"), KindRateLimit},
		{"too many requests text", errors.New("got Too Many Requests"), KindRateLimit},
		{"anything else", errors.New("connection reset by peer"), KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessageLocales(t *testing.T) {
	en := UserMessage(KindRateLimit, "en-US")
	pt := UserMessage(KindRateLimit, "pt-BR")
	if en == pt {
		t.Fatalf("expected locale-specific messages, both were %q", en)
	}
	if UserMessage(KindRateLimit, "fr") != en {
		t.Fatalf("unknown locale should fall back to english")
	}
	if UserMessage(ErrorKind("unknown"), "en") != UserMessage(KindGeneric, "en") {
		t.Fatalf("unknown kind should fall back to generic message")
	}
}
