package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrCredentialMissing = errors.New("credential missing or invalid")
	ErrPolicyBlocked     = errors.New("blocked by content policy")
	ErrRateLimited       = errors.New("rate limited")
	ErrMalformedResponse = errors.New("invalid response format")
	ErrProviderFailure   = errors.New("provider failure")
)

// ErrorKind is the user-facing classification of a fatal run failure.
// Per-image-slot failures are absorbed by the coordinator and never reach
// this taxonomy.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindCredential ErrorKind = "credential"
	KindPolicy     ErrorKind = "policy"
	KindRateLimit  ErrorKind = "rate_limit"
	KindMalformed  ErrorKind = "malformed_response"
	KindGeneric    ErrorKind = "generic"
)

// ClassifyError maps a pipeline failure onto the taxonomy. Sentinel matches
// win; otherwise the error text is pattern-matched for provider signals the
// transport could not tag (quota wording, safety blocks).
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.Is(err, ErrCredentialMissing):
		return KindCredential
	case errors.Is(err, ErrPolicyBlocked):
		return KindPolicy
	case errors.Is(err, ErrRateLimited):
		return KindRateLimit
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "permission denied"):
		return KindCredential
	case strings.Contains(msg, "safety") || strings.Contains(msg, "blocked") || strings.Contains(msg, "prohibited"):
		return KindPolicy
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "too many requests"):
		return KindRateLimit
	default:
		return KindGeneric
	}
}

var userMessages = map[string]map[ErrorKind]string{
	"en": {
		KindCredential: "The AI service rejected your credentials. Configure a valid API key and try again.",
		KindPolicy:     "The request was blocked by the provider's content policy. Adjust the product photo or title and try again.",
		KindRateLimit:  "Too many requests in a short window. Wait a moment before generating again.",
		KindMalformed:  "The AI service returned an unreadable response. This is usually transient; try again.",
		KindGeneric:    "Generation failed due to a temporary instability. Try again later.",
	},
	"pt": {
		KindCredential: "O serviço de IA rejeitou suas credenciais. Configure uma chave de API válida e tente novamente.",
		KindPolicy:     "A solicitação foi bloqueada pela política de conteúdo do provedor. Ajuste a foto ou o título do produto e tente novamente.",
		KindRateLimit:  "Muitas solicitações em pouco tempo. Aguarde um momento antes de gerar novamente.",
		KindMalformed:  "O serviço de IA retornou uma resposta ilegível. Isso costuma ser passageiro; tente novamente.",
		KindGeneric:    "A geração falhou por uma instabilidade temporária. Tente novamente mais tarde.",
	},
}

// UserMessage renders the locale-aware message for a failure kind. Unknown
// locales fall back to English.
func UserMessage(kind ErrorKind, locale string) string {
	msgs, ok := userMessages[normalizeLocale(locale)]
	if !ok {
		msgs = userMessages["en"]
	}
	if msg, ok := msgs[kind]; ok {
		return msg
	}
	return msgs[KindGeneric]
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(locale, "pt") {
		return "pt"
	}
	return "en"
}
