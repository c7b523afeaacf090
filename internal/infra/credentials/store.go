// Package credentials is the flat service-to-secret mapping read by the
// generation client before every request.
package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"

	"listify/internal/infra"
	"listify/internal/sqlinline"
)

const (
	ServiceGemini = "gemini"
)

// Store reads and writes service secrets.
type Store interface {
	GeminiAPIKey(ctx context.Context) (string, error)
	SetGeminiAPIKey(ctx context.Context, key string) error
}

// SQLStore persists credentials in Postgres.
type SQLStore struct {
	sql infra.SQLExecutor
}

func NewSQLStore(sql infra.SQLExecutor) *SQLStore {
	return &SQLStore{sql: sql}
}

func (s *SQLStore) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.secret(ctx, ServiceGemini)
}

func (s *SQLStore) secret(ctx context.Context, service string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectServiceCredential, service)
	var secret string
	if err := row.Scan(&secret); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(secret), nil
}

func (s *SQLStore) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertServiceCredential, ServiceGemini, key)
	return err
}

// MemoryStore keeps credentials in process memory, seeded from the
// environment. Used when no database is configured; a key set through the
// API lives until the process exits, matching the session-only persistence
// model.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func NewMemoryStore(geminiKey string) *MemoryStore {
	secrets := map[string]string{}
	if key := strings.TrimSpace(geminiKey); key != "" {
		secrets[ServiceGemini] = key
	}
	return &MemoryStore{secrets: secrets}
}

func (m *MemoryStore) GeminiAPIKey(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.secrets[ServiceGemini], nil
}

func (m *MemoryStore) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[ServiceGemini] = key
	return nil
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
